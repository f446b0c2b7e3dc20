package catalog

import (
	"fmt"
	"strings"

	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
)

// RuleSet is the content of a category rules file.
type RuleSet struct {
	// DefaultCategory is the catalog name used when no rule matches.
	DefaultCategory string `koanf:"default_category"`
	// Rules are evaluated in file order.
	Rules []parser.CategoryRule `koanf:"rules"`
}

// LoadRules reads a JSON or YAML rules file:
//
//	default_category: Misc
//	rules:
//	  - category: Fuel
//	    keywords: [petrol, diesel]
func LoadRules(path string) (RuleSet, error) {
	k, err := loadKoanf(path)
	if err != nil {
		return RuleSet{}, err
	}

	var rs RuleSet
	if err := k.Unmarshal("", &rs); err != nil {
		return RuleSet{}, fmt.Errorf("unmarshaling rules %s: %w", path, err)
	}

	for i, rule := range rs.Rules {
		if strings.TrimSpace(rule.Category) == "" {
			return RuleSet{}, fmt.Errorf("rules %s: rule %d has no category", path, i)
		}
		if len(rule.Keywords) == 0 {
			return RuleSet{}, fmt.Errorf("rules %s: rule %d (%s) has no keywords", path, i, rule.Category)
		}
	}
	return rs, nil
}

// Default builds a catalog with one entry per rule category plus the default
// category. IDs are the lower-cased names with spaces replaced by dashes.
func Default(rs RuleSet) Static {
	rules := rs.Rules
	if rules == nil {
		rules = parser.DefaultCategoryRules
	}
	fallback := rs.DefaultCategory
	if fallback == "" {
		fallback = parser.DefaultCategoryName
	}

	var out Static
	add := func(name string) {
		if _, ok := parser.FindCategory(out, name); ok {
			return
		}
		id := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
		out = append(out, api.Category{ID: id, Name: strings.TrimSpace(name)})
	}
	for _, rule := range rules {
		add(rule.Category)
	}
	add(fallback)
	return out
}
