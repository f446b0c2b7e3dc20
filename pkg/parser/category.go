package parser

import (
	"strings"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

// Categorizer maps transaction text to a category from a caller-supplied catalog.
type Categorizer struct {
	Rules []CategoryRule
	// Default is the category name used when no rule resolves.
	Default string
}

// NewCategorizer returns a categorizer with the given rules, or the default rules when rules is nil.
func NewCategorizer(rules []CategoryRule, defaultCategory string) *Categorizer {
	if rules == nil {
		rules = DefaultCategoryRules
	}
	if defaultCategory == "" {
		defaultCategory = DefaultCategoryName
	}

	lowered := make([]CategoryRule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			keywords = append(keywords, lower(kw))
		}
		lowered = append(lowered, CategoryRule{Category: rule.Category, Keywords: keywords})
	}

	return &Categorizer{Rules: lowered, Default: defaultCategory}
}

// Categorize returns the ID of the catalog category best matching text.
//
// Rules are evaluated in order and the first matching rule whose category exists
// in the catalog wins. Otherwise the default category is used, then the first
// catalog entry. An empty catalog yields an empty ID.
func (c *Categorizer) Categorize(text string, catalog []api.Category) string {
	text = lower(text)

	for _, rule := range c.Rules {
		if !containsAny(text, rule.Keywords) {
			continue
		}
		if cat, ok := FindCategory(catalog, rule.Category); ok {
			return cat.ID
		}
	}

	if cat, ok := FindCategory(catalog, c.Default); ok {
		return cat.ID
	}
	if len(catalog) > 0 {
		return catalog[0].ID
	}
	return ""
}

// FindCategory looks up a category by name, ignoring case and surrounding space.
func FindCategory(catalog []api.Category, name string) (api.Category, bool) {
	name = strings.TrimSpace(name)
	for _, cat := range catalog {
		if strings.EqualFold(strings.TrimSpace(cat.Name), name) {
			return cat, true
		}
	}
	return api.Category{}, false
}

// CategoryName returns the name of the category with the given ID.
func CategoryName(catalog []api.Category, id string) string {
	for _, cat := range catalog {
		if cat.ID == id {
			return cat.Name
		}
	}
	return ""
}
