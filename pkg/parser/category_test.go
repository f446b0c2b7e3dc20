package parser

import (
	"testing"

	"github.com/ArionMiles/smsexpensor/pkg/api"
)

var testCatalog = []api.Category{
	{ID: "cat-groceries", Name: "Groceries"},
	{ID: "cat-fuel", Name: "Fuel"},
	{ID: "cat-food", Name: "Food"},
	{ID: "cat-shopping", Name: "Shopping"},
	{ID: "cat-misc", Name: "Misc"},
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		catalog []api.Category
		want    string
	}{
		{"fuel keyword", "rs 2,500 debited at reliance petrol pump", testCatalog, "cat-fuel"},
		{"food keyword", "rs 150 paid to dominos pizza via paytm", testCatalog, "cat-food"},
		{"shopping keyword", "upi payment of rs 89 made to amazon pay for shopping", testCatalog, "cat-shopping"},
		{"upper case text", "RS 150 PAID TO DOMINOS", testCatalog, "cat-food"},
		{"earlier rule wins", "diesel and pizza at the highway cafe", testCatalog, "cat-fuel"},
		{"rule target missing continues", "petrol pump cafe", []api.Category{{ID: "f", Name: "Food"}, {ID: "m", Name: "Misc"}}, "f"},
		{"no rule falls back to misc", "rs 10 paid to someone", testCatalog, "cat-misc"},
		{"no misc falls back to first", "rs 10 paid to someone", []api.Category{{ID: "a", Name: "Travel"}, {ID: "b", Name: "Gifts"}}, "a"},
		{"matching rule without catalog entry falls back to first", "petrol", []api.Category{{ID: "a", Name: "Travel"}}, "a"},
		{"case insensitive catalog names", "petrol", []api.Category{{ID: "x", Name: " fuel "}}, "x"},
		{"empty catalog", "petrol", nil, ""},
	}

	c := NewCategorizer(nil, "")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Categorize(tc.text, tc.catalog)
			if got != tc.want {
				t.Errorf("category: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCategorize_CustomRules(t *testing.T) {
	rules := []CategoryRule{
		{Category: "Coffee", Keywords: []string{"STARBUCKS", "chai"}},
	}
	catalog := []api.Category{
		{ID: "other", Name: "Other"},
		{ID: "coffee", Name: "Coffee"},
	}

	c := NewCategorizer(rules, "Other")

	if got := c.Categorize("Rs 300 spent at Starbucks", catalog); got != "coffee" {
		t.Errorf("custom rule: got %q, want %q", got, "coffee")
	}
	// Default rules are replaced, not extended.
	if got := c.Categorize("Rs 300 spent on petrol", catalog); got != "other" {
		t.Errorf("custom default: got %q, want %q", got, "other")
	}
}

func TestCategoryName(t *testing.T) {
	if got := CategoryName(testCatalog, "cat-food"); got != "Food" {
		t.Errorf("name: got %q, want %q", got, "Food")
	}
	if got := CategoryName(testCatalog, "missing"); got != "" {
		t.Errorf("missing name: got %q, want empty", got)
	}
}
