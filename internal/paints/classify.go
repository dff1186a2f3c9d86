package paints

import "strings"

// NoSetCategory names paints that carry neither a category nor a set.
const NoSetCategory = "No set"

// categoryKeywords are matched as whole words of a paint's set, in this order.
var categoryKeywords = []string{
	"Effects",
	"Effect",
	"Acrylics",
	"Acrylic",
	"Base",
	"Contrast",
	"Layer",
	"Shade",
	"Dry",
	"Technical",
	"Air",
	"Spray",
	"Sprays",
	"Metallics",
	"Metallic",
	"Metal",
	"Transparent",
}

// Classification is the category data derived from a set name.
type Classification struct {
	Category      string
	IsMetallic    bool
	IsTransparent bool
}

// Classify derives category flags from the words of set. The first keyword
// match names the category; metal words force "Metallics", spray words then
// force "Spray" and acrylic words then force "Acrylics". A set with no
// keyword is its own category.
func Classify(set string) Classification {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(set)) {
		words[w] = struct{}{}
	}
	matched := make(map[string]bool)
	first := ""
	for _, kw := range categoryKeywords {
		if _, ok := words[strings.ToLower(kw)]; ok {
			matched[kw] = true
			if first == "" {
				first = kw
			}
		}
	}
	if first == "" {
		return Classification{Category: set}
	}

	out := Classification{Category: first}
	if matched["Metallics"] || matched["Metallic"] || matched["Metal"] {
		out.Category = "Metallics"
		out.IsMetallic = true
	}
	if matched["Spray"] || matched["Sprays"] {
		out.Category = "Spray"
	}
	if matched["Acrylics"] || matched["Acrylic"] {
		out.Category = "Acrylics"
	}
	out.IsTransparent = matched["Transparent"]
	return out
}

func categoryName(category *string) string {
	if category == nil || *category == "" {
		return NoSetCategory
	}
	return *category
}
