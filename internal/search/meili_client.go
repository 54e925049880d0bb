// Package search wraps Meilisearch for candidate retrieval.
package search

import (
	"fmt"
	"strings"
)

// FilterEquals builds `attr = "value"`; values are quoted so postcodes
// with spaces or leading zeros survive.
func FilterEquals(attr, value string) string {
	return fmt.Sprintf("%s = %q", attr, value)
}

// FilterPostcode restricts candidates to one postal code.
func FilterPostcode(pc string) string {
	return FilterEquals("postcode", strings.ToUpper(strings.Join(strings.Fields(pc), " ")))
}

// FilterCity restricts candidates to a normalized city name.
func FilterCity(city string) string {
	return FilterEquals("city", city)
}

// FilterAnyKey matches documents sharing at least one near-dupe key.
func FilterAnyKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = FilterEquals("keys", k)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// FilterAnd joins the non-empty filters with AND.
func FilterAnd(filters ...string) string {
	var parts []string
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " AND ")
}

// FilterExcludeID drops one record, typically the query record itself.
func FilterExcludeID(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("id != %q", id)
}
