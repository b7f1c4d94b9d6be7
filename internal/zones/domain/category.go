package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCategory case-folds category and joins its words with "_", so
// "Pizza  Restaurant" and "pizza restaurant" share a key.
func NormalizeCategory(category string) string {
	folded := cases.Fold().String(norm.NFKC.String(category))
	return strings.Join(strings.Fields(folded), "_")
}

// ZoneKey combines a spatial key and a category into the exclusivity key.
func ZoneKey(geohash, category string) string {
	return geohash + "_" + NormalizeCategory(category)
}
