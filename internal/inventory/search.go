package inventory

import (
	"regexp"

	"github.com/org/adlist/pkg/models"
)

// searchProducts applies a case-insensitive substring/regex match across the
// four searchable fields. A record matches if any field matches. An invalid
// pattern is treated as a literal string.
func searchProducts(items []*models.PharmacyProduct, query string) []*models.PharmacyProduct {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}

	var matches []*models.PharmacyProduct
	for _, item := range items {
		if re.MatchString(item.ProductName) ||
			re.MatchString(item.Manufacturer) ||
			re.MatchString(item.ProductCode) ||
			re.MatchString(item.NafdacNumber) {
			matches = append(matches, item)
		}
	}
	return matches
}
