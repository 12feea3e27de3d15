package catalog

import (
	"fmt"
	"strings"
)

// NoResultsMessage describes the active filters of a query that matched nothing.
// categoryName is used for the category filter; empty means "selected".
func NoResultsMessage(f Filters, categoryName string) string {
	var active []string

	if q := strings.TrimSpace(f.SearchQuery); q != "" {
		active = append(active, fmt.Sprintf(`keyword "%s"`, q))
	}
	if f.CategoryID != nil {
		if categoryName == "" {
			categoryName = "selected"
		}
		active = append(active, fmt.Sprintf(`category "%s"`, categoryName))
	}
	if f.FavoritesOnly {
		active = append(active, "favorite products")
	}
	hasMin := f.MinPrice != nil && !f.MinPrice.IsZero()
	hasMax := f.MaxPrice != nil && !f.MaxPrice.IsZero()
	if hasMin || hasMax {
		lo, hi, _ := f.PriceRange()
		upper := "∞"
		if hi != nil {
			upper = hi.String()
		}
		active = append(active, fmt.Sprintf("price between %s and %s DT", lo.String(), upper))
	}
	if f.IsClothing != nil {
		if *f.IsClothing {
			active = append(active, "clothing")
		} else {
			active = append(active, "non-clothing")
		}
	}

	switch len(active) {
	case 0:
		return "No products available"
	case 1:
		return "No products found for " + active[0]
	default:
		last := len(active) - 1
		return fmt.Sprintf("No products found for %s and %s", strings.Join(active[:last], ", "), active[last])
	}
}
