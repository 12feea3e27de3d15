package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

const referencePrefix = "PRODUCT"

// NextReference returns the reference following the highest numeric suffix
// among the products, e.g. PRODUCT-026. References without a number count as 0.
func NextReference(products []Product) string {
	var highest int
	for _, p := range products {
		_, suffix, found := strings.Cut(p.Reference, "-")
		if !found {
			continue
		}
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", referencePrefix, highest+1)
}
