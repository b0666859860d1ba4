package products

import (
	"fmt"
	"strings"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

func normalizeSKU(sku string) string {
	return strings.TrimSpace(sku)
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if p.SKU == "" {
		return fmt.Errorf("%w: sku is required", shared.ErrValidation)
	}
	if p.CostPrice.IsNegative() || p.SalePrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	if p.StockMax != nil && *p.StockMax < p.StockMin {
		return fmt.Errorf("%w: stock_max must not be below stock_min", shared.ErrValidation)
	}
	return nil
}
