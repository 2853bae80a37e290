package inventory

import (
	"github.com/medchain/inventory-api/internal/model"
)

// lowStockCeiling is inclusive: a quantity of exactly 50 is still low.
const lowStockCeiling = 50

// ClassifyStock maps a quantity to its stock level. Total and pure;
// callers must never trust a stored status over this function.
func ClassifyStock(quantity int) model.StockStatus {
	switch {
	case quantity <= 0:
		return model.StockStatusOut
	case quantity <= lowStockCeiling:
		return model.StockStatusLow
	default:
		return model.StockStatusIn
	}
}
