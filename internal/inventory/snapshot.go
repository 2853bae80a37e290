package inventory

import (
	"sort"
	"strings"

	"github.com/medchain/inventory-api/internal/model"
)

// Snapshot is the read-only view handed to the API layer. Medicines are
// deep copies; mutating them never touches store state.
type Snapshot struct {
	Medicines   []*model.Medicine `json:"medicines"`
	Initialized bool              `json:"initialized"`
	Loading     bool              `json:"loading"`
	Err         string            `json:"error,omitempty"`
}

// Filter narrows and orders a record list for the dashboard table.
// The input slice is not modified.
func Filter(medicines []*model.Medicine, filters *model.InventoryFilters) []*model.Medicine {
	out := make([]*model.Medicine, 0, len(medicines))
	for _, m := range medicines {
		if filters.SearchTerm != "" && !matches(m, filters.SearchTerm) {
			continue
		}
		if filters.StockStatus != "" && m.StockStatus != filters.StockStatus {
			continue
		}
		if filters.LedgerStatus != "" && m.LedgerStatus != filters.LedgerStatus {
			continue
		}
		if filters.ListingStatus != "" && m.ListingStatus != filters.ListingStatus {
			continue
		}
		out = append(out, m)
	}

	sortMedicines(out, filters.Sort)
	return out
}

func matches(m *model.Medicine, term string) bool {
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(m.Name), term) ||
		strings.Contains(strings.ToLower(m.BatchNo), term) ||
		strings.Contains(strings.ToLower(m.Manufacturer), term)
}

func sortMedicines(medicines []*model.Medicine, order model.SortOrder) {
	if order.Field == "" {
		return
	}

	less := func(a, b *model.Medicine) bool { return false }
	switch order.Field {
	case "name":
		less = func(a, b *model.Medicine) bool { return a.Name < b.Name }
	case "price":
		less = func(a, b *model.Medicine) bool { return a.Price < b.Price }
	case "stock":
		less = func(a, b *model.Medicine) bool { return a.Stock < b.Stock }
	case "expiry":
		less = func(a, b *model.Medicine) bool { return a.ExpDate < b.ExpDate }
	default:
		return
	}

	if strings.EqualFold(order.Dir, "desc") {
		asc := less
		less = func(a, b *model.Medicine) bool { return asc(b, a) }
	}

	sort.SliceStable(medicines, func(i, j int) bool { return less(medicines[i], medicines[j]) })
}

// Summarize computes the dashboard widget counters.
func Summarize(medicines []*model.Medicine) *model.InventorySummary {
	s := &model.InventorySummary{Total: len(medicines)}
	for _, m := range medicines {
		switch m.StockStatus {
		case model.StockStatusIn:
			s.InStock++
		case model.StockStatusLow:
			s.LowStock++
		case model.StockStatusOut:
			s.OutOfStock++
		}
		if m.LedgerStatus == model.LedgerStatusOnChain {
			s.OnChain++
		} else {
			s.PendingOnChain++
		}
		if m.ListingStatus == model.ListingStatusApproved {
			s.Approved++
		} else {
			s.PendingReview++
		}
		s.StockValue += m.Price * float64(m.Stock)
	}
	return s
}
