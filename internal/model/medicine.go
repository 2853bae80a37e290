package model

import (
	"time"
)

// StockStatus is derived from quantity and is always recomputed, never
// read back from storage.
type StockStatus string

const (
	StockStatusIn  StockStatus = "In Stock"
	StockStatusLow StockStatus = "Low Stock"
	StockStatusOut StockStatus = "Out of Stock"
)

// LedgerStatus reports whether the ledger currently holds a confirmed
// entry for the medicine's batch number.
type LedgerStatus string

const (
	LedgerStatusOnChain LedgerStatus = "On-Chain"
	LedgerStatusPending LedgerStatus = "Pending Confirmation"
)

// ListingStatus is the administrative approval state, independent of
// stock and ledger status.
type ListingStatus string

const (
	ListingStatusPending  ListingStatus = "Pending"
	ListingStatusApproved ListingStatus = "Approved"
)

// HistoryEntry is one append-only audit line on a medicine record.
type HistoryEntry struct {
	Action      string    `json:"action" bson:"action"`
	Timestamp   time.Time `json:"timestamp" bson:"timestamp"`
	Description string    `json:"description" bson:"description"`
}

// Medicine is an inventory record. The identifier is assigned by the
// document store at creation and immutable afterwards. Stock, price and
// manufacturer are overwritten from the ledger once a batch is confirmed
// on-chain.
type Medicine struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	BatchNo       string         `json:"batch_no"`
	Manufacturer  string         `json:"manufacturer"`
	Price         float64        `json:"price"`
	Stock         int            `json:"stock"`
	MfgDate       int64          `json:"mfg_date"`
	ExpDate       int64          `json:"exp_date"`
	StockStatus   StockStatus    `json:"stock_status"`
	LedgerStatus  LedgerStatus   `json:"ledger_status"`
	ListingStatus ListingStatus  `json:"listing_status"`
	OnChain       bool           `json:"on_chain"`
	TxHash        string         `json:"tx_hash,omitempty"`
	History       []HistoryEntry `json:"history"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so snapshot readers never alias store state.
func (m *Medicine) Clone() *Medicine {
	c := *m
	if m.History != nil {
		c.History = make([]HistoryEntry, len(m.History))
		copy(c.History, m.History)
	}
	return &c
}

// AddMedicineRequest is the payload for registering a new medicine.
// Dates arrive in the dashboard's YYYY-MM-DD form and are converted to
// epoch seconds before the ledger write.
type AddMedicineRequest struct {
	Name         string  `json:"name" binding:"required"`
	BatchNo      string  `json:"batch_no" binding:"required"`
	Manufacturer string  `json:"manufacturer" binding:"required"`
	Price        float64 `json:"price" binding:"required,gt=0"`
	Stock        int     `json:"stock" binding:"gte=0"`
	MfgDate      string  `json:"mfg_date" binding:"required,datetime=2006-01-02"`
	ExpDate      string  `json:"exp_date" binding:"required,datetime=2006-01-02"`
}

// UpdateMedicineRequest carries partial field changes. Nil fields are
// left untouched by the document store and by the in-memory merge.
type UpdateMedicineRequest struct {
	Name         *string  `json:"name,omitempty"`
	Manufacturer *string  `json:"manufacturer,omitempty"`
	Price        *float64 `json:"price,omitempty" binding:"omitempty,gt=0"`
	Stock        *int     `json:"stock,omitempty" binding:"omitempty,gte=0"`
	ExpDate      *int64   `json:"exp_date,omitempty"`
}

// Fields flattens the request into the partial-update document sent to
// the document store.
func (r *UpdateMedicineRequest) Fields() JSONMap {
	fields := JSONMap{}
	if r.Name != nil {
		fields["name"] = *r.Name
	}
	if r.Manufacturer != nil {
		fields["manufacturer"] = *r.Manufacturer
	}
	if r.Price != nil {
		fields["price"] = *r.Price
	}
	if r.Stock != nil {
		fields["stock"] = *r.Stock
	}
	if r.ExpDate != nil {
		fields["exp_date"] = *r.ExpDate
	}
	return fields
}

// InventoryFilters narrows and orders the dashboard table server-side.
type InventoryFilters struct {
	SearchTerm    string        `json:"search_term" form:"search_term"`
	StockStatus   StockStatus   `json:"stock_status" form:"stock_status"`
	LedgerStatus  LedgerStatus  `json:"ledger_status" form:"ledger_status"`
	ListingStatus ListingStatus `json:"listing_status" form:"listing_status"`
	Sort          SortOrder
}

// InventorySummary backs the dashboard's widget row and chart.
type InventorySummary struct {
	Total          int     `json:"total"`
	InStock        int     `json:"in_stock"`
	LowStock       int     `json:"low_stock"`
	OutOfStock     int     `json:"out_of_stock"`
	OnChain        int     `json:"on_chain"`
	PendingOnChain int     `json:"pending_on_chain"`
	Approved       int     `json:"approved"`
	PendingReview  int     `json:"pending_review"`
	StockValue     float64 `json:"stock_value"`
}
