// Package ledger talks to the blockchain gateway that mirrors medicine
// batches on-chain. The ledger is authoritative for stock, price and
// manufacturer once a batch is confirmed present.
package ledger

import (
	"context"
	"errors"
)

// ErrNoSigner is returned by Write when the client was built without a
// signing identity. The caller must abort before any database write.
var ErrNoSigner = errors.New("ledger: no signing identity configured")

// Record is the on-chain view of a medicine batch.
type Record struct {
	BatchNo      string  `json:"batch_no"`
	Name         string  `json:"name"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	MfgDate      int64   `json:"mfg_date"`
	ExpDate      int64   `json:"exp_date"`
	TxHash       string  `json:"tx_hash"`
}

// WriteRequest mirrors the gateway's registration payload. Dates are
// epoch seconds.
type WriteRequest struct {
	Name         string  `json:"name"`
	BatchNo      string  `json:"batch_no"`
	Manufacturer string  `json:"manufacturer"`
	Price        float64 `json:"price"`
	Stock        int     `json:"stock"`
	MfgDate      int64   `json:"mfg_date"`
	ExpDate      int64   `json:"exp_date"`
}

// Client is the ledger collaborator contract. Read returns (nil, nil)
// when the ledger has no confirmed entry for the batch; errors mean the
// gateway could not be consulted at all.
type Client interface {
	Read(ctx context.Context, batchNo string) (*Record, error)
	Write(ctx context.Context, req WriteRequest) (string, error)
}
