// Package inventory holds the reconciliation core: a process-wide
// snapshot store that merges document-store records with their on-chain
// mirrors and orchestrates the four admin operations.
package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medchain/inventory-api/internal/docstore"
	"github.com/medchain/inventory-api/internal/ledger"
	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/internal/service/audit"
	"github.com/medchain/inventory-api/pkg/logger"
	"github.com/medchain/inventory-api/pkg/messaging"
	"github.com/medchain/inventory-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// EventPublisher is the slice of messaging.Broker the store needs.
// Publication is best-effort; failures never fail an admin operation.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Service owns the merged inventory state. All mutations replace the
// whole snapshot under the lock, so readers always observe a consistent
// list; there is no transactional grouping across the two external
// clients (see Add).
type Service struct {
	docstore docstore.Client
	ledger   ledger.Client
	auditor  *audit.Service
	events   EventPublisher
	logger   *logger.Logger
	metrics  *metrics.Metrics

	mu    sync.RWMutex
	state Snapshot
}

func NewService(ds docstore.Client, lc ledger.Client, log *logger.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		docstore: ds,
		ledger:   lc,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type ServiceOption func(*Service)

func WithAuditor(a *audit.Service) ServiceOption {
	return func(s *Service) { s.auditor = a }
}

func WithEvents(p EventPublisher) ServiceOption {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	medicines := make([]*model.Medicine, len(s.state.Medicines))
	for i, m := range s.state.Medicines {
		medicines[i] = m.Clone()
	}
	return Snapshot{
		Medicines:   medicines,
		Initialized: s.state.Initialized,
		Loading:     s.state.Loading,
		Err:         s.state.Err,
	}
}

// Fetch rebuilds the whole inventory from the document store and the
// ledger. Re-fetching is always permitted; there is no cache guard.
// Per-record ledger lookups run strictly sequentially in list order, so
// latency scales linearly with record count. A document store failure
// aborts the fetch and leaves the previous list untouched; a ledger read
// failure only marks that record Pending Confirmation.
func (s *Service) Fetch(ctx context.Context) error {
	s.setLoading(true)
	start := time.Now()

	medicines, err := s.docstore.List(ctx)
	if err != nil {
		err = fmt.Errorf("failed to fetch inventory: %w", err)
		s.failFetch(err)
		s.countFetch("error", start)
		return err
	}

	for _, m := range medicines {
		s.reconcile(ctx, m)
	}

	s.mu.Lock()
	s.state = Snapshot{
		Medicines:   medicines,
		Initialized: true,
		Loading:     false,
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordsGauge.Set(float64(len(medicines)))
	}
	s.countFetch("success", start)
	s.logger.Debug("inventory fetched", "records", len(medicines), "elapsed", time.Since(start).String())
	return nil
}

// reconcile applies the per-field precedence rule: once a batch is
// confirmed on-chain the ledger wins for stock, price and manufacturer;
// every other field stays database-sourced. Stock status is recomputed
// from the post-merge quantity regardless.
func (s *Service) reconcile(ctx context.Context, m *model.Medicine) {
	rec, err := s.ledger.Read(ctx, m.BatchNo)
	if err != nil {
		// An unreadable ledger entry means "not yet confirmed",
		// not a fetch failure.
		s.logger.Warn("ledger lookup failed, treating batch as pending",
			"batch_no", m.BatchNo, "error", err.Error())
		s.countLookup("error")
		rec = nil
	} else {
		s.countLookup("success")
	}

	if rec != nil {
		m.LedgerStatus = model.LedgerStatusOnChain
		m.OnChain = true
		m.Stock = rec.Stock
		m.Price = rec.Price
		m.Manufacturer = rec.Manufacturer
		if m.TxHash == "" {
			m.TxHash = rec.TxHash
		}
		if s.metrics != nil {
			s.metrics.LedgerConfirmed.Inc()
		}
	} else {
		m.LedgerStatus = model.LedgerStatusPending
		m.OnChain = false
		if s.metrics != nil {
			s.metrics.LedgerPending.Inc()
		}
	}

	m.StockStatus = ClassifyStock(m.Stock)
}

// Add registers a medicine. The ledger write goes first: if it fails the
// document store is never called. A crash between the two writes leaves
// an orphaned on-chain batch; the returned txHash in the audit trail is
// the manual repair handle.
func (s *Service) Add(ctx context.Context, req *model.AddMedicineRequest) (*model.Medicine, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	mfg, err := time.Parse(dateLayout, req.MfgDate)
	if err != nil {
		return nil, fmt.Errorf("invalid manufacture date %q: %w", req.MfgDate, err)
	}
	exp, err := time.Parse(dateLayout, req.ExpDate)
	if err != nil {
		return nil, fmt.Errorf("invalid expiry date %q: %w", req.ExpDate, err)
	}

	txHash, err := s.ledger.Write(ctx, ledger.WriteRequest{
		Name:         req.Name,
		BatchNo:      req.BatchNo,
		Manufacturer: req.Manufacturer,
		Price:        req.Price,
		Stock:        req.Stock,
		MfgDate:      mfg.Unix(),
		ExpDate:      exp.Unix(),
	})
	if err != nil {
		s.logger.Error(err, "ledger write failed, aborting add", "batch_no", req.BatchNo)
		return nil, fmt.Errorf("failed to write batch %s to ledger: %w", req.BatchNo, err)
	}

	// Best-effort confirmation probe; the gateway may not have indexed
	// the transaction yet, in which case the batch stays Pending until
	// the next fetch.
	onChain := false
	if rec, err := s.ledger.Read(ctx, req.BatchNo); err == nil && rec != nil {
		onChain = true
	}

	now := time.Now().UTC()
	medicine := &model.Medicine{
		Name:          req.Name,
		BatchNo:       req.BatchNo,
		Manufacturer:  req.Manufacturer,
		Price:         req.Price,
		Stock:         req.Stock,
		MfgDate:       mfg.Unix(),
		ExpDate:       exp.Unix(),
		StockStatus:   ClassifyStock(req.Stock),
		LedgerStatus:  model.LedgerStatusPending,
		ListingStatus: model.ListingStatusPending,
		OnChain:       onChain,
		TxHash:        txHash,
		History: []model.HistoryEntry{{
			Action:      "CREATED",
			Timestamp:   now,
			Description: "Registered by Admin",
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if onChain {
		medicine.LedgerStatus = model.LedgerStatusOnChain
	}

	created, err := s.docstore.Create(ctx, medicine)
	if err != nil {
		s.logger.Error(err, "document store create failed after ledger write",
			"batch_no", req.BatchNo, "tx_hash", txHash)
		return nil, fmt.Errorf("failed to create medicine record: %w", err)
	}

	s.mu.Lock()
	medicines := make([]*model.Medicine, 0, len(s.state.Medicines)+1)
	medicines = append(medicines, created)
	medicines = append(medicines, s.state.Medicines...)
	st := s.state
	st.Medicines = medicines
	s.state = st
	s.mu.Unlock()

	s.auditor.Log(ctx, "ADD", "medicine", created.ID,
		fmt.Sprintf("batch %s registered, tx %s", created.BatchNo, txHash))
	s.publish(ctx, messaging.ChannelMedicineCreated, created)

	return created.Clone(), nil
}

// Update persists partial field changes and shallow-merges the persisted
// fields into the in-memory record. Fields absent from the response keep
// their prior values.
func (s *Service) Update(ctx context.Context, id string, req *model.UpdateMedicineRequest) (*model.Medicine, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	fields := req.Fields()
	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields to update for medicine %s", id)
	}

	persisted, err := s.docstore.Update(ctx, id, fields)
	if err != nil {
		s.logger.Error(err, "document store update failed", "id", id)
		return nil, fmt.Errorf("failed to update medicine %s: %w", id, err)
	}

	updated := s.mergeRecord(id, func(m *model.Medicine) {
		applyFields(m, persisted)
		m.StockStatus = ClassifyStock(m.Stock)
	})
	if updated == nil {
		return nil, fmt.Errorf("medicine %s not present in snapshot", id)
	}

	s.auditor.Log(ctx, "UPDATE", "medicine", id, fmt.Sprintf("fields %v", keys(fields)))
	return updated, nil
}

// Approve flips the listing status and appends one history entry.
// Approving twice appends two entries; the trail is deliberately not
// deduplicated.
func (s *Service) Approve(ctx context.Context, id string) (*model.Medicine, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	if _, err := s.docstore.Update(ctx, id, model.JSONMap{
		"listing_status": model.ListingStatusApproved,
	}); err != nil {
		s.logger.Error(err, "approve failed", "id", id)
		return nil, fmt.Errorf("failed to approve medicine %s: %w", id, err)
	}

	entry := model.HistoryEntry{
		Action:      "APPROVED",
		Timestamp:   time.Now().UTC(),
		Description: "Approved by Admin",
	}
	if err := s.docstore.PushHistory(ctx, id, entry); err != nil {
		// The approval itself is already persisted; losing the trail
		// entry is logged, not fatal.
		s.logger.Error(err, "failed to persist history entry", "id", id)
	}

	updated := s.mergeRecord(id, func(m *model.Medicine) {
		m.ListingStatus = model.ListingStatusApproved
		m.History = append(m.History, entry)
	})
	if updated == nil {
		return nil, fmt.Errorf("medicine %s not present in snapshot", id)
	}

	s.auditor.Log(ctx, "APPROVE", "medicine", id, "listing approved")
	s.publish(ctx, messaging.ChannelMedicineApproved, updated)

	return updated, nil
}

// mergeRecord clones the matching record, applies fn, and swaps the
// modified clone into a fresh snapshot list. Returns nil when the id is
// unknown. List order is preserved.
func (s *Service) mergeRecord(id string, fn func(*model.Medicine)) *model.Medicine {
	s.mu.Lock()
	defer s.mu.Unlock()

	var merged *model.Medicine
	medicines := make([]*model.Medicine, len(s.state.Medicines))
	for i, m := range s.state.Medicines {
		if m.ID == id {
			c := m.Clone()
			fn(c)
			c.UpdatedAt = time.Now().UTC()
			medicines[i] = c
			merged = c
			continue
		}
		medicines[i] = m
	}
	if merged == nil {
		return nil
	}

	st := s.state
	st.Medicines = medicines
	s.state = st
	return merged.Clone()
}

func applyFields(m *model.Medicine, fields model.JSONMap) {
	for k, v := range fields {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				m.Name = s
			}
		case "manufacturer":
			if s, ok := v.(string); ok {
				m.Manufacturer = s
			}
		case "price":
			if f, ok := v.(float64); ok {
				m.Price = f
			}
		case "stock":
			switch n := v.(type) {
			case int:
				m.Stock = n
			case float64:
				m.Stock = int(n)
			}
		case "exp_date":
			switch n := v.(type) {
			case int64:
				m.ExpDate = n
			case float64:
				m.ExpDate = int64(n)
			}
		case "updated_at":
			if t, ok := v.(time.Time); ok {
				m.UpdatedAt = t
			}
		}
	}
}

func (s *Service) setLoading(v bool) {
	s.mu.Lock()
	st := s.state
	st.Loading = v
	s.state = st
	s.mu.Unlock()
}

func (s *Service) failFetch(err error) {
	s.mu.Lock()
	st := s.state
	st.Loading = false
	st.Err = err.Error()
	s.state = st
	s.mu.Unlock()
	s.logger.Error(err, "inventory fetch failed")
}

func (s *Service) publish(ctx context.Context, channel string, payload interface{}) {
	if s.events == nil {
		return
	}
	event := messaging.Event{
		ID:        uuid.New().String(),
		Type:      channel,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.events.Publish(ctx, channel, event); err != nil {
		s.logger.Error(err, "failed to publish inventory event", "channel", channel)
		if s.metrics != nil {
			s.metrics.EventsFailed.WithLabelValues(channel).Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(channel).Inc()
	}
}

func (s *Service) countFetch(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.FetchTotal.WithLabelValues(status).Inc()
	if status == "success" {
		s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	}
}

func (s *Service) countLookup(status string) {
	if s.metrics == nil {
		return
	}
	s.metrics.LedgerLookups.WithLabelValues(status).Inc()
}

func keys(m model.JSONMap) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
