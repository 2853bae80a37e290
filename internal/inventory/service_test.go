package inventory

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medchain/inventory-api/internal/docstore"
	"github.com/medchain/inventory-api/internal/ledger"
	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/pkg/logger"
)

type fakeDocstore struct {
	records []*model.Medicine

	listErr   error
	createErr error
	updateErr error
	pushErr   error

	createCalls int
	updates     []model.JSONMap
	pushed      []model.HistoryEntry
	nextID      string
}

func (f *fakeDocstore) List(ctx context.Context) ([]*model.Medicine, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	// A real client decodes fresh documents on every call.
	out := make([]*model.Medicine, len(f.records))
	for i, m := range f.records {
		out[i] = m.Clone()
	}
	return out, nil
}

func (f *fakeDocstore) Create(ctx context.Context, m *model.Medicine) (*model.Medicine, error) {
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := m.Clone()
	created.ID = f.nextID
	if created.ID == "" {
		created.ID = "generated-id"
	}
	return created, nil
}

func (f *fakeDocstore) Update(ctx context.Context, id string, fields model.JSONMap) (model.JSONMap, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, fields)
	out := model.JSONMap{}
	for k, v := range fields {
		out[k] = v
	}
	return out, nil
}

func (f *fakeDocstore) PushHistory(ctx context.Context, id string, entry model.HistoryEntry) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = append(f.pushed, entry)
	return nil
}

type fakeLedger struct {
	onChain  map[string]*ledger.Record
	readErrs map[string]error
	writeErr error
	txHash   string

	reads  []string
	writes []ledger.WriteRequest
}

func (f *fakeLedger) Read(ctx context.Context, batchNo string) (*ledger.Record, error) {
	f.reads = append(f.reads, batchNo)
	if err, ok := f.readErrs[batchNo]; ok {
		return nil, err
	}
	return f.onChain[batchNo], nil
}

func (f *fakeLedger) Write(ctx context.Context, req ledger.WriteRequest) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.writes = append(f.writes, req)
	if f.txHash == "" {
		return "0xabc", nil
	}
	return f.txHash, nil
}

func newTestService(ds *fakeDocstore, lc *fakeLedger) *Service {
	log := logger.NewLogger(&logger.Config{
		Level:  logger.ErrorLevel,
		Output: io.Discard,
	})
	return NewService(ds, lc, log)
}

func med(id, batch string, stock int) *model.Medicine {
	return &model.Medicine{
		ID:      id,
		Name:    "Medicine " + batch,
		BatchNo: batch,
		Stock:   stock,
		Price:   2.5,
	}
}

func TestFetchMergesLedgerState(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{
		med("1", "B1", 30),
		med("2", "B2", 80),
	}}
	lc := &fakeLedger{onChain: map[string]*ledger.Record{
		"B2": {BatchNo: "B2", Stock: 5, Price: 10, Manufacturer: "Acme", TxHash: "0xfeed"},
	}}
	svc := newTestService(ds, lc)

	require.NoError(t, svc.Fetch(context.Background()))

	snap := svc.Snapshot()
	require.Len(t, snap.Medicines, 2)
	assert.True(t, snap.Initialized)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Err)

	b1 := snap.Medicines[0]
	assert.Equal(t, model.LedgerStatusPending, b1.LedgerStatus)
	assert.False(t, b1.OnChain)
	assert.Equal(t, 30, b1.Stock)
	assert.Equal(t, model.StockStatusLow, b1.StockStatus)

	b2 := snap.Medicines[1]
	assert.Equal(t, model.LedgerStatusOnChain, b2.LedgerStatus)
	assert.True(t, b2.OnChain)
	assert.Equal(t, 5, b2.Stock, "ledger stock overrides database stock")
	assert.Equal(t, 10.0, b2.Price)
	assert.Equal(t, "Acme", b2.Manufacturer)
	assert.Equal(t, "0xfeed", b2.TxHash)
	assert.Equal(t, model.StockStatusOut, b2.StockStatus, "status derives from post-merge quantity")
}

func TestFetchRecomputesStockStatusFromStorage(t *testing.T) {
	stale := med("1", "B1", 500)
	stale.StockStatus = model.StockStatusOut // stored status must never be trusted
	ds := &fakeDocstore{records: []*model.Medicine{stale}}
	svc := newTestService(ds, &fakeLedger{})

	require.NoError(t, svc.Fetch(context.Background()))
	assert.Equal(t, model.StockStatusIn, svc.Snapshot().Medicines[0].StockStatus)
}

func TestFetchIsIdempotent(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{
		med("1", "B1", 30),
		med("2", "B2", 0),
	}}
	lc := &fakeLedger{onChain: map[string]*ledger.Record{
		"B1": {BatchNo: "B1", Stock: 12, Price: 3, Manufacturer: "Acme"},
	}}
	svc := newTestService(ds, lc)

	require.NoError(t, svc.Fetch(context.Background()))
	first := svc.Snapshot()
	require.NoError(t, svc.Fetch(context.Background()))
	second := svc.Snapshot()

	assert.Equal(t, first.Medicines, second.Medicines)
}

func TestFetchQueriesLedgerSequentiallyInListOrder(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{
		med("1", "B3", 1), med("2", "B1", 1), med("3", "B2", 1),
	}}
	lc := &fakeLedger{}
	svc := newTestService(ds, lc)

	require.NoError(t, svc.Fetch(context.Background()))
	assert.Equal(t, []string{"B3", "B1", "B2"}, lc.reads)
}

func TestFetchFailureKeepsPreviousList(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	ds.listErr = errors.New("connection reset")
	err := svc.Fetch(context.Background())
	require.Error(t, err)

	snap := svc.Snapshot()
	assert.Len(t, snap.Medicines, 1, "partial merges are discarded, prior list survives")
	assert.False(t, snap.Loading)
	assert.Contains(t, snap.Err, "connection reset")
	assert.True(t, snap.Initialized, "a failed re-fetch does not de-initialize the store")
}

func TestFetchLedgerReadErrorMeansPending(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 60)}}
	lc := &fakeLedger{readErrs: map[string]error{"B1": errors.New("gateway timeout")}}
	svc := newTestService(ds, lc)

	require.NoError(t, svc.Fetch(context.Background()), "ledger read errors do not fail the fetch")

	m := svc.Snapshot().Medicines[0]
	assert.Equal(t, model.LedgerStatusPending, m.LedgerStatus)
	assert.Equal(t, 60, m.Stock, "database fields untouched when ledger is unreadable")
	assert.Equal(t, model.StockStatusIn, m.StockStatus)
}

func TestAddSuccessPrependsRecord(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}, nextID: "new-id"}
	lc := &fakeLedger{
		txHash:  "0xdeadbeef",
		onChain: map[string]*ledger.Record{"B9": {BatchNo: "B9", Stock: 75, Price: 9.5, Manufacturer: "Acme"}},
	}
	svc := newTestService(ds, lc)
	require.NoError(t, svc.Fetch(context.Background()))

	created, err := svc.Add(context.Background(), &model.AddMedicineRequest{
		Name:         "Paracetamol",
		BatchNo:      "B9",
		Manufacturer: "Acme",
		Price:        9.5,
		Stock:        75,
		MfgDate:      "2025-01-10",
		ExpDate:      "2027-01-10",
	})
	require.NoError(t, err)

	assert.Equal(t, "new-id", created.ID, "identifier comes from the document store")
	assert.Equal(t, "0xdeadbeef", created.TxHash)
	assert.True(t, created.OnChain, "confirmation probe found the batch")
	assert.Equal(t, model.LedgerStatusOnChain, created.LedgerStatus)
	assert.Equal(t, model.ListingStatusPending, created.ListingStatus)
	assert.Equal(t, model.StockStatusIn, created.StockStatus)

	snap := svc.Snapshot()
	require.Len(t, snap.Medicines, 2)
	assert.Equal(t, "new-id", snap.Medicines[0].ID, "new record sits at the front")
	assert.False(t, snap.Loading)

	require.Len(t, lc.writes, 1)
	assert.Equal(t, int64(1736467200), lc.writes[0].MfgDate, "dates are converted to epoch seconds")
}

func TestAddUnconfirmedBatchStaysPending(t *testing.T) {
	ds := &fakeDocstore{nextID: "id-2"}
	lc := &fakeLedger{} // write succeeds, read finds nothing yet
	svc := newTestService(ds, lc)

	created, err := svc.Add(context.Background(), &model.AddMedicineRequest{
		Name: "Ibuprofen", BatchNo: "B7", Manufacturer: "Acme",
		Price: 3, Stock: 10, MfgDate: "2025-02-01", ExpDate: "2026-02-01",
	})
	require.NoError(t, err)
	assert.False(t, created.OnChain)
	assert.Equal(t, model.LedgerStatusPending, created.LedgerStatus)
}

func TestAddLedgerWriteFailureSkipsDocumentStore(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	lc := &fakeLedger{writeErr: ledger.ErrNoSigner}
	svc := newTestService(ds, lc)
	require.NoError(t, svc.Fetch(context.Background()))

	created, err := svc.Add(context.Background(), &model.AddMedicineRequest{
		Name: "Aspirin", BatchNo: "B5", Manufacturer: "Acme",
		Price: 1, Stock: 5, MfgDate: "2025-03-01", ExpDate: "2026-03-01",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrNoSigner)
	assert.Nil(t, created)
	assert.Zero(t, ds.createCalls, "database is never called when the ledger write fails")

	snap := svc.Snapshot()
	assert.Len(t, snap.Medicines, 1, "record list unchanged")
	assert.False(t, snap.Loading, "loading cleared on the failure path")
}

func TestAddInvalidDateRejectedBeforeLedgerWrite(t *testing.T) {
	lc := &fakeLedger{}
	svc := newTestService(&fakeDocstore{}, lc)

	_, err := svc.Add(context.Background(), &model.AddMedicineRequest{
		Name: "X", BatchNo: "B1", Manufacturer: "Acme",
		Price: 1, Stock: 1, MfgDate: "10/01/2025", ExpDate: "2026-01-01",
	})
	require.Error(t, err)
	assert.Empty(t, lc.writes)
	assert.False(t, svc.Snapshot().Loading)
}

func TestUpdateShallowMergesPersistedFields(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{
		{ID: "1", Name: "Paracetamol", BatchNo: "B1", Manufacturer: "Acme", Price: 2, Stock: 60},
	}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	newPrice := 4.5
	updated, err := svc.Update(context.Background(), "1", &model.UpdateMedicineRequest{Price: &newPrice})
	require.NoError(t, err)

	assert.Equal(t, 4.5, updated.Price)
	assert.Equal(t, "Paracetamol", updated.Name, "fields absent from the response are preserved")
	assert.Equal(t, "Acme", updated.Manufacturer)
	assert.Equal(t, 60, updated.Stock)
	assert.False(t, svc.Snapshot().Loading)
}

func TestUpdateStockRecomputesStatus(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 80)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	zero := 0
	updated, err := svc.Update(context.Background(), "1", &model.UpdateMedicineRequest{Stock: &zero})
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusOut, updated.StockStatus)
}

func TestUpdateFailureReturnsError(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))
	ds.updateErr = errors.New("write conflict")

	price := 9.0
	updated, err := svc.Update(context.Background(), "1", &model.UpdateMedicineRequest{Price: &price})
	require.Error(t, err)
	assert.Nil(t, updated)
	assert.False(t, svc.Snapshot().Loading)
	assert.Equal(t, 2.5, svc.Snapshot().Medicines[0].Price, "in-memory record untouched on failure")
}

func TestApproveAppendsExactlyOneHistoryEntry(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	approved, err := svc.Approve(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, model.ListingStatusApproved, approved.ListingStatus)
	require.Len(t, approved.History, 1)
	assert.Equal(t, "APPROVED", approved.History[0].Action)
	assert.Equal(t, "Approved by Admin", approved.History[0].Description)
	assert.False(t, svc.Snapshot().Loading)
}

func TestApproveTwiceAppendsTwoEntries(t *testing.T) {
	// Deliberately not idempotent: the trail records every approval.
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	_, err := svc.Approve(context.Background(), "1")
	require.NoError(t, err)
	second, err := svc.Approve(context.Background(), "1")
	require.NoError(t, err)

	require.Len(t, second.History, 2)
	assert.Equal(t, "APPROVED", second.History[0].Action)
	assert.Equal(t, "APPROVED", second.History[1].Action)
	assert.Len(t, ds.pushed, 2)
}

func TestApproveUnknownIDFails(t *testing.T) {
	ds := &fakeDocstore{updateErr: docstore.ErrNotFound}
	svc := newTestService(ds, &fakeLedger{})

	approved, err := svc.Approve(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, approved)
	assert.False(t, svc.Snapshot().Loading)
}

func TestSnapshotIsDetachedFromStoreState(t *testing.T) {
	ds := &fakeDocstore{records: []*model.Medicine{med("1", "B1", 30)}}
	svc := newTestService(ds, &fakeLedger{})
	require.NoError(t, svc.Fetch(context.Background()))

	snap := svc.Snapshot()
	snap.Medicines[0].Stock = 9999
	snap.Medicines[0].History = append(snap.Medicines[0].History, model.HistoryEntry{Action: "TAMPER"})

	fresh := svc.Snapshot()
	assert.Equal(t, 30, fresh.Medicines[0].Stock)
	assert.Empty(t, fresh.Medicines[0].History)
}
