package docstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/medchain/inventory-api/internal/config"
	"github.com/medchain/inventory-api/internal/model"
	"github.com/medchain/inventory-api/pkg/metrics"
)

// medicineDoc is the Mongo shape of a record. The identifier is the
// store-assigned ObjectID, exposed upstream as its hex form.
type medicineDoc struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty"`
	Name          string               `bson:"name"`
	BatchNo       string               `bson:"batch_no"`
	Manufacturer  string               `bson:"manufacturer"`
	Price         float64              `bson:"price"`
	Stock         int                  `bson:"stock"`
	MfgDate       int64                `bson:"mfg_date"`
	ExpDate       int64                `bson:"exp_date"`
	LedgerStatus  model.LedgerStatus   `bson:"ledger_status"`
	ListingStatus model.ListingStatus  `bson:"listing_status"`
	OnChain       bool                 `bson:"on_chain"`
	TxHash        string               `bson:"tx_hash,omitempty"`
	History       []model.HistoryEntry `bson:"history"`
	CreatedAt     time.Time            `bson:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at"`
}

func (d *medicineDoc) toModel() *model.Medicine {
	return &model.Medicine{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		BatchNo:       d.BatchNo,
		Manufacturer:  d.Manufacturer,
		Price:         d.Price,
		Stock:         d.Stock,
		MfgDate:       d.MfgDate,
		ExpDate:       d.ExpDate,
		LedgerStatus:  d.LedgerStatus,
		ListingStatus: d.ListingStatus,
		OnChain:       d.OnChain,
		TxHash:        d.TxHash,
		History:       d.History,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

func docFromModel(m *model.Medicine) *medicineDoc {
	return &medicineDoc{
		Name:          m.Name,
		BatchNo:       m.BatchNo,
		Manufacturer:  m.Manufacturer,
		Price:         m.Price,
		Stock:         m.Stock,
		MfgDate:       m.MfgDate,
		ExpDate:       m.ExpDate,
		LedgerStatus:  m.LedgerStatus,
		ListingStatus: m.ListingStatus,
		OnChain:       m.OnChain,
		TxHash:        m.TxHash,
		History:       m.History,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// MongoClient implements Client against a medicines collection.
type MongoClient struct {
	client     *mongo.Client
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

func NewMongoClient(ctx context.Context, cfg config.DocstoreConfig, m *metrics.Metrics) (*MongoClient, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.Timeout).
		SetServerSelectionTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to document store: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping document store: %w", err)
	}

	return &MongoClient{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		metrics:    m,
	}, nil
}

// List returns all records, newest first.
func (c *MongoClient) List(ctx context.Context) ([]*model.Medicine, error) {
	start := time.Now()

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := c.collection.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		c.observe("list", start, err)
		return nil, fmt.Errorf("failed to list medicines: %w", err)
	}
	defer cur.Close(ctx)

	var docs []*medicineDoc
	if err := cur.All(ctx, &docs); err != nil {
		c.observe("list", start, err)
		return nil, fmt.Errorf("failed to decode medicines: %w", err)
	}

	medicines := make([]*model.Medicine, 0, len(docs))
	for _, d := range docs {
		medicines = append(medicines, d.toModel())
	}

	c.observe("list", start, nil)
	return medicines, nil
}

// Create inserts the record and returns it with the store-assigned
// identifier filled in.
func (c *MongoClient) Create(ctx context.Context, medicine *model.Medicine) (*model.Medicine, error) {
	start := time.Now()

	doc := docFromModel(medicine)
	res, err := c.collection.InsertOne(ctx, doc)
	if err != nil {
		c.observe("create", start, err)
		return nil, fmt.Errorf("failed to create medicine: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		c.observe("create", start, err)
		return nil, fmt.Errorf("document store returned unexpected identifier type %T", res.InsertedID)
	}

	created := medicine.Clone()
	created.ID = oid.Hex()

	c.observe("create", start, nil)
	return created, nil
}

// Update applies a partial $set and returns the fields it persisted.
func (c *MongoClient) Update(ctx context.Context, id string, fields model.JSONMap) (model.JSONMap, error) {
	start := time.Now()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid medicine id %q: %w", id, err)
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}

	res, err := c.collection.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		c.observe("update", start, err)
		return nil, fmt.Errorf("failed to update medicine %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		c.observe("update", start, ErrNotFound)
		return nil, ErrNotFound
	}

	updated := model.JSONMap{"updated_at": set["updated_at"]}
	for k, v := range fields {
		updated[k] = v
	}

	c.observe("update", start, nil)
	return updated, nil
}

// PushHistory appends one history entry without touching other fields.
func (c *MongoClient) PushHistory(ctx context.Context, id string, entry model.HistoryEntry) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid medicine id %q: %w", id, err)
	}

	res, err := c.collection.UpdateByID(ctx, oid, bson.M{"$push": bson.M{"history": entry}})
	if err != nil {
		return fmt.Errorf("failed to append history for %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (c *MongoClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *MongoClient) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

func (c *MongoClient) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.DocstoreOperations.WithLabelValues(op, status).Inc()
	c.metrics.DocstoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
