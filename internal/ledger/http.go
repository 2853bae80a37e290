package ledger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/medchain/inventory-api/pkg/metrics"
)

// HTTPClient is a thin resty wrapper over the ledger gateway's REST API.
type HTTPClient struct {
	rc      *resty.Client
	signer  *Signer
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

type Option func(*HTTPClient)

func WithSigner(signer *Signer) Option {
	return func(c *HTTPClient) { c.signer = signer }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

func NewHTTPClient(gatewayURL string, timeout time.Duration, logger zerolog.Logger, opts ...Option) *HTTPClient {
	rc := resty.New().
		SetBaseURL(gatewayURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	c := &HTTPClient{
		rc:     rc,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type readResponse struct {
	Exists bool    `json:"exists"`
	Record *Record `json:"record"`
}

type writeResponse struct {
	TxHash string `json:"tx_hash"`
}

// Read looks up a batch on-chain. A 404 or an exists=false body both
// mean "not yet confirmed" and return (nil, nil).
func (c *HTTPClient) Read(ctx context.Context, batchNo string) (*Record, error) {
	start := time.Now()

	var body readResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetResult(&body).
		SetPathParam("batch", batchNo).
		Get("/api/v1/medicines/{batch}")

	c.observe("read", start, err)
	if err != nil {
		return nil, fmt.Errorf("ledger read %s: %w", batchNo, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, nil
	case resp.IsError():
		return nil, fmt.Errorf("ledger read %s: gateway returned %s", batchNo, resp.Status())
	case !body.Exists || body.Record == nil:
		return nil, nil
	}

	return body.Record, nil
}

// Write registers a batch on-chain and returns the transaction hash.
func (c *HTTPClient) Write(ctx context.Context, req WriteRequest) (string, error) {
	if c.signer == nil {
		return "", ErrNoSigner
	}

	token, err := c.signer.Token()
	if err != nil {
		return "", err
	}

	start := time.Now()

	var body writeResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetBody(req).
		SetResult(&body).
		Post("/api/v1/medicines")

	c.observe("write", start, err)
	if err != nil {
		return "", fmt.Errorf("ledger write %s: %w", req.BatchNo, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("ledger write %s: gateway returned %s", req.BatchNo, resp.Status())
	}
	if body.TxHash == "" {
		return "", fmt.Errorf("ledger write %s: gateway returned no transaction hash", req.BatchNo)
	}

	c.logger.Info().
		Str("batch_no", req.BatchNo).
		Str("tx_hash", body.TxHash).
		Msg("ledger write confirmed by gateway")

	return body.TxHash, nil
}

func (c *HTTPClient) observe(op string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	c.metrics.LedgerOperations.WithLabelValues(op, status).Inc()
	c.metrics.LedgerLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
