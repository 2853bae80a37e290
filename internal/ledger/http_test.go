package ledger

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, srv *httptest.Server, opts ...Option) *HTTPClient {
	t.Helper()
	return NewHTTPClient(srv.URL, 2*time.Second, zerolog.Nop(), opts...)
}

func TestReadReturnsConfirmedRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/medicines/BATCH-7", r.URL.Path)
		json.NewEncoder(w).Encode(readResponse{
			Exists: true,
			Record: &Record{BatchNo: "BATCH-7", Stock: 120, Price: 9.5, TxHash: "0xabc"},
		})
	}))
	defer srv.Close()

	rec, err := testClient(t, srv).Read(context.Background(), "BATCH-7")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 120, rec.Stock)
	assert.Equal(t, "0xabc", rec.TxHash)
}

func TestReadTreatsNotFoundAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	rec, err := testClient(t, srv).Read(context.Background(), "BATCH-404")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReadTreatsExistsFalseAsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(readResponse{Exists: false})
	}))
	defer srv.Close()

	rec, err := testClient(t, srv).Read(context.Background(), "BATCH-1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestReadGatewayErrorIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	rec, err := testClient(t, srv).Read(context.Background(), "BATCH-1")
	require.Error(t, err)
	assert.Nil(t, rec)
}

func TestWriteWithoutSignerFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called without a signer")
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Write(context.Background(), WriteRequest{BatchNo: "B1"})
	assert.ErrorIs(t, err, ErrNoSigner)
}

func TestWriteSendsBearerTokenAndReturnsTxHash(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	var gotAuth string
	var gotReq WriteRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(writeResponse{TxHash: "0xfeed"})
	}))
	defer srv.Close()

	client := testClient(t, srv, WithSigner(NewSigner(key, "admin")))
	txHash, err := client.Write(context.Background(), WriteRequest{
		Name:    "Paracetamol",
		BatchNo: "BATCH-9",
		Stock:   40,
	})
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", txHash)
	assert.True(t, strings.HasPrefix(gotAuth, "Bearer "))
	assert.Equal(t, "BATCH-9", gotReq.BatchNo)
}

func TestWriteRejectsEmptyTxHash(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(writeResponse{})
	}))
	defer srv.Close()

	client := testClient(t, srv, WithSigner(NewSigner(key, "admin")))
	_, err = client.Write(context.Background(), WriteRequest{BatchNo: "B2"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no transaction hash")
}
