package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/chainindex/archive-gateway/pkg/archive"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/partial"
	"github.com/chainindex/archive-gateway/pkg/store"
)

type fakeGateway struct {
	batchResult partial.Result
	batchErr    error
	rows        []store.Metadata
	row         *store.Metadata
	metaErr     error
	head        int64
	statusErr   error

	lastPartialMode bool
}

func (g *fakeGateway) Batch(ctx context.Context, req loader.Request, partialMode bool) (partial.Result, error) {
	g.lastPartialMode = partialMode
	return g.batchResult, g.batchErr
}

func (g *fakeGateway) Metadata(ctx context.Context) ([]store.Metadata, error) {
	return g.rows, g.metaErr
}

func (g *fakeGateway) MetadataByID(ctx context.Context, id string) (*store.Metadata, error) {
	return g.row, g.metaErr
}

func (g *fakeGateway) Status(ctx context.Context) (int64, error) {
	return g.head, g.statusErr
}

func TestBatchDirectMode(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{batchResult: partial.Result{
		Data: []archive.Batch{{Header: archive.BlockHeader{ID: "0000000001"}}},
	}}
	h := New(gw)

	body := `{"limit": 10, "fromBlock": 1}`
	req, err := http.NewRequest(http.MethodPost, "/batch", strings.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	h.Batch(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.False(t, gw.lastPartialMode)

	var out batchResponseOut
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Data, 1)
	require.Equal(t, "0000000001", out.Data[0].Header.ID)
	require.Nil(t, out.NextBlock)
}

func TestBatchPartialMode(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{batchResult: partial.Result{NextBlock: 200}}
	h := New(gw)

	body := `{"fromBlock": 1}`
	req, err := http.NewRequest(http.MethodPost, "/batch", strings.NewReader(body))
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	h.Batch(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, gw.lastPartialMode)

	var out batchResponseOut
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Empty(t, out.Data)
	require.NotNil(t, out.NextBlock)
	require.Equal(t, int64(200), *out.NextBlock)
}

func TestMetadataByIDMissingWritesNull(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{row: nil}
	h := New(gw)

	r := mux.NewRouter()
	r.HandleFunc("/metadata/{id}", h.MetadataByID)

	req, err := http.NewRequest(http.MethodGet, "/metadata/does-not-exist", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "null\n", rr.Body.String())
}

func TestStatusEmptyArchiveReportsNegativeOne(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{head: -1}
	h := New(gw)

	req, err := http.NewRequest(http.MethodGet, "/status", nil)
	require.NoError(t, err)
	rr := httptest.NewRecorder()

	h.Status(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"head":-1}`, rr.Body.String())
}
