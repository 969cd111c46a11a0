package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/chainindex/archive-gateway/pkg/archive"
	svcerrors "github.com/chainindex/archive-gateway/pkg/errors"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/partial"
	"github.com/chainindex/archive-gateway/pkg/store"
)

// Gateway is the subset of the batch loader and metadata/status read path
// the handlers need.
type Gateway interface {
	Batch(ctx context.Context, req loader.Request, partialMode bool) (partial.Result, error)
	Metadata(ctx context.Context) ([]store.Metadata, error)
	MetadataByID(ctx context.Context, id string) (*store.Metadata, error)
	Status(ctx context.Context) (int64, error)
}

// Handlers wires a Gateway to its HTTP routes.
type Handlers struct {
	gateway Gateway
}

// New returns Handlers backed by gw.
func New(gw Gateway) *Handlers {
	return &Handlers{gateway: gw}
}

type batchResponseOut struct {
	Data      []archive.Batch `json:"data"`
	NextBlock *int64          `json:"nextBlock,omitempty"`
}

// Batch handles POST /batch: decodes a batchRequestIn, runs it through the
// loader (or, when limit is omitted, through the partial controller), and
// writes back {data, nextBlock}.
func (h *Handlers) Batch(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-Type", "application/json")

	var in batchRequestIn
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(rw, ctx, http.StatusBadRequest, "invalid request body", err)
		return
	}

	req := loader.Request{
		FromBlock:        in.FromBlock,
		ToBlock:          in.ToBlock,
		IncludeAllBlocks: in.IncludeAllBlocks,
		Selections:       in.selections(),
	}
	if in.Limit != nil {
		req.Limit = *in.Limit
	}

	result, err := h.gateway.Batch(ctx, req, in.Limit == nil)
	if err != nil {
		writeError(rw, ctx, http.StatusInternalServerError, "loading batch", err)
		return
	}

	out := batchResponseOut{Data: result.Data}
	if in.Limit == nil {
		out.NextBlock = &result.NextBlock
	}
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(out)
}

// Metadata handles GET /metadata.
func (h *Handlers) Metadata(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-Type", "application/json")

	rows, err := h.gateway.Metadata(ctx)
	if err != nil {
		writeError(rw, ctx, http.StatusInternalServerError, "loading metadata", err)
		return
	}
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(rows)
}

// MetadataByID handles GET /metadata/{id}.
func (h *Handlers) MetadataByID(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-Type", "application/json")
	id := mux.Vars(r)["id"]

	row, err := h.gateway.MetadataByID(ctx, id)
	if err != nil {
		writeError(rw, ctx, http.StatusInternalServerError, "loading metadata by id", err)
		return
	}
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(row)
}

type statusOut struct {
	Head int64 `json:"head"`
}

// Status handles GET /status. An empty archive reports head -1.
func (h *Handlers) Status(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rw.Header().Set("Content-Type", "application/json")

	head, err := h.gateway.Status(ctx)
	if err != nil {
		writeError(rw, ctx, http.StatusInternalServerError, "loading status", err)
		return
	}
	rw.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(rw).Encode(statusOut{Head: head})
}

func writeError(rw http.ResponseWriter, ctx context.Context, status int, msg string, err error) {
	rw.WriteHeader(status)
	log.Ctx(ctx).Error().Err(err).Msg(msg)
	_ = json.NewEncoder(rw).Encode(svcerrors.ServiceError{Message: msg})
}
