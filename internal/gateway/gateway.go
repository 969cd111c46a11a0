// Package gateway implements the three operations the HTTP surface
// exposes: batch (the loader/partial-controller orchestration), and the
// metadata/status pass-through read path.
package gateway

import (
	"context"
	"fmt"
	"time"

	logger "github.com/rs/zerolog/log"

	"github.com/chainindex/archive-gateway/internal/httpapi"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/partial"
	"github.com/chainindex/archive-gateway/pkg/store"
)

var log = logger.With().Str("component", "gateway").Logger()

// Store is the metadata/status read path's storage collaborator, kept
// separate from pkg/store.Store (the batch loader's much larger query
// surface).
type Store interface {
	ListMetadata(ctx context.Context) ([]store.Metadata, error)
	GetMetadata(ctx context.Context, id string) (*store.Metadata, bool, error)
	Head(ctx context.Context) (height int64, ok bool, err error)
}

// Service implements httpapi.Gateway: the batch operation delegates to
// pkg/loader (direct mode) or pkg/partial (limit-less mode); metadata and
// status delegate to Store.
type Service struct {
	loader        *loader.Loader
	store         Store
	partialBudget time.Duration
}

var _ httpapi.Gateway = (*Service)(nil)

// New returns a Service backed by l (the batch loader) and s (the
// metadata/status read path). partialBudget overrides partial.DefaultBudget
// for limit-less requests when non-zero.
func New(l *loader.Loader, s Store, partialBudget time.Duration) *Service {
	return &Service{loader: l, store: s, partialBudget: partialBudget}
}

// Batch runs req through the Batch Loader directly, or, when partialMode is
// set (the request omitted limit), through the Partial Controller's
// windowed sweep bounded by its wall-clock budget.
func (s *Service) Batch(ctx context.Context, req loader.Request, partialMode bool) (partial.Result, error) {
	if !partialMode {
		batches, err := s.loader.Load(ctx, req)
		if err != nil {
			log.Error().Err(err).Msg("loading batch")
			return partial.Result{}, fmt.Errorf("loading batch: %s", err)
		}
		return partial.Result{Data: batches}, nil
	}

	result, err := partial.Run(ctx, s.loader, partial.Options{
		FromBlock:  req.FromBlock,
		ToBlock:    req.ToBlock,
		Selections: req.Selections,
		Budget:     s.partialBudget,
	})
	if err != nil {
		log.Error().Err(err).Msg("running partial batch")
		return partial.Result{}, fmt.Errorf("running partial batch: %s", err)
	}
	return result, nil
}

// Metadata returns every metadata row.
func (s *Service) Metadata(ctx context.Context) ([]store.Metadata, error) {
	rows, err := s.store.ListMetadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing metadata: %s", err)
	}
	return rows, nil
}

// MetadataByID returns the metadata row with the given id, or nil if none
// exists.
func (s *Service) MetadataByID(ctx context.Context, id string) (*store.Metadata, error) {
	row, ok, err := s.store.GetMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting metadata %q: %s", id, err)
	}
	if !ok {
		return nil, nil
	}
	return row, nil
}

// Status returns the archive head height, or -1 when the archive is empty.
func (s *Service) Status(ctx context.Context) (int64, error) {
	height, ok, err := s.store.Head(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading head: %s", err)
	}
	if !ok {
		return -1, nil
	}
	return height, nil
}
