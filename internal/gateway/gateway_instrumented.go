package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric/global"
	"go.opentelemetry.io/otel/metric/instrument"

	"github.com/chainindex/archive-gateway/internal/httpapi"
	"github.com/chainindex/archive-gateway/pkg/loader"
	"github.com/chainindex/archive-gateway/pkg/metrics"
	"github.com/chainindex/archive-gateway/pkg/partial"
	"github.com/chainindex/archive-gateway/pkg/store"
)

// Instrumented wraps an httpapi.Gateway with per-method call count and
// latency metrics.
type Instrumented struct {
	gateway          httpapi.Gateway
	callCount        instrument.Int64Counter
	latencyHistogram instrument.Int64Histogram
}

var _ httpapi.Gateway = (*Instrumented)(nil)

// NewInstrumented wraps gw with call-count and latency instrumentation.
func NewInstrumented(gw httpapi.Gateway) (httpapi.Gateway, error) {
	meter := global.MeterProvider().Meter("archivegateway")
	callCount, err := meter.Int64Counter("archivegateway.call.count")
	if err != nil {
		return nil, err
	}
	latencyHistogram, err := meter.Int64Histogram("archivegateway.call.latency")
	if err != nil {
		return nil, err
	}
	return &Instrumented{gateway: gw, callCount: callCount, latencyHistogram: latencyHistogram}, nil
}

func (g *Instrumented) observe(ctx context.Context, method string, start time.Time, err error) {
	attrs := append(metrics.MethodAttributes(method, err), metrics.BaseAttrs...)
	g.callCount.Add(ctx, 1, attrs...)
	g.latencyHistogram.Record(ctx, time.Since(start).Milliseconds(), attrs...)
}

// Batch implements httpapi.Gateway.
func (g *Instrumented) Batch(ctx context.Context, req loader.Request, partialMode bool) (partial.Result, error) {
	start := time.Now()
	result, err := g.gateway.Batch(ctx, req, partialMode)
	g.observe(ctx, "Batch", start, err)
	return result, err
}

// Metadata implements httpapi.Gateway.
func (g *Instrumented) Metadata(ctx context.Context) ([]store.Metadata, error) {
	start := time.Now()
	rows, err := g.gateway.Metadata(ctx)
	g.observe(ctx, "Metadata", start, err)
	return rows, err
}

// MetadataByID implements httpapi.Gateway.
func (g *Instrumented) MetadataByID(ctx context.Context, id string) (*store.Metadata, error) {
	start := time.Now()
	row, err := g.gateway.MetadataByID(ctx, id)
	g.observe(ctx, "MetadataByID", start, err)
	return row, err
}

// Status implements httpapi.Gateway.
func (g *Instrumented) Status(ctx context.Context) (int64, error) {
	start := time.Now()
	head, err := g.gateway.Status(ctx)
	g.observe(ctx, "Status", start, err)
	return head, err
}
