package telemetry

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/infra/config"
)

// Provider is the handle returned by Attach. Tracing is nil when no OTLP
// endpoint is configured.
type Provider struct {
	tracing *TracerProvider
}

// Attach wires telemetry exporters for the process. Tracing is optional;
// an empty OTLP endpoint leaves it disabled.
func Attach(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	p := &Provider{}

	if cfg.Telemetry.OTLPEndpoint != "" {
		tp, err := NewTracerProvider(ctx, cfg.Telemetry, logger)
		if err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
		p.tracing = tp
	}

	return p, nil
}

// Shutdown flushes and stops any attached exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tracing == nil {
		return nil
	}
	return p.tracing.Shutdown(ctx)
}
