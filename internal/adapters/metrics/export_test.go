package metrics

import (
	"context"
	"net"

	"go.trai.ch/hoard/internal/core/ports"
)

// ServeListener runs the metrics server on an existing listener.
func (p *Prometheus) ServeListener(ctx context.Context, ln net.Listener, log ports.Logger) error {
	return p.serve(ctx, ln, log)
}
