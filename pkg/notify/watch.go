package notify

import (
	"context"

	"github.com/socialconnect/cli/pkg/logger"
	"github.com/socialconnect/cli/pkg/stream"
)

// Watch fetches the current list, then applies events from src until the
// stream ends or ctx is cancelled. A failed fetch does not stop the
// stream. At most one stream is open per call; cancelling ctx closes it.
func (p *Pipeline) Watch(ctx context.Context, src stream.Source, opts stream.Options) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := stream.Subscribe(ctx, src, opts)

	if err := p.Fetch(ctx); err != nil && ctx.Err() == nil {
		logger.Debug("Initial notification fetch failed", "error", err)
	}

	p.Run(ctx, events)
	logger.Debug("Notification watch ended", "source", src.Name())
}
