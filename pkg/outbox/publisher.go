package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/packlane/packlane-backend/pkg/config"
	"github.com/packlane/packlane-backend/pkg/logger"
)

// MessagePublisher is the transport the drain loop hands rows to.
type MessagePublisher interface {
	Publish(ctx context.Context, data []byte, attributes map[string]string) (string, error)
}

// Publisher drains unpublished outbox rows to the message transport.
type Publisher struct {
	repo      *Repository
	transport MessagePublisher
	logg      *logger.Logger
	cfg       config.OutboxConfig
}

func NewPublisher(repo *Repository, transport MessagePublisher, logg *logger.Logger, cfg config.OutboxConfig) (*Publisher, error) {
	if repo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if transport == nil {
		return nil, fmt.Errorf("message transport required")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive")
	}
	return &Publisher{repo: repo, transport: transport, logg: logg, cfg: cfg}, nil
}

// Run polls until the context is canceled.
func (p *Publisher) Run(ctx context.Context) error {
	interval := time.Duration(p.cfg.PollIntervalMS) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.DrainOnce(ctx); err != nil {
				if p.logg != nil {
					p.logg.Error(ctx, "outbox drain failed", err)
				}
			}
		}
	}
}

// DrainOnce publishes at most one batch of pending rows.
func (p *Publisher) DrainOnce(ctx context.Context) error {
	rows, err := p.repo.FetchUnpublished(p.cfg.BatchSize)
	if err != nil {
		return fmt.Errorf("fetch unpublished: %w", err)
	}

	for _, row := range rows {
		if p.cfg.MaxAttempts > 0 && row.AttemptCount >= p.cfg.MaxAttempts {
			continue
		}

		attrs := map[string]string{
			"event_type":     row.EventType.String(),
			"aggregate_type": row.AggregateType.String(),
			"aggregate_id":   row.AggregateID.String(),
		}

		if _, err := p.transport.Publish(ctx, row.Payload, attrs); err != nil {
			if markErr := p.repo.MarkFailed(row.ID, err); markErr != nil && p.logg != nil {
				p.logg.Error(ctx, "failed to mark outbox row failed", markErr)
			}
			continue
		}

		if err := p.repo.MarkPublished(row.ID); err != nil {
			return fmt.Errorf("mark published: %w", err)
		}

		if p.logg != nil {
			fields := map[string]any{
				"event_type":   row.EventType,
				"aggregate_id": row.AggregateID.String(),
			}
			p.logg.Info(p.logg.WithFields(ctx, fields), "outbox event published")
		}
	}

	return nil
}
