package packs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/internal/bundle"
	"github.com/packlane/packlane-backend/pkg/auth"
	"github.com/packlane/packlane-backend/pkg/config"
	"github.com/packlane/packlane-backend/pkg/db/models"
	"github.com/packlane/packlane-backend/pkg/enums"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
	"github.com/packlane/packlane-backend/pkg/logger"
	"github.com/packlane/packlane-backend/pkg/metrics"
	"github.com/packlane/packlane-backend/pkg/outbox"
	"github.com/packlane/packlane-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogResolver interface {
	ResolveVariant(ctx context.Context, productID, variantID uuid.UUID) (bundle.VariantData, error)
	ResolveDefaultVariant(ctx context.Context, productID uuid.UUID) (bundle.VariantData, error)
}

type cartSubmitter interface {
	Submit(ctx context.Context, lines []bundle.CartLine) (int, error)
}

type snapshotStore interface {
	Save(ctx context.Context, sessionID uuid.UUID, entries []bundle.SelectionEntry) error
	Load(ctx context.Context, sessionID uuid.UUID) ([]bundle.SelectionEntry, bool, error)
	Delete(ctx context.Context, sessionID uuid.UUID) error
}

type submitLocker interface {
	Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error)
	Release(ctx context.Context, sessionID uuid.UUID) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// ChangeQuantityInput is the validated payload for a quantity mutation. A nil
// VariantID means "keep the current variant", falling back to the product's
// default when the product is not yet in the pack.
type ChangeQuantityInput struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Delta     int
}

// ChangeVariantInput swaps the variant of an already selected product.
type ChangeVariantInput struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

// Service drives pack-builder sessions: selection mutations, derived quotes,
// and the final push into the storefront cart.
type Service interface {
	StartSession(ctx context.Context) (*SessionDTO, error)
	GetQuote(ctx context.Context, sessionID uuid.UUID) (*QuoteDTO, error)
	ChangeQuantity(ctx context.Context, sessionID uuid.UUID, input ChangeQuantityInput) (*QuoteDTO, error)
	ChangeVariant(ctx context.Context, sessionID uuid.UUID, input ChangeVariantInput) (*QuoteDTO, error)
	SubmitPack(ctx context.Context, sessionID uuid.UUID) (*SubmitResultDTO, error)
	ListSubmissions(ctx context.Context, sessionID uuid.UUID, limit int) ([]SubmissionDTO, error)
}

type service struct {
	sessionCfg config.SessionConfig
	tiers      []bundle.DiscountTier
	catalog    catalogResolver
	snapshots  snapshotStore
	lock       submitLocker
	cart       cartSubmitter
	tx         txRunner
	repo       *Repository
	events     eventEmitter
	metrics    *metrics.PackMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService builds the pack session service backed by the provided stack.
func NewService(
	sessionCfg config.SessionConfig,
	tiers []bundle.DiscountTier,
	catalog catalogResolver,
	snapshots snapshotStore,
	lock submitLocker,
	cart cartSubmitter,
	tx txRunner,
	repo *Repository,
	events eventEmitter,
	packMetrics *metrics.PackMetrics,
	logg *logger.Logger,
) (Service, error) {
	if len(tiers) == 0 {
		return nil, fmt.Errorf("discount tiers required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog resolver required")
	}
	if snapshots == nil {
		return nil, fmt.Errorf("snapshot store required")
	}
	if lock == nil {
		return nil, fmt.Errorf("submit lock required")
	}
	if cart == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("submission repository required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		sessionCfg: sessionCfg,
		tiers:      tiers,
		catalog:    catalog,
		snapshots:  snapshots,
		lock:       lock,
		cart:       cart,
		tx:         tx,
		repo:       repo,
		events:     events,
		metrics:    packMetrics,
		logg:       logg,
		now:        time.Now,
	}, nil
}

// StartSession mints a new builder session with an empty selection.
func (s *service) StartSession(ctx context.Context) (*SessionDTO, error) {
	sessionID := uuid.New()
	now := s.now()

	token, err := auth.MintSessionToken(s.sessionCfg, now, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint session token")
	}

	if err := s.snapshots.Save(ctx, sessionID, nil); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "initialize session snapshot")
	}

	ctx = s.logg.WithPackSession(ctx, sessionID.String())
	s.logg.Info(ctx, "pack session started")

	return &SessionDTO{
		SessionID: sessionID,
		Token:     token,
		ExpiresAt: now.Add(s.sessionCfg.TokenTTL()),
	}, nil
}

// GetQuote recomputes totals for the stored selection.
func (s *service) GetQuote(ctx context.Context, sessionID uuid.UUID) (*QuoteDTO, error) {
	coordinator, err := s.loadCoordinator(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	quote := toQuoteDTO(coordinator.Snapshot(), coordinator.Pricing())
	return &quote, nil
}

// ChangeQuantity applies a quantity delta and persists the new snapshot.
func (s *service) ChangeQuantity(ctx context.Context, sessionID uuid.UUID, input ChangeQuantityInput) (*QuoteDTO, error) {
	ctx = s.logg.WithPackSession(ctx, sessionID.String())
	ctx = s.logg.WithProductID(ctx, input.ProductID.String())

	if input.ProductID == uuid.Nil {
		s.metrics.IncMutation("change_quantity", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	coordinator, err := s.loadCoordinator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	variant, err := s.resolveQuantityVariant(ctx, coordinator, input)
	if err != nil {
		s.metrics.IncMutation("change_quantity", "rejected")
		return nil, err
	}

	started := s.now()
	pricing, err := coordinator.ChangeQuantity(input.ProductID.String(), input.Delta, variant)
	if err != nil {
		s.metrics.IncMutation("change_quantity", "rejected")
		return nil, err
	}
	s.metrics.ObservePricing("change_quantity", s.now().Sub(started))

	if err := s.snapshots.Save(ctx, sessionID, coordinator.Snapshot()); err != nil {
		s.metrics.IncMutation("change_quantity", "failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist snapshot")
	}

	s.metrics.IncMutation("change_quantity", "ok")
	quote := toQuoteDTO(coordinator.Snapshot(), pricing)
	return &quote, nil
}

// ChangeVariant swaps the variant of a selected product, keeping its
// quantity. Products not in the pack are reported, not added.
func (s *service) ChangeVariant(ctx context.Context, sessionID uuid.UUID, input ChangeVariantInput) (*QuoteDTO, error) {
	ctx = s.logg.WithPackSession(ctx, sessionID.String())
	ctx = s.logg.WithProductID(ctx, input.ProductID.String())

	if input.ProductID == uuid.Nil || input.VariantID == uuid.Nil {
		s.metrics.IncMutation("change_variant", "rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product and variant ids are required")
	}

	coordinator, err := s.loadCoordinator(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	variant, err := s.catalog.ResolveVariant(ctx, input.ProductID, input.VariantID)
	if err != nil {
		s.metrics.IncMutation("change_variant", "rejected")
		return nil, err
	}

	started := s.now()
	pricing, err := coordinator.ChangeVariant(input.ProductID.String(), variant.VariantID, variant.UnitPriceCents, variant.Label)
	if err != nil {
		s.metrics.IncMutation("change_variant", "rejected")
		if pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound {
			s.logg.Warn(ctx, "variant change for product not in pack")
		}
		return nil, err
	}
	s.metrics.ObservePricing("change_variant", s.now().Sub(started))

	if err := s.snapshots.Save(ctx, sessionID, coordinator.Snapshot()); err != nil {
		s.metrics.IncMutation("change_variant", "failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist snapshot")
	}

	s.metrics.IncMutation("change_variant", "ok")
	quote := toQuoteDTO(coordinator.Snapshot(), pricing)
	return &quote, nil
}

type packSubmittedEvent struct {
	SubmissionID  uuid.UUID         `json:"submission_id"`
	SessionID     uuid.UUID         `json:"session_id"`
	SubtotalCents int64             `json:"subtotal_cents"`
	DiscountCents int64             `json:"discount_cents"`
	TotalCents    int64             `json:"total_cents"`
	TotalQuantity int               `json:"total_quantity"`
	CartItemCount int               `json:"cart_item_count"`
	Lines         []bundle.CartLine `json:"lines"`
}

// SubmitPack pushes the selection into the storefront cart, records the
// submission, and resets the session's selection. The pack state is left
// untouched when the cart call fails so the shopper can retry.
func (s *service) SubmitPack(ctx context.Context, sessionID uuid.UUID) (*SubmitResultDTO, error) {
	ctx = s.logg.WithPackSession(ctx, sessionID.String())

	coordinator, err := s.loadCoordinator(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := coordinator.ValidateForSubmit(); err != nil {
		s.metrics.IncSubmission("rejected")
		return nil, err
	}

	acquired, err := s.lock.Acquire(ctx, sessionID)
	if err != nil {
		s.metrics.IncSubmission("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire submit lock")
	}
	if !acquired {
		s.metrics.IncSubmission("conflict")
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "submission already in progress")
	}
	defer func() {
		if err := s.lock.Release(ctx, sessionID); err != nil {
			s.logg.Warn(ctx, "release submit lock failed")
		}
	}()

	lines := coordinator.BuildCartMutation()
	pricing := coordinator.Pricing()

	itemCount, err := s.cart.Submit(ctx, lines)
	if err != nil {
		s.metrics.IncSubmission("failed")
		s.logg.Error(ctx, "cart submission failed", err)
		return nil, err
	}

	linesJSON, err := json.Marshal(lines)
	if err != nil {
		s.metrics.IncSubmission("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode submission lines")
	}

	submission := &models.PackSubmission{
		ID:            uuid.New(),
		SessionID:     sessionID,
		SubtotalCents: pricing.SubtotalCents,
		DiscountCents: pricing.DiscountCents,
		TotalCents:    pricing.TotalCents,
		TotalQuantity: pricing.TotalQuantity,
		CartItemCount: itemCount,
		Lines:         linesJSON,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Insert(ctx, submission); err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPackSubmitted,
			AggregateType: enums.AggregatePackSession,
			AggregateID:   sessionID,
			Version:       1,
			OccurredAt:    s.now(),
			Data: packSubmittedEvent{
				SubmissionID:  submission.ID,
				SessionID:     sessionID,
				SubtotalCents: pricing.SubtotalCents,
				DiscountCents: pricing.DiscountCents,
				TotalCents:    pricing.TotalCents,
				TotalQuantity: pricing.TotalQuantity,
				CartItemCount: itemCount,
				Lines:         lines,
			},
		})
	})
	if err != nil {
		s.metrics.IncSubmission("failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record submission")
	}

	// The cart accepted the pack; the builder starts fresh.
	resetPricing := coordinator.Reset()
	if err := s.snapshots.Save(ctx, sessionID, nil); err != nil {
		s.logg.Error(ctx, "reset snapshot after submission failed", err)
	}

	s.metrics.IncSubmission("ok")
	s.logg.Info(ctx, "pack submitted")

	return &SubmitResultDTO{
		SubmissionID:  submission.ID,
		CartItemCount: itemCount,
		Quote:         toQuoteDTO(nil, resetPricing),
	}, nil
}

// ListSubmissions returns the session's submission history, newest first.
func (s *service) ListSubmissions(ctx context.Context, sessionID uuid.UUID, limit int) ([]SubmissionDTO, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	rows, err := s.repo.ListBySession(ctx, sessionID, pagination.NormalizeLimit(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list submissions")
	}

	out := make([]SubmissionDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, SubmissionDTO{
			SubmissionID:  row.ID,
			SubtotalCents: row.SubtotalCents,
			DiscountCents: row.DiscountCents,
			TotalCents:    row.TotalCents,
			TotalQuantity: row.TotalQuantity,
			CartItemCount: row.CartItemCount,
			SubmittedAt:   row.CreatedAt,
		})
	}
	return out, nil
}

func (s *service) loadCoordinator(ctx context.Context, sessionID uuid.UUID) (*bundle.Coordinator, error) {
	if sessionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}

	entries, _, err := s.snapshots.Load(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load snapshot")
	}

	coordinator, err := bundle.NewCoordinator(s.tiers, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build coordinator")
	}
	if err := coordinator.Restore(entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "restore snapshot")
	}
	return coordinator, nil
}

func (s *service) resolveQuantityVariant(ctx context.Context, coordinator *bundle.Coordinator, input ChangeQuantityInput) (bundle.VariantData, error) {
	if input.VariantID != nil && *input.VariantID != uuid.Nil {
		return s.catalog.ResolveVariant(ctx, input.ProductID, *input.VariantID)
	}

	for _, entry := range coordinator.Snapshot() {
		if entry.ProductID == input.ProductID.String() {
			// Coordinator keeps the current variant when none is supplied.
			return bundle.VariantData{}, nil
		}
	}

	if input.Delta <= 0 {
		// Decrementing a product that is not in the pack.
		return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not in pack")
	}
	return s.catalog.ResolveDefaultVariant(ctx, input.ProductID)
}
