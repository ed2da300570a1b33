package packs

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/packlane/packlane-backend/internal/bundle"
	"github.com/packlane/packlane-backend/pkg/config"
	"github.com/packlane/packlane-backend/pkg/db/models"
	pkgerrors "github.com/packlane/packlane-backend/pkg/errors"
	"github.com/packlane/packlane-backend/pkg/logger"
	"github.com/packlane/packlane-backend/pkg/outbox"
)

type stubCatalog struct {
	variants map[string]bundle.VariantData
	defaults map[uuid.UUID]bundle.VariantData
}

func (s *stubCatalog) ResolveVariant(_ context.Context, productID, variantID uuid.UUID) (bundle.VariantData, error) {
	data, ok := s.variants[productID.String()+"/"+variantID.String()]
	if !ok {
		return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found for product")
	}
	return data, nil
}

func (s *stubCatalog) ResolveDefaultVariant(_ context.Context, productID uuid.UUID) (bundle.VariantData, error) {
	data, ok := s.defaults[productID]
	if !ok {
		return bundle.VariantData{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return data, nil
}

type memorySnapshots struct {
	data    map[uuid.UUID][]bundle.SelectionEntry
	saveErr error
	saves   int
}

func newMemorySnapshots() *memorySnapshots {
	return &memorySnapshots{data: map[uuid.UUID][]bundle.SelectionEntry{}}
}

func (m *memorySnapshots) Save(_ context.Context, sessionID uuid.UUID, entries []bundle.SelectionEntry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.data[sessionID] = entries
	return nil
}

func (m *memorySnapshots) Load(_ context.Context, sessionID uuid.UUID) ([]bundle.SelectionEntry, bool, error) {
	entries, ok := m.data[sessionID]
	return entries, ok, nil
}

func (m *memorySnapshots) Delete(_ context.Context, sessionID uuid.UUID) error {
	delete(m.data, sessionID)
	return nil
}

type stubLock struct {
	held     bool
	acquires int
	releases int
}

func (s *stubLock) Acquire(_ context.Context, _ uuid.UUID) (bool, error) {
	s.acquires++
	if s.held {
		return false, nil
	}
	s.held = true
	return true, nil
}

func (s *stubLock) Release(_ context.Context, _ uuid.UUID) error {
	s.releases++
	s.held = false
	return nil
}

type stubCart struct {
	itemCount int
	err       error
	calls     int
	lastLines []bundle.CartLine
}

func (s *stubCart) Submit(_ context.Context, lines []bundle.CartLine) (int, error) {
	s.calls++
	s.lastLines = lines
	if s.err != nil {
		return 0, s.err
	}
	return s.itemCount, nil
}

type recordedEvent struct {
	event outbox.DomainEvent
}

type stubEmitter struct {
	events []recordedEvent
	err    error
}

func (s *stubEmitter) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if tx == nil {
		return fmt.Errorf("transaction required")
	}
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, recordedEvent{event: event})
	return nil
}

type sqliteTxRunner struct {
	db *gorm.DB
}

func (r *sqliteTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type packsTestEnv struct {
	svc       Service
	catalog   *stubCatalog
	snapshots *memorySnapshots
	lock      *stubLock
	cart      *stubCart
	emitter   *stubEmitter
	db        *gorm.DB
}

func setupPacksTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS pack_submissions (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  discount_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  total_quantity INTEGER NOT NULL,
  cart_item_count INTEGER NOT NULL,
  lines TEXT NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func sessionConfigForTests() config.SessionConfig {
	return config.SessionConfig{
		Secret:            "test-secret",
		Issuer:            "packlane-test",
		ExpirationMinutes: 60,
		SnapshotTTL:       time.Hour,
	}
}

func newPacksTestEnv(t *testing.T) *packsTestEnv {
	t.Helper()

	db := setupPacksTestDB(t)
	env := &packsTestEnv{
		catalog: &stubCatalog{
			variants: map[string]bundle.VariantData{},
			defaults: map[uuid.UUID]bundle.VariantData{},
		},
		snapshots: newMemorySnapshots(),
		lock:      &stubLock{},
		cart:      &stubCart{itemCount: 1},
		emitter:   &stubEmitter{},
		db:        db,
	}

	logg := logger.New(logger.Options{ServiceName: "packs-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(
		sessionConfigForTests(),
		bundle.DefaultTiers(),
		env.catalog,
		env.snapshots,
		env.lock,
		env.cart,
		&sqliteTxRunner{db: db},
		NewRepository(db),
		env.emitter,
		nil,
		logg,
	)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func (e *packsTestEnv) registerVariant(productID, variantID uuid.UUID, priceCents int64, label string, isDefault bool) {
	data := bundle.VariantData{
		VariantID:      variantID.String(),
		UnitPriceCents: priceCents,
		Label:          label,
	}
	e.catalog.variants[productID.String()+"/"+variantID.String()] = data
	if isDefault {
		e.catalog.defaults[productID] = data
	}
}

func TestServiceStartSession(t *testing.T) {
	env := newPacksTestEnv(t)

	session, err := env.svc.StartSession(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, session.SessionID)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))

	entries, found, err := env.snapshots.Load(context.Background(), session.SessionID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, entries)
}

func TestServiceChangeQuantity(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	variantID := uuid.New()

	t.Run("adds product using its default variant", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, variantID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		quote, err := env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 2})
		require.NoError(t, err)

		require.Len(t, quote.Items, 1)
		assert.Equal(t, 2, quote.Items[0].Quantity)
		assert.Equal(t, variantID.String(), quote.Items[0].VariantID)
		assert.Equal(t, int64(2000), quote.SubtotalCents)
		assert.Equal(t, int64(200), quote.DiscountCents)
		assert.Equal(t, int64(1800), quote.TotalCents)
	})

	t.Run("explicit variant wins over the default", func(t *testing.T) {
		env := newPacksTestEnv(t)
		other := uuid.New()
		env.registerVariant(productID, variantID, 1000, "Small", true)
		env.registerVariant(productID, other, 1500, "Large", false)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		quote, err := env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, VariantID: &other, Delta: 1})
		require.NoError(t, err)
		assert.Equal(t, other.String(), quote.Items[0].VariantID)
		assert.Equal(t, int64(1500), quote.SubtotalCents)
	})

	t.Run("unknown product maps to not found", func(t *testing.T) {
		env := newPacksTestEnv(t)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: uuid.New(), Delta: 1})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("negative result leaves stored snapshot alone", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, variantID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 2})
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: -5})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

		entries, _, err := env.snapshots.Load(ctx, session.SessionID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 2, entries[0].Quantity)
	})

	t.Run("clamps at the per-product maximum", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, variantID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		quote, err := env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: bundle.MaxQuantity + 10})
		require.NoError(t, err)
		assert.Equal(t, bundle.MaxQuantity, quote.Items[0].Quantity)
	})

	t.Run("drop to zero removes the line", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, variantID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 1})
		require.NoError(t, err)

		quote, err := env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: -1})
		require.NoError(t, err)
		assert.Empty(t, quote.Items)
		assert.Equal(t, int64(0), quote.SubtotalCents)
	})
}

func TestServiceChangeVariant(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	smallID := uuid.New()
	largeID := uuid.New()

	t.Run("swaps variant keeping quantity", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, smallID, 1000, "Small", true)
		env.registerVariant(productID, largeID, 1500, "Large", false)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 3})
		require.NoError(t, err)

		quote, err := env.svc.ChangeVariant(ctx, session.SessionID, ChangeVariantInput{ProductID: productID, VariantID: largeID})
		require.NoError(t, err)

		require.Len(t, quote.Items, 1)
		assert.Equal(t, 3, quote.Items[0].Quantity)
		assert.Equal(t, largeID.String(), quote.Items[0].VariantID)
		assert.Equal(t, int64(4500), quote.SubtotalCents)
	})

	t.Run("product not in pack maps to not found", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, smallID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeVariant(ctx, session.SessionID, ChangeVariantInput{ProductID: productID, VariantID: smallID})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("unknown variant maps to not found", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.registerVariant(productID, smallID, 1000, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 1})
		require.NoError(t, err)

		_, err = env.svc.ChangeVariant(ctx, session.SessionID, ChangeVariantInput{ProductID: productID, VariantID: uuid.New()})
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})
}

func TestServiceGetQuote(t *testing.T) {
	ctx := context.Background()
	env := newPacksTestEnv(t)
	productA := uuid.New()
	productB := uuid.New()
	env.registerVariant(productA, uuid.New(), 700, "A", true)
	env.registerVariant(productB, uuid.New(), 700, "B", true)

	session, err := env.svc.StartSession(ctx)
	require.NoError(t, err)

	_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productA, Delta: 3})
	require.NoError(t, err)
	_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productB, Delta: 2})
	require.NoError(t, err)

	quote, err := env.svc.GetQuote(ctx, session.SessionID)
	require.NoError(t, err)

	assert.Equal(t, 5, quote.TotalQuantity)
	assert.Equal(t, int64(3500), quote.SubtotalCents)
	assert.Equal(t, "0.2", quote.DiscountRate)
	assert.Equal(t, int64(700), quote.DiscountCents)
	assert.Equal(t, int64(2800), quote.TotalCents)
}

func TestServiceSubmitPack(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	variantID := uuid.New()

	seed := func(t *testing.T, env *packsTestEnv) uuid.UUID {
		t.Helper()
		env.registerVariant(productID, variantID, 700, "Small", true)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)
		_, err = env.svc.ChangeQuantity(ctx, session.SessionID, ChangeQuantityInput{ProductID: productID, Delta: 5})
		require.NoError(t, err)
		return session.SessionID
	}

	t.Run("records submission, emits event, resets selection", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.cart.itemCount = 5
		sessionID := seed(t, env)

		result, err := env.svc.SubmitPack(ctx, sessionID)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, result.SubmissionID)
		assert.Equal(t, 5, result.CartItemCount)
		assert.Empty(t, result.Quote.Items)
		assert.Equal(t, int64(0), result.Quote.SubtotalCents)

		require.Len(t, env.cart.lastLines, 1)
		assert.Equal(t, bundle.CartLine{VariantID: variantID.String(), Quantity: 5}, env.cart.lastLines[0])

		var rows []models.PackSubmission
		require.NoError(t, env.db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, sessionID, rows[0].SessionID)
		assert.Equal(t, int64(3500), rows[0].SubtotalCents)
		assert.Equal(t, int64(700), rows[0].DiscountCents)
		assert.Equal(t, int64(2800), rows[0].TotalCents)

		require.Len(t, env.emitter.events, 1)
		assert.Equal(t, sessionID, env.emitter.events[0].event.AggregateID)

		entries, _, err := env.snapshots.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Empty(t, entries)

		assert.Equal(t, 1, env.lock.acquires)
		assert.Equal(t, 1, env.lock.releases)
	})

	t.Run("empty pack is rejected before any cart call", func(t *testing.T) {
		env := newPacksTestEnv(t)
		session, err := env.svc.StartSession(ctx)
		require.NoError(t, err)

		_, err = env.svc.SubmitPack(ctx, session.SessionID)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		assert.Equal(t, 0, env.cart.calls)
	})

	t.Run("cart failure keeps the selection intact", func(t *testing.T) {
		env := newPacksTestEnv(t)
		env.cart.err = pkgerrors.New(pkgerrors.CodeDependency, "cart request failed")
		sessionID := seed(t, env)

		_, err := env.svc.SubmitPack(ctx, sessionID)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())

		entries, _, err := env.snapshots.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, 5, entries[0].Quantity)

		var rows []models.PackSubmission
		require.NoError(t, env.db.Find(&rows).Error)
		assert.Empty(t, rows)
		assert.Empty(t, env.emitter.events)
	})

	t.Run("concurrent submission is rejected with conflict", func(t *testing.T) {
		env := newPacksTestEnv(t)
		sessionID := seed(t, env)
		env.lock.held = true

		_, err := env.svc.SubmitPack(ctx, sessionID)
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
		assert.Equal(t, 0, env.cart.calls)
	})
}
