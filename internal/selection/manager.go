package selection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wakebell/wakebell/internal/domain"
	"github.com/wakebell/wakebell/internal/logger"
)

// DefaultHistoryDays is the rolling window kept in the selection record.
const DefaultHistoryDays = 30

// Catalog is the content lookup consumed by the manager.
type Catalog interface {
	ListAvailable() []*domain.ContentItem
	ByNumber(number int) *domain.ContentItem
	MarkUsed(number int, date string)
}

// Store persists the selection record.
type Store interface {
	LoadSelection(ctx context.Context) (*domain.SelectionRecord, error)
	SaveSelection(ctx context.Context, rec *domain.SelectionRecord) error
}

// Manager chooses the content item for the current calendar date.
// The choice is cached per local date so every trigger of the same day
// plays the same item; Reselect discards the cache for today.
type Manager struct {
	catalog     Catalog
	store       Store
	strategy    Strategy
	logger      logger.Logger
	clock       func() time.Time
	historyDays int

	mu  sync.Mutex
	rec *domain.SelectionRecord
}

func NewManager(catalog Catalog, store Store, strategy Strategy, log logger.Logger, clock func() time.Time, historyDays int) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if historyDays <= 0 {
		historyDays = DefaultHistoryDays
	}
	return &Manager{
		catalog:     catalog,
		store:       store,
		strategy:    strategy,
		logger:      log,
		clock:       clock,
		historyDays: historyDays,
	}
}

// TodaysSelection returns the item chosen for today, picking one first if
// needed. Returns (nil, nil) when no content is available at all.
func (m *Manager) TodaysSelection(ctx context.Context) (*domain.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.record(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	date := now.Format(domain.DateFormat)

	if n, ok := rec.Get(date); ok {
		if item := m.catalog.ByNumber(n); item != nil && item.Available {
			return item, nil
		}
		// Cached item vanished from the catalog; pick again.
		m.logger.Warn("cached selection no longer available, repicking",
			logger.Int("number", n),
			logger.String("date", date))
	}

	return m.pick(ctx, rec, now, date)
}

// Reselect forces a fresh pick for today, overwriting the cache.
func (m *Manager) Reselect(ctx context.Context) (*domain.ContentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.record(ctx)
	if err != nil {
		return nil, err
	}

	now := m.clock()
	return m.pick(ctx, rec, now, now.Format(domain.DateFormat))
}

// History returns a copy of the current selection record.
func (m *Manager) History(ctx context.Context) (*domain.SelectionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.record(ctx)
	if err != nil {
		return nil, err
	}

	cp := domain.NewSelectionRecord()
	for date, n := range rec.Days {
		cp.Set(date, n)
	}
	return cp, nil
}

// PruneHistory drops entries older than the rolling window and persists.
func (m *Manager) PruneHistory(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, err := m.record(ctx)
	if err != nil {
		return err
	}

	before := len(rec.Days)
	rec.Prune(m.clock(), m.historyDays)
	if len(rec.Days) == before {
		return nil
	}

	if err := m.store.SaveSelection(ctx, rec); err != nil {
		return fmt.Errorf("persisting pruned history: %w", err)
	}
	m.logger.Debug("pruned selection history",
		logger.Int("removed", before-len(rec.Days)))
	return nil
}

func (m *Manager) pick(ctx context.Context, rec *domain.SelectionRecord, now time.Time, date string) (*domain.ContentItem, error) {
	items := m.catalog.ListAvailable()
	if len(items) == 0 {
		return nil, nil
	}

	item := m.strategy.Pick(items, rec, now)
	if item == nil {
		return nil, nil
	}

	rec.Set(date, item.Number)
	rec.Prune(now, m.historyDays)

	if err := m.store.SaveSelection(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting selection: %w", err)
	}

	m.catalog.MarkUsed(item.Number, date)

	m.logger.Info("selected content for the day",
		logger.String("date", date),
		logger.Int("number", item.Number),
		logger.String("title", item.Title),
		logger.String("strategy", m.strategy.Name()))
	return item, nil
}

// record lazily loads the persisted selection record.
func (m *Manager) record(ctx context.Context) (*domain.SelectionRecord, error) {
	if m.rec != nil {
		return m.rec, nil
	}
	rec, err := m.store.LoadSelection(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading selection record: %w", err)
	}
	m.rec = rec
	return rec, nil
}
