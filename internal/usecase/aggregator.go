package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"NewsForge/internal/domain"
	"NewsForge/internal/ports"
)

// Aggregator applies user vote batches against the score ledger and answers
// ranked queries. A single mutex serializes every mutation (vote application
// and cycle swap), so concurrent batches never lose updates and a cycle swap
// acts as a barrier for in-flight votes from the previous cycle.
type Aggregator struct {
	repository ports.NewsRepository
	batchSize  int
	logger     *slog.Logger

	mu    sync.Mutex
	batch domain.Batch
}

// NewAggregator constructs the engine over the given store. batchSize is the
// number of most recent items that form the votable batch.
func NewAggregator(repository ports.NewsRepository, batchSize int, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		repository: repository,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// ApplyVotes validates and applies one user's vote batch. Preconditions are
// checked before any mutation: the batch must target the current cycle, the
// user's gate must be open, and every target must belong to the votable
// batch. The whole batch and the gate flip are applied as one unit.
func (a *Aggregator) ApplyVotes(ctx context.Context, userID string, batch domain.VoteBatch) error {
	if len(batch.Votes) == 0 {
		return fmt.Errorf("empty vote batch: %w", domain.ErrInvalidTarget)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if batch.Cycle != a.batch.Cycle {
		return domain.ErrStaleCycle
	}

	voted, err := a.repository.HasVoted(ctx, userID)
	if err != nil {
		return fmt.Errorf("check vote gate for %s: %w", userID, err)
	}
	if voted {
		return domain.ErrAlreadyVoted
	}

	for _, id := range batch.ItemIDs() {
		if !a.batch.Contains(id) {
			return fmt.Errorf("item %d: %w", id, domain.ErrInvalidTarget)
		}
	}

	if err := a.repository.ApplyVoteBatch(ctx, userID, batch.Votes); err != nil {
		return fmt.Errorf("apply vote batch for %s: %w", userID, err)
	}

	a.debug("vote batch applied", "user", userID, "votes", len(batch.Votes))
	return nil
}

// TopNews returns the k highest-scoring items of the whole archive, computed
// fresh from persisted scores. Ties go to the newest item. k of zero or less
// yields an empty slice; k beyond the archive size yields the whole archive.
func (a *Aggregator) TopNews(ctx context.Context, k int) ([]domain.NewsItem, error) {
	if k <= 0 {
		return []domain.NewsItem{}, nil
	}

	items, err := a.repository.TopByScore(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("query top news: %w", err)
	}
	return items, nil
}

// Archive returns every published item, newest first.
func (a *Aggregator) Archive(ctx context.Context) ([]domain.NewsItem, error) {
	items, err := a.repository.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("query archive: %w", err)
	}
	return items, nil
}

// CurrentBatch returns the votable batch as of the last cycle boundary. It
// is a stable snapshot, not a live store query, so voting targets do not
// shift mid-cycle.
func (a *Aggregator) CurrentBatch() domain.Batch {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.snapshot()
}

// BeginCycle recomputes the votable batch from the store and then reopens
// every user's vote gate, in that order, under the engine lock. Votes still
// waiting on the lock when the swap lands are rejected as stale afterwards.
func (a *Aggregator) BeginCycle(ctx context.Context) (domain.Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.recompute(ctx)
	if err != nil {
		return domain.Batch{}, err
	}

	if err := a.repository.ResetVotes(ctx); err != nil {
		return domain.Batch{}, fmt.Errorf("reset vote gates: %w", err)
	}

	a.batch = domain.Batch{Cycle: domain.NewCycleID(), Items: items}
	a.debug("cycle swapped", "cycle", a.batch.Cycle, "batch_size", len(items))

	return a.snapshot(), nil
}

// Bootstrap loads the votable batch from the store without touching any vote
// gate, for process start where a cycle may already be underway.
func (a *Aggregator) Bootstrap(ctx context.Context) (domain.Batch, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	items, err := a.recompute(ctx)
	if err != nil {
		return domain.Batch{}, err
	}

	a.batch = domain.Batch{Cycle: domain.NewCycleID(), Items: items}
	return a.snapshot(), nil
}

// recompute reads the most recent items; voters see the batch oldest to
// newest, so the store's newest-first order is reversed.
func (a *Aggregator) recompute(ctx context.Context) ([]domain.NewsItem, error) {
	latest, err := a.repository.Latest(ctx, a.batchSize)
	if err != nil {
		return nil, fmt.Errorf("recompute votable batch: %w", err)
	}

	items := make([]domain.NewsItem, len(latest))
	for i, item := range latest {
		items[len(latest)-1-i] = item
	}
	return items, nil
}

func (a *Aggregator) snapshot() domain.Batch {
	items := make([]domain.NewsItem, len(a.batch.Items))
	copy(items, a.batch.Items)
	return domain.Batch{Cycle: a.batch.Cycle, Items: items}
}

func (a *Aggregator) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
