package usecase

import (
	"context"
	"sort"
	"sync"

	"NewsForge/internal/domain"
	"NewsForge/internal/ports"
)

// memRepository is an in-memory ports.NewsRepository for engine and pipeline
// tests. Score application is guarded by a mutex like the real store's
// transaction, so concurrent tests exercise the engine's serialization.
type memRepository struct {
	mu     sync.Mutex
	nextID int64
	items  []domain.NewsItem
	voters map[string]bool

	insertErr error
	sweepErr  error
	applyErr  error
}

var _ ports.NewsRepository = (*memRepository)(nil)

func newMemRepository(voters ...string) *memRepository {
	r := &memRepository{voters: map[string]bool{}}
	for _, v := range voters {
		r.voters[v] = false
	}
	return r
}

func (r *memRepository) Insert(_ context.Context, item domain.NewsItem) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.insertErr != nil {
		return 0, r.insertErr
	}

	r.nextID++
	item.ID = r.nextID
	r.items = append(r.items, item)
	return item.ID, nil
}

func (r *memRepository) SweepIncomplete(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sweepErr != nil {
		return 0, r.sweepErr
	}

	kept := r.items[:0]
	var removed int64
	for _, item := range r.items {
		if item.Complete() {
			kept = append(kept, item)
		} else {
			removed++
		}
	}
	r.items = kept
	return removed, nil
}

func (r *memRepository) ApplyVoteBatch(_ context.Context, userID string, votes []domain.Vote) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applyErr != nil {
		return r.applyErr
	}

	if _, ok := r.voters[userID]; !ok {
		return domain.ErrUnknownVoter
	}

	for _, vote := range votes {
		for i := range r.items {
			if r.items[i].ID == vote.ItemID {
				r.items[i].Score += vote.Delta
				break
			}
		}
	}
	r.voters[userID] = true
	return nil
}

func (r *memRepository) HasVoted(_ context.Context, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	voted, ok := r.voters[userID]
	if !ok {
		return false, domain.ErrUnknownVoter
	}
	return voted, nil
}

func (r *memRepository) ResetVotes(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for user := range r.voters {
		r.voters[user] = false
	}
	return nil
}

func (r *memRepository) ListAll(_ context.Context) ([]domain.NewsItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.sortedDesc(func(a, b domain.NewsItem) bool { return a.ID > b.ID }), nil
}

func (r *memRepository) Latest(_ context.Context, n int) ([]domain.NewsItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sortedDesc(func(a, b domain.NewsItem) bool { return a.ID > b.ID })
	if n < len(all) {
		all = all[:n]
	}
	return all, nil
}

func (r *memRepository) TopByScore(_ context.Context, k int) ([]domain.NewsItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	all := r.sortedDesc(func(a, b domain.NewsItem) bool {
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.ID > b.ID
	})
	if k < len(all) {
		all = all[:k]
	}
	return all, nil
}

// sortedDesc mirrors the store's read paths: incomplete rows are filtered
// out before ordering.
func (r *memRepository) sortedDesc(less func(a, b domain.NewsItem) bool) []domain.NewsItem {
	out := make([]domain.NewsItem, 0, len(r.items))
	for _, item := range r.items {
		if item.Complete() {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// rawCount reports every stored row, incomplete ones included, for
// asserting on sweep behavior the filtered reads cannot see.
func (r *memRepository) rawCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.items)
}

func (r *memRepository) score(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range r.items {
		if item.ID == id {
			return item.Score
		}
	}
	return 0
}

// fakeProvider routes text requests by the token bound: the title stage asks
// for short completions, the body stage for long ones.
type fakeProvider struct {
	title    string
	titleErr error
	body     string
	bodyErr  error
	imageURL string
	imageErr error
}

var _ ports.ContentProvider = (*fakeProvider)(nil)

func (p *fakeProvider) GenerateText(_ context.Context, _ string, maxTokens int) (string, error) {
	if maxTokens == titleMaxTokens {
		return p.title, p.titleErr
	}
	return p.body, p.bodyErr
}

func (p *fakeProvider) GenerateImage(_ context.Context, _ string) (string, error) {
	return p.imageURL, p.imageErr
}

// fakeMedia records uploads and mints stable URLs from the key.
type fakeMedia struct {
	mu        sync.Mutex
	uploadErr error
	keys      []string
	sources   []string
}

var _ ports.MediaStore = (*fakeMedia)(nil)

func (m *fakeMedia) Upload(_ context.Context, sourceURL, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.keys = append(m.keys, key)
	m.sources = append(m.sources, sourceURL)
	return "https://media.example.org/" + key, nil
}

// fakeNotifier captures published digests.
type fakeNotifier struct {
	mu      sync.Mutex
	digests []string
	err     error
}

var _ ports.Notifier = (*fakeNotifier)(nil)

func (n *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.err != nil {
		return n.err
	}
	n.digests = append(n.digests, digest)
	return nil
}
