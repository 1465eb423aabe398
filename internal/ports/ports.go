package ports

import (
	"context"
	"time"

	"NewsForge/internal/domain"
)

// ContentProvider generates text and images from prompts (e.g., OpenAI).
type ContentProvider interface {
	GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// MediaStore gives a provider-hosted transient image a durable home and
// returns its stable delivery URL.
type MediaStore interface {
	Upload(ctx context.Context, sourceURL, key string) (string, error)
}

// NewsRepository persists news items, their scores, and the per-user vote
// gate. Implementations apply a vote batch and the gate flip as one atomic
// unit.
type NewsRepository interface {
	// Insert stores a new item and returns the store-assigned identifier.
	Insert(ctx context.Context, item domain.NewsItem) (int64, error)

	// SweepIncomplete deletes items without a durable image URL and returns
	// the number of rows removed.
	SweepIncomplete(ctx context.Context) (int64, error)

	// ApplyVoteBatch adds every delta to its item's score and marks the user
	// as having voted, in one transaction.
	ApplyVoteBatch(ctx context.Context, userID string, votes []domain.Vote) error

	// HasVoted reports the user's gate for the current cycle. Unknown users
	// yield domain.ErrUnknownVoter.
	HasVoted(ctx context.Context, userID string) (bool, error)

	// ResetVotes reopens the gate for every registered user.
	ResetVotes(ctx context.Context) error

	// ListAll returns every item, newest first.
	ListAll(ctx context.Context) ([]domain.NewsItem, error)

	// Latest returns up to n most recent items, newest first.
	Latest(ctx context.Context, n int) ([]domain.NewsItem, error)

	// TopByScore returns up to k items ordered by score descending, newest
	// first among equal scores.
	TopByScore(ctx context.Context, k int) ([]domain.NewsItem, error)
}

// Notifier streams cycle digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// WeatherProvider fetches a current-conditions reading for coordinates.
type WeatherProvider interface {
	CurrentWeather(ctx context.Context, lat, lon float64) (string, error)
}

// Scheduler controls when generation cycles execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
