package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsForge/internal/domain"
)

func newTestPipeline(provider *fakeProvider, media *fakeMedia, repo *memRepository) *Pipeline {
	return NewPipeline(PipelineDeps{
		Provider:     provider,
		Media:        media,
		Repository:   repo,
		MaxBodyChars: 4000,
		Clock:        func() time.Time { return time.Date(2026, time.August, 31, 6, 0, 0, 0, time.UTC) },
	})
}

func TestGeneratePersistsCompleteItem(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    `"Fusion Plant Opens"`,
		body:     "The reactor went critical this morning.",
		imageURL: "https://provider.example.org/tmp/1.png",
	}
	media := &fakeMedia{}
	repo := newMemRepository()

	item, err := newTestPipeline(provider, media, repo).Generate(context.Background(), domain.CategoryScience)
	require.NoError(t, err)

	assert.Equal(t, int64(1), item.ID)
	assert.Equal(t, "Fusion Plant Opens", item.Title, "quotes must be stripped")
	assert.Equal(t, "The reactor went critical this morning.", item.Body)
	assert.Equal(t, domain.CategoryScience, item.Category)
	assert.True(t, item.Complete())

	require.Len(t, media.keys, 1)
	assert.True(t, strings.HasPrefix(media.keys[0], "img_"), "media key derives from the attempt timestamp")
	assert.Equal(t, provider.imageURL, media.sources[0])
}

func TestGenerateEmptyTitleIsStageFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{title: "   \n"}
	repo := newMemRepository()

	_, err := newTestPipeline(provider, &fakeMedia{}, repo).Generate(context.Background(), domain.CategoryPolitics)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageTitle, stageErr.Stage)

	assert.Zero(t, repo.rawCount(), "no partial record may be written")
}

func TestGenerateBodyFailureAborts(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:   "Markets Rally",
		bodyErr: errors.New("quota exceeded"),
	}
	repo := newMemRepository()

	_, err := newTestPipeline(provider, &fakeMedia{}, repo).Generate(context.Background(), domain.CategoryEconomy)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StageBody, stageErr.Stage)

	assert.Zero(t, repo.rawCount())
}

func TestGenerateBodyIsTruncated(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    "Long Read",
		body:     strings.Repeat("x", 5000),
		imageURL: "https://provider.example.org/tmp/2.png",
	}
	repo := newMemRepository()

	item, err := newTestPipeline(provider, &fakeMedia{}, repo).Generate(context.Background(), domain.CategorySport)
	require.NoError(t, err)
	assert.Len(t, item.Body, 4000, "body is truncated to the bound, never rejected")
}

func TestGenerateImageFailureRecoversWithoutImage(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    "Storm Warning",
		body:     "Heavy rain expected.",
		imageErr: errors.New("image provider down"),
	}
	repo := newMemRepository()

	item, err := newTestPipeline(provider, &fakeMedia{}, repo).Generate(context.Background(), domain.CategoryScience)
	require.NoError(t, err, "image stage failure must not abort the attempt")
	assert.False(t, item.Complete())
}

func TestGenerateUploadFailureRecoversWithoutImage(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    "Storm Warning",
		body:     "Heavy rain expected.",
		imageURL: "https://provider.example.org/tmp/3.png",
	}
	media := &fakeMedia{uploadErr: errors.New("upload rejected")}
	repo := newMemRepository()

	item, err := newTestPipeline(provider, media, repo).Generate(context.Background(), domain.CategoryScience)
	require.NoError(t, err)
	assert.Empty(t, item.ImageURL, "transient URL must not be persisted")
}

func TestGeneratePersistFailure(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    "Title",
		body:     "Body",
		imageURL: "https://provider.example.org/tmp/4.png",
	}
	repo := newMemRepository()
	repo.insertErr = errors.New("connection refused")

	_, err := newTestPipeline(provider, &fakeMedia{}, repo).Generate(context.Background(), domain.CategoryPolitics)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, domain.StagePersist, stageErr.Stage)
}

func TestRunIsolatesCategoryFailures(t *testing.T) {
	t.Parallel()

	// The title stage fails only while the politics category runs.
	provider := &switchingProvider{
		failTitleFor: domain.CategoryPolitics,
		inner: fakeProvider{
			title:    "Generated Title",
			body:     "Generated body.",
			imageURL: "https://provider.example.org/tmp/5.png",
		},
	}
	repo := newMemRepository()

	results, err := NewPipeline(PipelineDeps{
		Provider:     provider,
		Media:        &fakeMedia{},
		Repository:   repo,
		MaxBodyChars: 4000,
	}).Run(context.Background(), domain.Categories())

	require.NoError(t, err, "three persisted categories make the run a success")
	require.Len(t, results, 4)

	failures := 0
	for _, result := range results {
		if result.Err != nil {
			failures++
			assert.Equal(t, domain.CategoryPolitics, result.Category)
		}
	}
	assert.Equal(t, 1, failures)

	all, _ := repo.ListAll(context.Background())
	assert.Len(t, all, 3)
	assert.Equal(t, 3, repo.rawCount(), "sweep leaves no incomplete rows behind")
}

func TestRunSweepsIncompleteRows(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		title:    "No Picture",
		body:     "Text only.",
		imageErr: errors.New("image provider down"),
	}
	repo := newMemRepository()

	results, err := NewPipeline(PipelineDeps{
		Provider:     provider,
		Media:        &fakeMedia{},
		Repository:   repo,
		MaxBodyChars: 4000,
	}).Run(context.Background(), []domain.Category{domain.CategoryEconomy})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotNil(t, results[0].Item)

	assert.Zero(t, repo.rawCount(), "the incomplete row is removed after the run")
}

func TestRunFailsWhenNothingPersists(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{titleErr: errors.New("provider down")}
	repo := newMemRepository()

	_, err := NewPipeline(PipelineDeps{
		Provider:   provider,
		Media:      &fakeMedia{},
		Repository: repo,
	}).Run(context.Background(), domain.Categories())

	require.Error(t, err)
}

// switchingProvider fails the title stage for one category and otherwise
// behaves like its inner fake.
type switchingProvider struct {
	failTitleFor domain.Category
	inner        fakeProvider
}

func (p *switchingProvider) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if maxTokens == titleMaxTokens && strings.Contains(prompt, string(p.failTitleFor)) {
		return "", errors.New("provider error")
	}
	return p.inner.GenerateText(ctx, prompt, maxTokens)
}

func (p *switchingProvider) GenerateImage(ctx context.Context, prompt string) (string, error) {
	return p.inner.GenerateImage(ctx, prompt)
}
