package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"NewsForge/internal/domain"
	"NewsForge/internal/ports"
)

const (
	titleMaxTokens = 30
	bodyMaxTokens  = 800

	imagePromptSuffix = ", realistic photograph"
)

// PipelineDeps wires all driven adapters into the generation pipeline.
type PipelineDeps struct {
	Provider     ports.ContentProvider
	Media        ports.MediaStore
	Repository   ports.NewsRepository
	MaxBodyChars int
	Clock        func() time.Time
	Logger       *slog.Logger
}

// Pipeline implements the four-stage news generation workflow: title, body,
// image generation, durable image upload, then persistence. Stages run
// strictly in that order because each consumes the previous stage's output.
type Pipeline struct {
	provider     ports.ContentProvider
	media        ports.MediaStore
	repository   ports.NewsRepository
	maxBodyChars int
	clock        func() time.Time
	logger       *slog.Logger
}

// CategoryResult reports the outcome of one category attempt within a run.
type CategoryResult struct {
	Category domain.Category
	Item     *domain.NewsItem
	Err      error
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Pipeline{
		provider:     deps.Provider,
		media:        deps.Media,
		repository:   deps.Repository,
		maxBodyChars: deps.MaxBodyChars,
		clock:        clock,
		logger:       deps.Logger,
	}
}

// Generate runs the dependent stage chain for one category and persists at
// most one item. Title and body failures abort the attempt with nothing
// written. A failure at either image stage is recovered by persisting the
// item without an image URL; the post-run sweep reclaims such rows.
func (p *Pipeline) Generate(ctx context.Context, category domain.Category) (domain.NewsItem, error) {
	if !category.Valid() {
		return domain.NewsItem{}, domain.NewStageError(domain.StageTitle, fmt.Errorf("unknown category %q", category))
	}

	title, err := p.generateTitle(ctx, category)
	if err != nil {
		return domain.NewsItem{}, domain.NewStageError(domain.StageTitle, err)
	}

	body, err := p.generateBody(ctx, title)
	if err != nil {
		return domain.NewsItem{}, domain.NewStageError(domain.StageBody, err)
	}

	imageURL := p.generateDurableImage(ctx, category, title)

	item := domain.NewsItem{
		Title:    title,
		Body:     body,
		Category: category,
		ImageURL: imageURL,
		Date:     p.clock(),
	}

	id, err := p.repository.Insert(ctx, item)
	if err != nil {
		return domain.NewsItem{}, domain.NewStageError(domain.StagePersist, err)
	}
	item.ID = id

	return item, nil
}

// Run executes every category in order, isolating failures per category, then
// sweeps incomplete rows once. It fails only when no category persisted an
// item or the sweep itself failed.
func (p *Pipeline) Run(ctx context.Context, categories []domain.Category) ([]CategoryResult, error) {
	results := make([]CategoryResult, 0, len(categories))
	persisted := 0

	for _, category := range categories {
		item, err := p.Generate(ctx, category)
		if err != nil {
			p.warn("category attempt failed", "category", category, "error", err)
			results = append(results, CategoryResult{Category: category, Err: err})
			continue
		}

		persisted++
		p.info("category persisted", "category", category, "id", item.ID, "title", item.Title)
		results = append(results, CategoryResult{Category: category, Item: &item})
	}

	removed, err := p.repository.SweepIncomplete(ctx)
	if err != nil {
		return results, fmt.Errorf("sweep incomplete items: %w", err)
	}
	if removed > 0 {
		p.info("swept incomplete items", "count", removed)
	}

	if persisted == 0 {
		return results, fmt.Errorf("generation run produced no items (%d categories attempted)", len(categories))
	}

	return results, nil
}

func (p *Pipeline) generateTitle(ctx context.Context, category domain.Category) (string, error) {
	prompt := fmt.Sprintf(
		"Imagine you are a journalist in a fictional world. Write a concise title for a %s news:",
		category)

	raw, err := p.provider.GenerateText(ctx, prompt, titleMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate title: %w", err)
	}

	title := sanitizeText(raw)
	if title == "" {
		return "", fmt.Errorf("provider returned empty title")
	}

	return title, nil
}

func (p *Pipeline) generateBody(ctx context.Context, title string) (string, error) {
	prompt := fmt.Sprintf("Write the content for the news '%s':", title)

	raw, err := p.provider.GenerateText(ctx, prompt, bodyMaxTokens)
	if err != nil {
		return "", fmt.Errorf("generate body: %w", err)
	}

	body := sanitizeText(raw)
	if body == "" {
		return "", fmt.Errorf("provider returned empty body")
	}

	if p.maxBodyChars > 0 {
		body = truncate(body, p.maxBodyChars)
	}

	return body, nil
}

// generateDurableImage runs the two image stages. Both failure modes return
// an empty URL rather than an error: the generated text is worth keeping and
// the incomplete row is removed by the sweep.
func (p *Pipeline) generateDurableImage(ctx context.Context, category domain.Category, title string) string {
	transient, err := p.provider.GenerateImage(ctx, title+imagePromptSuffix)
	if err != nil {
		p.warn("image generation failed", "category", category, "error", err)
		return ""
	}

	key := fmt.Sprintf("img_%d", p.clock().UnixMilli())
	stable, err := p.media.Upload(ctx, transient, key)
	if err != nil {
		p.warn("image upload failed", "category", category, "key", key, "error", err)
		return ""
	}

	return stable
}

// sanitizeText trims whitespace and strips quote characters the completion
// model tends to wrap titles in.
func sanitizeText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}
