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

// CycleControllerDeps wires the cycle boundary orchestration.
type CycleControllerDeps struct {
	Pipeline   *Pipeline
	Aggregator *Aggregator
	Notifier   ports.Notifier
	Categories []domain.Category
	Logger     *slog.Logger
}

// CycleController owns the boundary between a finished generation run and
// the next voting cycle: it runs the pipeline, swaps the votable batch,
// reopens the vote gates, and publishes the cycle digest.
type CycleController struct {
	pipeline   *Pipeline
	aggregator *Aggregator
	notifier   ports.Notifier
	categories []domain.Category
	logger     *slog.Logger
}

// NewCycleController constructs the controller. An empty category list
// defaults to the full section set.
func NewCycleController(deps CycleControllerDeps) *CycleController {
	categories := deps.Categories
	if len(categories) == 0 {
		categories = domain.Categories()
	}
	return &CycleController{
		pipeline:   deps.Pipeline,
		aggregator: deps.Aggregator,
		notifier:   deps.Notifier,
		categories: categories,
		logger:     deps.Logger,
	}
}

// RunCycle executes one full generation run and moves the system into the
// next voting cycle. The boundary swap happens exactly once per run, after
// all categories finished and the incomplete-row sweep ran, whatever the
// per-category outcomes were.
func (c *CycleController) RunCycle(ctx context.Context, trigger time.Time) error {
	c.info("generation run starting", "trigger", trigger.Format(time.RFC3339), "categories", len(c.categories))

	results, runErr := c.pipeline.Run(ctx, c.categories)
	if runErr != nil {
		c.warn("generation run degraded", "error", runErr)
	}

	batch, err := c.OnGenerationComplete(ctx)
	if err != nil {
		return fmt.Errorf("cycle boundary: %w", err)
	}
	c.info("voting cycle opened", "cycle", batch.Cycle, "votable_items", len(batch.Items))

	c.publishDigest(ctx, results)

	return runErr
}

// OnGenerationComplete recomputes the votable batch from the freshly swept
// store and then resets every user's vote gate. The order matters: swapping
// the batch first makes votes built against the previous cycle stale before
// any gate reopens.
func (c *CycleController) OnGenerationComplete(ctx context.Context) (domain.Batch, error) {
	return c.aggregator.BeginCycle(ctx)
}

// CurrentBatch returns the votable batch of the running cycle.
func (c *CycleController) CurrentBatch() domain.Batch {
	return c.aggregator.CurrentBatch()
}

// publishDigest sends the run summary to the configured channel. Delivery
// problems are logged, never escalated: the cycle is already live.
func (c *CycleController) publishDigest(ctx context.Context, results []CategoryResult) {
	if c.notifier == nil {
		return
	}

	digest := buildCycleDigest(results)
	if digest == "" {
		return
	}

	if err := c.notifier.PublishDigest(ctx, digest); err != nil {
		c.warn("digest delivery failed", "error", err)
	}
}

func buildCycleDigest(results []CategoryResult) string {
	var b strings.Builder
	for _, result := range results {
		if result.Item == nil {
			continue
		}
		fmt.Fprintf(&b, "[%s] %s\n%s\n\n", result.Item.Category, result.Item.Title, result.Item.ImageURL)
	}
	return strings.TrimSpace(b.String())
}

func (c *CycleController) info(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *CycleController) warn(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}
