package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/oneview-energy/oneview/internal/intelligence"
	"github.com/oneview-energy/oneview/internal/upstream"
)

// WarmupWorker touches every (project, module) pair nightly so upstream
// caches are hot before the first table render of the day.
type WarmupWorker struct {
	registry *intelligence.Registry
	source   upstream.DataSource
	logger   *slog.Logger
}

// NewWarmupWorker constructs the warmup handler.
func NewWarmupWorker(registry *intelligence.Registry, source upstream.DataSource, logger *slog.Logger) *WarmupWorker {
	return &WarmupWorker{registry: registry, source: source, logger: logger}
}

// Handle processes one TaskSnapshotWarmup task. Individual pair failures log
// and continue; the task only fails when the project list itself is
// unreachable.
func (w *WarmupWorker) Handle(ctx context.Context, _ *asynq.Task) error {
	started := time.Now()
	projects, err := w.source.Projects(ctx)
	if err != nil {
		return err
	}

	var fetched, failed int
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	results := make(chan error)
	done := make(chan struct{})
	go func() {
		for err := range results {
			if err != nil {
				failed++
			} else {
				fetched++
			}
		}
		close(done)
	}()

	for _, page := range intelligence.Pages() {
		for _, name := range page.Modules {
			desc, ok := w.registry.Get(name)
			if !ok {
				continue
			}
			for _, project := range projects {
				desc, project := desc, project
				g.Go(func() error {
					var err error
					if desc.FetchKind() == upstream.FetchSubmodule {
						_, err = w.source.FinanceSubmodule(ctx, desc.Name(), project.ID)
					} else {
						_, err = w.source.ProjectModule(ctx, desc.Name(), project.ID)
					}
					if err != nil {
						w.logger.Warn("warmup fetch failed",
							slog.String("module", desc.Name()),
							slog.Int64("project_id", project.ID),
							slog.Any("error", err))
					}
					results <- err
					return nil
				})
			}
		}
	}
	_ = g.Wait()
	close(results)
	<-done

	w.logger.Info("snapshot warmup finished",
		slog.Int("fetched", fetched),
		slog.Int("failed", failed),
		slog.Duration("elapsed", time.Since(started)))
	return nil
}
