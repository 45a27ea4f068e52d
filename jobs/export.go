package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/oneview-energy/oneview/internal/export"
	"github.com/oneview-energy/oneview/internal/intelligence"
	intelhttp "github.com/oneview-energy/oneview/internal/intelligence/http"
	"github.com/oneview-energy/oneview/internal/observability"
	"github.com/oneview-energy/oneview/internal/session"
	"github.com/oneview-energy/oneview/internal/upstream"
)

const exportKeyPrefix = "oneview:export:"

// ExportService queues workbook exports and tracks their status in Redis.
// It implements the HTTP layer's export contract.
type ExportService struct {
	client *Client
	redis  *redis.Client
	dir    string
	ttl    time.Duration
}

// NewExportService constructs the export service. Status entries live for
// ttl; the files on disk are removed by the same expiry sweep.
func NewExportService(client *Client, rdb *redis.Client, dir string, ttl time.Duration) *ExportService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ExportService{client: client, redis: rdb, dir: dir, ttl: ttl}
}

// Enqueue queues one export for a session's current selection.
func (s *ExportService) Enqueue(ctx context.Context, page, sessionID string) (string, error) {
	jobID := uuid.NewString()
	if err := s.put(ctx, intelhttp.ExportJob{
		ID:    jobID,
		Page:  page,
		State: intelhttp.ExportPending,
	}); err != nil {
		return "", err
	}
	task, err := NewExportWorkbookTask(ExportWorkbookPayload{
		JobID:     jobID,
		Page:      page,
		SessionID: sessionID,
	})
	if err != nil {
		return "", err
	}
	if _, err := s.client.Enqueue(ctx, task); err != nil {
		return "", err
	}
	return jobID, nil
}

// Status returns the queryable state of one export job.
func (s *ExportService) Status(ctx context.Context, jobID string) (intelhttp.ExportJob, error) {
	raw, err := s.redis.Get(ctx, exportKeyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return intelhttp.ExportJob{}, intelhttp.ErrExportJobNotFound
		}
		return intelhttp.ExportJob{}, err
	}
	var job intelhttp.ExportJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return intelhttp.ExportJob{}, err
	}
	return job, nil
}

// Open returns the finished workbook file for download.
func (s *ExportService) Open(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	job, err := s.Status(ctx, jobID)
	if err != nil {
		return nil, "", err
	}
	if job.State != intelhttp.ExportDone {
		return nil, "", fmt.Errorf("export job %s not finished", jobID)
	}
	file, err := os.Open(s.path(jobID))
	if err != nil {
		return nil, "", err
	}
	return file, job.Filename, nil
}

func (s *ExportService) put(ctx context.Context, job intelhttp.ExportJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, exportKeyPrefix+job.ID, raw, s.ttl).Err()
}

func (s *ExportService) path(jobID string) string {
	return filepath.Join(s.dir, jobID+".xlsx")
}

// ExportWorker renders queued exports. It regenerates the tables from the
// session's selection exactly the way the synchronous endpoint does.
type ExportWorker struct {
	service  *ExportService
	sessions *session.Manager
	registry *intelligence.Registry
	source   upstream.DataSource
	fetcher  *upstream.Fetcher
	logger   *slog.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewExportWorker constructs the worker-side export handler.
func NewExportWorker(
	service *ExportService,
	sessions *session.Manager,
	registry *intelligence.Registry,
	source upstream.DataSource,
	fetcher *upstream.Fetcher,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *ExportWorker {
	return &ExportWorker{
		service:  service,
		sessions: sessions,
		registry: registry,
		source:   source,
		fetcher:  fetcher,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Handle processes one TaskExportWorkbook task.
func (w *ExportWorker) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ExportWorkbookPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	job := intelhttp.ExportJob{ID: payload.JobID, Page: payload.Page, State: intelhttp.ExportRunning}
	_ = w.service.put(ctx, job)

	if err := w.render(ctx, payload); err != nil {
		w.logger.Error("export job failed",
			slog.String("job_id", payload.JobID),
			slog.Any("error", err))
		job.State = intelhttp.ExportFailed
		job.Error = err.Error()
		_ = w.service.put(ctx, job)
		w.metrics.ObserveExport("xlsx", err)
		return asynq.SkipRetry
	}

	job.State = intelhttp.ExportDone
	job.Filename = export.Filename(payload.Page, w.now())
	w.metrics.ObserveExport("xlsx", nil)
	return w.service.put(ctx, job)
}

func (w *ExportWorker) render(ctx context.Context, payload ExportWorkbookPayload) error {
	page, ok := intelligence.Pages()[payload.Page]
	if !ok {
		return fmt.Errorf("unknown page %q", payload.Page)
	}
	sess, err := w.sessions.Get(ctx, payload.SessionID)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	state := sess.State(page.Name)

	projects, err := w.source.Projects(ctx)
	if err != nil {
		return fmt.Errorf("project list: %w", err)
	}
	var pairs []upstream.FetchPair
	for _, projectID := range state.Projects {
		for _, name := range state.Modules {
			desc, ok := w.registry.Get(name)
			if !ok {
				continue
			}
			project := upstream.Project{ID: projectID}
			for _, p := range projects {
				if p.ID == projectID {
					project = p
					break
				}
			}
			pairs = append(pairs, upstream.FetchPair{
				Project:   project,
				Module:    name,
				Kind:      desc.FetchKind(),
				Submodule: name,
			})
		}
	}
	snap := w.fetcher.Fetch(ctx, payload.SessionID+":export:"+page.Name, state.Version, pairs)
	tables := intelligence.BuildTables(w.registry, state, projects, snap)

	f, err := export.BuildWorkbook(tables)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := os.MkdirAll(w.service.dir, 0o755); err != nil {
		return err
	}
	return f.SaveAs(w.service.path(payload.JobID))
}
