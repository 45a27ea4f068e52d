// Package jobs wires background work through asynq: queued workbook exports
// and the nightly snapshot warmup.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskExportWorkbook renders a session's current tables to a workbook
	// file on disk.
	TaskExportWorkbook = "export:workbook"
	// TaskSnapshotWarmup prefetches every (project, module) pair so the
	// first morning table render hits warm upstream caches.
	TaskSnapshotWarmup = "snapshot:warmup"
)

// ExportWorkbookPayload addresses one queued export.
type ExportWorkbookPayload struct {
	JobID     string `json:"job_id"`
	Page      string `json:"page"`
	SessionID string `json:"session_id"`
}

// NewExportWorkbookTask constructs the export task.
func NewExportWorkbookTask(payload ExportWorkbookPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskExportWorkbook, data), nil
}

// NewSnapshotWarmupTask constructs the warmup task.
func NewSnapshotWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskSnapshotWarmup, nil)
}
