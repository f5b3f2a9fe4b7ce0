package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReorderScan is the task type for the reorder-level stock scan.
	TaskReorderScan = "stock:reorder_scan"
)

// NewReorderScanTask constructs the periodic reorder scan task. The scan
// takes no payload; it always covers the whole catalog.
func NewReorderScanTask() *asynq.Task {
	return asynq.NewTask(TaskReorderScan, nil)
}
