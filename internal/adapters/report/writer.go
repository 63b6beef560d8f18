package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"nodelaunch/internal/launcher"
)

// Document is the on-disk record of a single node execution. External
// schedulers and humans both read it, so the field names stay stable.
type Document struct {
	TaskID       string    `json:"task_id"`
	Node         string    `json:"node"`
	WorkloadName string    `json:"workload_name,omitempty"`
	Success      bool      `json:"success"`
	Phase        string    `json:"phase,omitempty"`
	Message      string    `json:"message,omitempty"`
	Error        string    `json:"error,omitempty"`
	FinishedAt   time.Time `json:"finished_at"`
	Logs         string    `json:"logs,omitempty"`
}

// FromResult converts a run result into its serializable form.
func FromResult(res launcher.RunResult) Document {
	doc := Document{
		TaskID:       res.TaskID,
		Node:         res.Node,
		WorkloadName: res.WorkloadName,
		Success:      res.Success,
		Phase:        res.Phase,
		Message:      res.Message,
		FinishedAt:   res.FinishedAt,
		Logs:         res.Logs,
	}
	if res.Error != nil {
		doc.Error = res.Error.Error()
	}
	return doc
}

// Write stores the report as indented JSON, creating parent directories
// as needed. The payload always ends with a newline.
func Write(path string, res launcher.RunResult) error {
	payload, err := json.MarshalIndent(FromResult(res), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
