package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nodelaunch/internal/launcher"
)

func TestWriteFailureReport(t *testing.T) {
	res := launcher.RunResult{
		TaskID:       "train-model",
		Node:         "train_model",
		WorkloadName: "train-model.abc123",
		Success:      false,
		Phase:        "Failed",
		Message:      "container exited with code 2",
		Logs:         "traceback\n",
		FinishedAt:   time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC),
		Error:        errors.New("workload train-model.abc123 failed"),
	}

	path := filepath.Join(t.TempDir(), "reports", "train-model.json")
	require.NoError(t, Write(path, res))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), raw[len(raw)-1])

	var doc Document
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "train-model", doc.TaskID)
	assert.Equal(t, "train-model.abc123", doc.WorkloadName)
	assert.False(t, doc.Success)
	assert.Equal(t, "workload train-model.abc123 failed", doc.Error)
	assert.Equal(t, "container exited with code 2", doc.Message)
}

func TestWriteSuccessReportOmitsError(t *testing.T) {
	res := launcher.RunResult{
		TaskID:       "train-model",
		Node:         "train_model",
		WorkloadName: "train-model.abc123",
		Success:      true,
		Phase:        "Succeeded",
		FinishedAt:   time.Now(),
	}

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, Write(path, res))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"error"`)
	assert.NotContains(t, string(raw), `"message"`)
}

func TestFromResult(t *testing.T) {
	doc := FromResult(launcher.RunResult{TaskID: "t", Success: true})
	assert.Empty(t, doc.Error)

	doc = FromResult(launcher.RunResult{TaskID: "t", Error: errors.New("boom")})
	assert.Equal(t, "boom", doc.Error)
}
