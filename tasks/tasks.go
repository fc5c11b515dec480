// tasks/tasks.go
package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"itin/models"
)

// TaskFunc is a registered background task. The logger writes into the
// TaskRun's captured output; the returned map is stored as result data.
type TaskFunc func(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error)

type taskEntry struct {
	name        string
	description string
	fn          TaskFunc
}

var (
	registryMu sync.RWMutex
	registry   = map[string]taskEntry{}
)

// RegisterTask adds a task to the registry. Called from init functions.
func RegisterTask(name, description string, fn TaskFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = taskEntry{name: name, description: description, fn: fn}
}

// TaskNames lists the registered tasks, sorted.
func TaskNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup(taskName string) (taskEntry, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	entry, ok := registry[taskName]
	if !ok {
		return taskEntry{}, fmt.Errorf("unknown task %q", taskName)
	}
	return entry, nil
}

// RunTaskWithCapture executes a registered task synchronously, recording
// status transitions, captured output and the structured result on a TaskRun.
func RunTaskWithCapture(db *gorm.DB, taskName string, triggeredByID *uint) (*models.TaskRun, error) {
	entry, err := lookup(taskName)
	if err != nil {
		return nil, err
	}

	run := &models.TaskRun{
		CorrelationID: uuid.NewString(),
		TaskName:      taskName,
		Status:        models.TaskPending,
		TriggeredByID: triggeredByID,
	}
	if err := db.Create(run).Error; err != nil {
		return nil, err
	}
	return run, execute(db, run, entry)
}

// EnqueueTask creates a PENDING TaskRun and executes the task in a background
// goroutine, updating the same run as it progresses.
func EnqueueTask(db *gorm.DB, taskName string, triggeredByID *uint) (*models.TaskRun, error) {
	entry, err := lookup(taskName)
	if err != nil {
		return nil, err
	}

	run := &models.TaskRun{
		CorrelationID: uuid.NewString(),
		TaskName:      taskName,
		Status:        models.TaskPending,
		TriggeredByID: triggeredByID,
	}
	if err := db.Create(run).Error; err != nil {
		return nil, err
	}

	// the goroutine owns run from here on; callers get a snapshot they can
	// marshal without racing the worker
	snapshot := *run
	go func() {
		if err := execute(db, run, entry); err != nil {
			log.Printf("EnqueueTask: task %s failed: %v", taskName, err)
		}
	}()
	return &snapshot, nil
}

func execute(db *gorm.DB, run *models.TaskRun, entry taskEntry) error {
	run.Status = models.TaskRunning
	if err := db.Model(run).Update("status", models.TaskRunning).Error; err != nil {
		return err
	}

	var buf bytes.Buffer
	logger := log.New(&buf, "", log.LstdFlags)

	result, err := entry.fn(db, logger)
	if err != nil {
		logger.Printf("task %s failed: %v", entry.name, err)
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Stdout = buf.String()
	if err != nil {
		run.Status = models.TaskFailed
	} else {
		run.Status = models.TaskSuccess
		if result != nil {
			if data, jsonErr := json.Marshal(result); jsonErr == nil {
				run.ResultData = datatypes.JSON(data)
			}
		}
	}
	if saveErr := db.Save(run).Error; saveErr != nil {
		return saveErr
	}
	return err
}
