package tasks_test

import (
	"encoding/json"
	"errors"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"itin/database"
	"itin/models"
	"itin/tasks"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

type stubDirectory struct {
	users   []tasks.DirectoryUser
	devices []tasks.DirectoryDevice
	err     error
}

func (s *stubDirectory) Users() ([]tasks.DirectoryUser, error)     { return s.users, s.err }
func (s *stubDirectory) Devices() ([]tasks.DirectoryDevice, error) { return s.devices, s.err }

func resultCounts(t *testing.T, run *models.TaskRun) map[string]int {
	t.Helper()
	counts := map[string]int{}
	require.NoError(t, json.Unmarshal(run.ResultData, &counts))
	return counts
}

func TestRunTaskWithCaptureUnknownTask(t *testing.T) {
	db := newTestDB(t)
	_, err := tasks.RunTaskWithCapture(db, "no.such.task", nil)
	require.Error(t, err)
}

func TestSyncUsersCreatesAndUpdates(t *testing.T) {
	db := newTestDB(t)
	tasks.SetDirectoryClient(&stubDirectory{users: []tasks.DirectoryUser{
		{Email: "Alice@Example.COM", FirstName: "Alice", LastName: "Adams", Active: true},
		{Email: "bob@example.com", FirstName: "Bob", LastName: "Brown", Active: true},
		{Email: "carol@example.com", FirstName: "Carol", LastName: "Clark", Active: false},
		{Email: "   ", Active: true},
	}})

	run, err := tasks.RunTaskWithCapture(db, tasks.TaskSyncUsers, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSuccess, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.NotEmpty(t, run.CorrelationID)

	counts := resultCounts(t, run)
	assert.Equal(t, 3, counts["created"])
	assert.Equal(t, 0, counts["updated"])
	assert.Equal(t, 1, counts["skipped"])

	// identity rule: emails are stored lowercased
	var alice models.User
	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&alice).Error)
	assert.Equal(t, "Alice", alice.FirstName)
	assert.True(t, alice.IsActive)

	// disabled directory accounts must land inactive despite the column default
	var carol models.User
	require.NoError(t, db.Where("email = ?", "carol@example.com").First(&carol).Error)
	assert.False(t, carol.IsActive)

	// second run updates in place
	tasks.SetDirectoryClient(&stubDirectory{users: []tasks.DirectoryUser{
		{Email: "alice@example.com", FirstName: "Alice", LastName: "Anderson", Active: false},
	}})
	run, err = tasks.RunTaskWithCapture(db, tasks.TaskSyncUsers, nil)
	require.NoError(t, err)
	counts = resultCounts(t, run)
	assert.Equal(t, 0, counts["created"])
	assert.Equal(t, 1, counts["updated"])

	require.NoError(t, db.Where("email = ?", "alice@example.com").First(&alice).Error)
	assert.Equal(t, "Anderson", alice.LastName)
	assert.False(t, alice.IsActive)

	var total int64
	require.NoError(t, db.Model(&models.User{}).Count(&total).Error)
	assert.EqualValues(t, 3, total)
}

func TestSyncDevicesUpsertsBySerial(t *testing.T) {
	db := newTestDB(t)
	seen := time.Now().Add(-time.Hour).Round(time.Second)
	tasks.SetDirectoryClient(&stubDirectory{devices: []tasks.DirectoryDevice{
		{SerialNumber: "SN-100", Name: "pc-100", Manufacturer: "Lenovo", Model: "T14", LastSeen: seen},
		{SerialNumber: "", Name: "ghost"},
	}})

	run, err := tasks.RunTaskWithCapture(db, tasks.TaskSyncDevices, nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSuccess, run.Status)
	counts := resultCounts(t, run)
	assert.Equal(t, 1, counts["created"])
	assert.Equal(t, 1, counts["skipped"])

	var asset models.Asset
	require.NoError(t, db.Where("serial_number = ?", "SN-100").First(&asset).Error)
	assert.Equal(t, models.AssetTypeComputer, asset.AssetType)
	assert.Equal(t, "pc-100", asset.Name)
	require.NotNil(t, asset.LastSeen)

	tasks.SetDirectoryClient(&stubDirectory{devices: []tasks.DirectoryDevice{
		{SerialNumber: "SN-100", Name: "pc-100-renamed", LastSeen: seen.Add(2 * time.Hour)},
	}})
	run, err = tasks.RunTaskWithCapture(db, tasks.TaskSyncDevices, nil)
	require.NoError(t, err)
	counts = resultCounts(t, run)
	assert.Equal(t, 1, counts["updated"])

	require.NoError(t, db.Where("serial_number = ?", "SN-100").First(&asset).Error)
	assert.Equal(t, "pc-100-renamed", asset.Name)
	require.NotNil(t, asset.LastSeen)
	assert.True(t, asset.LastSeen.After(seen))

	var total int64
	require.NoError(t, db.Model(&models.Asset{}).Count(&total).Error)
	assert.EqualValues(t, 1, total)
}

func TestFailingTaskMarksRunFailed(t *testing.T) {
	db := newTestDB(t)
	tasks.RegisterTask("testdata.boom", "always fails", func(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error) {
		logger.Printf("about to fail")
		return nil, errors.New("boom")
	})

	run, err := tasks.RunTaskWithCapture(db, "testdata.boom", nil)
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.TaskFailed, run.Status)
	require.NotNil(t, run.FinishedAt)
	assert.Contains(t, run.Stdout, "about to fail")
	assert.Contains(t, run.Stdout, "boom")
}

func TestEnqueueTaskRunsInBackground(t *testing.T) {
	db := newTestDB(t)
	tasks.RegisterTask("testdata.noop", "does nothing", func(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error) {
		return map[string]interface{}{"ok": 1}, nil
	})

	run, err := tasks.EnqueueTask(db, "testdata.noop", nil)
	require.NoError(t, err)
	require.NotNil(t, run)

	require.Eventually(t, func() bool {
		var stored models.TaskRun
		if err := db.First(&stored, run.ID).Error; err != nil {
			return false
		}
		return stored.Status == models.TaskSuccess
	}, 5*time.Second, 20*time.Millisecond)

	_, err = tasks.EnqueueTask(db, "no.such.task", nil)
	require.Error(t, err)
}

func TestEnqueueTaskReturnsDetachedRun(t *testing.T) {
	db := newTestDB(t)
	release := make(chan struct{})
	tasks.RegisterTask("testdata.slow", "blocks until released", func(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error) {
		<-release
		return nil, nil
	})

	run, err := tasks.EnqueueTask(db, "testdata.slow", nil)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, run.Status)

	// the returned run is safe to serialize while the worker is executing
	for i := 0; i < 100; i++ {
		_, err := json.Marshal(run)
		require.NoError(t, err)
	}
	close(release)

	require.Eventually(t, func() bool {
		var stored models.TaskRun
		if err := db.First(&stored, run.ID).Error; err != nil {
			return false
		}
		return stored.Status == models.TaskSuccess
	}, 5*time.Second, 20*time.Millisecond)

	// the worker updates the database row, never the caller's copy
	assert.Equal(t, models.TaskPending, run.Status)
	assert.Nil(t, run.FinishedAt)
}

func TestTaskNamesIncludesDirectoryTasks(t *testing.T) {
	names := tasks.TaskNames()
	assert.Contains(t, names, tasks.TaskSyncUsers)
	assert.Contains(t, names, tasks.TaskSyncDevices)
}
