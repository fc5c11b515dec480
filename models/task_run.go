// models/task_run.go
package models

import (
	"time"

	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskPending TaskStatus = "PENDING"
	TaskRunning TaskStatus = "RUNNING"
	TaskSuccess TaskStatus = "SUCCESS"
	TaskFailed  TaskStatus = "FAILED"
)

// TaskRun records one execution of a background task (directory sync etc.)
// with its captured output and structured result.
type TaskRun struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	CorrelationID string         `gorm:"size:36;index" json:"correlationId"`
	TaskName      string         `gorm:"size:200;not null;index" json:"taskName"`
	Status        TaskStatus     `gorm:"size:20;default:'PENDING'" json:"status"`
	StartedAt     time.Time      `gorm:"autoCreateTime" json:"startedAt"`
	FinishedAt    *time.Time     `json:"finishedAt,omitempty"`
	Stdout        string         `gorm:"type:text" json:"stdout"`
	ResultData    datatypes.JSON `json:"resultData,omitempty"`
	TriggeredByID *uint          `json:"triggeredById,omitempty"`
	TriggeredBy   *User          `gorm:"foreignKey:TriggeredByID" json:"-"`
}
