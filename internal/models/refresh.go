package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RefreshStatus represents the outcome of an aggregate refresh run.
type RefreshStatus string

const (
	RefreshRunning   RefreshStatus = "running"
	RefreshCompleted RefreshStatus = "completed"
	RefreshFailed    RefreshStatus = "failed"
)

// RefreshRun is an audit row written by the precomputer each time it rebuilds
// the aggregate cache. The analytics layer only ever reads the latest
// completed run to answer staleness questions.
type RefreshRun struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	StartedAt    time.Time      `gorm:"not null;index" json:"started_at"`
	FinishedAt   *time.Time     `json:"finished_at"`
	Status       RefreshStatus  `gorm:"type:varchar(16);not null" json:"status"`
	AthleteCount int            `json:"athlete_count"`
	Kinds        pq.StringArray `gorm:"type:text[]" json:"kinds"`
	Error        string         `json:"error,omitempty"`
}

func (RefreshRun) TableName() string {
	return "aggregate_refresh_runs"
}
