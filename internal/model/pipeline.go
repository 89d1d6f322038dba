package model

import (
	"time"

	"github.com/lib/pq"
)

// Job is one pipeline run against a submitted session.
type Job struct {
	ID          string     `db:"id" json:"id"`
	SessionID   string     `db:"session_id" json:"sessionId"`
	Kind        JobKind    `db:"kind" json:"kind"`
	Status      JobStatus  `db:"status" json:"status"`
	Output      JSONMap    `db:"output" json:"output,omitempty"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}

// Report is the synthesized deliverable awaiting operator approval.
type Report struct {
	ID              string         `db:"id" json:"id"`
	SessionID       string         `db:"session_id" json:"sessionId"`
	Title           string         `db:"title" json:"title"`
	Summary         string         `db:"summary" json:"summary"`
	Findings        pq.StringArray `db:"findings" json:"findings"`
	Recommendations pq.StringArray `db:"recommendations" json:"recommendations"`
	ApprovedAt      *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

type UpsertReportParams struct {
	SessionID       string
	Title           string
	Summary         string
	Findings        []string
	Recommendations []string
	ApprovedAt      *time.Time
}
