package model

import (
	"time"

	"github.com/lib/pq"

	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

// IntakeSession is the unit of workflow state. A client has at most one
// active session; re-onboarding an existing client reuses it.
type IntakeSession struct {
	ID                 string         `db:"id" json:"id"`
	TenantID           string         `db:"tenant_id" json:"tenantId"`
	ClientID           string         `db:"client_id" json:"clientId"`
	Status             LifecycleState `db:"status" json:"status"`
	CurrentStep        int            `db:"current_step" json:"currentStep"`
	TotalSteps         int            `db:"total_steps" json:"totalSteps"`
	CompletionPct      int            `db:"completion_pct" json:"completionPct"`
	MissingItems       pq.StringArray `db:"missing_items" json:"missingItems"`
	DriveFolderID      *string        `db:"drive_folder_id" json:"driveFolderId,omitempty"`
	DriveFolderURL     *string        `db:"drive_folder_url" json:"driveFolderUrl,omitempty"`
	InviteSentAt       *time.Time     `db:"invite_sent_at" json:"inviteSentAt,omitempty"`
	PartialSubmittedAt *time.Time     `db:"partial_submitted_at" json:"partialSubmittedAt,omitempty"`
	FinalSubmittedAt   *time.Time     `db:"final_submitted_at" json:"finalSubmittedAt,omitempty"`
	LastPortalAccessAt *time.Time     `db:"last_portal_access_at" json:"lastPortalAccessAt,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// IntakeStep holds the accumulating answer map for one step definition.
// Saves merge into Data field-by-field; they never replace it wholesale.
type IntakeStep struct {
	ID         string           `db:"id" json:"id"`
	SessionID  string           `db:"session_id" json:"sessionId"`
	StepKey    string           `db:"step_key" json:"stepKey"`
	Title      string           `db:"title" json:"title"`
	StepOrder  int              `db:"step_order" json:"order"`
	Data       schema.AnswerMap `db:"data" json:"data"`
	IsComplete bool             `db:"is_complete" json:"isComplete"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updatedAt"`
}

// IntakeAsset is one uploaded-file record. Revision counts prior assets
// sharing the same (session, category, fileName); re-adding a filename
// creates a new revision rather than overwriting.
type IntakeAsset struct {
	ID           string        `db:"id" json:"id"`
	SessionID    string        `db:"session_id" json:"sessionId"`
	TenantID     string        `db:"tenant_id" json:"tenantId"`
	ClientID     string        `db:"client_id" json:"clientId"`
	Category     AssetCategory `db:"category" json:"category"`
	FileName     string        `db:"file_name" json:"fileName"`
	MimeType     string        `db:"mime_type" json:"mimeType"`
	SizeBytes    int64         `db:"size_bytes" json:"sizeBytes"`
	Revision     int           `db:"revision" json:"revision"`
	DriveFileID  *string       `db:"drive_file_id" json:"driveFileId,omitempty"`
	DriveFileURL *string       `db:"drive_file_url" json:"driveFileUrl,omitempty"`
	UploadedAt   time.Time     `db:"uploaded_at" json:"uploadedAt"`
}

type CreateAssetParams struct {
	SessionID string
	TenantID  string
	ClientID  string
	Category  AssetCategory
	FileName  string
	MimeType  string
	SizeBytes int64
}

// StatusRecord is one row of the session status history.
type StatusRecord struct {
	ID        string         `db:"id" json:"id"`
	SessionID string         `db:"session_id" json:"sessionId"`
	Status    LifecycleState `db:"status" json:"status"`
	Note      string         `db:"note" json:"note"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
}
