package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// JobStatus represents the status of a job in the queue
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// JobType represents the type of job to be processed
type JobType string

const (
	JobTypeTrackProcess     JobType = "track_process"
	JobTypeRegenerateImages JobType = "regenerate_images"
	JobTypeAssembleFinal    JobType = "assemble_final"
)

// JobErrorType represents the category of error that occurred
type JobErrorType string

const (
	ErrorTypeGeneration JobErrorType = "generation" // Generation adapter or ffmpeg failed
	ErrorTypeValidation JobErrorType = "validation" // Track no longer satisfies the job's preconditions
	ErrorTypeSystem     JobErrorType = "system"     // Database, storage, worker or other system error
	ErrorTypeNotFound   JobErrorType = "not_found"  // Track was deleted while queued
)

// StructuredJobError represents a structured error with classification information
type StructuredJobError struct {
	Type     JobErrorType
	Code     string
	Message  string
	Details  string
	Original error
}

func (e *StructuredJobError) Error() string {
	return e.Message
}

func (e *StructuredJobError) Unwrap() error {
	return e.Original
}

// NewGenerationError creates a generation-related structured error
func NewGenerationError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeGeneration, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewValidationError creates an error for jobs whose preconditions no longer hold
func NewValidationError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeValidation, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewSystemError creates a system-related structured error
func NewSystemError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeSystem, Code: code, Message: message, Details: details, Original: originalErr}
}

// NewNotFoundError creates a not-found error that should never be retried
func NewNotFoundError(code, message, details string, originalErr error) *StructuredJobError {
	return &StructuredJobError{Type: ErrorTypeNotFound, Code: code, Message: message, Details: details, Original: originalErr}
}

// Job represents a background job in the queue
type Job struct {
	gorm.Model
	Type        JobType           `json:"type" gorm:"not null;index:idx_jobs_type_status"`
	Status      JobStatus         `json:"status" gorm:"default:'pending';index:idx_jobs_type_status;index:idx_jobs_status_priority"`
	TrackID     uint              `json:"track_id" gorm:"index"`
	Payload     datatypes.JSONMap `json:"payload"`
	Priority    int               `json:"priority" gorm:"default:0;index:idx_jobs_status_priority"`
	Progress    int               `json:"progress" gorm:"default:0"` // 0-100
	StartedAt   *time.Time        `json:"started_at"`
	CompletedAt *time.Time        `json:"completed_at"`
	Error       string            `json:"error,omitempty"`
	Result      datatypes.JSONMap `json:"result,omitempty"`
	WorkerID    string            `json:"worker_id,omitempty"`

	// Error classification fields
	ErrorType    string `json:"error_type,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`
}

// TableName specifies the table name for GORM
func (Job) TableName() string {
	return "jobs"
}

// IsTerminal returns true if the job will never run again. Failed pipeline
// jobs are resumed by a new trigger, not retried.
func (j *Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted ||
		j.Status == JobStatusCancelled ||
		j.Status == JobStatusFailed
}

// GetPayloadValue safely retrieves a value from the payload
func (j *Job) GetPayloadValue(key string) (interface{}, bool) {
	if j.Payload == nil {
		return nil, false
	}
	val, ok := j.Payload[key]
	return val, ok
}

// GetPayloadString safely retrieves a string value from the payload
func (j *Job) GetPayloadString(key string) (string, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return "", false
	}
	str, ok := val.(string)
	return str, ok
}

// GetPayloadInt safely retrieves an int value from the payload
func (j *Job) GetPayloadInt(key string) (int, bool) {
	val, ok := j.GetPayloadValue(key)
	if !ok {
		return 0, false
	}

	// JSONMap scans numbers as json.Number; freshly built payloads hold Go ints
	switch v := val.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// SetResult sets a result value
func (j *Job) SetResult(key string, value interface{}) {
	if j.Result == nil {
		j.Result = make(datatypes.JSONMap)
	}
	j.Result[key] = value
}

// SetErrorDetails sets error classification information
func (j *Job) SetErrorDetails(errorType JobErrorType, errorCode, errorMsg, errorDetails string) {
	j.ErrorType = string(errorType)
	j.ErrorCode = errorCode
	j.Error = errorMsg
	j.ErrorDetails = errorDetails
}
