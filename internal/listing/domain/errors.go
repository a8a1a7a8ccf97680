package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrPersistence      = errors.New("persistence error")
	ErrNotFound         = errors.New("not found")
	ErrListingNotFound  = fmt.Errorf("listing %w", ErrNotFound)
	ErrUpload           = errors.New("upload failed")
	ErrMediaDelete      = errors.New("media delete failed")
	ErrForbidden        = errors.New("user not authorized to perform this action")
	ErrAlreadyExists    = errors.New("already exists")
	ErrSubmitInProgress = errors.New("submit already in progress")
	ErrSessionClosed    = errors.New("form session already committed")

	// Commit steps a CommitError can be tagged with.
	ErrFieldWrite = errors.New("field write failed")
	ErrMediaWrite = errors.New("media list write failed")
)

// Violation is a single failed validation rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found, not only the first.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) Add(field, message string) {
	e.Violations = append(e.Violations, Violation{Field: field, Message: message})
}

// OrNil returns nil when nothing was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Violations) == 0 {
		return nil
	}
	return e
}

// UploadError reports a media object that was rejected or failed to upload.
type UploadError struct {
	Kind     MediaKind
	FileName string
	Index    int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s %s (index %d): %v", ErrUpload, e.Kind, e.FileName, e.Index, e.Err)
}

func (e *UploadError) Is(target error) bool {
	return target == ErrUpload
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// CommitStep names the commit stage that failed.
type CommitStep string

const (
	StepFieldWrite CommitStep = "field_write"
	StepUpload     CommitStep = "upload"
	StepMediaWrite CommitStep = "media_write"
)

func (s CommitStep) sentinel() error {
	switch s {
	case StepFieldWrite:
		return ErrFieldWrite
	case StepUpload:
		return ErrUpload
	case StepMediaWrite:
		return ErrMediaWrite
	}
	return nil
}

// CommitError is the single user-facing failure of a listing form submit.
// ListingID is set once the listing document exists, so a resubmit can
// continue against it.
type CommitError struct {
	Step        CommitStep
	Operation   string // "create" or "update"
	ListingType ListingType
	ListingID   string
	Err         error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("failed to %s %s listing (%s): %v", e.Operation, e.ListingType, e.Step, e.Err)
}

func (e *CommitError) Is(target error) bool {
	s := e.Step.sentinel()
	return s != nil && target == s
}

func (e *CommitError) Unwrap() error {
	return e.Err
}
