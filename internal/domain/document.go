package domain

import (
	"fmt"
	"time"
)

// DocumentStatus represents the processing status of a document
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document represents one uploaded file and its processing lifecycle
type Document struct {
	ID        string
	OwnerID   string
	Filename  string
	FileType  string
	Status    DocumentStatus
	Error     string
	Metadata  map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewDocument creates a new Document in the pending state
func NewDocument(id, ownerID, filename, fileType string, now time.Time) *Document {
	return &Document{
		ID:        id,
		OwnerID:   ownerID,
		Filename:  filename,
		FileType:  fileType,
		Status:    DocumentStatusPending,
		Metadata:  map[string]string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ValidateDocument validates a Document instance
func ValidateDocument(d *Document) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("document ID is required")
	}

	if d.OwnerID == "" {
		return fmt.Errorf("document OwnerID is required")
	}

	if d.Filename == "" {
		return fmt.Errorf("document Filename is required")
	}

	if !isValidDocumentStatus(d.Status) {
		return fmt.Errorf("document Status is invalid: %s", d.Status)
	}

	return nil
}

// CanTransition reports whether a status change is legal. Within one
// processing run statuses only move forward, pending -> processing ->
// (completed | failed). A terminal document may return to pending when
// ingestion restarts.
func CanTransition(from, to DocumentStatus) bool {
	switch from {
	case DocumentStatusPending:
		return to == DocumentStatusProcessing
	case DocumentStatusProcessing:
		return to == DocumentStatusCompleted || to == DocumentStatusFailed
	case DocumentStatusCompleted, DocumentStatusFailed:
		return to == DocumentStatusPending
	}
	return false
}

// CanReingest reports whether a document may start a fresh processing run.
// A run in flight must finish before another begins.
func CanReingest(status DocumentStatus) bool {
	return status != DocumentStatusProcessing
}

func isValidDocumentStatus(s DocumentStatus) bool {
	switch s {
	case DocumentStatusPending, DocumentStatusProcessing, DocumentStatusCompleted, DocumentStatusFailed:
		return true
	}
	return false
}
