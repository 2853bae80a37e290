package model

import (
	"time"

	"github.com/google/uuid"
)

// AuditRecord is one admin action recorded in the operational database.
type AuditRecord struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Action       string    `json:"action" db:"action"`
	ResourceType string    `json:"resource_type" db:"resource_type"`
	ResourceID   string    `json:"resource_id" db:"resource_id"`
	Detail       string    `json:"detail" db:"detail"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
