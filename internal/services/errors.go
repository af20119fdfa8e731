package services

import (
	"errors"
	"fmt"
)

var (
	// ErrPrincipalRequired means a core operation was reached without an
	// authenticated principal. Transports must authenticate first.
	ErrPrincipalRequired = errors.New("authenticated principal_id is required")
	// ErrTenantNotFound means the caller's tenant does not exist
	ErrTenantNotFound = errors.New("tenant not found")
)

// AssignmentError aborts a strict-mode assignment pass
type AssignmentError struct {
	CreativeID string
	PackageID  string
	Message    string
}

func (e *AssignmentError) Error() string {
	return fmt.Sprintf("assignment of creative %s to package %s failed: %s", e.CreativeID, e.PackageID, e.Message)
}
