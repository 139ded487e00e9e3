package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// NotFoundError is returned when a tenant or a tenant-owned record does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ConfigurationError marks a missing or invalid industry configuration value.
type ConfigurationError struct {
	TenantID uuid.UUID
	Rule     string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.TenantID == uuid.Nil {
		return fmt.Sprintf("configuration %s: %s", e.Rule, e.Reason)
	}
	return fmt.Sprintf("tenant %s configuration %s: %s", e.TenantID, e.Rule, e.Reason)
}

// DataAccessError wraps a failure of an underlying store.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}
