package models

import (
	"time"
)

// Model is a record stored in the history database.
type Model interface {
	ID() string
	CreatedAt() time.Time
	UpdatedAt() time.Time
	// Validate reports a record that must not be written.
	Validate() error
}

// Repository is the CRUD surface of a history table keyed by record id.
//
// List filters on column equality; an empty criteria map lists every live record.
type Repository[T Model] interface {
	Create(model T) error
	Get(id string) (T, error)
	Update(model T) error
	Delete(id string) error
	List(criteria map[string]any) ([]T, error)
}
