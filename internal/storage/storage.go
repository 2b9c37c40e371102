// Package storage defines the model registry and its SQLite implementation.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/bunrui/internal/models"
)

// ErrNotFound is returned when no model matches an id or name.
var ErrNotFound = errors.New("model not found")

// Registry records saved models by id and unique name.
type Registry interface {
	// Register stores a new record, replacing any record with the same name.
	Register(ctx context.Context, in *models.ModelInput) (*models.ModelRecord, error)
	Get(ctx context.Context, id string) (*models.ModelRecord, error)
	GetByName(ctx context.Context, name string) (*models.ModelRecord, error)
	// List returns records newest first.
	List(ctx context.Context, offset, limit int) ([]*models.ModelRecord, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)

	Close() error
}
