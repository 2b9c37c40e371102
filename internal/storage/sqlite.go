package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/bunrui/internal/models"
)

// SQLiteRegistry implements Registry using SQLite.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS models (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		prefix TEXT NOT NULL,
		kind TEXT NOT NULL,
		labels TEXT NOT NULL,
		alternate_ingestion INTEGER NOT NULL DEFAULT 0,
		max_length INTEGER NOT NULL,
		vector_size INTEGER NOT NULL DEFAULT 0,
		examples INTEGER NOT NULL DEFAULT 0,
		metadata TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_models_created_at ON models(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

const selectColumns = `SELECT id, name, prefix, kind, labels, alternate_ingestion, max_length,
	vector_size, examples, metadata, created_at FROM models`

// Register inserts a record with a fresh UUID. An existing record with the same name is replaced.
func (s *SQLiteRegistry) Register(ctx context.Context, in *models.ModelInput) (*models.ModelRecord, error) {
	if in.Name == "" || in.Prefix == "" {
		return nil, fmt.Errorf("model name and prefix are required")
	}
	labelsJSON, err := json.Marshal(in.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal labels: %w", err)
	}
	metadataJSON, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	rec := &models.ModelRecord{
		ID:                 uuid.New().String(),
		Name:               in.Name,
		Prefix:             in.Prefix,
		Kind:               in.Kind,
		Labels:             append([]string(nil), in.Labels...),
		AlternateIngestion: in.AlternateIngestion,
		MaxLength:          in.MaxLength,
		VectorSize:         in.VectorSize,
		Examples:           in.Examples,
		Metadata:           in.Metadata,
		CreatedAt:          time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM models WHERE name = ?`, in.Name); err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO models (id, name, prefix, kind, labels, alternate_ingestion, max_length,
		 vector_size, examples, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Prefix, rec.Kind, string(labelsJSON), rec.AlternateIngestion,
		rec.MaxLength, rec.VectorSize, rec.Examples, string(metadataJSON), rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a record by ID.
func (s *SQLiteRegistry) Get(ctx context.Context, id string) (*models.ModelRecord, error) {
	return s.getOne(ctx, selectColumns+` WHERE id = ?`, id)
}

// GetByName returns a record by name.
func (s *SQLiteRegistry) GetByName(ctx context.Context, name string) (*models.ModelRecord, error) {
	return s.getOne(ctx, selectColumns+` WHERE name = ?`, name)
}

func (s *SQLiteRegistry) getOne(ctx context.Context, query, arg string) (*models.ModelRecord, error) {
	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, arg)
	}
	return rec, err
}

// List returns records with offset and limit, newest first.
func (s *SQLiteRegistry) List(ctx context.Context, offset, limit int) ([]*models.ModelRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` ORDER BY created_at DESC, name LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ModelRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Delete removes a record by ID. The model files are left in place.
func (s *SQLiteRegistry) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM models WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of registered models.
func (s *SQLiteRegistry) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM models`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteRegistry) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*models.ModelRecord, error) {
	var rec models.ModelRecord
	var labelsJSON string
	var metadataJSON sql.NullString
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Prefix, &rec.Kind, &labelsJSON, &rec.AlternateIngestion,
		&rec.MaxLength, &rec.VectorSize, &rec.Examples, &metadataJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(labelsJSON), &rec.Labels); err != nil {
		return nil, fmt.Errorf("failed to unmarshal labels: %w", err)
	}
	if metadataJSON.Valid && metadataJSON.String != "" && metadataJSON.String != "null" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &rec, nil
}
