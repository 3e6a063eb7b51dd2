package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/elsanchez/tubefetch/internal/domain"
	"github.com/elsanchez/tubefetch/internal/repository"
)

// ErrNotFound se retorna cuando el registro no existe
var ErrNotFound = errors.New("not found")

// DownloadRepository implementa repository.DownloadRepository usando SQLite
type DownloadRepository struct {
	db *sqlx.DB
}

// Compiletime check: asegura que implementa la interfaz
var _ repository.DownloadRepository = (*DownloadRepository)(nil)

// NewDownloadRepository crea un nuevo repositorio de descargas
func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// downloadRow mapea la tabla SQL a struct Go
type downloadRow struct {
	ID              int64          `db:"id"`
	RunID           string         `db:"run_id"`
	URL             string         `db:"url"`
	Platform        sql.NullString `db:"platform"`
	Quality         string         `db:"quality"`
	OutputDir       string         `db:"output_dir"`
	Status          string         `db:"status"`
	Plan            sql.NullString `db:"plan"`
	ResolvedQuality sql.NullString `db:"resolved_quality"`
	OutputPath      sql.NullString `db:"output_path"`
	Bytes           int64          `db:"bytes"`
	ErrorKind       sql.NullString `db:"error_kind"`
	ErrorMessage    sql.NullString `db:"error_message"`
	CreatedAt       int64          `db:"created_at"`
	CompletedAt     sql.NullInt64  `db:"completed_at"`
}

// Create inserta una nueva descarga
func (r *DownloadRepository) Create(ctx context.Context, dl *domain.Download) (int64, error) {
	createdAt := dl.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	status := dl.Status
	if status == "" {
		status = domain.StatusPending
	}

	query := `
		INSERT INTO downloads (run_id, url, platform, quality, output_dir, status, created_at)
		VALUES (:run_id, :url, :platform, :quality, :output_dir, :status, :created_at)
	`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"run_id":     dl.RunID,
		"url":        dl.URL,
		"platform":   dl.Platform,
		"quality":    dl.Quality,
		"output_dir": dl.OutputDir,
		"status":     string(status),
		"created_at": createdAt.Unix(),
	})
	if err != nil {
		return 0, fmt.Errorf("insert download: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id: %w", err)
	}

	return id, nil
}

// GetByID obtiene una descarga por ID
func (r *DownloadRepository) GetByID(ctx context.Context, id int64) (*domain.Download, error) {
	var row downloadRow

	query := `SELECT * FROM downloads WHERE id = ?`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("download %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get download: %w", err)
	}

	return rowToDomain(&row), nil
}

// GetByRunID obtiene una descarga por su run id
func (r *DownloadRepository) GetByRunID(ctx context.Context, runID string) (*domain.Download, error) {
	var row downloadRow

	query := `SELECT * FROM downloads WHERE run_id = ?`
	if err := r.db.GetContext(ctx, &row, query, runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("download run %s: %w", runID, ErrNotFound)
		}
		return nil, fmt.Errorf("get download: %w", err)
	}

	return rowToDomain(&row), nil
}

// Delete elimina una descarga
func (r *DownloadRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM downloads WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

// GetPending obtiene todas las descargas pendientes
func (r *DownloadRepository) GetPending(ctx context.Context) ([]*domain.Download, error) {
	return r.GetByStatus(ctx, domain.StatusPending)
}

// GetActive obtiene descargas en proceso
func (r *DownloadRepository) GetActive(ctx context.Context) ([]*domain.Download, error) {
	var rows []downloadRow

	query := `
		SELECT * FROM downloads
		WHERE status IN ('downloading', 'processing')
		ORDER BY created_at ASC, id ASC
	`

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("get active downloads: %w", err)
	}

	return rowsToDomain(rows), nil
}

// GetRecent obtiene las descargas recientes
func (r *DownloadRepository) GetRecent(ctx context.Context, limit int) ([]*domain.Download, error) {
	var rows []downloadRow

	query := `
		SELECT * FROM downloads
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("get recent downloads: %w", err)
	}

	return rowsToDomain(rows), nil
}

// GetByStatus obtiene descargas por status
func (r *DownloadRepository) GetByStatus(ctx context.Context, status domain.DownloadStatus) ([]*domain.Download, error) {
	var rows []downloadRow

	query := `SELECT * FROM downloads WHERE status = ? ORDER BY created_at ASC, id ASC`
	if err := r.db.SelectContext(ctx, &rows, query, string(status)); err != nil {
		return nil, fmt.Errorf("get downloads by status: %w", err)
	}

	return rowsToDomain(rows), nil
}

// UpdateStatus actualiza solo el status de una descarga en curso
func (r *DownloadRepository) UpdateStatus(ctx context.Context, id int64, status domain.DownloadStatus) error {
	query := `UPDATE downloads SET status = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, string(status), id)
	return err
}

// Complete registra el resultado terminal de la ejecución
func (r *DownloadRepository) Complete(ctx context.Context, id int64, outcome domain.DownloadOutcome) error {
	status := domain.StatusCompleted
	var errKind, errMsg interface{}
	if !outcome.Succeeded() {
		status = domain.StatusFailed
		errKind = string(outcome.Err.Kind)
		errMsg = outcome.Err.Error()
	}

	var resolved interface{}
	if outcome.Tier.Valid() {
		resolved = outcome.Tier.String()
	}

	query := `
		UPDATE downloads
		SET status = :status, plan = :plan, resolved_quality = :resolved_quality,
		    output_path = :output_path, bytes = :bytes, error_kind = :error_kind,
		    error_message = :error_message, completed_at = :completed_at
		WHERE id = :id
	`

	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               id,
		"status":           string(status),
		"plan":             nullIfEmpty(string(outcome.Plan)),
		"resolved_quality": resolved,
		"output_path":      nullIfEmpty(outcome.Path),
		"bytes":            outcome.Bytes,
		"error_kind":       errKind,
		"error_message":    errMsg,
		"completed_at":     time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("complete download: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("download %d: %w", id, ErrNotFound)
	}

	return nil
}

// CountByStatus cuenta descargas por status
func (r *DownloadRepository) CountByStatus(ctx context.Context, status domain.DownloadStatus) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM downloads WHERE status = ?`
	err := r.db.GetContext(ctx, &count, query, string(status))
	return count, err
}

// CountTotal cuenta todas las descargas
func (r *DownloadRepository) CountTotal(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM downloads`
	err := r.db.GetContext(ctx, &count, query)
	return count, err
}

// DeleteFinishedBefore borra registros terminados antes de la fecha
func (r *DownloadRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM downloads
		WHERE status IN ('completed', 'failed') AND completed_at < ?
	`

	result, err := r.db.ExecContext(ctx, query, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune downloads: %w", err)
	}
	return result.RowsAffected()
}

// Helper: conversión row → domain
func rowToDomain(row *downloadRow) *domain.Download {
	dl := &domain.Download{
		ID:              row.ID,
		RunID:           row.RunID,
		URL:             row.URL,
		Platform:        row.Platform.String,
		Quality:         row.Quality,
		OutputDir:       row.OutputDir,
		Status:          domain.DownloadStatus(row.Status),
		Plan:            domain.PlanKind(row.Plan.String),
		ResolvedQuality: row.ResolvedQuality.String,
		OutputPath:      row.OutputPath.String,
		Bytes:           row.Bytes,
		ErrorKind:       domain.ErrorKind(row.ErrorKind.String),
		ErrorMessage:    row.ErrorMessage.String,
		CreatedAt:       time.Unix(row.CreatedAt, 0),
	}

	if row.CompletedAt.Valid {
		t := time.Unix(row.CompletedAt.Int64, 0)
		dl.CompletedAt = &t
	}

	return dl
}

// Helper: conversión múltiples rows → domain
func rowsToDomain(rows []downloadRow) []*domain.Download {
	downloads := make([]*domain.Download, 0, len(rows))
	for i := range rows {
		downloads = append(downloads, rowToDomain(&rows[i]))
	}
	return downloads
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
