package services

import (
	"context"
	"database/sql"
	"fmt"

	"study-ai/internal/models"
)

// HistoryService logs one row per generation attempt so past runs can be
// inspected. The artifact listings never consult it; they stay directory
// scans.
type HistoryService struct {
	db *sql.DB
}

func NewHistoryService(db *sql.DB) *HistoryService {
	return &HistoryService{db: db}
}

// Record appends one generation attempt, successful or failed.
func (s *HistoryService) Record(ctx context.Context, rec models.GenerationRecord) error {
	const stmt = `
	INSERT INTO generations (
		request_id, source_name, page_count, char_count, model,
		basic_count, advanced_count, problems_file, summary_file,
		status, error, duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	_, err := s.db.ExecContext(ctx, stmt,
		rec.RequestID, rec.SourceName, rec.PageCount, rec.CharCount, rec.Model,
		rec.BasicCount, rec.AdvancedCount, rec.ProblemsFile, rec.SummaryFile,
		rec.Status, rec.Error, rec.DurationMS, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert generation record: %w", err)
	}
	return nil
}

// Recent returns the latest generation attempts, newest first.
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]models.GenerationRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	const stmt = `
	SELECT id, request_id, source_name, page_count, char_count, model,
		basic_count, advanced_count, problems_file, summary_file,
		status, error, duration_ms, created_at
	FROM generations
	ORDER BY id DESC
	LIMIT ?;`

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	records := make([]models.GenerationRecord, 0, limit)
	for rows.Next() {
		var rec models.GenerationRecord
		if err := rows.Scan(
			&rec.ID, &rec.RequestID, &rec.SourceName, &rec.PageCount, &rec.CharCount,
			&rec.Model, &rec.BasicCount, &rec.AdvancedCount, &rec.ProblemsFile,
			&rec.SummaryFile, &rec.Status, &rec.Error, &rec.DurationMS, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan generation record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
