package database

import (
	"context"
	"fmt"
	"time"

	"docbrief/internal/domain"
)

const DefaultHistoryLimit = 20

func (d *Database) AddSummary(ctx context.Context, record domain.SummaryRecord) (int64, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `insert into summaries
	(user_id, source, method, provider, length_tier, summary, word_count_in, word_count_out, created_at)
	values (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := d.db.ExecContext(ctx, query,
		record.UserID,
		record.Source,
		record.Method,
		record.Provider,
		record.LengthTier,
		record.Summary,
		record.WordCountIn,
		record.WordCountOut,
		record.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert summary: %w", err)
	}

	return res.LastInsertId()
}

// ListSummaries returns the newest summaries of a user first.
func (d *Database) ListSummaries(ctx context.Context, userID int64, limit int) ([]domain.SummaryRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `select id, user_id, source, method, provider, length_tier, summary,
	word_count_in, word_count_out, created_at
	from summaries
	where user_id = ?
	order by created_at desc, id desc
	limit ?`

	rows, err := d.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			d.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"userID", userID,
				"operation", "ListSummaries")
		}
	}()

	var records []domain.SummaryRecord
	for rows.Next() {
		var (
			r       domain.SummaryRecord
			created int64
		)

		if err = rows.Scan(
			&r.ID,
			&r.UserID,
			&r.Source,
			&r.Method,
			&r.Provider,
			&r.LengthTier,
			&r.Summary,
			&r.WordCountIn,
			&r.WordCountOut,
			&created,
		); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.Unix(created, 0).UTC()
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return records, nil
}
