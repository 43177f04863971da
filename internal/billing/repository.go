package billing

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	// MarkProcessed records the event id and reports whether this call was
	// the first to see it. Duplicates return false and must be skipped.
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)

	// Unmark releases a claimed event id so a redelivery is processed again.
	Unmark(ctx context.Context, eventID string) error
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO processed_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, eventID, eventType)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

func (r *repository) Unmark(ctx context.Context, eventID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM processed_events WHERE event_id = $1`, eventID)
	return err
}
