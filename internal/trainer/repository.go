package trainer

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateTrainer(ctx context.Context, userID *int, name, bio string) (*Trainer, error) {
	query := `
		INSERT INTO trainers (user_id, name, bio)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, bio, created_at
	`

	var t Trainer
	err := r.db.GetContext(ctx, &t, query, userID, name, bio)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) GetTrainerByID(ctx context.Context, id int) (*Trainer, error) {
	query := `
		SELECT id, user_id, name, bio, created_at
		FROM trainers
		WHERE id = $1
	`

	var t Trainer
	err := r.db.GetContext(ctx, &t, query, id)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *repository) GetAllTrainers(ctx context.Context) ([]Trainer, error) {
	query := `
		SELECT id, user_id, name, bio, created_at
		FROM trainers
		ORDER BY name
	`

	var trainers []Trainer
	err := r.db.SelectContext(ctx, &trainers, query)
	if err != nil {
		return nil, err
	}

	return trainers, nil
}

func (r *repository) HasSessionConflict(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM sessions
			WHERE trainer_id = $1
			  AND start_time < $2
			  AND end_time > $3
			  AND id != $4
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, trainerID, end, start, excludeSessionID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) HasPersonalTrainingConflict(ctx context.Context, trainerID int, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM personal_training_sessions
			WHERE trainer_id = $1
			  AND start_time < $2
			  AND end_time > $3
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, trainerID, end, start)
	if err != nil {
		return false, err
	}

	return exists, nil
}
