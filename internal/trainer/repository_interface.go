package trainer

import (
	"context"
	"time"
)

type Repository interface {
	CreateTrainer(ctx context.Context, userID *int, name, bio string) (*Trainer, error)
	GetTrainerByID(ctx context.Context, id int) (*Trainer, error)
	GetAllTrainers(ctx context.Context) ([]Trainer, error)

	// HasSessionConflict reports whether any class session assigned to the
	// trainer overlaps [start, end). A zero excludeSessionID excludes nothing.
	HasSessionConflict(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) (bool, error)

	// HasPersonalTrainingConflict reports whether any personal training
	// session held by the trainer overlaps [start, end).
	HasPersonalTrainingConflict(ctx context.Context, trainerID int, start, end time.Time) (bool, error)
}
