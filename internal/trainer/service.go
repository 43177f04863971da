package trainer

import (
	"context"
	"errors"
	"time"
)

var ErrTrainerNotFound = errors.New("trainer not found")

type Service interface {
	CreateTrainer(ctx context.Context, req CreateTrainerRequest) (*Trainer, error)
	GetAllTrainers(ctx context.Context) ([]Trainer, error)
	GetTrainerByID(ctx context.Context, id int) (*Trainer, error)

	// IsAvailable checks the trainer's calendar against both class sessions
	// and personal training sessions using strict interval overlap
	// (existing.start < end AND existing.end > start). Pass zero for
	// excludeSessionID when not editing an existing session.
	IsAvailable(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) (bool, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateTrainer(ctx context.Context, req CreateTrainerRequest) (*Trainer, error) {
	return s.repo.CreateTrainer(ctx, req.UserID, req.Name, req.Bio)
}

func (s *service) GetAllTrainers(ctx context.Context) ([]Trainer, error) {
	return s.repo.GetAllTrainers(ctx)
}

func (s *service) GetTrainerByID(ctx context.Context, id int) (*Trainer, error) {
	t, err := s.repo.GetTrainerByID(ctx, id)
	if err != nil {
		return nil, ErrTrainerNotFound
	}
	return t, nil
}

func (s *service) IsAvailable(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) (bool, error) {
	conflict, err := s.repo.HasSessionConflict(ctx, trainerID, start, end, excludeSessionID)
	if err != nil {
		return false, err
	}
	if conflict {
		return false, nil
	}

	ptConflict, err := s.repo.HasPersonalTrainingConflict(ctx, trainerID, start, end)
	if err != nil {
		return false, err
	}

	return !ptConflict, nil
}
