package schedule

import (
	"context"
	"time"
)

type Repository interface {
	CreateClass(ctx context.Context, title, description string, maxParticipants int, isPrivate bool) (*Class, error)
	GetClassByID(ctx context.Context, id int) (*Class, error)
	GetAllClasses(ctx context.Context) ([]Class, error)
	DeleteClass(ctx context.Context, id int) error

	CreateSession(ctx context.Context, classID int, start, end time.Time, trainerID *int, recurring bool, recurrenceEnd *time.Time) (*Session, error)
	GetSessionByID(ctx context.Context, id int) (*Session, error)
	GetSessionsByClass(ctx context.Context, classID int) ([]Session, error)
	GetSessionsInRange(ctx context.Context, from, to time.Time) ([]SessionWithClass, error)
	DeleteSession(ctx context.Context, id int) error
	// DeleteSessionFamily removes all sessions of the class whose start
	// falls within [from, to] inclusive. Returns the number removed.
	DeleteSessionFamily(ctx context.Context, classID int, from, to time.Time) (int, error)

	CreateBooking(ctx context.Context, sessionID, userID int) (*Booking, error)
	GetBookingByID(ctx context.Context, id int) (*Booking, error)
	DeleteBooking(ctx context.Context, id int) error
	UserHasBookingForSession(ctx context.Context, userID, sessionID int) (bool, error)
	CountBookingsForSession(ctx context.Context, sessionID int) (int, error)
	GetUserBookings(ctx context.Context, userID int, futureOnly bool) ([]BookingWithSession, error)

	CreatePersonalTraining(ctx context.Context, pt *PersonalTrainingSession) (*PersonalTrainingSession, error)
	// OverlappingSessionsForTrainer returns the trainer's class sessions
	// intersecting [start, end), joined with their class privacy flag.
	OverlappingSessionsForTrainer(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) ([]SessionWithClass, error)
	// UnassignSessionTrainer clears the trainer from a session (eviction).
	UnassignSessionTrainer(ctx context.Context, sessionID int) error
}
