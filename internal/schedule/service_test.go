package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/performlikemj/C2M/internal/trainer"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateClass(ctx context.Context, title, description string, maxParticipants int, isPrivate bool) (*Class, error) {
	args := m.Called(ctx, title, description, maxParticipants, isPrivate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Class), args.Error(1)
}

func (m *MockRepository) GetClassByID(ctx context.Context, id int) (*Class, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Class), args.Error(1)
}

func (m *MockRepository) GetAllClasses(ctx context.Context) ([]Class, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Class), args.Error(1)
}

func (m *MockRepository) DeleteClass(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) CreateSession(ctx context.Context, classID int, start, end time.Time, trainerID *int, recurring bool, recurrenceEnd *time.Time) (*Session, error) {
	args := m.Called(ctx, classID, start, end, trainerID, recurring, recurrenceEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockRepository) GetSessionByID(ctx context.Context, id int) (*Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockRepository) GetSessionsByClass(ctx context.Context, classID int) ([]Session, error) {
	args := m.Called(ctx, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Session), args.Error(1)
}

func (m *MockRepository) GetSessionsInRange(ctx context.Context, from, to time.Time) ([]SessionWithClass, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SessionWithClass), args.Error(1)
}

func (m *MockRepository) DeleteSession(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteSessionFamily(ctx context.Context, classID int, from, to time.Time) (int, error) {
	args := m.Called(ctx, classID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) CreateBooking(ctx context.Context, sessionID, userID int) (*Booking, error) {
	args := m.Called(ctx, sessionID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) GetBookingByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockRepository) DeleteBooking(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) UserHasBookingForSession(ctx context.Context, userID, sessionID int) (bool, error) {
	args := m.Called(ctx, userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) CountBookingsForSession(ctx context.Context, sessionID int) (int, error) {
	args := m.Called(ctx, sessionID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) GetUserBookings(ctx context.Context, userID int, futureOnly bool) ([]BookingWithSession, error) {
	args := m.Called(ctx, userID, futureOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithSession), args.Error(1)
}

func (m *MockRepository) CreatePersonalTraining(ctx context.Context, pt *PersonalTrainingSession) (*PersonalTrainingSession, error) {
	args := m.Called(ctx, pt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*PersonalTrainingSession), args.Error(1)
}

func (m *MockRepository) OverlappingSessionsForTrainer(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) ([]SessionWithClass, error) {
	args := m.Called(ctx, trainerID, start, end, excludeSessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SessionWithClass), args.Error(1)
}

func (m *MockRepository) UnassignSessionTrainer(ctx context.Context, sessionID int) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

type MockTrainerService struct {
	mock.Mock
}

func (m *MockTrainerService) CreateTrainer(ctx context.Context, req trainer.CreateTrainerRequest) (*trainer.Trainer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trainer.Trainer), args.Error(1)
}

func (m *MockTrainerService) GetAllTrainers(ctx context.Context) ([]trainer.Trainer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trainer.Trainer), args.Error(1)
}

func (m *MockTrainerService) GetTrainerByID(ctx context.Context, id int) (*trainer.Trainer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trainer.Trainer), args.Error(1)
}

func (m *MockTrainerService) IsAvailable(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) (bool, error) {
	args := m.Called(ctx, trainerID, start, end, excludeSessionID)
	return args.Bool(0), args.Error(1)
}

type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) IsActiveUser(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func newTestService(repo *MockRepository, trainers *MockTrainerService, memberships *MockMembershipChecker) Service {
	return NewService(repo, trainers, memberships, nil, nil, Options{OpenHour: 10, CloseHour: 22})
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	class := &Class{ID: 1, Title: "Yoga", MaxParticipants: 10}
	start := mustTime(t, "2025-01-06T10:00:00Z")
	end := mustTime(t, "2025-01-06T11:00:00Z")

	t.Run("one-off session", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CreateSession", ctx, 1, start, end, (*int)(nil), false, (*time.Time)(nil)).
			Return(&Session{ID: 5, ClassID: 1, StartTime: start, EndTime: end}, nil)

		result, err := svc.CreateSession(ctx, 1, start, end, nil, false, time.Time{})

		assert.NoError(t, err)
		assert.Equal(t, 5, result.Seed.ID)
		assert.Empty(t, result.Children)
		repo.AssertExpectations(t)
	})

	t.Run("rejects session before opening", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetClassByID", ctx, 1).Return(class, nil)

		early := mustTime(t, "2025-01-06T08:00:00Z")
		_, err := svc.CreateSession(ctx, 1, early, early.Add(time.Hour), nil, false, time.Time{})

		assert.ErrorIs(t, err, ErrOutsideOpeningHours)
	})

	t.Run("rejects session running past closing", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetClassByID", ctx, 1).Return(class, nil)

		late := mustTime(t, "2025-01-06T21:30:00Z")
		_, err := svc.CreateSession(ctx, 1, late, late.Add(time.Hour), nil, false, time.Time{})

		assert.ErrorIs(t, err, ErrOutsideOpeningHours)
	})

	t.Run("allows session ending at closing sharp", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		lateStart := mustTime(t, "2025-01-06T21:00:00Z")
		lateEnd := mustTime(t, "2025-01-06T22:00:00Z")

		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CreateSession", ctx, 1, lateStart, lateEnd, (*int)(nil), false, (*time.Time)(nil)).
			Return(&Session{ID: 6}, nil)

		_, err := svc.CreateSession(ctx, 1, lateStart, lateEnd, nil, false, time.Time{})

		assert.NoError(t, err)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetClassByID", ctx, 1).Return(class, nil)

		_, err := svc.CreateSession(ctx, 1, end, start, nil, false, time.Time{})

		assert.ErrorIs(t, err, ErrInvalidWindow)
	})

	t.Run("trainer conflict on the seed", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		trainerID := 3
		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		trainers.On("IsAvailable", ctx, 3, start, end, 0).Return(false, nil)

		_, err := svc.CreateSession(ctx, 1, start, end, &trainerID, false, time.Time{})

		assert.ErrorIs(t, err, ErrTrainerConflict)
	})

	t.Run("recurring session materializes weekly children", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		until := mustTime(t, "2025-01-27T00:00:00Z")

		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CreateSession", ctx, 1, start, end, (*int)(nil), true, &until).
			Return(&Session{ID: 10, Recurring: true, RecurrenceEndDate: &until}, nil)
		repo.On("CreateSession", ctx, 1, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time"), (*int)(nil), false, (*time.Time)(nil)).
			Return(&Session{ID: 11}, nil).Times(3)

		result, err := svc.CreateSession(ctx, 1, start, end, nil, true, until)

		assert.NoError(t, err)
		assert.Len(t, result.Children, 3)
		repo.AssertExpectations(t)
	})

	t.Run("strict mode skips conflicting children", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := NewService(repo, trainers, nil, nil, nil, Options{OpenHour: 10, CloseHour: 22, StrictRecurrence: true})

		trainerID := 3
		until := mustTime(t, "2025-01-20T00:00:00Z")
		week2 := mustTime(t, "2025-01-13T10:00:00Z")
		week3 := mustTime(t, "2025-01-20T10:00:00Z")

		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		trainers.On("IsAvailable", ctx, 3, start, end, 0).Return(true, nil)
		trainers.On("IsAvailable", ctx, 3, week2, week2.Add(time.Hour), 0).Return(false, nil)
		trainers.On("IsAvailable", ctx, 3, week3, week3.Add(time.Hour), 0).Return(true, nil)

		repo.On("CreateSession", ctx, 1, start, end, &trainerID, true, &until).
			Return(&Session{ID: 10}, nil)
		repo.On("CreateSession", ctx, 1, week3, week3.Add(time.Hour), &trainerID, false, (*time.Time)(nil)).
			Return(&Session{ID: 12}, nil)

		result, err := svc.CreateSession(ctx, 1, start, end, &trainerID, true, until)

		assert.NoError(t, err)
		assert.Len(t, result.Children, 1)
		assert.Len(t, result.Skipped, 1)
		assert.Equal(t, week2, result.Skipped[0].Start)
		repo.AssertExpectations(t)
	})
}

func TestBookSession(t *testing.T) {
	ctx := context.Background()
	future := time.Now().Add(72 * time.Hour)
	session := &Session{ID: 5, ClassID: 1, StartTime: future, EndTime: future.Add(time.Hour)}
	class := &Class{ID: 1, Title: "Yoga", MaxParticipants: 2}

	t.Run("success", func(t *testing.T) {
		repo := new(MockRepository)
		memberships := new(MockMembershipChecker)
		svc := newTestService(repo, new(MockTrainerService), memberships)

		repo.On("GetSessionByID", ctx, 5).Return(session, nil)
		memberships.On("IsActiveUser", ctx, 7).Return(true, nil)
		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CountBookingsForSession", ctx, 5).Return(1, nil)
		repo.On("UserHasBookingForSession", ctx, 7, 5).Return(false, nil)
		repo.On("CreateBooking", ctx, 5, 7).Return(&Booking{ID: 20, SessionID: 5, UserID: 7}, nil)

		booking, err := svc.BookSession(ctx, 7, 5)

		assert.NoError(t, err)
		assert.Equal(t, 20, booking.ID)
		repo.AssertExpectations(t)
	})

	t.Run("inactive membership", func(t *testing.T) {
		repo := new(MockRepository)
		memberships := new(MockMembershipChecker)
		svc := newTestService(repo, new(MockTrainerService), memberships)

		repo.On("GetSessionByID", ctx, 5).Return(session, nil)
		memberships.On("IsActiveUser", ctx, 7).Return(false, nil)

		_, err := svc.BookSession(ctx, 7, 5)

		assert.ErrorIs(t, err, ErrMembershipInactive)
	})

	t.Run("session full", func(t *testing.T) {
		repo := new(MockRepository)
		memberships := new(MockMembershipChecker)
		svc := newTestService(repo, new(MockTrainerService), memberships)

		repo.On("GetSessionByID", ctx, 5).Return(session, nil)
		memberships.On("IsActiveUser", ctx, 7).Return(true, nil)
		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CountBookingsForSession", ctx, 5).Return(2, nil)

		_, err := svc.BookSession(ctx, 7, 5)

		assert.ErrorIs(t, err, ErrSessionFull)
	})

	t.Run("duplicate booking", func(t *testing.T) {
		repo := new(MockRepository)
		memberships := new(MockMembershipChecker)
		svc := newTestService(repo, new(MockTrainerService), memberships)

		repo.On("GetSessionByID", ctx, 5).Return(session, nil)
		memberships.On("IsActiveUser", ctx, 7).Return(true, nil)
		repo.On("GetClassByID", ctx, 1).Return(class, nil)
		repo.On("CountBookingsForSession", ctx, 5).Return(1, nil)
		repo.On("UserHasBookingForSession", ctx, 7, 5).Return(true, nil)

		_, err := svc.BookSession(ctx, 7, 5)

		assert.ErrorIs(t, err, ErrAlreadyBooked)
	})

	t.Run("past session", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), new(MockMembershipChecker))

		past := &Session{ID: 5, ClassID: 1, StartTime: time.Now().Add(-time.Hour)}
		repo.On("GetSessionByID", ctx, 5).Return(past, nil)

		_, err := svc.BookSession(ctx, 7, 5)

		assert.ErrorIs(t, err, ErrPastSession)
	})
}

func TestCancelBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("success more than 24h before start", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		start := time.Now().Add(48 * time.Hour)
		repo.On("GetBookingByID", ctx, 20).Return(&Booking{ID: 20, SessionID: 5, UserID: 7}, nil)
		repo.On("GetSessionByID", ctx, 5).Return(&Session{ID: 5, ClassID: 1, StartTime: start}, nil)
		repo.On("DeleteBooking", ctx, 20).Return(nil)

		assert.NoError(t, svc.CancelBooking(ctx, 7, 20))
		repo.AssertExpectations(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetBookingByID", ctx, 20).Return(&Booking{ID: 20, SessionID: 5, UserID: 99}, nil)

		assert.ErrorIs(t, svc.CancelBooking(ctx, 7, 20), ErrNotYourBooking)
	})

	t.Run("too late to cancel", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		start := time.Now().Add(6 * time.Hour)
		repo.On("GetBookingByID", ctx, 20).Return(&Booking{ID: 20, SessionID: 5, UserID: 7}, nil)
		repo.On("GetSessionByID", ctx, 5).Return(&Session{ID: 5, StartTime: start}, nil)

		assert.ErrorIs(t, svc.CancelBooking(ctx, 7, 20), ErrTooLateToCancel)
	})

	t.Run("session already started", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetBookingByID", ctx, 20).Return(&Booking{ID: 20, SessionID: 5, UserID: 7}, nil)
		repo.On("GetSessionByID", ctx, 5).Return(&Session{ID: 5, StartTime: time.Now().Add(-time.Hour)}, nil)

		assert.ErrorIs(t, svc.CancelBooking(ctx, 7, 20), ErrPastSession)
	})
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()

	t.Run("single session", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		repo.On("GetSessionByID", ctx, 5).Return(&Session{ID: 5, ClassID: 1}, nil)
		repo.On("DeleteSession", ctx, 5).Return(nil)

		deleted, err := svc.DeleteSession(ctx, 5, false)

		assert.NoError(t, err)
		assert.Equal(t, 1, deleted)
	})

	t.Run("whole recurring family", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		start := mustTime(t, "2025-01-06T10:00:00Z")
		until := mustTime(t, "2025-02-03T00:00:00Z")
		seed := &Session{ID: 5, ClassID: 1, StartTime: start, Recurring: true, RecurrenceEndDate: &until}

		repo.On("GetSessionByID", ctx, 5).Return(seed, nil)
		repo.On("DeleteSessionFamily", ctx, 1, start, until).Return(5, nil)

		deleted, err := svc.DeleteSession(ctx, 5, true)

		assert.NoError(t, err)
		assert.Equal(t, 5, deleted)
		repo.AssertExpectations(t)
	})
}

func TestCreatePersonalTraining(t *testing.T) {
	ctx := context.Background()
	slotStart := mustTime(t, "2025-01-06T14:00:00Z")
	slot := &Session{ID: 5, ClassID: 1, StartTime: slotStart, EndTime: slotStart.Add(time.Hour)}

	t.Run("evicts trainer from conflicting non-private session", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		trainerID := 3
		conflict := SessionWithClass{
			Session:        Session{ID: 9, TrainerID: &trainerID},
			ClassIsPrivate: false,
		}

		repo.On("GetSessionByID", ctx, 5).Return(slot, nil)
		repo.On("OverlappingSessionsForTrainer", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).
			Return([]SessionWithClass{conflict}, nil)
		repo.On("UnassignSessionTrainer", ctx, 9).Return(nil)
		trainers.On("IsAvailable", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).Return(true, nil)
		repo.On("CreatePersonalTraining", ctx, mock.AnythingOfType("*schedule.PersonalTrainingSession")).
			Return(&PersonalTrainingSession{ID: 1, TrainerID: 3}, nil)

		pt, err := svc.CreatePersonalTraining(ctx, CreatePersonalTrainingRequest{
			MembershipID: 2, SessionID: 5, TrainerID: 3, DurationMinutes: 60,
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, pt.TrainerID)
		repo.AssertExpectations(t)
	})

	t.Run("private conflict is a hard error", func(t *testing.T) {
		repo := new(MockRepository)
		svc := newTestService(repo, new(MockTrainerService), nil)

		conflict := SessionWithClass{Session: Session{ID: 9}, ClassIsPrivate: true}

		repo.On("GetSessionByID", ctx, 5).Return(slot, nil)
		repo.On("OverlappingSessionsForTrainer", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).
			Return([]SessionWithClass{conflict}, nil)

		_, err := svc.CreatePersonalTraining(ctx, CreatePersonalTrainingRequest{
			MembershipID: 2, SessionID: 5, TrainerID: 3, DurationMinutes: 60,
		})

		assert.ErrorIs(t, err, ErrPrivateTrainerConflict)
	})

	t.Run("overlapping personal training is rejected", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		repo.On("GetSessionByID", ctx, 5).Return(slot, nil)
		repo.On("OverlappingSessionsForTrainer", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).
			Return([]SessionWithClass{}, nil)
		trainers.On("IsAvailable", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).Return(false, nil)

		_, err := svc.CreatePersonalTraining(ctx, CreatePersonalTrainingRequest{
			MembershipID: 2, SessionID: 5, TrainerID: 3, DurationMinutes: 60,
		})

		assert.ErrorIs(t, err, ErrTrainerBusy)
	})

	t.Run("default duration is an hour", func(t *testing.T) {
		repo := new(MockRepository)
		trainers := new(MockTrainerService)
		svc := newTestService(repo, trainers, nil)

		repo.On("GetSessionByID", ctx, 5).Return(slot, nil)
		repo.On("OverlappingSessionsForTrainer", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).
			Return([]SessionWithClass{}, nil)
		trainers.On("IsAvailable", ctx, 3, slotStart, slotStart.Add(time.Hour), 5).Return(true, nil)
		repo.On("CreatePersonalTraining", ctx, mock.MatchedBy(func(pt *PersonalTrainingSession) bool {
			return pt.DurationMinutes == 60 && pt.EndTime.Equal(slotStart.Add(time.Hour))
		})).Return(&PersonalTrainingSession{ID: 2, DurationMinutes: 60}, nil)

		pt, err := svc.CreatePersonalTraining(ctx, CreatePersonalTrainingRequest{
			MembershipID: 2, SessionID: 5, TrainerID: 3,
		})

		assert.NoError(t, err)
		assert.Equal(t, 60, pt.DurationMinutes)
	})
}
