package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/performlikemj/C2M/internal/email"
	"github.com/performlikemj/C2M/internal/logger"
	"github.com/performlikemj/C2M/internal/metrics"
	"github.com/performlikemj/C2M/internal/trainer"
	"github.com/performlikemj/C2M/internal/user"
)

var (
	ErrClassNotFound          = errors.New("class not found")
	ErrSessionNotFound        = errors.New("session not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrInvalidWindow          = errors.New("session end must be after start")
	ErrOutsideOpeningHours    = errors.New("session time must be between 10 am and 10 pm")
	ErrTrainerConflict        = errors.New("trainer is already booked for another session during this time")
	ErrPrivateTrainerConflict = errors.New("trainer is already booked for a private session during this time")
	ErrTrainerBusy            = errors.New("trainer already has a personal training session during this time")
	ErrMembershipInactive     = errors.New("no active membership")
	ErrSessionFull            = errors.New("session is full")
	ErrAlreadyBooked          = errors.New("you have already booked this session")
	ErrNotYourBooking         = errors.New("you can only cancel your own bookings")
	ErrPastSession            = errors.New("cannot modify bookings for past sessions")
	ErrTooLateToCancel        = errors.New("bookings can only be canceled more than 24 hours in advance")
)

// MembershipChecker is the slice of the membership ledger the scheduler
// needs; keeping it an interface avoids a dependency cycle with the
// membership package.
type MembershipChecker interface {
	IsActiveUser(ctx context.Context, userID int) (bool, error)
}

// Options carry the gym's opening window and the recurrence validation
// mode. Lenient mode reproduces the legacy behavior of trusting the seed
// and persisting weekly children unvalidated; strict mode revalidates each
// child and skips the ones that conflict.
type Options struct {
	OpenHour         int
	CloseHour        int
	StrictRecurrence bool
}

type CreateSessionResult struct {
	Seed     *Session  `json:"seed"`
	Children []Session `json:"children,omitempty"`
	Skipped  []Window  `json:"skipped,omitempty"`
}

type Service interface {
	CreateClass(ctx context.Context, req CreateClassRequest) (*Class, error)
	GetAllClasses(ctx context.Context) ([]Class, error)
	GetClassByID(ctx context.Context, id int) (*Class, error)
	DeleteClass(ctx context.Context, id int) error

	CreateSession(ctx context.Context, classID int, start, end time.Time, trainerID *int, recurring bool, recurrenceEnd time.Time) (*CreateSessionResult, error)
	PreviewRecurrence(start, end, recurrenceEnd time.Time) []Window
	GetSessionsInRange(ctx context.Context, from, to time.Time) ([]SessionWithClass, error)
	GetSessionsByClass(ctx context.Context, classID int) ([]Session, error)
	DeleteSession(ctx context.Context, sessionID int, wholeFamily bool) (int, error)

	BookSession(ctx context.Context, userID, sessionID int) (*Booking, error)
	CancelBooking(ctx context.Context, userID, bookingID int) error
	GetUserBookings(ctx context.Context, userID int, futureOnly bool) ([]BookingWithSession, error)

	CreatePersonalTraining(ctx context.Context, req CreatePersonalTrainingRequest) (*PersonalTrainingSession, error)
}

type service struct {
	repo        Repository
	trainers    trainer.Service
	memberships MembershipChecker
	users       user.Repository
	email       *email.Service
	opts        Options
}

func NewService(
	repo Repository,
	trainerService trainer.Service,
	memberships MembershipChecker,
	userRepo user.Repository,
	emailService *email.Service,
	opts Options,
) Service {
	if opts.OpenHour == 0 && opts.CloseHour == 0 {
		opts.OpenHour, opts.CloseHour = 10, 22
	}
	return &service{
		repo:        repo,
		trainers:    trainerService,
		memberships: memberships,
		users:       userRepo,
		email:       emailService,
		opts:        opts,
	}
}

func (s *service) CreateClass(ctx context.Context, req CreateClassRequest) (*Class, error) {
	maxParticipants := req.MaxParticipants
	if maxParticipants == 0 {
		maxParticipants = 10
	}
	return s.repo.CreateClass(ctx, req.Title, req.Description, maxParticipants, req.IsPrivate)
}

func (s *service) GetAllClasses(ctx context.Context) ([]Class, error) {
	return s.repo.GetAllClasses(ctx)
}

func (s *service) GetClassByID(ctx context.Context, id int) (*Class, error) {
	class, err := s.repo.GetClassByID(ctx, id)
	if err != nil {
		return nil, ErrClassNotFound
	}
	return class, nil
}

func (s *service) DeleteClass(ctx context.Context, id int) error {
	return s.repo.DeleteClass(ctx, id)
}

// validateWindow enforces the opening-hours invariant: the start hour must
// fall inside [open, close) and the end may reach the closing hour sharp.
func (s *service) validateWindow(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidWindow
	}
	if start.Hour() < s.opts.OpenHour || start.Hour() >= s.opts.CloseHour {
		return ErrOutsideOpeningHours
	}
	endsAtClose := end.Hour() == s.opts.CloseHour && end.Minute() == 0 && end.Second() == 0
	if end.Hour() < s.opts.OpenHour || (end.Hour() >= s.opts.CloseHour && !endsAtClose) {
		return ErrOutsideOpeningHours
	}
	return nil
}

func (s *service) CreateSession(ctx context.Context, classID int, start, end time.Time, trainerID *int, recurring bool, recurrenceEnd time.Time) (*CreateSessionResult, error) {
	if _, err := s.repo.GetClassByID(ctx, classID); err != nil {
		return nil, ErrClassNotFound
	}

	if err := s.validateWindow(start, end); err != nil {
		return nil, err
	}

	if trainerID != nil {
		available, err := s.trainers.IsAvailable(ctx, *trainerID, start, end, 0)
		if err != nil {
			return nil, err
		}
		if !available {
			return nil, ErrTrainerConflict
		}
	}

	var recurrenceEndPtr *time.Time
	if recurring {
		clamped := ClampRecurrenceEnd(start, recurrenceEnd)
		recurrenceEndPtr = &clamped
	}

	seed, err := s.repo.CreateSession(ctx, classID, start, end, trainerID, recurring, recurrenceEndPtr)
	if err != nil {
		return nil, err
	}
	metrics.RecordSessionCreated("seed")

	result := &CreateSessionResult{Seed: seed}
	if !recurring {
		return result, nil
	}

	// Materialize the weekly series up front. The horizon bounds the fan-out
	// to at most 13 rows; the write burst is synchronous and not resumable.
	for _, w := range ExpandWeekly(start, end, *recurrenceEndPtr) {
		if s.opts.StrictRecurrence {
			if err := s.validateWindow(w.Start, w.End); err != nil {
				logger.Warnf("Skipping recurrence child at %s: %v", w.Start, err)
				result.Skipped = append(result.Skipped, w)
				continue
			}
			if trainerID != nil {
				available, err := s.trainers.IsAvailable(ctx, *trainerID, w.Start, w.End, 0)
				if err != nil {
					return nil, err
				}
				if !available {
					logger.Warnf("Skipping recurrence child at %s: trainer conflict", w.Start)
					result.Skipped = append(result.Skipped, w)
					continue
				}
			}
		}

		child, err := s.repo.CreateSession(ctx, classID, w.Start, w.End, trainerID, false, nil)
		if err != nil {
			return nil, err
		}
		metrics.RecordSessionCreated("recurrence_child")
		result.Children = append(result.Children, *child)
	}

	return result, nil
}

func (s *service) PreviewRecurrence(start, end, recurrenceEnd time.Time) []Window {
	return ExpandWeekly(start, end, ClampRecurrenceEnd(start, recurrenceEnd))
}

func (s *service) GetSessionsInRange(ctx context.Context, from, to time.Time) ([]SessionWithClass, error) {
	return s.repo.GetSessionsInRange(ctx, from, to)
}

func (s *service) GetSessionsByClass(ctx context.Context, classID int) ([]Session, error) {
	return s.repo.GetSessionsByClass(ctx, classID)
}

func (s *service) DeleteSession(ctx context.Context, sessionID int, wholeFamily bool) (int, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return 0, ErrSessionNotFound
	}

	if wholeFamily && session.Recurring && session.RecurrenceEndDate != nil {
		return s.repo.DeleteSessionFamily(ctx, session.ClassID, session.StartTime, *session.RecurrenceEndDate)
	}

	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *service) BookSession(ctx context.Context, userID, sessionID int) (*Booking, error) {
	session, err := s.repo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	if session.StartTime.Before(time.Now()) {
		return nil, ErrPastSession
	}

	active, err := s.memberships.IsActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, ErrMembershipInactive
	}

	class, err := s.repo.GetClassByID(ctx, session.ClassID)
	if err != nil {
		return nil, ErrClassNotFound
	}

	count, err := s.repo.CountBookingsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if count >= class.MaxParticipants {
		metrics.RecordBooking("rejected_full")
		return nil, ErrSessionFull
	}

	hasBooking, err := s.repo.UserHasBookingForSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if hasBooking {
		return nil, ErrAlreadyBooked
	}

	booking, err := s.repo.CreateBooking(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	metrics.RecordBooking("created")

	if s.email != nil {
		if u, err := s.users.FindByID(ctx, userID); err == nil {
			s.email.SendBookingConfirmation(ctx, u.Email, u.Name, class.Title, session.StartTime)
		}
	}

	return booking, nil
}

func (s *service) CancelBooking(ctx context.Context, userID, bookingID int) error {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return ErrBookingNotFound
	}

	if booking.UserID != userID {
		return ErrNotYourBooking
	}

	session, err := s.repo.GetSessionByID(ctx, booking.SessionID)
	if err != nil {
		return ErrSessionNotFound
	}

	now := time.Now()
	if !session.StartTime.After(now) {
		return ErrPastSession
	}
	if !now.Before(session.StartTime.Add(-24 * time.Hour)) {
		return ErrTooLateToCancel
	}

	if err := s.repo.DeleteBooking(ctx, bookingID); err != nil {
		return err
	}
	metrics.RecordBooking("cancelled")

	if s.email != nil {
		if u, err := s.users.FindByID(ctx, userID); err == nil {
			if class, err := s.repo.GetClassByID(ctx, session.ClassID); err == nil {
				s.email.SendBookingCancellation(ctx, u.Email, u.Name, class.Title, session.StartTime)
			}
		}
	}

	return nil
}

func (s *service) GetUserBookings(ctx context.Context, userID int, futureOnly bool) ([]BookingWithSession, error) {
	return s.repo.GetUserBookings(ctx, userID, futureOnly)
}

// CreatePersonalTraining claims a trainer for the slot's start plus the
// requested duration. A clash with a non-private class session evicts that
// session's trainer assignment; a clash with a private class is an error.
func (s *service) CreatePersonalTraining(ctx context.Context, req CreatePersonalTrainingRequest) (*PersonalTrainingSession, error) {
	slot, err := s.repo.GetSessionByID(ctx, req.SessionID)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = 60
	}

	start := slot.StartTime
	end := start.Add(time.Duration(duration) * time.Minute)

	if err := s.validateWindow(start, end); err != nil {
		return nil, err
	}

	overlapping, err := s.repo.OverlappingSessionsForTrainer(ctx, req.TrainerID, start, end, req.SessionID)
	if err != nil {
		return nil, err
	}
	for _, conflict := range overlapping {
		if conflict.ClassIsPrivate {
			return nil, ErrPrivateTrainerConflict
		}
		logger.Infof("Evicting trainer %d from session %d for personal training", req.TrainerID, conflict.ID)
		if err := s.repo.UnassignSessionTrainer(ctx, conflict.ID); err != nil {
			return nil, err
		}
	}

	busy, err := s.trainers.IsAvailable(ctx, req.TrainerID, start, end, req.SessionID)
	if err != nil {
		return nil, err
	}
	if !busy {
		// Class conflicts were resolved above, so a remaining clash is
		// another personal training session.
		return nil, ErrTrainerBusy
	}

	sessionID := req.SessionID
	pt := &PersonalTrainingSession{
		MembershipID:    req.MembershipID,
		SessionID:       &sessionID,
		TrainerID:       req.TrainerID,
		DurationMinutes: duration,
		StartTime:       start,
		EndTime:         end,
	}

	return s.repo.CreatePersonalTraining(ctx, pt)
}
