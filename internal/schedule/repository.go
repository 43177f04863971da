package schedule

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

func (r *repository) CreateClass(ctx context.Context, title, description string, maxParticipants int, isPrivate bool) (*Class, error) {
	query := `
		INSERT INTO classes (title, description, max_participants, is_private)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, description, max_participants, is_private, created_at
	`

	var class Class
	err := r.db.GetContext(ctx, &class, query, title, description, maxParticipants, isPrivate)
	if err != nil {
		return nil, err
	}

	return &class, nil
}

func (r *repository) GetClassByID(ctx context.Context, id int) (*Class, error) {
	query := `
		SELECT id, title, description, max_participants, is_private, created_at
		FROM classes
		WHERE id = $1
	`

	var class Class
	err := r.db.GetContext(ctx, &class, query, id)
	if err != nil {
		return nil, err
	}

	return &class, nil
}

func (r *repository) GetAllClasses(ctx context.Context) ([]Class, error) {
	query := `
		SELECT id, title, description, max_participants, is_private, created_at
		FROM classes
		ORDER BY title
	`

	var classes []Class
	err := r.db.SelectContext(ctx, &classes, query)
	if err != nil {
		return nil, err
	}

	return classes, nil
}

func (r *repository) DeleteClass(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	return err
}

func (r *repository) CreateSession(ctx context.Context, classID int, start, end time.Time, trainerID *int, recurring bool, recurrenceEnd *time.Time) (*Session, error) {
	query := `
		INSERT INTO sessions (class_id, start_time, end_time, trainer_id, recurring, recurrence_end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, class_id, start_time, end_time, trainer_id, recurring, recurrence_end_date, created_at
	`

	var session Session
	err := r.db.GetContext(ctx, &session, query, classID, start, end, trainerID, recurring, recurrenceEnd)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) GetSessionByID(ctx context.Context, id int) (*Session, error) {
	query := `
		SELECT id, class_id, start_time, end_time, trainer_id, recurring, recurrence_end_date, created_at
		FROM sessions
		WHERE id = $1
	`

	var session Session
	err := r.db.GetContext(ctx, &session, query, id)
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (r *repository) GetSessionsByClass(ctx context.Context, classID int) ([]Session, error) {
	query := `
		SELECT id, class_id, start_time, end_time, trainer_id, recurring, recurrence_end_date, created_at
		FROM sessions
		WHERE class_id = $1
		ORDER BY start_time
	`

	var sessions []Session
	err := r.db.SelectContext(ctx, &sessions, query, classID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) GetSessionsInRange(ctx context.Context, from, to time.Time) ([]SessionWithClass, error) {
	query := `
		SELECT
			s.id, s.class_id, s.start_time, s.end_time, s.trainer_id,
			s.recurring, s.recurrence_end_date, s.created_at,
			c.title AS class_title,
			c.is_private AS class_is_private
		FROM sessions s
		JOIN classes c ON s.class_id = c.id
		WHERE s.start_time >= $1 AND s.start_time < $2
		ORDER BY s.start_time
	`

	var sessions []SessionWithClass
	err := r.db.SelectContext(ctx, &sessions, query, from, to)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) DeleteSession(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (r *repository) DeleteSessionFamily(ctx context.Context, classID int, from, to time.Time) (int, error) {
	query := `
		DELETE FROM sessions
		WHERE class_id = $1
		  AND start_time >= $2
		  AND start_time <= $3
	`

	result, err := r.db.ExecContext(ctx, query, classID, from, to)
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected), nil
}

func (r *repository) CreateBooking(ctx context.Context, sessionID, userID int) (*Booking, error) {
	query := `
		INSERT INTO bookings (session_id, user_id)
		VALUES ($1, $2)
		RETURNING id, session_id, user_id, booked_on
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, sessionID, userID)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) GetBookingByID(ctx context.Context, id int) (*Booking, error) {
	query := `
		SELECT id, session_id, user_id, booked_on
		FROM bookings
		WHERE id = $1
	`

	var booking Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		return nil, err
	}

	return &booking, nil
}

func (r *repository) DeleteBooking(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	return err
}

func (r *repository) UserHasBookingForSession(ctx context.Context, userID, sessionID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND session_id = $2
		)
	`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, userID, sessionID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) CountBookingsForSession(ctx context.Context, sessionID int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE session_id = $1
	`

	var count int
	err := r.db.GetContext(ctx, &count, query, sessionID)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID int, futureOnly bool) ([]BookingWithSession, error) {
	query := `
		SELECT
			b.id, b.session_id, b.user_id, b.booked_on,
			s.start_time AS session_start,
			s.end_time AS session_end,
			c.title AS class_title
		FROM bookings b
		JOIN sessions s ON b.session_id = s.id
		JOIN classes c ON s.class_id = c.id
		WHERE b.user_id = $1
	`
	if futureOnly {
		query += ` AND s.start_time >= NOW()`
	}
	query += ` ORDER BY s.start_time`

	var bookings []BookingWithSession
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *repository) CreatePersonalTraining(ctx context.Context, pt *PersonalTrainingSession) (*PersonalTrainingSession, error) {
	query := `
		INSERT INTO personal_training_sessions (membership_id, session_id, trainer_id, duration_minutes, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, membership_id, session_id, trainer_id, duration_minutes, start_time, end_time, created_at
	`

	var created PersonalTrainingSession
	err := r.db.GetContext(ctx, &created, query,
		pt.MembershipID, pt.SessionID, pt.TrainerID, pt.DurationMinutes, pt.StartTime, pt.EndTime)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) OverlappingSessionsForTrainer(ctx context.Context, trainerID int, start, end time.Time, excludeSessionID int) ([]SessionWithClass, error) {
	query := `
		SELECT
			s.id, s.class_id, s.start_time, s.end_time, s.trainer_id,
			s.recurring, s.recurrence_end_date, s.created_at,
			c.title AS class_title,
			c.is_private AS class_is_private
		FROM sessions s
		JOIN classes c ON s.class_id = c.id
		WHERE s.trainer_id = $1
		  AND s.start_time < $2
		  AND s.end_time > $3
		  AND s.id != $4
		ORDER BY s.start_time
	`

	var sessions []SessionWithClass
	err := r.db.SelectContext(ctx, &sessions, query, trainerID, end, start, excludeSessionID)
	if err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *repository) UnassignSessionTrainer(ctx context.Context, sessionID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sessions SET trainer_id = NULL WHERE id = $1`, sessionID)
	return err
}
