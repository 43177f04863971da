package schedule

import "time"

type Class struct {
	ID              int       `db:"id" json:"id"`
	Title           string    `db:"title" json:"title"`
	Description     string    `db:"description" json:"description"`
	MaxParticipants int       `db:"max_participants" json:"max_participants"`
	IsPrivate       bool      `db:"is_private" json:"is_private"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Session is one scheduled occurrence of a Class. A recurring session is
// the seed of a weekly series; its children are plain sessions created up
// front when the seed is saved.
type Session struct {
	ID                int        `db:"id" json:"id"`
	ClassID           int        `db:"class_id" json:"class_id"`
	StartTime         time.Time  `db:"start_time" json:"start_time"`
	EndTime           time.Time  `db:"end_time" json:"end_time"`
	TrainerID         *int       `db:"trainer_id" json:"trainer_id,omitempty"`
	Recurring         bool       `db:"recurring" json:"recurring"`
	RecurrenceEndDate *time.Time `db:"recurrence_end_date" json:"recurrence_end_date,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
}

type SessionWithClass struct {
	Session
	ClassTitle     string `db:"class_title" json:"class_title"`
	ClassIsPrivate bool   `db:"class_is_private" json:"class_is_private"`
}

type Booking struct {
	ID        int       `db:"id" json:"id"`
	SessionID int       `db:"session_id" json:"session_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	BookedOn  time.Time `db:"booked_on" json:"booked_on"`
}

type BookingWithSession struct {
	Booking
	SessionStart time.Time `db:"session_start" json:"session_start"`
	SessionEnd   time.Time `db:"session_end" json:"session_end"`
	ClassTitle   string    `db:"class_title" json:"class_title"`
}

// PersonalTrainingSession occupies a trainer for the duration measured from
// the linked session slot's start. The interval is denormalized into
// start_time/end_time so availability checks stay a single index scan.
type PersonalTrainingSession struct {
	ID              int       `db:"id" json:"id"`
	MembershipID    int       `db:"membership_id" json:"membership_id"`
	SessionID       *int      `db:"session_id" json:"session_id,omitempty"`
	TrainerID       int       `db:"trainer_id" json:"trainer_id"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	StartTime       time.Time `db:"start_time" json:"start_time"`
	EndTime         time.Time `db:"end_time" json:"end_time"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type CreateClassRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants" binding:"omitempty,min=1"`
	IsPrivate       bool   `json:"is_private"`
}

type CreateSessionRequest struct {
	ClassID           int    `json:"class_id" binding:"required"`
	StartTime         string `json:"start_time" binding:"required"`
	EndTime           string `json:"end_time" binding:"required"`
	TrainerID         *int   `json:"trainer_id,omitempty"`
	Recurring         bool   `json:"recurring"`
	RecurrenceEndDate string `json:"recurrence_end_date,omitempty"`
}

type CreatePersonalTrainingRequest struct {
	MembershipID    int  `json:"membership_id" binding:"required"`
	SessionID       int  `json:"session_id" binding:"required"`
	TrainerID       int  `json:"trainer_id" binding:"required"`
	DurationMinutes int  `json:"duration_minutes" binding:"omitempty,min=15,max=240"`
}
