package trainer

import "time"

type Trainer struct {
	ID        int       `db:"id" json:"id"`
	UserID    *int      `db:"user_id" json:"user_id,omitempty"`
	Name      string    `db:"name" json:"name"`
	Bio       string    `db:"bio" json:"bio"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type CreateTrainerRequest struct {
	UserID *int   `json:"user_id,omitempty"`
	Name   string `json:"name" binding:"required"`
	Bio    string `json:"bio"`
}
