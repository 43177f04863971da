package user

import (
	"context"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, name, email, passwordHash, role string) (*User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, password_hash, role, verified, created_at
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, name, email, passwordHash, role)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, verified, created_at
		FROM users
		WHERE email = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, email)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) FindByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, name, email, password_hash, role, verified, created_at
		FROM users
		WHERE id = $1
	`

	var user User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, email)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) MarkVerified(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET verified = TRUE WHERE id = $1`, userID)
	return err
}

func (r *repository) CreateProfile(ctx context.Context, userID int, gender Gender, qrIdentifier string) (*Profile, error) {
	query := `
		INSERT INTO profiles (user_id, gender, qr_identifier)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, gender, qr_identifier, created_at
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, userID, gender, qrIdentifier)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) GetProfileByUserID(ctx context.Context, userID int) (*Profile, error) {
	query := `
		SELECT id, user_id, gender, qr_identifier, created_at
		FROM profiles
		WHERE user_id = $1
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, userID)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) GetProfileByQRIdentifier(ctx context.Context, qrIdentifier string) (*Profile, error) {
	query := `
		SELECT id, user_id, gender, qr_identifier, created_at
		FROM profiles
		WHERE qr_identifier = $1
	`

	var profile Profile
	err := r.db.GetContext(ctx, &profile, query, qrIdentifier)
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *repository) UpsertVerificationToken(ctx context.Context, userID int, token string) error {
	query := `
		INSERT INTO email_verification_tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token, created_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query, userID, token)
	return err
}

func (r *repository) GetVerificationToken(ctx context.Context, token string) (*VerificationToken, error) {
	query := `
		SELECT user_id, token, created_at
		FROM email_verification_tokens
		WHERE token = $1
	`

	var vt VerificationToken
	err := r.db.GetContext(ctx, &vt, query, token)
	if err != nil {
		return nil, err
	}

	return &vt, nil
}

func (r *repository) DeleteVerificationToken(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM email_verification_tokens WHERE token = $1`, token)
	return err
}
