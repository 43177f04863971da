package user

import "context"

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, userID int) error

	CreateProfile(ctx context.Context, userID int, gender Gender, qrIdentifier string) (*Profile, error)
	GetProfileByUserID(ctx context.Context, userID int) (*Profile, error)
	GetProfileByQRIdentifier(ctx context.Context, qrIdentifier string) (*Profile, error)

	UpsertVerificationToken(ctx context.Context, userID int, token string) error
	GetVerificationToken(ctx context.Context, token string) (*VerificationToken, error)
	DeleteVerificationToken(ctx context.Context, token string) error
}
