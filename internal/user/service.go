package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/performlikemj/C2M/internal/auth"
	"github.com/performlikemj/C2M/internal/email"
	"github.com/performlikemj/C2M/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrProfileNotFound    = errors.New("profile not found")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	GetProfile(ctx context.Context, userID int) (*Profile, error)
	ResolveQRIdentifier(ctx context.Context, qrIdentifier string) (*User, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, userEmail string) error
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
}

type service struct {
	repo      Repository
	email     *email.Service
	jwtSecret string
}

func NewService(repo Repository, emailService *email.Service, jwtSecret string) Service {
	return &service{
		repo:      repo,
		email:     emailService,
		jwtSecret: jwtSecret,
	}
}

// GenerateQRIdentifier derives the opaque kiosk identifier from the member
// name, id and the current time. Collisions are guarded by the unique index
// on profiles.qr_identifier.
func GenerateQRIdentifier(name string, userID int, now time.Time) string {
	sum := sha256.Sum256([]byte(name + strconv.Itoa(userID) + now.String()))
	return hex.EncodeToString(sum[:])
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, auth.RoleMember)
	if err != nil {
		return nil, "", "", err
	}

	gender := GenderMale
	if req.Gender == string(GenderFemale) {
		gender = GenderFemale
	}

	qrIdentifier := GenerateQRIdentifier(u.Name, u.ID, time.Now())
	if _, err := s.repo.CreateProfile(ctx, u.ID, gender, qrIdentifier); err != nil {
		return nil, "", "", err
	}

	token := uuid.NewString()
	if err := s.repo.UpsertVerificationToken(ctx, u.ID, token); err != nil {
		return nil, "", "", err
	}

	// Fire and forget: the queue worker retries delivery on its own.
	if s.email != nil {
		if err := s.email.SendVerificationEmail(ctx, u.Email, u.Name, token); err != nil {
			logger.Errorf("Failed to queue verification email for user %d: %v", u.ID, err)
		}
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(u.ID, u.Email, u.Role, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) GetProfile(ctx context.Context, userID int) (*Profile, error) {
	p, err := s.repo.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *service) ResolveQRIdentifier(ctx context.Context, qrIdentifier string) (*User, error) {
	p, err := s.repo.GetProfileByQRIdentifier(ctx, qrIdentifier)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	return s.repo.FindByID(ctx, p.UserID)
}

func (s *service) VerifyEmail(ctx context.Context, token string) error {
	vt, err := s.repo.GetVerificationToken(ctx, token)
	if err != nil {
		return ErrTokenNotFound
	}

	if err := s.repo.MarkVerified(ctx, vt.UserID); err != nil {
		return err
	}

	// Token is single-use.
	if err := s.repo.DeleteVerificationToken(ctx, token); err != nil {
		logger.Errorf("Failed to delete used verification token for user %d: %v", vt.UserID, err)
	}

	logger.Infof("Email verified for user %d", vt.UserID)
	return nil
}

func (s *service) ResendVerification(ctx context.Context, userEmail string) error {
	u, err := s.repo.FindByEmail(ctx, userEmail)
	if err != nil {
		return ErrInvalidCredentials
	}

	token := uuid.NewString()
	if err := s.repo.UpsertVerificationToken(ctx, u.ID, token); err != nil {
		return err
	}

	if s.email != nil {
		return s.email.SendVerificationEmail(ctx, u.Email, u.Name, token)
	}
	return nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	newAccessToken, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	u, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}
