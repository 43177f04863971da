package membership

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateMembershipType(ctx context.Context, mt *MembershipType) (*MembershipType, error) {
	query := `
		INSERT INTO membership_types
			(name, tier, price_male_jpy, price_female_jpy, included_sessions, included_personal_trainings, stripe_product_id, stripe_price_id_male, stripe_price_id_female)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, tier, price_male_jpy, price_female_jpy, included_sessions, included_personal_trainings, stripe_product_id, stripe_price_id_male, stripe_price_id_female, created_at
	`

	var created MembershipType
	err := r.db.GetContext(ctx, &created, query,
		mt.Name, mt.Tier, mt.PriceMaleJPY, mt.PriceFemaleJPY,
		mt.IncludedSessions, mt.IncludedPersonalTrainings,
		mt.StripeProductID, mt.StripePriceIDMale, mt.StripePriceIDFemale)
	if err != nil {
		return nil, err
	}

	return &created, nil
}

func (r *repository) GetMembershipTypeByID(ctx context.Context, id int) (*MembershipType, error) {
	query := `
		SELECT id, name, tier, price_male_jpy, price_female_jpy, included_sessions, included_personal_trainings, stripe_product_id, stripe_price_id_male, stripe_price_id_female, created_at
		FROM membership_types
		WHERE id = $1
	`

	var mt MembershipType
	if err := r.db.GetContext(ctx, &mt, query, id); err != nil {
		return nil, err
	}

	return &mt, nil
}

func (r *repository) GetMembershipTypeByStripePrice(ctx context.Context, priceID string) (*MembershipType, error) {
	query := `
		SELECT id, name, tier, price_male_jpy, price_female_jpy, included_sessions, included_personal_trainings, stripe_product_id, stripe_price_id_male, stripe_price_id_female, created_at
		FROM membership_types
		WHERE stripe_price_id_male = $1 OR stripe_price_id_female = $1
	`

	var mt MembershipType
	if err := r.db.GetContext(ctx, &mt, query, priceID); err != nil {
		return nil, err
	}

	return &mt, nil
}

func (r *repository) GetAllMembershipTypes(ctx context.Context) ([]MembershipType, error) {
	query := `
		SELECT id, name, tier, price_male_jpy, price_female_jpy, included_sessions, included_personal_trainings, stripe_product_id, stripe_price_id_male, stripe_price_id_female, created_at
		FROM membership_types
		ORDER BY id
	`

	var types []MembershipType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, err
	}

	return types, nil
}

const membershipColumns = `
	id, user_id, membership_type_id, remaining_sessions, remaining_personal_trainings,
	start_date, end_date, stripe_customer_id, stripe_subscription_id, canceled_at, created_at, updated_at
`

func (r *repository) CreateMembership(ctx context.Context, userID, membershipTypeID int) (*Membership, error) {
	query := `
		INSERT INTO memberships (user_id, membership_type_id)
		VALUES ($1, $2)
		RETURNING ` + membershipColumns

	var m Membership
	if err := r.db.GetContext(ctx, &m, query, userID, membershipTypeID); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetMembershipByID(ctx context.Context, id int) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`

	var m Membership
	if err := r.db.GetContext(ctx, &m, query, id); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetMembershipByUserID(ctx context.Context, userID int) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1`

	var m Membership
	if err := r.db.GetContext(ctx, &m, query, userID); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetMembershipWithTypeByUserID(ctx context.Context, userID int) (*MembershipWithType, error) {
	query := `
		SELECT
			m.id, m.user_id, m.membership_type_id, m.remaining_sessions, m.remaining_personal_trainings,
			m.start_date, m.end_date, m.stripe_customer_id, m.stripe_subscription_id, m.canceled_at, m.created_at, m.updated_at,
			t.name AS plan_name,
			t.tier AS plan_tier
		FROM memberships m
		JOIN membership_types t ON m.membership_type_id = t.id
		WHERE m.user_id = $1
	`

	var m MembershipWithType
	if err := r.db.GetContext(ctx, &m, query, userID); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) GetMembershipBySubscriptionID(ctx context.Context, subscriptionID string) (*Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE stripe_subscription_id = $1`

	var m Membership
	if err := r.db.GetContext(ctx, &m, query, subscriptionID); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) ListMembershipsWithSubscription(ctx context.Context) ([]Membership, error) {
	query := `SELECT ` + membershipColumns + `
		FROM memberships
		WHERE stripe_subscription_id IS NOT NULL
		ORDER BY id`

	var memberships []Membership
	if err := r.db.SelectContext(ctx, &memberships, query); err != nil {
		return nil, err
	}

	return memberships, nil
}

func (r *repository) MutateMembership(ctx context.Context, membershipID int, fn func(m *Membership) error) (*Membership, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1 FOR UPDATE`

	var m Membership
	if err := tx.GetContext(ctx, &m, query, membershipID); err != nil {
		return nil, err
	}

	if err := fn(&m); err != nil {
		return nil, err
	}

	update := `
		UPDATE memberships
		SET membership_type_id = $1,
		    remaining_sessions = $2,
		    remaining_personal_trainings = $3,
		    start_date = $4,
		    end_date = $5,
		    stripe_customer_id = $6,
		    stripe_subscription_id = $7,
		    canceled_at = $8,
		    updated_at = NOW()
		WHERE id = $9
	`

	_, err = tx.ExecContext(ctx, update,
		m.MembershipTypeID, m.RemainingSessions, m.RemainingPersonalTrainings,
		m.StartDate, m.EndDate, m.StripeCustomerID, m.StripeSubscriptionID, m.CanceledAt, m.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *repository) UpdateEndDate(ctx context.Context, membershipID int, endDate time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET end_date = $1, updated_at = NOW() WHERE id = $2`,
		endDate, membershipID)
	return err
}

func (r *repository) MarkCanceled(ctx context.Context, membershipID int, endDate time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET end_date = $1, canceled_at = NOW(), updated_at = NOW() WHERE id = $2`,
		endDate, membershipID)
	return err
}

func (r *repository) CreateTrialPayment(ctx context.Context, userID int) (*TrialPayment, error) {
	query := `
		INSERT INTO trial_payments (user_id)
		VALUES ($1)
		RETURNING id, user_id, used, used_on, created_at
	`

	var tp TrialPayment
	if err := r.db.GetContext(ctx, &tp, query, userID); err != nil {
		return nil, err
	}

	return &tp, nil
}

func (r *repository) HasUnusedTrialPayment(ctx context.Context, userID int) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM trial_payments
			WHERE user_id = $1 AND used = FALSE
		)
	`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, err
	}

	return exists, nil
}

func (r *repository) MarkTrialPaymentsUsed(ctx context.Context, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE trial_payments SET used = TRUE, used_on = NOW() WHERE user_id = $1 AND used = FALSE`,
		userID)
	return err
}

func (r *repository) ListTrialPayments(ctx context.Context) ([]TrialPayment, error) {
	query := `
		SELECT id, user_id, used, used_on, created_at
		FROM trial_payments
		ORDER BY created_at DESC
	`

	var payments []TrialPayment
	if err := r.db.SelectContext(ctx, &payments, query); err != nil {
		return nil, err
	}

	return payments, nil
}

func (r *repository) CreateVisit(ctx context.Context, userID int, kind CounterKind, checkIn time.Time) (*GymVisit, error) {
	query := `
		INSERT INTO gym_visits (user_id, session_type, check_in)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, session_type, check_in, check_out
	`

	var visit GymVisit
	if err := r.db.GetContext(ctx, &visit, query, userID, kind, checkIn); err != nil {
		return nil, err
	}

	return &visit, nil
}

func (r *repository) GetOpenVisitForDay(ctx context.Context, userID int, day time.Time) (*GymVisit, error) {
	query := `
		SELECT id, user_id, session_type, check_in, check_out
		FROM gym_visits
		WHERE user_id = $1
		  AND check_out IS NULL
		  AND check_in >= $2
		  AND check_in < $3
		ORDER BY check_in DESC
		LIMIT 1
	`

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var visit GymVisit
	err := r.db.GetContext(ctx, &visit, query, userID, dayStart, dayEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &visit, nil
}

func (r *repository) CloseVisit(ctx context.Context, visitID int, checkOut time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE gym_visits SET check_out = $1 WHERE id = $2`,
		checkOut, visitID)
	return err
}
