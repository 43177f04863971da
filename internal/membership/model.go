package membership

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PlanTier classifies a plan once at the catalog level so activity and
// proration decisions never string-match plan names at call sites.
type PlanTier string

const (
	TierTrial    PlanTier = "trial"
	TierBasic    PlanTier = "basic"
	TierStandard PlanTier = "standard"
	TierPremium  PlanTier = "premium"
	TierVIP      PlanTier = "vip"
	TierCustom   PlanTier = "custom"
)

// ParsePlanTier maps a free-form plan name to its tier. Names outside the
// fixed catalog classify as custom, which is excluded from monthly billing
// treatment.
func ParsePlanTier(name string) PlanTier {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trial":
		return TierTrial
	case "basic":
		return TierBasic
	case "standard":
		return TierStandard
	case "premium":
		return TierPremium
	case "vip":
		return TierVIP
	default:
		return TierCustom
	}
}

// IsMonthly reports whether the tier bills on calendar-month periods and
// participates in proration and month-end anchoring.
func (t PlanTier) IsMonthly() bool {
	switch t {
	case TierBasic, TierStandard, TierPremium, TierVIP:
		return true
	default:
		return false
	}
}

// MembershipType is a priced plan with gendered price points and the
// entitlement counts a fresh billing period grants. Prices and provider
// price ids come in male/female pairs; a checkout can carry either id.
type MembershipType struct {
	ID                        int             `db:"id" json:"id"`
	Name                      string          `db:"name" json:"name"`
	Tier                      PlanTier        `db:"tier" json:"tier"`
	PriceMaleJPY              decimal.Decimal `db:"price_male_jpy" json:"price_male_jpy"`
	PriceFemaleJPY            decimal.Decimal `db:"price_female_jpy" json:"price_female_jpy"`
	IncludedSessions          int             `db:"included_sessions" json:"included_sessions"`
	IncludedPersonalTrainings int             `db:"included_personal_trainings" json:"included_personal_trainings"`
	StripeProductID           string          `db:"stripe_product_id" json:"stripe_product_id"`
	StripePriceIDMale         string          `db:"stripe_price_id_male" json:"stripe_price_id_male"`
	StripePriceIDFemale       string          `db:"stripe_price_id_female" json:"stripe_price_id_female"`
	CreatedAt                 time.Time       `db:"created_at" json:"created_at"`
}

// Membership is the per-user entitlement ledger. Every check-in, webhook
// event, and admin action mutates this row, always under a row lock.
type Membership struct {
	ID                         int        `db:"id" json:"id"`
	UserID                     int        `db:"user_id" json:"user_id"`
	MembershipTypeID           int        `db:"membership_type_id" json:"membership_type_id"`
	RemainingSessions          int        `db:"remaining_sessions" json:"remaining_sessions"`
	RemainingPersonalTrainings int        `db:"remaining_personal_trainings" json:"remaining_personal_trainings"`
	StartDate                  *time.Time `db:"start_date" json:"start_date,omitempty"`
	EndDate                    *time.Time `db:"end_date" json:"end_date,omitempty"`
	StripeCustomerID           *string    `db:"stripe_customer_id" json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID       *string    `db:"stripe_subscription_id" json:"stripe_subscription_id,omitempty"`
	CanceledAt                 *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	CreatedAt                  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt                  time.Time  `db:"updated_at" json:"updated_at"`
}

type MembershipWithType struct {
	Membership
	PlanName string   `db:"plan_name" json:"plan_name"`
	PlanTier PlanTier `db:"plan_tier" json:"plan_tier"`
}

// TrialPayment records one trial usage per user; an unused one keeps a
// trial membership active regardless of its counters or dates.
type TrialPayment struct {
	ID        int        `db:"id" json:"id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Used      bool       `db:"used" json:"used"`
	UsedOn    *time.Time `db:"used_on" json:"used_on,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// GymVisit is one check-in/check-out pair. An open visit dated today is
// itself evidence of an active membership.
type GymVisit struct {
	ID          int         `db:"id" json:"id"`
	UserID      int         `db:"user_id" json:"user_id"`
	SessionType CounterKind `db:"session_type" json:"session_type"`
	CheckIn     time.Time   `db:"check_in" json:"check_in"`
	CheckOut    *time.Time  `db:"check_out" json:"check_out,omitempty"`
}

// CounterKind names an entitlement counter on the ledger.
type CounterKind string

const (
	CounterRegular          CounterKind = "regular"
	CounterPersonalTraining CounterKind = "personal_training"
)

type CreateMembershipTypeRequest struct {
	Name                      string          `json:"name" binding:"required"`
	PriceMaleJPY              decimal.Decimal `json:"price_male_jpy"`
	PriceFemaleJPY            decimal.Decimal `json:"price_female_jpy"`
	IncludedSessions          int             `json:"included_sessions" binding:"min=0"`
	IncludedPersonalTrainings int             `json:"included_personal_trainings" binding:"min=0"`
	StripeProductID           string          `json:"stripe_product_id"`
	StripePriceIDMale         string          `json:"stripe_price_id_male"`
	StripePriceIDFemale       string          `json:"stripe_price_id_female"`
}

type AssignMembershipRequest struct {
	UserID           int `json:"user_id" binding:"required"`
	MembershipTypeID int `json:"membership_type_id" binding:"required"`
}

type CheckInRequest struct {
	QRIdentifier string `json:"qr_identifier" binding:"required"`
	SessionType  string `json:"session_type" binding:"omitempty,oneof=regular personal_training"`
}
