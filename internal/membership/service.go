package membership

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/performlikemj/C2M/internal/email"
	"github.com/performlikemj/C2M/internal/logger"
	"github.com/performlikemj/C2M/internal/metrics"
	"github.com/performlikemj/C2M/internal/user"
)

var (
	ErrMembershipNotFound     = errors.New("membership not found")
	ErrMembershipTypeNotFound = errors.New("membership type not found")
	ErrUnknownQRCode          = errors.New("unknown QR code")
	ErrInactiveMembership     = errors.New("membership is not active")
	ErrNoSubscription         = errors.New("membership has no subscription")
	// ErrUnrecognizedPlan means a subscription update referenced a plan
	// outside the monthly catalog. The catalog is fixed, so this is a
	// configuration fault and must surface rather than be papered over.
	ErrUnrecognizedPlan = errors.New("plan is not a recognized monthly plan")
)

// CheckInResult is the kiosk response payload for one QR scan.
type CheckInResult struct {
	Action                     string `json:"action"`
	UserName                   string `json:"user_name"`
	RemainingSessions          int    `json:"remaining_sessions"`
	RemainingPersonalTrainings int    `json:"remaining_personal_trainings"`
}

type Service interface {
	CreateMembershipType(ctx context.Context, req CreateMembershipTypeRequest) (*MembershipType, error)
	GetAllMembershipTypes(ctx context.Context) ([]MembershipType, error)
	GetMembershipTypeByID(ctx context.Context, id int) (*MembershipType, error)
	GetMembershipTypeByStripePrice(ctx context.Context, priceID string) (*MembershipType, error)

	AssignMembership(ctx context.Context, userID, membershipTypeID int) (*Membership, error)
	GetMembershipForUser(ctx context.Context, userID int) (*MembershipWithType, error)

	// IsActiveUser satisfies the scheduler's membership check.
	IsActiveUser(ctx context.Context, userID int) (bool, error)
	IsActive(ctx context.Context, m *MembershipWithType) (bool, error)

	Decrement(ctx context.Context, membershipID int, kind CounterKind) (*Membership, error)
	CheckInOut(ctx context.Context, qrIdentifier string, kind CounterKind) (*CheckInResult, error)
	ListTrialPayments(ctx context.Context) ([]TrialPayment, error)

	CheckAndUpdatePeriod(ctx context.Context, membershipID int) error
	AlignPeriodForSubscription(ctx context.Context, subscriptionID string) error
	SweepSubscriptionStatuses(ctx context.Context) error
	SweepBillingPeriods(ctx context.Context) error

	ApplyCheckoutCompleted(ctx context.Context, userID int, mt *MembershipType, customerID, subscriptionID string, periodEnd time.Time) (*Membership, error)
	ApplyOneTimePayment(ctx context.Context, userID int, mt *MembershipType, customerID string) (*Membership, error)
	ApplySubscriptionUpdated(ctx context.Context, sub *ProviderSubscription) error
}

type service struct {
	repo     Repository
	provider SubscriptionProvider
	users    user.Service
	email    *email.Service
}

func NewService(repo Repository, provider SubscriptionProvider, users user.Service, emailService *email.Service) Service {
	return &service{
		repo:     repo,
		provider: provider,
		users:    users,
		email:    emailService,
	}
}

func daysInMonth(t time.Time) int {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1).Day()
}

// LastDayOfMonth returns midnight on the final calendar day of t's month.
func LastDayOfMonth(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, 1, -1)
}

// ProrateSessions computes the entitlement for a mid-month join: the plan's
// daily rate times the days remaining in the month, the join day included,
// rounded half away from zero. Joining on the 1st yields the full amount.
func ProrateSessions(included int, joinDate time.Time) int {
	days := daysInMonth(joinDate)
	remaining := days - joinDate.Day() + 1
	return int(math.Round(float64(included) * float64(remaining) / float64(days)))
}

func (s *service) CreateMembershipType(ctx context.Context, req CreateMembershipTypeRequest) (*MembershipType, error) {
	mt := &MembershipType{
		Name:                      req.Name,
		Tier:                      ParsePlanTier(req.Name),
		PriceMaleJPY:              req.PriceMaleJPY,
		PriceFemaleJPY:            req.PriceFemaleJPY,
		IncludedSessions:          req.IncludedSessions,
		IncludedPersonalTrainings: req.IncludedPersonalTrainings,
		StripeProductID:           req.StripeProductID,
		StripePriceIDMale:         req.StripePriceIDMale,
		StripePriceIDFemale:       req.StripePriceIDFemale,
	}
	return s.repo.CreateMembershipType(ctx, mt)
}

func (s *service) GetAllMembershipTypes(ctx context.Context) ([]MembershipType, error) {
	return s.repo.GetAllMembershipTypes(ctx)
}

func (s *service) GetMembershipTypeByID(ctx context.Context, id int) (*MembershipType, error) {
	mt, err := s.repo.GetMembershipTypeByID(ctx, id)
	if err != nil {
		return nil, ErrMembershipTypeNotFound
	}
	return mt, nil
}

func (s *service) GetMembershipTypeByStripePrice(ctx context.Context, priceID string) (*MembershipType, error) {
	mt, err := s.repo.GetMembershipTypeByStripePrice(ctx, priceID)
	if err != nil {
		return nil, ErrMembershipTypeNotFound
	}
	return mt, nil
}

func (s *service) getOrCreateMembership(ctx context.Context, userID, membershipTypeID int) (*Membership, error) {
	m, err := s.repo.GetMembershipByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return s.repo.CreateMembership(ctx, userID, membershipTypeID)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) AssignMembership(ctx context.Context, userID, membershipTypeID int) (*Membership, error) {
	mt, err := s.repo.GetMembershipTypeByID(ctx, membershipTypeID)
	if err != nil {
		return nil, ErrMembershipTypeNotFound
	}

	m, err := s.getOrCreateMembership(ctx, userID, membershipTypeID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	updated, err := s.repo.MutateMembership(ctx, m.ID, func(m *Membership) error {
		m.MembershipTypeID = mt.ID
		m.RemainingSessions = mt.IncludedSessions
		m.RemainingPersonalTrainings = mt.IncludedPersonalTrainings
		m.StartDate = &today
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMembershipUpdate("admin")
	return updated, nil
}

func (s *service) GetMembershipForUser(ctx context.Context, userID int) (*MembershipWithType, error) {
	m, err := s.repo.GetMembershipWithTypeByUserID(ctx, userID)
	if err != nil {
		return nil, ErrMembershipNotFound
	}
	return m, nil
}

func (s *service) IsActiveUser(ctx context.Context, userID int) (bool, error) {
	m, err := s.repo.GetMembershipWithTypeByUserID(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.IsActive(ctx, m)
}

// IsActive decides membership activity. Checks run in a fixed order and
// the first match wins: trial credit, expired end date, future start date,
// an open gym visit today, then the provider's live subscription status.
func (s *service) IsActive(ctx context.Context, m *MembershipWithType) (bool, error) {
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if m.PlanTier == TierTrial {
		unused, err := s.repo.HasUnusedTrialPayment(ctx, m.UserID)
		if err != nil {
			return false, err
		}
		if unused || m.RemainingSessions > 0 {
			return true, nil
		}
	}

	if m.EndDate != nil && today.After(dateOnly(*m.EndDate)) {
		return false, nil
	}

	if m.StartDate != nil && dateOnly(*m.StartDate).After(today) {
		return false, nil
	}

	visit, err := s.repo.GetOpenVisitForDay(ctx, m.UserID, now)
	if err != nil {
		return false, err
	}
	if visit != nil {
		return true, nil
	}

	if m.StripeSubscriptionID == nil || *m.StripeSubscriptionID == "" {
		return false, nil
	}

	sub, err := s.provider.RetrieveSubscription(ctx, *m.StripeSubscriptionID)
	if err != nil {
		logger.Error("Subscription lookup failed, treating membership as inactive",
			"membership_id", m.ID, "error", err)
		return false, nil
	}

	// The freshest period end the provider knows wins, whatever the status.
	if err := s.repo.UpdateEndDate(ctx, m.ID, sub.CurrentPeriodEnd); err != nil {
		return false, err
	}

	return sub.Status == SubscriptionStatusActive || sub.Status == SubscriptionStatusTrialing, nil
}

func (s *service) ListTrialPayments(ctx context.Context) ([]TrialPayment, error) {
	return s.repo.ListTrialPayments(ctx)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func (s *service) Decrement(ctx context.Context, membershipID int, kind CounterKind) (*Membership, error) {
	return s.repo.MutateMembership(ctx, membershipID, func(m *Membership) error {
		switch kind {
		case CounterPersonalTraining:
			if m.RemainingPersonalTrainings > 0 {
				m.RemainingPersonalTrainings--
			}
		default:
			if m.RemainingSessions > 0 {
				m.RemainingSessions--
			}
		}
		return nil
	})
}

// CheckInOut handles one kiosk QR scan. A scan with an open visit today is
// a check-out; otherwise it is a check-in, which requires an active
// membership and consumes one regular session credit.
func (s *service) CheckInOut(ctx context.Context, qrIdentifier string, kind CounterKind) (*CheckInResult, error) {
	u, err := s.users.ResolveQRIdentifier(ctx, qrIdentifier)
	if err != nil {
		return nil, ErrUnknownQRCode
	}

	m, err := s.repo.GetMembershipWithTypeByUserID(ctx, u.ID)
	if err != nil {
		return nil, ErrMembershipNotFound
	}

	now := time.Now()
	open, err := s.repo.GetOpenVisitForDay(ctx, u.ID, now)
	if err != nil {
		return nil, err
	}

	if open != nil {
		if err := s.repo.CloseVisit(ctx, open.ID, now); err != nil {
			return nil, err
		}
		// A trial admits one gym day; leaving ends the membership.
		if m.PlanTier == TierTrial {
			if err := s.repo.UpdateEndDate(ctx, m.ID, now); err != nil {
				logger.Error("Failed to end trial membership on check-out", "membership_id", m.ID, "error", err)
			}
		}
		metrics.RecordCheckOut()
		return &CheckInResult{
			Action:                     "checked_out",
			UserName:                   u.Name,
			RemainingSessions:          m.RemainingSessions,
			RemainingPersonalTrainings: m.RemainingPersonalTrainings,
		}, nil
	}

	active, err := s.IsActive(ctx, m)
	if err != nil {
		return nil, err
	}
	if !active {
		metrics.RecordCheckIn(string(m.PlanTier), "rejected")
		return nil, ErrInactiveMembership
	}

	if kind != CounterPersonalTraining {
		kind = CounterRegular
	}
	if _, err := s.repo.CreateVisit(ctx, u.ID, kind, now); err != nil {
		return nil, err
	}

	updated, err := s.Decrement(ctx, m.ID, kind)
	if err != nil {
		return nil, err
	}

	if m.PlanTier == TierTrial {
		if err := s.repo.MarkTrialPaymentsUsed(ctx, u.ID); err != nil {
			logger.Error("Failed to mark trial payment used", "user_id", u.ID, "error", err)
		}
	}

	metrics.RecordCheckIn(string(m.PlanTier), "accepted")
	return &CheckInResult{
		Action:                     "checked_in",
		UserName:                   u.Name,
		RemainingSessions:          updated.RemainingSessions,
		RemainingPersonalTrainings: updated.RemainingPersonalTrainings,
	}, nil
}

// CheckAndUpdatePeriod anchors a monthly membership's billing period to
// the last calendar day of its month. Provider failures propagate to the
// caller; this path is allowed to fail loudly.
func (s *service) CheckAndUpdatePeriod(ctx context.Context, membershipID int) error {
	m, err := s.repo.GetMembershipByID(ctx, membershipID)
	if err != nil {
		return ErrMembershipNotFound
	}

	mt, err := s.repo.GetMembershipTypeByID(ctx, m.MembershipTypeID)
	if err != nil {
		return ErrMembershipTypeNotFound
	}
	if !mt.Tier.IsMonthly() {
		return nil
	}

	if m.StripeSubscriptionID == nil || *m.StripeSubscriptionID == "" {
		return ErrNoSubscription
	}

	sub, err := s.provider.RetrieveSubscription(ctx, *m.StripeSubscriptionID)
	if err != nil {
		return err
	}

	lastDay := LastDayOfMonth(sub.CurrentPeriodEnd)
	if sub.CurrentPeriodEnd.Day() == lastDay.Day() {
		return nil
	}

	anchored, err := s.provider.AnchorBillingToMonthEnd(ctx, sub.ID, lastDay)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateEndDate(ctx, m.ID, anchored.CurrentPeriodEnd); err != nil {
		return err
	}

	logger.Info("Anchored billing period to month end",
		"membership_id", m.ID, "period_end", anchored.CurrentPeriodEnd)
	return nil
}

func (s *service) AlignPeriodForSubscription(ctx context.Context, subscriptionID string) error {
	m, err := s.repo.GetMembershipBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return ErrMembershipNotFound
	}
	return s.CheckAndUpdatePeriod(ctx, m.ID)
}

// SweepSubscriptionStatuses refreshes every subscribed membership's end
// date from the provider. Per-membership failures are logged and the sweep
// moves on.
func (s *service) SweepSubscriptionStatuses(ctx context.Context) error {
	memberships, err := s.repo.ListMembershipsWithSubscription(ctx)
	if err != nil {
		return err
	}

	for _, m := range memberships {
		sub, err := s.provider.RetrieveSubscription(ctx, *m.StripeSubscriptionID)
		if err != nil {
			logger.Error("Status sweep: subscription lookup failed", "membership_id", m.ID, "error", err)
			continue
		}
		if err := s.repo.UpdateEndDate(ctx, m.ID, sub.CurrentPeriodEnd); err != nil {
			logger.Error("Status sweep: end date update failed", "membership_id", m.ID, "error", err)
			continue
		}
		metrics.RecordMembershipUpdate("status_sweep")
	}

	logger.Info("Subscription status sweep finished", "count", len(memberships))
	return nil
}

// SweepBillingPeriods re-anchors every subscribed monthly membership to
// month-end billing.
func (s *service) SweepBillingPeriods(ctx context.Context) error {
	memberships, err := s.repo.ListMembershipsWithSubscription(ctx)
	if err != nil {
		return err
	}

	for _, m := range memberships {
		if err := s.CheckAndUpdatePeriod(ctx, m.ID); err != nil {
			logger.Error("Period sweep: alignment failed", "membership_id", m.ID, "error", err)
		}
	}

	logger.Info("Billing period sweep finished", "count", len(memberships))
	return nil
}

// ApplyCheckoutCompleted upserts the ledger from a completed checkout:
// fresh counters, start today, end at the subscription's period end. State
// is re-derived from the event rather than incremented, so replays land on
// the same row values.
func (s *service) ApplyCheckoutCompleted(ctx context.Context, userID int, mt *MembershipType, customerID, subscriptionID string, periodEnd time.Time) (*Membership, error) {
	m, err := s.getOrCreateMembership(ctx, userID, mt.ID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	updated, err := s.repo.MutateMembership(ctx, m.ID, func(m *Membership) error {
		m.MembershipTypeID = mt.ID
		m.RemainingSessions = mt.IncludedSessions
		m.RemainingPersonalTrainings = mt.IncludedPersonalTrainings
		m.StartDate = &today
		end := periodEnd
		m.EndDate = &end
		m.StripeCustomerID = &customerID
		m.StripeSubscriptionID = &subscriptionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordMembershipUpdate("checkout")

	if s.email != nil {
		if u, err := s.users.GetByID(ctx, userID); err == nil {
			s.email.SendMembershipActivated(ctx, u.Email, u.Name, mt.Name, periodEnd)
		}
	}

	return updated, nil
}

// ApplyOneTimePayment records a charge outside a subscription. A trial
// plan additionally gets a TrialPayment record and a one-month window.
func (s *service) ApplyOneTimePayment(ctx context.Context, userID int, mt *MembershipType, customerID string) (*Membership, error) {
	m, err := s.getOrCreateMembership(ctx, userID, mt.ID)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	updated, err := s.repo.MutateMembership(ctx, m.ID, func(m *Membership) error {
		m.MembershipTypeID = mt.ID
		m.RemainingSessions = mt.IncludedSessions
		m.RemainingPersonalTrainings = mt.IncludedPersonalTrainings
		m.StartDate = &today
		m.StripeCustomerID = &customerID
		if mt.Tier == TierTrial {
			end := today.AddDate(0, 1, 0)
			m.EndDate = &end
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if mt.Tier == TierTrial {
		if _, err := s.repo.CreateTrialPayment(ctx, userID); err != nil {
			return nil, err
		}
	}

	metrics.RecordMembershipUpdate("one_time_payment")
	return updated, nil
}

// ApplySubscriptionUpdated refreshes the ledger from the provider's view
// of the subscription. A canceled or cancel-at-period-end subscription
// freezes the end date; otherwise the period restarts now, anchored to
// month end, with prorated session credit.
func (s *service) ApplySubscriptionUpdated(ctx context.Context, sub *ProviderSubscription) error {
	m, err := s.repo.GetMembershipBySubscriptionID(ctx, sub.ID)
	if err != nil {
		return ErrMembershipNotFound
	}

	if sub.CancelAtPeriodEnd || sub.Status == "canceled" {
		if err := s.repo.MarkCanceled(ctx, m.ID, sub.CurrentPeriodEnd); err != nil {
			return err
		}
		metrics.RecordMembershipUpdate("subscription_canceled")
		logger.Info("Membership end frozen at period end",
			"membership_id", m.ID, "end_date", sub.CurrentPeriodEnd)
		return nil
	}

	mt, err := s.repo.GetMembershipTypeByStripePrice(ctx, sub.PriceID)
	if err != nil {
		return ErrMembershipTypeNotFound
	}
	if !mt.Tier.IsMonthly() {
		return ErrUnrecognizedPlan
	}

	now := time.Now()
	end := LastDayOfMonth(now)

	_, err = s.repo.MutateMembership(ctx, m.ID, func(m *Membership) error {
		m.MembershipTypeID = mt.ID
		m.StartDate = &now
		m.EndDate = &end
		m.RemainingSessions = ProrateSessions(mt.IncludedSessions, now)
		m.RemainingPersonalTrainings = ProrateSessions(mt.IncludedPersonalTrainings, now)
		return nil
	})
	if err != nil {
		return err
	}

	metrics.RecordMembershipUpdate("subscription_updated")
	return nil
}
