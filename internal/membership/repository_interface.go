package membership

import (
	"context"
	"time"
)

type Repository interface {
	CreateMembershipType(ctx context.Context, mt *MembershipType) (*MembershipType, error)
	GetMembershipTypeByID(ctx context.Context, id int) (*MembershipType, error)
	GetMembershipTypeByStripePrice(ctx context.Context, priceID string) (*MembershipType, error)
	GetAllMembershipTypes(ctx context.Context) ([]MembershipType, error)

	CreateMembership(ctx context.Context, userID, membershipTypeID int) (*Membership, error)
	GetMembershipByID(ctx context.Context, id int) (*Membership, error)
	GetMembershipByUserID(ctx context.Context, userID int) (*Membership, error)
	GetMembershipWithTypeByUserID(ctx context.Context, userID int) (*MembershipWithType, error)
	GetMembershipBySubscriptionID(ctx context.Context, subscriptionID string) (*Membership, error)
	ListMembershipsWithSubscription(ctx context.Context) ([]Membership, error)
	// MutateMembership loads the row under a FOR UPDATE lock, applies fn,
	// and writes the whole row back in the same transaction. This is the
	// only write path for the ledger so concurrent check-ins and webhook
	// updates cannot lose each other's writes.
	MutateMembership(ctx context.Context, membershipID int, fn func(m *Membership) error) (*Membership, error)
	UpdateEndDate(ctx context.Context, membershipID int, endDate time.Time) error
	// MarkCanceled freezes the end date and stamps canceled_at.
	MarkCanceled(ctx context.Context, membershipID int, endDate time.Time) error

	CreateTrialPayment(ctx context.Context, userID int) (*TrialPayment, error)
	HasUnusedTrialPayment(ctx context.Context, userID int) (bool, error)
	MarkTrialPaymentsUsed(ctx context.Context, userID int) error
	ListTrialPayments(ctx context.Context) ([]TrialPayment, error)

	CreateVisit(ctx context.Context, userID int, kind CounterKind, checkIn time.Time) (*GymVisit, error)
	GetOpenVisitForDay(ctx context.Context, userID int, day time.Time) (*GymVisit, error)
	CloseVisit(ctx context.Context, visitID int, checkOut time.Time) error
}
