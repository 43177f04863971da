package membership

import (
	"context"
	"time"
)

// Subscription statuses the ledger treats as paying.
const (
	SubscriptionStatusActive   = "active"
	SubscriptionStatusTrialing = "trialing"
)

// ProviderSubscription is the slice of a payment provider's subscription
// object the ledger reads.
type ProviderSubscription struct {
	ID                string
	CustomerID        string
	PriceID           string
	Status            string
	CancelAtPeriodEnd bool
	CurrentPeriodEnd  time.Time
}

// ProviderCustomer is the slice of a provider customer object used to
// resolve users when an event omits the email.
type ProviderCustomer struct {
	ID    string
	Email string
}

// SubscriptionProvider is the outbound contract to the payment provider.
// The ledger only ever reads subscription state and rewrites billing
// anchors; charging happens on the provider's side and arrives back as
// webhook events.
type SubscriptionProvider interface {
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*ProviderCustomer, error)
	// AnchorBillingToMonthEnd moves the subscription's period end to the
	// given day without prorating the change.
	AnchorBillingToMonthEnd(ctx context.Context, subscriptionID string, periodEnd time.Time) (*ProviderSubscription, error)
}
