package billing

import (
	"context"
	"errors"
	"strconv"

	"github.com/performlikemj/C2M/internal/logger"
	"github.com/performlikemj/C2M/internal/membership"
	"github.com/performlikemj/C2M/internal/metrics"
	"github.com/performlikemj/C2M/internal/user"
)

var ErrUnknownUser = errors.New("no user matches the event's email")

// Reconciler translates provider webhook events into ledger mutations.
// Handlers re-derive state from the event payload rather than
// incrementing. The event id is claimed up front so a concurrent
// replayed delivery is a no-op, and the claim is released again when
// the handler fails so a retried delivery gets processed.
type Reconciler struct {
	repo        Repository
	memberships membership.Service
	users       user.Repository
	provider    membership.SubscriptionProvider
}

func NewReconciler(repo Repository, memberships membership.Service, users user.Repository, provider membership.SubscriptionProvider) *Reconciler {
	return &Reconciler{
		repo:        repo,
		memberships: memberships,
		users:       users,
		provider:    provider,
	}
}

// Process dispatches one event. A nil return means the delivery is
// settled from the provider's point of view; a non-nil return is only
// turned into a retryable response for invoice.created.
func (r *Reconciler) Process(ctx context.Context, event *Event) error {
	first, err := r.repo.MarkProcessed(ctx, event.ID, event.Type)
	if err != nil {
		return err
	}
	if !first {
		logger.Info("Skipping replayed webhook event", "event_id", event.ID, "type", event.Type)
		metrics.RecordWebhookEvent(event.Type, "duplicate")
		return nil
	}

	var handlerErr error
	switch event.Type {
	case EventCheckoutCompleted:
		handlerErr = r.handleCheckoutCompleted(ctx, &event.Data.Object)
	case EventChargeSucceeded:
		handlerErr = r.handleChargeSucceeded(ctx, &event.Data.Object)
	case EventSubscriptionUpdated:
		handlerErr = r.handleSubscriptionUpdated(ctx, &event.Data.Object)
	case EventInvoiceCreated:
		handlerErr = r.handleInvoiceCreated(ctx, &event.Data.Object)
	case EventInvoiceUpdated:
		logger.Info("Invoice updated", "event_id", event.ID, "invoice", event.Data.Object.ID)
	default:
		logger.Info("Ignoring unrecognized webhook event", "event_id", event.ID, "type", event.Type)
		metrics.RecordWebhookEvent(event.Type, "ignored")
		return nil
	}

	if handlerErr != nil {
		if err := r.repo.Unmark(ctx, event.ID); err != nil {
			logger.Error("Failed to release claimed webhook event", "event_id", event.ID, "error", err)
		}
		metrics.RecordWebhookEvent(event.Type, "failed")
		return handlerErr
	}

	metrics.RecordWebhookEvent(event.Type, "processed")
	return nil
}

// resolveUser finds the local user an event refers to, falling back to a
// provider customer lookup when the payload omits the email.
func (r *Reconciler) resolveUser(ctx context.Context, obj *EventObject, email string) (*user.User, error) {
	if email == "" && obj.Customer != "" {
		customer, err := r.provider.RetrieveCustomer(ctx, obj.Customer)
		if err != nil {
			return nil, err
		}
		email = customer.Email
	}
	if email == "" {
		return nil, ErrUnknownUser
	}

	u, err := r.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, ErrUnknownUser
	}
	return u, nil
}

func (r *Reconciler) handleCheckoutCompleted(ctx context.Context, obj *EventObject) error {
	u, err := r.resolveUser(ctx, obj, obj.CustomerEmail)
	if err != nil {
		logger.Error("Checkout event for unknown user, skipping", "customer", obj.Customer, "error", err)
		return nil
	}

	sub, err := r.provider.RetrieveSubscription(ctx, obj.Subscription)
	if err != nil {
		logger.Error("Checkout subscription lookup failed, skipping", "subscription", obj.Subscription, "error", err)
		return nil
	}

	mt, err := r.memberships.GetMembershipTypeByStripePrice(ctx, sub.PriceID)
	if err != nil {
		logger.Error("Checkout references unknown plan, skipping", "price_id", sub.PriceID)
		return nil
	}

	if _, err := r.memberships.ApplyCheckoutCompleted(ctx, u.ID, mt, obj.Customer, sub.ID, sub.CurrentPeriodEnd); err != nil {
		return err
	}

	if err := r.memberships.AlignPeriodForSubscription(ctx, sub.ID); err != nil {
		logger.Error("Post-checkout period alignment failed", "subscription", sub.ID, "error", err)
	}

	return nil
}

func (r *Reconciler) handleChargeSucceeded(ctx context.Context, obj *EventObject) error {
	u, err := r.resolveUser(ctx, obj, obj.ReceiptEmail)
	if err != nil {
		logger.Error("Charge event for unknown user, skipping", "customer", obj.Customer, "error", err)
		return nil
	}

	typeID, err := strconv.Atoi(obj.Metadata["membership_type_id"])
	if err != nil {
		logger.Error("Charge event missing membership_type_id metadata, skipping", "charge", obj.ID)
		return nil
	}

	mt, err := r.memberships.GetMembershipTypeByID(ctx, typeID)
	if err != nil {
		logger.Error("Charge references unknown plan, skipping", "membership_type_id", typeID)
		return nil
	}

	_, err = r.memberships.ApplyOneTimePayment(ctx, u.ID, mt, obj.Customer)
	return err
}

func (r *Reconciler) handleSubscriptionUpdated(ctx context.Context, obj *EventObject) error {
	sub := &membership.ProviderSubscription{
		ID:                obj.ID,
		CustomerID:        obj.Customer,
		PriceID:           obj.PriceID(),
		Status:            obj.Status,
		CancelAtPeriodEnd: obj.CancelAtPeriodEnd,
		CurrentPeriodEnd:  obj.PeriodEnd(),
	}

	err := r.memberships.ApplySubscriptionUpdated(ctx, sub)
	switch {
	case errors.Is(err, membership.ErrMembershipNotFound),
		errors.Is(err, membership.ErrMembershipTypeNotFound):
		logger.Error("Subscription update for unknown membership, skipping", "subscription", obj.ID)
		return nil
	case err != nil:
		return err
	}

	if err := r.memberships.AlignPeriodForSubscription(ctx, sub.ID); err != nil {
		logger.Error("Post-update period alignment failed", "subscription", sub.ID, "error", err)
	}
	return nil
}

func (r *Reconciler) handleInvoiceCreated(ctx context.Context, obj *EventObject) error {
	if obj.Subscription == "" {
		logger.Info("Invoice without subscription, nothing to align", "invoice", obj.ID)
		return nil
	}

	err := r.memberships.AlignPeriodForSubscription(ctx, obj.Subscription)
	if errors.Is(err, membership.ErrMembershipNotFound) {
		logger.Error("Invoice for unknown membership, skipping", "subscription", obj.Subscription)
		return nil
	}
	return err
}
