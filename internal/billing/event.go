package billing

import (
	"encoding/json"
	"time"
)

// Event kinds the reconciler dispatches on.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventChargeSucceeded     = "charge.succeeded"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventInvoiceCreated      = "invoice.created"
	EventInvoiceUpdated      = "invoice.updated"
)

// Event is the webhook envelope. Object carries the union of fields the
// handlers read; absent fields decode to zero values.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object EventObject `json:"object"`
	} `json:"data"`
}

type EventObject struct {
	ID                string            `json:"id"`
	Customer          string            `json:"customer"`
	CustomerEmail     string            `json:"customer_email"`
	ReceiptEmail      string            `json:"receipt_email"`
	Subscription      string            `json:"subscription"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// PriceID returns the first line item's price, or empty.
func (o *EventObject) PriceID() string {
	if len(o.Items.Data) == 0 {
		return ""
	}
	return o.Items.Data[0].Price.ID
}

func (o *EventObject) PeriodEnd() time.Time {
	return time.Unix(o.CurrentPeriodEnd, 0).UTC()
}

// ParseEvent decodes a webhook payload into its envelope.
func ParseEvent(payload []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// ProcessedEvent records a delivered event id so replays short-circuit.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
