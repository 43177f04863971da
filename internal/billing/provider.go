package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/performlikemj/C2M/internal/membership"
)

const defaultAPIBase = "https://api.stripe.com/v1"

// Client is a thin HTTP client for the payment provider's REST API. It
// implements membership.SubscriptionProvider; only the handful of calls
// the ledger needs are wrapped.
type Client struct {
	apiBase   string
	secretKey string
	http      *http.Client
}

func NewClient(secretKey string) *Client {
	return &Client{
		apiBase:   defaultAPIBase,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// NewClientWithBase is used by tests to point the client at a stub server.
func NewClientWithBase(secretKey, apiBase string) *Client {
	c := NewClient(secretKey)
	c.apiBase = strings.TrimRight(apiBase, "/")
	return c
}

type apiSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type apiCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("provider error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("provider error (%d)", resp.StatusCode)
	}

	return json.Unmarshal(data, out)
}

func (s *apiSubscription) toProvider() *membership.ProviderSubscription {
	sub := &membership.ProviderSubscription{
		ID:                s.ID,
		CustomerID:        s.Customer,
		Status:            s.Status,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		CurrentPeriodEnd:  time.Unix(s.CurrentPeriodEnd, 0).UTC(),
	}
	if len(s.Items.Data) > 0 {
		sub.PriceID = s.Items.Data[0].Price.ID
	}
	return sub
}

func (c *Client) RetrieveSubscription(ctx context.Context, subscriptionID string) (*membership.ProviderSubscription, error) {
	var sub apiSubscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil, &sub); err != nil {
		return nil, err
	}
	return sub.toProvider(), nil
}

func (c *Client) RetrieveCustomer(ctx context.Context, customerID string) (*membership.ProviderCustomer, error) {
	var cust apiCustomer
	if err := c.do(ctx, http.MethodGet, "/customers/"+customerID, nil, &cust); err != nil {
		return nil, err
	}
	return &membership.ProviderCustomer{ID: cust.ID, Email: cust.Email}, nil
}

// AnchorBillingToMonthEnd rewrites the subscription's period end without
// prorating the change, using a trial extension to the requested day.
func (c *Client) AnchorBillingToMonthEnd(ctx context.Context, subscriptionID string, periodEnd time.Time) (*membership.ProviderSubscription, error) {
	form := url.Values{}
	form.Set("proration_behavior", "none")
	form.Set("trial_end", strconv.FormatInt(periodEnd.Unix(), 10))

	var sub apiSubscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/"+subscriptionID, form, &sub); err != nil {
		return nil, err
	}
	return sub.toProvider(), nil
}
