package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"

	"github.com/invoiceflow/invoiceflow/internal/config"
	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

// ActionOptions carries the optional parameters of a workflow transition.
// Force instructs the backend to bypass soft validations only; the hard state
// preconditions are always enforced on both sides.
type ActionOptions struct {
	Force  bool   `json:"force,omitempty"`
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// MarkPaidOptions carries the optional partial amount for mark_paid
type MarkPaidOptions struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// ListResult is the page of invoices returned by the backend
type ListResult struct {
	Items      []*invoice.Invoice       `json:"items"`
	Pagination types.PaginationResponse `json:"pagination"`
}

// Client is the surface the invoice backend service exposes to this
// application. Every workflow transition is a single atomic remote call: the
// returned invoice is the backend's authoritative post-transition
// representation and must replace any local copy.
type Client interface {
	GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*ListResult, error)
	PostInvoice(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error)
	CancelInvoice(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error)
	ResetInvoiceToDraft(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error)
	DeleteInvoice(ctx context.Context, id string) error
	MarkInvoicePaid(ctx context.Context, id string, opts MarkPaidOptions) (*invoice.Invoice, error)
	DuplicateInvoice(ctx context.Context, id string) (*invoice.Invoice, error)
}

type client struct {
	baseURL string
	apiKey  string
	cfg     *config.BackendConfig
	http    *retryablehttp.Client
	logger  *logger.Logger
}

// NewClient creates a backend client with retry on transient failures.
// Idempotent reads go through go-retryablehttp's standard policy; workflow
// transitions retry only when the request never reached the backend.
func NewClient(cfg *config.Configuration, log *logger.Logger) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.Backend.RetryMax
	rc.RetryWaitMin = cfg.Backend.RetryWaitMin
	rc.RetryWaitMax = cfg.Backend.RetryWaitMax
	rc.HTTPClient.Timeout = cfg.Backend.Timeout
	rc.Logger = nil

	return &client{
		baseURL: strings.TrimRight(cfg.Backend.BaseURL, "/"),
		apiKey:  cfg.Backend.APIKey,
		cfg:     &cfg.Backend,
		http:    rc,
		logger:  log,
	}
}

func (c *client) GetInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := c.get(ctx, fmt.Sprintf("/invoices/%s", url.PathEscape(id)), &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *client) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*ListResult, error) {
	path := "/invoices"
	if query := encodeFilter(filter); query != "" {
		path += "?" + query
	}

	var result ListResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *client) PostInvoice(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error) {
	return c.transition(ctx, id, "post", opts)
}

func (c *client) CancelInvoice(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error) {
	return c.transition(ctx, id, "cancel", opts)
}

func (c *client) ResetInvoiceToDraft(ctx context.Context, id string, opts ActionOptions) (*invoice.Invoice, error) {
	return c.transition(ctx, id, "reset-to-draft", opts)
}

func (c *client) DeleteInvoice(ctx context.Context, id string) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+fmt.Sprintf("/invoices/%s", url.PathEscape(id)), nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to build backend request").
			Mark(ierr.ErrSystem)
	}
	c.setHeaders(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return decodeError(resp.StatusCode, body)
	}
	return nil
}

func (c *client) MarkInvoicePaid(ctx context.Context, id string, opts MarkPaidOptions) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := c.post(ctx, fmt.Sprintf("/invoices/%s/mark-paid", url.PathEscape(id)), opts, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *client) DuplicateInvoice(ctx context.Context, id string) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	if err := c.post(ctx, fmt.Sprintf("/invoices/%s/duplicate", url.PathEscape(id)), struct{}{}, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *client) transition(ctx context.Context, id, action string, opts ActionOptions) (*invoice.Invoice, error) {
	var inv invoice.Invoice
	path := fmt.Sprintf("/invoices/%s/%s", url.PathEscape(id), action)
	if err := c.post(ctx, path, opts, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to build backend request").
			Mark(ierr.ErrSystem)
	}
	c.setHeaders(req.Header)

	resp, err := c.http.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return ierr.WithError(err).
			WithHint("invoice backend returned an unexpected payload").
			Mark(ierr.ErrSystem)
	}
	return nil
}

// post sends a transition request. Transitions are not idempotent at the HTTP
// level, so only attempts where the request never completed are retried; any
// received response, success or rejection, is final.
func (c *client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return ierr.WithError(err).
			WithHint("failed to encode backend request").
			Mark(ierr.ErrSystem)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.RetryWaitMin
	policy.MaxInterval = c.cfg.RetryWaitMax
	policy.MaxElapsedTime = c.cfg.BackoffMaxElapsed

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(ierr.WithError(err).
				WithHint("failed to build backend request").
				Mark(ierr.ErrSystem))
		}
		c.setHeaders(req.Header)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.HTTPClient.Do(req)
		if err != nil {
			// request may not have reached the backend, safe to retry
			return networkError(err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(networkError(err))
		}

		if resp.StatusCode >= 400 {
			return backoff.Permanent(decodeError(resp.StatusCode, respBody))
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(ierr.WithError(err).
					WithHint("invoice backend returned an unexpected payload").
					Mark(ierr.ErrSystem))
			}
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(policy, ctx))
}

func (c *client) setHeaders(h http.Header) {
	h.Set("Accept", "application/json")
	if c.apiKey != "" {
		h.Set("x-api-key", c.apiKey)
	}
}

func networkError(err error) error {
	return ierr.WithError(err).
		WithHint("could not reach the invoice backend").
		Mark(ierr.ErrNetwork)
}

func encodeFilter(filter *types.InvoiceFilter) string {
	if filter == nil {
		return ""
	}

	values := url.Values{}
	if !filter.IsUnlimited() {
		values.Set("limit", fmt.Sprintf("%d", filter.GetLimit()))
	}
	if filter.GetOffset() > 0 {
		values.Set("offset", fmt.Sprintf("%d", filter.GetOffset()))
	}
	if len(filter.InvoiceIDs) > 0 {
		values.Set("invoice_ids", strings.Join(filter.InvoiceIDs, ","))
	}
	if filter.ThirdPartyID != "" {
		values.Set("third_party_id", filter.ThirdPartyID)
	}
	if filter.InvoiceType != "" {
		values.Set("invoice_type", filter.InvoiceType.String())
	}
	for _, status := range filter.InvoiceStatus {
		values.Add("invoice_status", status.String())
	}
	for _, status := range filter.PaymentStatus {
		values.Add("payment_status", status.String())
	}
	return values.Encode()
}
