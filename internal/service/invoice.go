package service

import (
	"context"

	"github.com/invoiceflow/invoiceflow/internal/api/dto"
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/remote"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

// InvoiceService applies single-invoice workflow actions through the remote
// backend. Each action verifies the hard state precondition locally first, so
// an obviously invalid transition never produces a network call. On success
// the local cache entry is replaced with the backend's authoritative copy; on
// failure the cache is left untouched and the error propagates to the caller.
type InvoiceService interface {
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error)
	PostInvoice(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error)
	ResetInvoiceToDraft(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, id string) error
	MarkInvoicePaid(ctx context.Context, id string, req dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error)
	DuplicateInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	logger  *logger.Logger
	backend remote.Client
	cache   *cache.InvoiceCache
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{
		logger:  params.Logger,
		backend: params.Backend,
		cache:   params.Cache,
	}
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.backend.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Replace(ctx, inv)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListInvoicesResponse, error) {
	if filter == nil {
		filter = types.NewInvoiceFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	result, err := s.backend.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.InvoiceResponse, len(result.Items))
	for i, inv := range result.Items {
		s.cache.Replace(ctx, inv)
		items[i] = dto.NewInvoiceResponse(inv)
	}

	return &dto.ListInvoicesResponse{
		Items:      items,
		Pagination: result.Pagination,
	}, nil
}

func (s *invoiceService) PostInvoice(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.checkPrecondition(ctx, id, types.InvoiceOperationPost)
	if err != nil {
		return nil, err
	}

	updated, err := s.backend.PostInvoice(ctx, id, actionOptions(req))
	if err != nil {
		s.logger.Errorw("failed to post invoice", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Infow("invoice posted",
		"invoice_id", id,
		"from_status", inv.InvoiceStatus,
		"invoice_number", updated.InvoiceNumber)
	s.cache.Replace(ctx, updated)
	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) CancelInvoice(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.checkPrecondition(ctx, id, types.InvoiceOperationCancel); err != nil {
		return nil, err
	}

	updated, err := s.backend.CancelInvoice(ctx, id, actionOptions(req))
	if err != nil {
		s.logger.Errorw("failed to cancel invoice", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Infow("invoice cancelled", "invoice_id", id)
	s.cache.Replace(ctx, updated)
	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) ResetInvoiceToDraft(ctx context.Context, id string, req dto.InvoiceActionRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.checkPrecondition(ctx, id, types.InvoiceOperationResetToDraft); err != nil {
		return nil, err
	}

	updated, err := s.backend.ResetInvoiceToDraft(ctx, id, actionOptions(req))
	if err != nil {
		s.logger.Errorw("failed to reset invoice to draft", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Infow("invoice reset to draft", "invoice_id", id)
	s.cache.Replace(ctx, updated)
	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) DeleteInvoice(ctx context.Context, id string) error {
	if _, err := s.checkPrecondition(ctx, id, types.InvoiceOperationDelete); err != nil {
		return err
	}

	if err := s.backend.DeleteInvoice(ctx, id); err != nil {
		s.logger.Errorw("failed to delete invoice", "error", err, "invoice_id", id)
		return err
	}

	s.logger.Infow("invoice deleted", "invoice_id", id)
	s.cache.Remove(ctx, id)
	return nil
}

func (s *invoiceService) MarkInvoicePaid(ctx context.Context, id string, req dto.MarkInvoicePaidRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.checkPrecondition(ctx, id, types.InvoiceOperationMarkPaid); err != nil {
		return nil, err
	}

	updated, err := s.backend.MarkInvoicePaid(ctx, id, remote.MarkPaidOptions{Amount: req.Amount})
	if err != nil {
		s.logger.Errorw("failed to mark invoice as paid", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Infow("invoice marked as paid", "invoice_id", id, "payment_status", updated.PaymentStatus)
	s.cache.Replace(ctx, updated)
	return dto.NewInvoiceResponse(updated), nil
}

func (s *invoiceService) DuplicateInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	duplicate, err := s.backend.DuplicateInvoice(ctx, id)
	if err != nil {
		s.logger.Errorw("failed to duplicate invoice", "error", err, "invoice_id", id)
		return nil, err
	}

	s.logger.Infow("invoice duplicated", "invoice_id", id, "duplicate_id", duplicate.ID)
	s.cache.Replace(ctx, duplicate)
	return dto.NewInvoiceResponse(duplicate), nil
}

// checkPrecondition resolves the invoice and verifies the workflow
// precondition before any mutation is attempted. The backend re-checks the
// same precondition; this guard exists so a clearly invalid action fails fast
// without a transition call.
func (s *invoiceService) checkPrecondition(ctx context.Context, id string, op types.InvoiceOperation) (*invoice.Invoice, error) {
	inv, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := invoice.CheckOperation(inv, op); err != nil {
		hint := err.Error()
		var te *invoice.TransitionError
		if ierr.As(err, &te) {
			hint = te.Reason
		}
		return nil, ierr.WithError(err).
			WithHint(hint).
			WithReportableDetails(map[string]any{
				"invoice_id": id,
				"operation":  op.String(),
				"status":     inv.InvoiceStatus.String(),
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	return inv, nil
}

// resolve returns the cached copy if present, otherwise fetches from the
// backend and caches the result
func (s *invoiceService) resolve(ctx context.Context, id string) (*invoice.Invoice, error) {
	if inv, found := s.cache.Get(ctx, id); found {
		return inv, nil
	}

	inv, err := s.backend.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.Replace(ctx, inv)
	return inv, nil
}

func actionOptions(req dto.InvoiceActionRequest) remote.ActionOptions {
	return remote.ActionOptions{
		Force:  req.Force,
		Reason: req.Reason,
		Notes:  req.Notes,
	}
}
