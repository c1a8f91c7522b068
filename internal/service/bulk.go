package service

import (
	"context"
	"sync"

	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"

	"github.com/invoiceflow/invoiceflow/internal/api/dto"
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/domain/invoice"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/remote"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

// BulkService validates and executes workflow operations across many
// invoices. Validation is a pure, read-only classification; execution applies
// the single-invoice transition to each valid id independently, with no
// cross-item transactionality. The aggregate result is always returned,
// never thrown, so mixed outcomes can be reported.
type BulkService interface {
	// ValidateOperation partitions the requested ids into valid, invalid and
	// not-found before any mutation occurs. Safe to call repeatedly.
	ValidateOperation(ctx context.Context, req dto.BulkValidateRequest) (*dto.BulkOperationValidation, error)

	// ExecuteBulk applies the operation to every id that passes validation.
	// Invalid and not-found ids are counted as skipped, never attempted.
	ExecuteBulk(ctx context.Context, req dto.BulkExecuteRequest) (*dto.BulkResult, error)
}

type bulkService struct {
	logger   *logger.Logger
	backend  remote.Client
	cache    *cache.InvoiceCache
	invoices InvoiceService
}

func NewBulkService(params ServiceParams, invoices InvoiceService) BulkService {
	return &bulkService{
		logger:   params.Logger,
		backend:  params.Backend,
		cache:    params.Cache,
		invoices: invoices,
	}
}

func (s *bulkService) ValidateOperation(ctx context.Context, req dto.BulkValidateRequest) (*dto.BulkOperationValidation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ids := lo.Uniq(req.InvoiceIDs)

	result := &dto.BulkOperationValidation{
		Operation:       req.Operation,
		TotalRequested:  len(ids),
		ValidInvoices:   []dto.ValidInvoiceSummary{},
		InvalidInvoices: []dto.InvalidInvoiceSummary{},
		NotFoundIDs:     []string{},
	}

	if len(ids) == 0 {
		return result, nil
	}

	resolved, err := s.resolveSet(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		inv, found := resolved[id]
		if !found {
			result.NotFoundIDs = append(result.NotFoundIDs, id)
			continue
		}

		if err := invoice.CheckOperation(inv, req.Operation); err != nil {
			reasons := []string{err.Error()}
			var te *invoice.TransitionError
			if ierr.As(err, &te) {
				reasons = []string{te.Reason}
			}
			result.InvalidInvoices = append(result.InvalidInvoices, dto.InvalidInvoiceSummary{
				ID:            inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				Status:        inv.InvoiceStatus,
				Reasons:       reasons,
			})
			continue
		}

		result.ValidInvoices = append(result.ValidInvoices, dto.ValidInvoiceSummary{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Status:        inv.InvoiceStatus,
			TotalAmount:   inv.TotalAmount,
		})
	}

	result.ValidCount = len(result.ValidInvoices)
	result.InvalidCount = len(result.InvalidInvoices)
	result.NotFoundCount = len(result.NotFoundIDs)
	result.CanProceed = result.ValidCount > 0

	return result, nil
}

func (s *bulkService) ExecuteBulk(ctx context.Context, req dto.BulkExecuteRequest) (*dto.BulkResult, error) {
	// the confirmation gate is part of request validation and rejects the
	// whole call before any item is processed
	if err := req.Validate(); err != nil {
		return nil, err
	}

	validation, err := s.ValidateOperation(ctx, dto.BulkValidateRequest{
		Operation:  req.Operation,
		InvoiceIDs: req.InvoiceIDs,
	})
	if err != nil {
		return nil, err
	}

	result := &dto.BulkResult{
		Operation:   req.Operation,
		Skipped:     validation.InvalidCount + validation.NotFoundCount,
		FailedItems: []dto.BulkFailedItem{},
	}

	if !validation.CanProceed {
		return result, nil
	}

	// batch id identifies this execution in the logs
	batchID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BULK_BATCH)

	if req.Options.StopOnError || req.Options.MaxConcurrency <= 1 {
		s.executeSequential(ctx, req, validation, result)
	} else {
		s.executeConcurrent(ctx, req, validation, result)
	}

	s.logger.Infow("bulk operation completed",
		"batch_id", batchID,
		"operation", req.Operation,
		"successful", result.Successful,
		"failed", result.Failed,
		"skipped", result.Skipped)

	return result, nil
}

// executeSequential processes valid invoices in input order. Processing halts
// after the first observed failure when stop_on_error is set, and between any
// two items when the context is cancelled; untried items count as skipped.
func (s *bulkService) executeSequential(ctx context.Context, req dto.BulkExecuteRequest, validation *dto.BulkOperationValidation, result *dto.BulkResult) {
	for i, item := range validation.ValidInvoices {
		if ctx.Err() != nil {
			result.Skipped += len(validation.ValidInvoices) - i
			s.logger.Warnw("bulk operation cancelled",
				"operation", req.Operation,
				"remaining", len(validation.ValidInvoices)-i)
			return
		}

		if err := s.applyItem(ctx, req.Operation, item.ID, req.Options); err != nil {
			result.Failed++
			result.FailedItems = append(result.FailedItems, dto.BulkFailedItem{
				ID:    item.ID,
				Error: displayMessage(err),
			})
			if req.Options.StopOnError {
				result.Skipped += len(validation.ValidInvoices) - i - 1
				return
			}
			continue
		}

		result.Successful++
	}
}

// executeConcurrent processes valid invoices in bounded-concurrency batches.
// Items are independent so no cross-item ordering is guaranteed here.
func (s *bulkService) executeConcurrent(ctx context.Context, req dto.BulkExecuteRequest, validation *dto.BulkOperationValidation, result *dto.BulkResult) {
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(req.Options.MaxConcurrency)

	for _, item := range validation.ValidInvoices {
		item := item // per-iteration copy; required while go.mod targets go < 1.22
		p.Go(func() {
			if ctx.Err() != nil {
				mu.Lock()
				result.Skipped++
				mu.Unlock()
				return
			}

			err := s.applyItem(ctx, req.Operation, item.ID, req.Options)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.FailedItems = append(result.FailedItems, dto.BulkFailedItem{
					ID:    item.ID,
					Error: displayMessage(err),
				})
				return
			}
			result.Successful++
		})
	}

	p.Wait()
}

// applyItem dispatches one valid id to the single-invoice executor. The
// switch is exhaustive over the bulk operation set; mark_paid is rejected at
// request validation.
func (s *bulkService) applyItem(ctx context.Context, op types.InvoiceOperation, id string, opts dto.BulkExecuteOptions) error {
	action := dto.InvoiceActionRequest{
		Force:  opts.Force,
		Reason: opts.Reason,
		Notes:  opts.Notes,
	}

	var err error
	switch op {
	case types.InvoiceOperationPost:
		_, err = s.invoices.PostInvoice(ctx, id, action)
	case types.InvoiceOperationCancel:
		_, err = s.invoices.CancelInvoice(ctx, id, action)
	case types.InvoiceOperationResetToDraft:
		_, err = s.invoices.ResetInvoiceToDraft(ctx, id, action)
	case types.InvoiceOperationDelete:
		err = s.invoices.DeleteInvoice(ctx, id)
	default:
		err = ierr.NewError("operation not supported in bulk").
			WithHintf("%s cannot be applied in bulk", op).
			Mark(ierr.ErrInvalidOperation)
	}
	return err
}

// resolveSet fetches the requested invoices in one backend round trip and
// indexes them by id. Ids absent from the response do not exist.
func (s *bulkService) resolveSet(ctx context.Context, ids []string) (map[string]*invoice.Invoice, error) {
	filter := types.NewNoLimitInvoiceFilter()
	filter.InvoiceIDs = ids

	listed, err := s.backend.ListInvoices(ctx, filter)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]*invoice.Invoice, len(listed.Items))
	for _, inv := range listed.Items {
		s.cache.Replace(ctx, inv)
		resolved[inv.ID] = inv
	}
	return resolved, nil
}
