package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/invoiceflow/invoiceflow/internal/api/dto"
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/config"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/testutil"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

type BulkServiceSuite struct {
	suite.Suite
	ctx     context.Context
	backend *testutil.InMemoryBackend
	cache   *cache.InvoiceCache
	service BulkService
}

func TestBulkService(t *testing.T) {
	suite.Run(t, new(BulkServiceSuite))
}

func (s *BulkServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = testutil.NewInMemoryBackend()
	s.cache = testutil.NewTestCache()

	log, err := logger.NewDefaultLogger()
	s.Require().NoError(err)

	params := ServiceParams{
		Logger:  log,
		Config:  config.GetDefaultConfig(),
		Backend: s.backend,
		Cache:   s.cache,
	}
	s.service = NewBulkService(params, NewInvoiceService(params))
}

func (s *BulkServiceSuite) TearDownTest() {
	s.backend.Clear()
	s.cache.Flush(s.ctx)
}

func (s *BulkServiceSuite) TestValidatePartitionsCompletely() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_b"))

	result, err := s.service.ValidateOperation(s.ctx, dto.BulkValidateRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b", "inv_ghost"},
	})
	s.NoError(err)

	s.Equal(3, result.TotalRequested)
	s.Equal(1, result.ValidCount)
	s.Equal(1, result.InvalidCount)
	s.Equal(1, result.NotFoundCount)
	s.Equal(result.TotalRequested, result.ValidCount+result.InvalidCount+result.NotFoundCount)
	s.True(result.CanProceed)

	s.Equal("inv_a", result.ValidInvoices[0].ID)
	s.Equal("inv_b", result.InvalidInvoices[0].ID)
	s.NotEmpty(result.InvalidInvoices[0].Reasons)
	s.Contains(result.InvalidInvoices[0].Reasons[0], "only DRAFT invoices can be posted")
	s.Equal([]string{"inv_ghost"}, result.NotFoundIDs)
}

func (s *BulkServiceSuite) TestValidateIsIdempotent() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_b"))

	req := dto.BulkValidateRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b"},
	}

	first, err := s.service.ValidateOperation(s.ctx, req)
	s.NoError(err)
	second, err := s.service.ValidateOperation(s.ctx, req)
	s.NoError(err)

	s.Equal(first, second)
	s.Empty(s.backend.Calls(), "validation never mutates")
	s.Equal(types.InvoiceStatusDraft, s.backend.Invoice("inv_a").InvoiceStatus)
}

func (s *BulkServiceSuite) TestValidateDeduplicatesIDs() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))

	result, err := s.service.ValidateOperation(s.ctx, dto.BulkValidateRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_a", "inv_a"},
	})
	s.NoError(err)
	s.Equal(1, result.TotalRequested)
	s.Equal(1, result.ValidCount)
}

func (s *BulkServiceSuite) TestValidateEmptySet() {
	result, err := s.service.ValidateOperation(s.ctx, dto.BulkValidateRequest{
		Operation: types.InvoiceOperationPost,
	})
	s.NoError(err)
	s.Equal(0, result.TotalRequested)
	s.False(result.CanProceed)
	s.Empty(s.backend.Calls())
}

func (s *BulkServiceSuite) TestValidateRejectsUnknownOperation() {
	_, err := s.service.ValidateOperation(s.ctx, dto.BulkValidateRequest{
		Operation:  types.InvoiceOperation("archive"),
		InvoiceIDs: []string{"inv_a"},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *BulkServiceSuite) TestExecutePostAll() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_b"))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b"},
	})
	s.NoError(err)

	s.Equal(2, result.Successful)
	s.Equal(0, result.Failed)
	s.Equal(0, result.Skipped)
	s.Equal(types.InvoiceStatusPosted, s.backend.Invoice("inv_a").InvoiceStatus)
	s.Equal(types.InvoiceStatusPosted, s.backend.Invoice("inv_b").InvoiceStatus)
}

func (s *BulkServiceSuite) TestExecuteSkipsInvalidAndNotFound() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_b"))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b", "inv_ghost"},
	})
	s.NoError(err)

	s.Equal(1, result.Successful)
	s.Equal(0, result.Failed)
	s.Equal(2, result.Skipped)

	// the invalid invoice was never attempted, not attempted-and-failed
	s.NotContains(s.backend.Calls(), "post:inv_b")
	s.Equal(types.InvoiceStatusPosted, s.backend.Invoice("inv_b").InvoiceStatus)
}

func (s *BulkServiceSuite) TestExecutePartialFailureLeavesOthersApplied() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_b"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_c"))
	s.backend.FailOn("post", "inv_b", ierr.NewError("connection reset").
		WithHint("Backend is unreachable").
		Mark(ierr.ErrNetwork))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b", "inv_c"},
	})
	s.NoError(err)

	s.Equal(2, result.Successful)
	s.Equal(1, result.Failed)
	s.Equal(0, result.Skipped)
	s.Len(result.FailedItems, 1)
	s.Equal("inv_b", result.FailedItems[0].ID)
	s.Equal("Backend is unreachable", result.FailedItems[0].Error)

	// each item transitions independently: a failure never rolls back a peer
	s.Equal(types.InvoiceStatusPosted, s.backend.Invoice("inv_a").InvoiceStatus)
	s.Equal(types.InvoiceStatusDraft, s.backend.Invoice("inv_b").InvoiceStatus)
	s.Equal(types.InvoiceStatusPosted, s.backend.Invoice("inv_c").InvoiceStatus)
}

func (s *BulkServiceSuite) TestExecuteStopOnError() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_b"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_c"))
	s.backend.FailOn("post", "inv_b", ierr.NewError("connection reset").Mark(ierr.ErrNetwork))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b", "inv_c"},
		Options:    dto.BulkExecuteOptions{StopOnError: true},
	})
	s.NoError(err)

	s.Equal(1, result.Successful)
	s.Equal(1, result.Failed)
	s.Equal(1, result.Skipped)
	s.Len(result.FailedItems, 1)
	s.Equal("inv_b", result.FailedItems[0].ID)

	s.NotContains(s.backend.Calls(), "post:inv_c")
	s.Equal(types.InvoiceStatusDraft, s.backend.Invoice("inv_c").InvoiceStatus)
}

func (s *BulkServiceSuite) TestExecuteDeleteRequiresConfirmation() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_b"))

	_, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationDelete,
		InvoiceIDs: []string{"inv_a", "inv_b"},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))

	// the gate rejects the whole call before any item is touched
	s.Empty(s.backend.Calls())
	s.NotNil(s.backend.Invoice("inv_a"))
	s.NotNil(s.backend.Invoice("inv_b"))
}

func (s *BulkServiceSuite) TestExecuteDeleteMixedSet() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_b"))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationDelete,
		InvoiceIDs: []string{"inv_a", "inv_b", "inv_ghost"},
		Options:    dto.BulkExecuteOptions{Confirmation: types.DeleteConfirmationToken},
	})
	s.NoError(err)

	s.Equal(1, result.Successful)
	s.Equal(0, result.Failed)
	s.Equal(2, result.Skipped)

	s.Nil(s.backend.Invoice("inv_a"))
	s.NotNil(s.backend.Invoice("inv_b"), "posted invoice survives a bulk delete")
}

func (s *BulkServiceSuite) TestExecuteRejectsMarkPaid() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_a"))

	_, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationMarkPaid,
		InvoiceIDs: []string{"inv_a"},
	})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.Empty(s.backend.Calls())
}

func (s *BulkServiceSuite) TestExecuteConcurrent() {
	ids := []string{"inv_a", "inv_b", "inv_c", "inv_d", "inv_e"}
	for _, id := range ids {
		s.backend.Seed(testutil.NewDraftInvoice(id))
	}
	s.backend.FailOn("post", "inv_c", ierr.NewError("connection reset").Mark(ierr.ErrNetwork))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: ids,
		Options:    dto.BulkExecuteOptions{MaxConcurrency: 4},
	})
	s.NoError(err)

	s.Equal(4, result.Successful)
	s.Equal(1, result.Failed)
	s.Equal(0, result.Skipped)
	s.Len(result.FailedItems, 1)
	s.Equal("inv_c", result.FailedItems[0].ID)
}

func (s *BulkServiceSuite) TestExecuteCancelledContextSkipsRemainder() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_a"))
	s.backend.Seed(testutil.NewDraftInvoice("inv_b"))

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	result, err := s.service.ExecuteBulk(ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a", "inv_b"},
	})
	s.NoError(err)

	s.Equal(0, result.Successful)
	s.Equal(0, result.Failed)
	s.Equal(2, result.Skipped)
	s.Equal(types.InvoiceStatusDraft, s.backend.Invoice("inv_a").InvoiceStatus)
}

func (s *BulkServiceSuite) TestExecuteAllInvalid() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_a"))

	result, err := s.service.ExecuteBulk(s.ctx, dto.BulkExecuteRequest{
		Operation:  types.InvoiceOperationPost,
		InvoiceIDs: []string{"inv_a"},
	})
	s.NoError(err)

	s.Equal(0, result.Successful)
	s.Equal(1, result.Skipped)
	s.Empty(s.backend.Calls())
}
