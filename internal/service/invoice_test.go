package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/invoiceflow/invoiceflow/internal/api/dto"
	"github.com/invoiceflow/invoiceflow/internal/cache"
	"github.com/invoiceflow/invoiceflow/internal/config"
	ierr "github.com/invoiceflow/invoiceflow/internal/errors"
	"github.com/invoiceflow/invoiceflow/internal/logger"
	"github.com/invoiceflow/invoiceflow/internal/testutil"
	"github.com/invoiceflow/invoiceflow/internal/types"
)

type InvoiceServiceSuite struct {
	suite.Suite
	ctx     context.Context
	backend *testutil.InMemoryBackend
	cache   *cache.InvoiceCache
	service InvoiceService
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.backend = testutil.NewInMemoryBackend()
	s.cache = testutil.NewTestCache()

	log, err := logger.NewDefaultLogger()
	s.Require().NoError(err)

	s.service = NewInvoiceService(ServiceParams{
		Logger:  log,
		Config:  config.GetDefaultConfig(),
		Backend: s.backend,
		Cache:   s.cache,
	})
}

func (s *InvoiceServiceSuite) TearDownTest() {
	s.backend.Clear()
	s.cache.Flush(s.ctx)
}

func (s *InvoiceServiceSuite) TestGetInvoice() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))

	resp, err := s.service.GetInvoice(s.ctx, "inv_1")
	s.NoError(err)
	s.Equal("inv_1", resp.ID)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)

	cached, found := s.cache.Get(s.ctx, "inv_1")
	s.True(found)
	s.Equal("inv_1", cached.ID)
}

func (s *InvoiceServiceSuite) TestGetInvoiceNotFound() {
	_, err := s.service.GetInvoice(s.ctx, "inv_missing")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *InvoiceServiceSuite) TestListInvoices() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_2"))
	s.backend.Seed(testutil.NewPostedInvoice("inv_3"))

	filter := types.NewInvoiceFilter()
	filter.InvoiceStatus = []types.InvoiceStatus{types.InvoiceStatusPosted}

	resp, err := s.service.ListInvoices(s.ctx, filter)
	s.NoError(err)
	s.Len(resp.Items, 2)
	s.Equal(2, resp.Pagination.Total)
}

func (s *InvoiceServiceSuite) TestPostInvoice() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))

	resp, err := s.service.PostInvoice(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.NoError(err)
	s.Equal(types.InvoiceStatusPosted, resp.InvoiceStatus)
	s.NotNil(resp.InvoiceNumber)
	s.NotNil(resp.JournalEntryID)

	cached, found := s.cache.Get(s.ctx, "inv_1")
	s.True(found)
	s.Equal(types.InvoiceStatusPosted, cached.InvoiceStatus)
}

func (s *InvoiceServiceSuite) TestPostInvoiceAlreadyPosted() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	_, err := s.service.PostInvoice(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	// the precondition fails locally, so the transition never reaches the backend
	s.NotContains(s.backend.Calls(), "post:inv_1")
}

func (s *InvoiceServiceSuite) TestCancelInvoice() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	resp, err := s.service.CancelInvoice(s.ctx, "inv_1", dto.InvoiceActionRequest{Reason: "ordered in error"})
	s.NoError(err)
	s.Equal(types.InvoiceStatusCancelled, resp.InvoiceStatus)
	s.NotNil(resp.JournalEntryID, "cancellation keeps the journal reference")
}

func (s *InvoiceServiceSuite) TestCancelDraftInvoice() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))

	_, err := s.service.CancelInvoice(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestResetInvoiceToDraft() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	resp, err := s.service.ResetInvoiceToDraft(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Nil(resp.JournalEntryID)
}

func (s *InvoiceServiceSuite) TestResetCancelledInvoiceToDraft() {
	s.backend.Seed(testutil.NewCancelledInvoice("inv_1"))

	resp, err := s.service.ResetInvoiceToDraft(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.NoError(err)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Nil(resp.JournalEntryID)
}

func (s *InvoiceServiceSuite) TestDeleteInvoice() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))

	err := s.service.DeleteInvoice(s.ctx, "inv_1")
	s.NoError(err)
	s.Nil(s.backend.Invoice("inv_1"))

	_, found := s.cache.Get(s.ctx, "inv_1")
	s.False(found)
}

func (s *InvoiceServiceSuite) TestDeletePostedInvoice() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	err := s.service.DeleteInvoice(s.ctx, "inv_1")
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
	s.NotNil(s.backend.Invoice("inv_1"))
}

func (s *InvoiceServiceSuite) TestMarkInvoicePaid() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	resp, err := s.service.MarkInvoicePaid(s.ctx, "inv_1", dto.MarkInvoicePaidRequest{})
	s.NoError(err)
	s.Equal(types.PaymentStatusPaid, resp.PaymentStatus)
	s.True(resp.RemainingAmount.IsZero())
	s.Equal(types.InvoiceStatusPosted, resp.InvoiceStatus, "payment never changes the lifecycle state")
}

func (s *InvoiceServiceSuite) TestMarkInvoicePartiallyPaid() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	amount := decimal.NewFromInt(40)
	resp, err := s.service.MarkInvoicePaid(s.ctx, "inv_1", dto.MarkInvoicePaidRequest{Amount: &amount})
	s.NoError(err)
	s.Equal(types.PaymentStatusPartiallyPaid, resp.PaymentStatus)
	s.True(resp.PaidAmount.Equal(decimal.NewFromInt(40)))
	s.True(resp.RemainingAmount.Equal(decimal.NewFromInt(60)))
}

func (s *InvoiceServiceSuite) TestMarkPaidNegativeAmount() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	amount := decimal.NewFromInt(-5)
	_, err := s.service.MarkInvoicePaid(s.ctx, "inv_1", dto.MarkInvoicePaidRequest{Amount: &amount})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *InvoiceServiceSuite) TestMarkPaidDraftInvoice() {
	s.backend.Seed(testutil.NewDraftInvoice("inv_1"))

	_, err := s.service.MarkInvoicePaid(s.ctx, "inv_1", dto.MarkInvoicePaidRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *InvoiceServiceSuite) TestDuplicateInvoice() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	resp, err := s.service.DuplicateInvoice(s.ctx, "inv_1")
	s.NoError(err)
	s.NotEqual("inv_1", resp.ID)
	s.Equal(types.InvoiceStatusDraft, resp.InvoiceStatus)
	s.Nil(resp.InvoiceNumber)
	s.Nil(resp.JournalEntryID)
	s.Equal(types.PaymentStatusUnpaid, resp.PaymentStatus)
}

func (s *InvoiceServiceSuite) TestFailedTransitionLeavesCacheUntouched() {
	s.backend.Seed(testutil.NewPostedInvoice("inv_1"))

	// warm the cache with the current copy
	_, err := s.service.GetInvoice(s.ctx, "inv_1")
	s.NoError(err)

	s.backend.FailOn("cancel", "inv_1", ierr.NewError("connection reset").Mark(ierr.ErrNetwork))

	_, err = s.service.CancelInvoice(s.ctx, "inv_1", dto.InvoiceActionRequest{})
	s.Error(err)

	cached, found := s.cache.Get(s.ctx, "inv_1")
	s.True(found)
	s.Equal(types.InvoiceStatusPosted, cached.InvoiceStatus)
}
