package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusValidate(t *testing.T) {
	assert.NoError(t, InvoiceStatusDraft.Validate())
	assert.NoError(t, InvoiceStatusPosted.Validate())
	assert.NoError(t, InvoiceStatusCancelled.Validate())
	assert.Error(t, InvoiceStatus("PAID").Validate())
	assert.Error(t, InvoiceStatus("").Validate())
}

func TestInvoiceOperationValidate(t *testing.T) {
	assert.NoError(t, InvoiceOperationPost.Validate())
	assert.NoError(t, InvoiceOperationMarkPaid.Validate())
	assert.Error(t, InvoiceOperation("archive").Validate())
}

func TestBulkOperationsExcludesMarkPaid(t *testing.T) {
	ops := BulkOperations()
	assert.Contains(t, ops, InvoiceOperationPost)
	assert.Contains(t, ops, InvoiceOperationDelete)
	assert.NotContains(t, ops, InvoiceOperationMarkPaid)
}

func TestGetCurrencyPrecision(t *testing.T) {
	assert.Equal(t, int32(2), GetCurrencyPrecision("usd"))
	assert.Equal(t, int32(2), GetCurrencyPrecision("EUR"))
	assert.Equal(t, int32(0), GetCurrencyPrecision("jpy"))
	assert.Equal(t, int32(3), GetCurrencyPrecision("kwd"))
	assert.Equal(t, int32(2), GetCurrencyPrecision("xyz"))
}
