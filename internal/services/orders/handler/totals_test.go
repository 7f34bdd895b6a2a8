package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wms-system/internal/database/models"
)

func TestComputePurchaseOrderTotals(t *testing.T) {
	items := []models.PurchaseOrderItem{
		{Quantity: 2, UnitPrice: "10.50"},
		{Quantity: 1, UnitPrice: "5.00"},
	}

	subtotal, total, err := computePurchaseOrderTotals(items, "1.00", "2.50")
	require.NoError(t, err)
	assert.Equal(t, "26.00", subtotal)
	assert.Equal(t, "29.50", total)
}

func TestComputePurchaseOrderTotalsEmptyAmounts(t *testing.T) {
	items := []models.PurchaseOrderItem{
		{Quantity: 3, UnitPrice: "4.00"},
	}

	subtotal, total, err := computePurchaseOrderTotals(items, "", "")
	require.NoError(t, err)
	assert.Equal(t, "12.00", subtotal)
	assert.Equal(t, "12.00", total)
}

func TestComputePurchaseOrderTotalsNoItems(t *testing.T) {
	subtotal, total, err := computePurchaseOrderTotals(nil, "0.00", "0.00")
	require.NoError(t, err)
	assert.Equal(t, "0.00", subtotal)
	assert.Equal(t, "0.00", total)
}

func TestComputePurchaseOrderTotalsMalformedAmount(t *testing.T) {
	items := []models.PurchaseOrderItem{
		{Quantity: 1, UnitPrice: "not-a-number"},
	}

	_, _, err := computePurchaseOrderTotals(items, "", "")
	assert.Error(t, err)

	_, _, err = computePurchaseOrderTotals(nil, "12,50", "")
	assert.Error(t, err)
}

func TestComputeSalesOrderTotals(t *testing.T) {
	items := []models.SalesOrderItem{
		{Quantity: 2, UnitPrice: "20.00", Discount: "5.00"},
		{Quantity: 1, UnitPrice: "10.00", Discount: ""},
	}

	subtotal, total, err := computeSalesOrderTotals(items, "2.00", "3.00", "1.50")
	require.NoError(t, err)
	assert.Equal(t, "45.00", subtotal)
	assert.Equal(t, "48.50", total)
}

func TestComputeSalesOrderTotalsDeterministic(t *testing.T) {
	items := []models.SalesOrderItem{
		{Quantity: 7, UnitPrice: "3.33"},
	}

	first, firstTotal, err := computeSalesOrderTotals(items, "0.10", "", "")
	require.NoError(t, err)
	second, secondTotal, err := computeSalesOrderTotals(items, "0.10", "", "")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstTotal, secondTotal)
	assert.Equal(t, "23.31", first)
	assert.Equal(t, "23.41", firstTotal)
}

func TestParseAmount(t *testing.T) {
	d, err := parseAmount("tax", "")
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	d, err = parseAmount("tax", "12.34")
	require.NoError(t, err)
	assert.Equal(t, "12.34", d.StringFixed(2))

	_, err = parseAmount("tax", "abc")
	assert.Error(t, err)
}
