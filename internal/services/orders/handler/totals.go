package handler

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"wms-system/internal/database/models"
)

// Totals are derived fields. They are recomputed from the line items after
// every item change, inside the same transaction, and never edited by hand.

func parseAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s amount %q", field, value)
	}
	return d, nil
}

func computePurchaseOrderTotals(items []models.PurchaseOrderItem, tax, shippingCost string) (string, string, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		unitPrice, err := parseAmount("unit_price", item.UnitPrice)
		if err != nil {
			return "", "", err
		}
		subtotal = subtotal.Add(unitPrice.Mul(decimal.NewFromInt32(item.Quantity)))
	}

	taxAmount, err := parseAmount("tax", tax)
	if err != nil {
		return "", "", err
	}
	shipping, err := parseAmount("shipping_cost", shippingCost)
	if err != nil {
		return "", "", err
	}

	total := subtotal.Add(taxAmount).Add(shipping)
	return subtotal.StringFixed(2), total.StringFixed(2), nil
}

func computeSalesOrderTotals(items []models.SalesOrderItem, tax, shippingCost, discount string) (string, string, error) {
	subtotal := decimal.Zero
	for _, item := range items {
		unitPrice, err := parseAmount("unit_price", item.UnitPrice)
		if err != nil {
			return "", "", err
		}
		lineDiscount, err := parseAmount("discount", item.Discount)
		if err != nil {
			return "", "", err
		}
		lineSubtotal := unitPrice.Mul(decimal.NewFromInt32(item.Quantity)).Sub(lineDiscount)
		subtotal = subtotal.Add(lineSubtotal)
	}

	taxAmount, err := parseAmount("tax", tax)
	if err != nil {
		return "", "", err
	}
	shipping, err := parseAmount("shipping_cost", shippingCost)
	if err != nil {
		return "", "", err
	}
	orderDiscount, err := parseAmount("discount", discount)
	if err != nil {
		return "", "", err
	}

	total := subtotal.Add(taxAmount).Add(shipping).Sub(orderDiscount)
	return subtotal.StringFixed(2), total.StringFixed(2), nil
}

func recalcPurchaseOrderTotals(tx *gorm.DB, po *models.PurchaseOrder) error {
	var items []models.PurchaseOrderItem
	if err := tx.Where("purchase_order_id = ?", po.ID).Find(&items).Error; err != nil {
		return err
	}

	subtotal, total, err := computePurchaseOrderTotals(items, po.Tax, po.ShippingCost)
	if err != nil {
		return err
	}

	po.Subtotal = subtotal
	po.Total = total
	return tx.Model(&models.PurchaseOrder{}).Where("id = ?", po.ID).
		Updates(map[string]interface{}{"subtotal": subtotal, "total": total}).Error
}

func recalcSalesOrderTotals(tx *gorm.DB, so *models.SalesOrder) error {
	var items []models.SalesOrderItem
	if err := tx.Where("sales_order_id = ?", so.ID).Find(&items).Error; err != nil {
		return err
	}

	subtotal, total, err := computeSalesOrderTotals(items, so.Tax, so.ShippingCost, so.Discount)
	if err != nil {
		return err
	}

	so.Subtotal = subtotal
	so.Total = total
	return tx.Model(&models.SalesOrder{}).Where("id = ?", so.ID).
		Updates(map[string]interface{}{"subtotal": subtotal, "total": total}).Error
}
