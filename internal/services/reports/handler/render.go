package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"wms-system/internal/database/models"
)

// A dataset is a header row plus data rows, format-independent. The
// renderers below turn one into CSV, JSON, or an XLSX workbook.

type dataset struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

func renderCSV(ds *dataset) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ds.Headers); err != nil {
		return nil, err
	}
	for _, row := range ds.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = fmt.Sprintf("%v", cell)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderJSON(ds *dataset) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		record := make(map[string]interface{}, len(ds.Headers))
		for i, header := range ds.Headers {
			if i < len(row) {
				record[header] = row[i]
			}
		}
		out = append(out, record)
	}
	return out
}

func renderExcel(ds *dataset) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := ds.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	for col, header := range ds.Headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, err
		}
	}

	for rowIdx, row := range ds.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// -- Dataset builders --

func inventoryDataset(rows []models.Inventory) *dataset {
	ds := &dataset{
		Name:    "Inventory",
		Headers: []string{"sku", "product", "warehouse", "quantity", "min_quantity", "reorder_level", "last_restock_date"},
	}
	for _, inv := range rows {
		sku, product := "", ""
		if inv.Product != nil {
			sku = inv.Product.SKU
			product = inv.Product.ProductName
		}
		warehouse := ""
		if inv.Warehouse != nil {
			warehouse = inv.Warehouse.WarehouseName
		}
		restock := ""
		if inv.LastRestockDate != nil {
			restock = inv.LastRestockDate.Format(time.RFC3339)
		}
		ds.Rows = append(ds.Rows, []interface{}{
			sku, product, warehouse, inv.Quantity, inv.MinQuantity, inv.ReorderLevel, restock,
		})
	}
	return ds
}

func movementsDataset(rows []models.InventoryMovement) *dataset {
	ds := &dataset{
		Name:    "Movements",
		Headers: []string{"id", "movement_type", "quantity", "product", "warehouse", "reference", "created_at"},
	}
	for _, m := range rows {
		product, warehouse := "", ""
		if m.Inventory != nil {
			if m.Inventory.Product != nil {
				product = m.Inventory.Product.ProductName
			}
			if m.Inventory.Warehouse != nil {
				warehouse = m.Inventory.Warehouse.WarehouseName
			}
		}
		reference := ""
		if m.Reference != nil {
			reference = *m.Reference
		}
		ds.Rows = append(ds.Rows, []interface{}{
			m.ID, string(m.MovementType), m.Quantity, product, warehouse, reference,
			m.CreatedAt.Format(time.RFC3339),
		})
	}
	return ds
}

func purchaseOrdersDataset(rows []models.PurchaseOrder) *dataset {
	ds := &dataset{
		Name:    "PurchaseOrders",
		Headers: []string{"po_number", "supplier", "warehouse", "status", "subtotal", "total", "order_date"},
	}
	for _, po := range rows {
		supplier := ""
		if po.Supplier != nil {
			supplier = po.Supplier.SupplierName
		}
		warehouse := ""
		if po.Warehouse != nil {
			warehouse = po.Warehouse.WarehouseName
		}
		ds.Rows = append(ds.Rows, []interface{}{
			po.PONumber, supplier, warehouse, string(po.Status), po.Subtotal, po.Total,
			po.OrderDate.Format(time.RFC3339),
		})
	}
	return ds
}

func salesOrdersDataset(rows []models.SalesOrder) *dataset {
	ds := &dataset{
		Name:    "SalesOrders",
		Headers: []string{"order_number", "customer", "warehouse", "status", "subtotal", "discount", "total", "order_date"},
	}
	for _, so := range rows {
		customer := ""
		if so.Customer != nil {
			customer = so.Customer.CustomerName
		}
		warehouse := ""
		if so.Warehouse != nil {
			warehouse = so.Warehouse.WarehouseName
		}
		ds.Rows = append(ds.Rows, []interface{}{
			so.OrderNumber, customer, warehouse, string(so.Status), so.Subtotal, so.Discount, so.Total,
			so.OrderDate.Format(time.RFC3339),
		})
	}
	return ds
}
