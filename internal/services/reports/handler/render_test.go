package handler

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"wms-system/internal/database/models"
)

func sampleDataset() *dataset {
	return &dataset{
		Name:    "Sample",
		Headers: []string{"sku", "quantity"},
		Rows: [][]interface{}{
			{"WID-001", 10},
			{"WID-002", 0},
		},
	}
}

func TestRenderCSV(t *testing.T) {
	out, err := renderCSV(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"sku", "quantity"}, records[0])
	assert.Equal(t, []string{"WID-001", "10"}, records[1])
	assert.Equal(t, []string{"WID-002", "0"}, records[2])
}

func TestRenderJSON(t *testing.T) {
	out := renderJSON(sampleDataset())
	require.Len(t, out, 2)
	assert.Equal(t, "WID-001", out[0]["sku"])
	assert.Equal(t, 10, out[0]["quantity"])
	assert.Equal(t, "WID-002", out[1]["sku"])
}

func TestRenderExcel(t *testing.T) {
	out, err := renderExcel(sampleDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sample", "A1")
	require.NoError(t, err)
	assert.Equal(t, "sku", v)

	v, err = f.GetCellValue("Sample", "B2")
	require.NoError(t, err)
	assert.Equal(t, "10", v)

	v, err = f.GetCellValue("Sample", "A3")
	require.NoError(t, err)
	assert.Equal(t, "WID-002", v)
}

func TestInventoryDataset(t *testing.T) {
	restock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := []models.Inventory{
		{
			Quantity:        7,
			ReorderLevel:    5,
			LastRestockDate: &restock,
			Product:         &models.Product{SKU: "WID-001", ProductName: "Widget"},
			Warehouse:       &models.Warehouse{WarehouseName: "Main"},
		},
		{Quantity: 0},
	}

	ds := inventoryDataset(rows)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "WID-001", ds.Rows[0][0])
	assert.Equal(t, "Widget", ds.Rows[0][1])
	assert.Equal(t, "Main", ds.Rows[0][2])
	assert.Equal(t, int32(7), ds.Rows[0][3])

	// Missing associations render as empty strings, not panics.
	assert.Equal(t, "", ds.Rows[1][0])
	assert.Equal(t, "", ds.Rows[1][2])
}

func TestMovementsDataset(t *testing.T) {
	ref := "PO #PO-100"
	rows := []models.InventoryMovement{
		{
			ID:           1,
			MovementType: models.MovementTypeIn,
			Quantity:     10,
			Reference:    &ref,
			CreatedAt:    time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			Inventory: &models.Inventory{
				Product:   &models.Product{ProductName: "Widget"},
				Warehouse: &models.Warehouse{WarehouseName: "Main"},
			},
		},
	}

	ds := movementsDataset(rows)
	require.Len(t, ds.Rows, 1)
	assert.Equal(t, "IN", ds.Rows[0][1])
	assert.Equal(t, int32(10), ds.Rows[0][2])
	assert.Equal(t, "Widget", ds.Rows[0][3])
	assert.Equal(t, "PO #PO-100", ds.Rows[0][5])
}
