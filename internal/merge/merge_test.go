package merge

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoyaib4265a/st-shop-poss/internal/model"
)

func TestProducts_UnionByKey(t *testing.T) {
	remote := []model.Product{
		{ID: "p1", Name: "Soap", Price: decimal.NewFromInt(10), Stock: 5},
		{ID: "p2", Name: "Rice", Price: decimal.NewFromInt(80), Stock: 20},
	}
	local := []model.Product{
		{ID: "p2", Name: "Rice 1kg", Price: decimal.NewFromInt(85), Stock: 18},
		{ID: "p3", Name: "Oil", Price: decimal.NewFromInt(150), Stock: 3},
	}

	merged := Products(remote, local)
	require.Len(t, merged, 3)

	// Remote-first ordering, local-only keys appended.
	assert.Equal(t, "p1", merged[0].ID)
	assert.Equal(t, "p2", merged[1].ID)
	assert.Equal(t, "p3", merged[2].ID)

	// Local applied second wins field-for-field.
	assert.Equal(t, "Rice 1kg", merged[1].Name)
	assert.True(t, decimal.NewFromInt(85).Equal(merged[1].Price))
	assert.Equal(t, 18, merged[1].Stock)
}

func TestProducts_EmptyFieldFallsBack(t *testing.T) {
	remote := []model.Product{{ID: "p1", Name: "Soap", Barcode: "123"}}
	local := []model.Product{{ID: "p1", Stock: 7}}

	merged := Products(remote, local)
	require.Len(t, merged, 1)
	assert.Equal(t, "Soap", merged[0].Name)
	assert.Equal(t, "123", merged[0].Barcode)
	assert.Equal(t, 7, merged[0].Stock)
}

func TestCredentials_DevicesReplacedWholesale(t *testing.T) {
	// The remote replica still trusts dev_A; the local one revoked it. The
	// local set must win outright — unioning would resurrect the revocation.
	remote := []model.Credential{{Phone: "5550001", PINHash: "h", Role: "cashier", Devices: []string{"dev_A", "dev_B"}}}
	local := []model.Credential{{Phone: "5550001", PINHash: "h", Role: "cashier", Devices: []string{"dev_B"}}}

	merged := Credentials(remote, local)
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"dev_B"}, merged[0].Devices)
}

func TestDatasets_Idempotent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	remote := &model.Dataset{
		Users:      []model.Credential{{Phone: "Admin", PINHash: "x", Role: "admin", Devices: []string{}}},
		Products:   []model.Product{{ID: "p1", Name: "Soap", Stock: 4}},
		Pending:    []model.PendingApproval{{Phone: "5550001", Device: "dev_A", Code: "ABC123"}},
		DeviceLogs: []model.DeviceLogEntry{{Phone: "Admin", Device: "dev_X", At: at}},
	}
	local := &model.Dataset{
		Users:      []model.Credential{{Phone: "5550001", PINHash: "y", Role: "cashier", Devices: []string{"dev_A"}}},
		Products:   []model.Product{{ID: "p1", Name: "Soap", Stock: 2}},
		DeviceLogs: []model.DeviceLogEntry{{Phone: "Admin", Device: "dev_X", At: at}, {Phone: "5550001", Device: "dev_A", At: at.Add(time.Minute)}},
	}

	once := Datasets(remote, local)
	twice := Datasets(remote, once)

	// Re-merging the same local state changes nothing.
	assert.Equal(t, Datasets(remote, twice), twice)
	assert.Equal(t, once, twice)
	require.Len(t, once.Users, 2)
	require.Len(t, once.Products, 1)
	assert.Equal(t, 2, once.Products[0].Stock)
	require.Len(t, once.Pending, 1)
	require.Len(t, once.DeviceLogs, 2)
}

func TestDatasets_NormalizesNilCollections(t *testing.T) {
	merged := Datasets(&model.Dataset{}, &model.Dataset{})
	assert.NotNil(t, merged.Users)
	assert.NotNil(t, merged.Products)
	assert.NotNil(t, merged.Inventories)
	assert.NotNil(t, merged.Pending)
	assert.NotNil(t, merged.DeviceLogs)
}

func TestDeviceLogs_ConcatSortCap(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var remote, local []model.DeviceLogEntry
	for i := 0; i < 300; i++ {
		remote = append(remote, model.DeviceLogEntry{Phone: "a", Device: "d1", At: base.Add(time.Duration(2*i) * time.Minute)})
		local = append(local, model.DeviceLogEntry{Phone: "b", Device: "d2", At: base.Add(time.Duration(2*i+1) * time.Minute)})
	}

	merged := DeviceLogs(remote, local)
	require.Len(t, merged, model.DeviceLogCap)

	// Oldest entries were dropped, order is chronological.
	for i := 1; i < len(merged); i++ {
		assert.False(t, merged[i].At.Before(merged[i-1].At))
	}
	assert.Equal(t, base.Add(599*time.Minute), merged[len(merged)-1].At)
}

func TestDeviceLogs_SelfMergeIsStable(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := []model.DeviceLogEntry{
		{Phone: "Admin", Device: "dev_X", At: base},
		{Phone: "5550001", Device: "dev_A", At: base.Add(time.Minute)},
	}

	// After a successful cycle both sides hold the same history; repeated
	// merging must not grow the log.
	merged := logs
	for i := 0; i < 4; i++ {
		merged = DeviceLogs(merged, merged)
	}
	require.Len(t, merged, 2)
	assert.Equal(t, logs, merged)

	// A genuinely new entry still lands.
	merged = DeviceLogs(merged, append(merged, model.DeviceLogEntry{
		Phone: "5550001", Device: "dev_A", At: base.Add(2 * time.Minute),
	}))
	assert.Len(t, merged, 3)
}

func TestInventories_ItemsReplacedNotUnioned(t *testing.T) {
	older := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	remote := []model.Inventory{{
		Cashier:   "5550001",
		Items:     []model.InventoryItem{{ProductID: "p1", Qty: 10}, {ProductID: "p2", Qty: 4}},
		UpdatedAt: older,
	}}
	local := []model.Inventory{{
		Cashier:   "5550001",
		Items:     []model.InventoryItem{{ProductID: "p1", Qty: 7}},
		UpdatedAt: newer,
	}}

	merged := Inventories(remote, local)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Items, 1)
	assert.Equal(t, 7, merged[0].Items[0].Qty)
	assert.Equal(t, newer, merged[0].UpdatedAt)
}
