package ied

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates an in-memory SQLite database with the full schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A pooled second connection would see its own empty :memory: database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	schema := `
		CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			is_connected INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE disturbance_recordings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			trigger_time TEXT NOT NULL,
			trigger_length REAL NOT NULL DEFAULT 0,
			trigger_channel TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE dr_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recording_id INTEGER NOT NULL REFERENCES disturbance_recordings(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			file_type TEXT NOT NULL
		) STRICT;

		CREATE TABLE ied_files (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id TEXT NOT NULL REFERENCES devices(id) ON DELETE CASCADE,
			file_name TEXT NOT NULL,
			file_size INTEGER NOT NULL,
			retrieved_at TEXT NOT NULL
		) STRICT;

		CREATE TABLE configuration_values (
			id TEXT PRIMARY KEY,
			value TEXT NOT NULL
		) STRICT;
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// testDevice creates a device for testing.
func testDevice(id, name string) *Device {
	return &Device{
		ID:        id,
		Name:      name,
		IPAddress: "10.0.0.1",
	}
}

// testRecording creates a recording with two DR files for testing.
func testRecording(name string) DisturbanceRecording {
	return DisturbanceRecording{
		Name:           name,
		TriggerTime:    time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		TriggerLength:  1.5,
		TriggerChannel: "IL1",
		DRFiles: []DRFile{
			{FileName: name + ".cfg", FileSize: 2048, FileType: DRFileTypeConfiguration},
			{FileName: name + ".dat", FileSize: 65536, FileType: DRFileTypeData},
		},
	}
}

func TestCreateAndGetByID(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	dev := testDevice("relay-1", "Feeder Protection A")
	if err := repo.Create(ctx, dev); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByID(ctx, "relay-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "Feeder Protection A" {
		t.Errorf("Name = %q, want %q", got.Name, "Feeder Protection A")
	}
	if got.IPAddress != "10.0.0.1" {
		t.Errorf("IPAddress = %q, want %q", got.IPAddress, "10.0.0.1")
	}
	if got.IsConnected {
		t.Error("new device should not be connected")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set on create")
	}
}

func TestCreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	err := repo.Create(ctx, testDevice("relay-1", "B"))
	if !errors.Is(err, ErrDeviceExists) {
		t.Errorf("expected ErrDeviceExists, got %v", err)
	}
}

func TestCreateInvalid(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	tests := []struct {
		name   string
		device *Device
	}{
		{"missing id", &Device{Name: "No ID"}},
		{"missing name", &Device{ID: "relay-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.device); !errors.Is(err, ErrInvalidDevice) {
				t.Errorf("expected ErrInvalidDevice, got %v", err)
			}
		})
	}
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	recs := []DisturbanceRecording{testRecording("fault_20260314")}
	if err := repo.StoreDisturbanceRecordings(ctx, "relay-1", recs); err != nil {
		t.Fatalf("StoreDisturbanceRecordings failed: %v", err)
	}
	if err := repo.StoreIEDFiles(ctx, "relay-1", []IEDFile{
		{FileName: "events.log", FileSize: 512},
	}); err != nil {
		t.Fatalf("StoreIEDFiles failed: %v", err)
	}

	if err := repo.Delete(ctx, "relay-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	for _, table := range []string{"disturbance_recordings", "dr_files", "ied_files"} {
		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if count != 0 {
			t.Errorf("%s has %d rows after device delete, want 0", table, count)
		}
	}
}

func TestDeleteNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	err := repo.Delete(context.Background(), "nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestSetConnected(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	found, err := repo.SetConnected(ctx, "relay-1", true)
	if err != nil {
		t.Fatalf("SetConnected failed: %v", err)
	}
	if !found {
		t.Error("found = false for existing device")
	}

	got, err := repo.GetByID(ctx, "relay-1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if !got.IsConnected {
		t.Error("IsConnected = false after SetConnected(true)")
	}

	found, err = repo.SetConnected(ctx, "nonexistent", true)
	if err != nil {
		t.Fatalf("SetConnected for unknown device errored: %v", err)
	}
	if found {
		t.Error("found = true for unknown device")
	}
}

func TestStoreDisturbanceRecordings(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	recs := []DisturbanceRecording{
		testRecording("fault_001"),
		testRecording("fault_002"),
	}
	if err := repo.StoreDisturbanceRecordings(ctx, "relay-1", recs); err != nil {
		t.Fatalf("StoreDisturbanceRecordings failed: %v", err)
	}

	got, err := repo.ListRecordings(ctx, "relay-1")
	if err != nil {
		t.Fatalf("ListRecordings failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d recordings, want 2", len(got))
	}
	for _, rec := range got {
		if rec.DeviceID != "relay-1" {
			t.Errorf("DeviceID = %q, want relay-1", rec.DeviceID)
		}
		if len(rec.DRFiles) != 2 {
			t.Errorf("recording %q has %d files, want 2", rec.Name, len(rec.DRFiles))
		}
	}
	if !got[0].TriggerTime.Equal(time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)) {
		t.Errorf("TriggerTime = %v, want 2026-03-14T09:26:53Z", got[0].TriggerTime)
	}
}

func TestStoreRecordingsUnknownDevice(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	err := repo.StoreDisturbanceRecordings(ctx, "nonexistent",
		[]DisturbanceRecording{testRecording("fault_001")})
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("expected ErrDeviceNotFound, got %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM disturbance_recordings").Scan(&count); err != nil {
		t.Fatalf("counting recordings: %v", err)
	}
	if count != 0 {
		t.Errorf("found %d recordings after rejected batch, want 0", count)
	}
}

func TestStoreRecordingsAtomic(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Break the DR file inserts so the batch fails mid-flight.
	if _, err := db.Exec("DROP TABLE dr_files"); err != nil {
		t.Fatalf("dropping dr_files: %v", err)
	}

	err := repo.StoreDisturbanceRecordings(ctx, "relay-1",
		[]DisturbanceRecording{testRecording("fault_001"), testRecording("fault_002")})
	if err == nil {
		t.Fatal("expected batch to fail")
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM disturbance_recordings").Scan(&count); err != nil {
		t.Fatalf("counting recordings: %v", err)
	}
	if count != 0 {
		t.Errorf("found %d recordings after failed batch, want 0", count)
	}
}

func TestStoreIEDFiles(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "A")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	files := []IEDFile{
		{FileName: "log1.txt", FileSize: 1000},
		{FileName: "log2.txt", FileSize: 2000},
	}
	if err := repo.StoreIEDFiles(ctx, "relay-1", files); err != nil {
		t.Fatalf("StoreIEDFiles failed: %v", err)
	}

	got, err := repo.ListIEDFiles(ctx, "relay-1")
	if err != nil {
		t.Fatalf("ListIEDFiles failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d files, want 2", len(got))
	}
	if got[0].DeviceID != "relay-1" {
		t.Errorf("DeviceID = %q, want relay-1", got[0].DeviceID)
	}
	if got[0].RetrievedAt.IsZero() {
		t.Error("RetrievedAt should be set on store")
	}
}

func TestListIEDFilesUnknownDevice(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.ListIEDFiles(context.Background(), "nonexistent")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got %v", err)
	}
}

func TestLoadAllEager(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "Bay 1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testDevice("relay-2", "Bay 2")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.StoreDisturbanceRecordings(ctx, "relay-1",
		[]DisturbanceRecording{testRecording("fault_001")}); err != nil {
		t.Fatalf("StoreDisturbanceRecordings failed: %v", err)
	}

	devices, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	// Ordered by name: Bay 1 first
	if devices[0].ID != "relay-1" {
		t.Fatalf("first device = %q, want relay-1", devices[0].ID)
	}
	if len(devices[0].DisturbanceRecordings) != 1 {
		t.Errorf("relay-1 has %d recordings, want 1", len(devices[0].DisturbanceRecordings))
	}
	if len(devices[0].DisturbanceRecordings[0].DRFiles) != 2 {
		t.Errorf("recording has %d files, want 2", len(devices[0].DisturbanceRecordings[0].DRFiles))
	}
	if len(devices[1].DisturbanceRecordings) != 0 {
		t.Errorf("relay-2 has %d recordings, want 0", len(devices[1].DisturbanceRecordings))
	}
}

func TestConfigurationValues(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.SetConfigurationValue(ctx, "Site/CompanyName", "Nordgrid Energy"); err != nil {
		t.Fatalf("SetConfigurationValue failed: %v", err)
	}

	// Substring match on the key fragment
	got, err := repo.GetConfigurationValue(ctx, "CompanyName")
	if err != nil {
		t.Fatalf("GetConfigurationValue failed: %v", err)
	}
	if got != "Nordgrid Energy" {
		t.Errorf("value = %q, want %q", got, "Nordgrid Energy")
	}

	// Upsert replaces
	if err := repo.SetConfigurationValue(ctx, "Site/CompanyName", "Nordgrid Energy AS"); err != nil {
		t.Fatalf("SetConfigurationValue upsert failed: %v", err)
	}
	got, err = repo.GetConfigurationValue(ctx, "CompanyName")
	if err != nil {
		t.Fatalf("GetConfigurationValue failed: %v", err)
	}
	if got != "Nordgrid Energy AS" {
		t.Errorf("value = %q, want %q", got, "Nordgrid Energy AS")
	}

	_, err = repo.GetConfigurationValue(ctx, "NoSuchKey")
	if !errors.Is(err, ErrValueNotFound) {
		t.Errorf("expected ErrValueNotFound, got %v", err)
	}
}
