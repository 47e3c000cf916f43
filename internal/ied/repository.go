package ied

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for IED persistence operations.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
//
// Read methods return detached values: mutating a returned struct has no
// persisted effect. Write methods each run as a single unit of work and
// commit before returning.
type Repository interface {
	// GetByID retrieves a device by its unique identifier, without its
	// owned collections. Returns ErrDeviceNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Device, error)

	// LoadAll retrieves every device with its disturbance-recording
	// history (including DR files) eagerly populated, as detached copies.
	LoadAll(ctx context.Context) ([]Device, error)

	// Create inserts a new device.
	// Returns ErrDeviceExists if a device with the same ID already exists.
	Create(ctx context.Context, device *Device) error

	// Delete removes a device by ID. Its recordings and files are removed
	// with it (cascade). Returns ErrDeviceNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// SetConnected updates only the connected flag of a device as a
	// single-row transaction. Returns found=false (and no error) when the
	// device does not exist.
	SetConnected(ctx context.Context, id string, connected bool) (found bool, err error)

	// ListIEDFiles retrieves the generic files stored for a device.
	// Returns ErrDeviceNotFound if the device does not exist.
	ListIEDFiles(ctx context.Context, deviceID string) ([]IEDFile, error)

	// ListRecordings retrieves the disturbance recordings stored for a
	// device, with their DR files. Returns ErrDeviceNotFound if the
	// device does not exist.
	ListRecordings(ctx context.Context, deviceID string) ([]DisturbanceRecording, error)

	// StoreDisturbanceRecordings appends a batch of recordings (with
	// their DR files) to a device in one transaction. All-or-nothing:
	// on any failure no rows from the batch are persisted.
	// Returns ErrDeviceNotFound, without side effects, if the device
	// does not exist.
	StoreDisturbanceRecordings(ctx context.Context, deviceID string, recordings []DisturbanceRecording) error

	// StoreIEDFiles appends a batch of generic files to a device in one
	// transaction, with the same all-or-nothing guarantee as
	// StoreDisturbanceRecordings.
	StoreIEDFiles(ctx context.Context, deviceID string, files []IEDFile) error

	// GetConfigurationValue returns the value of the first configuration
	// entry whose id contains key. Returns ErrValueNotFound if none match.
	GetConfigurationValue(ctx context.Context, key string) (string, error)

	// SetConfigurationValue creates or replaces a configuration entry.
	SetConfigurationValue(ctx context.Context, id, value string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection with foreign keys on.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetByID retrieves a device by its unique identifier.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	query := `
		SELECT id, name, ip_address, is_connected, created_at, updated_at
		FROM devices
		WHERE id = ?`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("querying device by id: %w", err)
	}
	return device, nil
}

// LoadAll retrieves every device with its disturbance-recording history.
//
// The result is assembled from ordered per-table queries (devices,
// recordings, DR files, IED files) stitched in memory, so the call holds no
// transaction or lock beyond each read.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]Device, error) {
	devices, err := r.queryDevices(ctx, `
		SELECT id, name, ip_address, is_connected, created_at, updated_at
		FROM devices
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading devices: %w", ErrStoreUnavailable, err)
	}
	if len(devices) == 0 {
		return devices, nil
	}

	recordings, err := r.queryRecordings(ctx, `
		SELECT id, device_id, name, trigger_time, trigger_length, trigger_channel, created_at
		FROM disturbance_recordings
		ORDER BY device_id, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading recordings: %w", ErrStoreUnavailable, err)
	}

	if err := r.attachDRFiles(ctx, recordings); err != nil {
		return nil, fmt.Errorf("%w: loading recording files: %w", ErrStoreUnavailable, err)
	}

	files, err := r.queryIEDFiles(ctx, `
		SELECT id, device_id, file_name, file_size, retrieved_at
		FROM ied_files
		ORDER BY device_id, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: loading ied files: %w", ErrStoreUnavailable, err)
	}

	// Stitch owned collections onto their devices
	recsByDevice := make(map[string][]DisturbanceRecording, len(devices))
	for _, rec := range recordings {
		recsByDevice[rec.DeviceID] = append(recsByDevice[rec.DeviceID], rec)
	}
	filesByDevice := make(map[string][]IEDFile, len(devices))
	for _, f := range files {
		filesByDevice[f.DeviceID] = append(filesByDevice[f.DeviceID], f)
	}
	for i := range devices {
		devices[i].DisturbanceRecordings = recsByDevice[devices[i].ID]
		devices[i].IEDFiles = filesByDevice[devices[i].ID]
	}

	return devices, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, device *Device) error {
	if device.ID == "" || device.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrInvalidDevice)
	}

	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now

	query := `
		INSERT INTO devices (id, name, ip_address, is_connected, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.Name,
		device.IPAddress,
		boolToInt(device.IsConnected),
		device.CreatedAt.Format(time.RFC3339),
		device.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting device: %w", err)
	}

	return nil
}

// Delete removes a device by ID. Recordings and files cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// SetConnected updates only the connected flag of a device.
// This is a narrow single-row update: it never touches the owned
// collections, so connectivity bookkeeping stays cheap regardless of how
// much history a device has accumulated.
func (r *SQLiteRepository) SetConnected(ctx context.Context, id string, connected bool) (bool, error) {
	query := `
		UPDATE devices
		SET is_connected = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		boolToInt(connected),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("updating connected flag: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListIEDFiles retrieves the generic files stored for a device.
func (r *SQLiteRepository) ListIEDFiles(ctx context.Context, deviceID string) ([]IEDFile, error) {
	exists, err := r.exists(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrDeviceNotFound
	}

	files, err := r.queryIEDFiles(ctx, `
		SELECT id, device_id, file_name, file_size, retrieved_at
		FROM ied_files
		WHERE device_id = ?
		ORDER BY id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying ied files: %w", err)
	}
	return files, nil
}

// ListRecordings retrieves the disturbance recordings stored for a device.
func (r *SQLiteRepository) ListRecordings(ctx context.Context, deviceID string) ([]DisturbanceRecording, error) {
	exists, err := r.exists(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrDeviceNotFound
	}

	recordings, err := r.queryRecordings(ctx, `
		SELECT id, device_id, name, trigger_time, trigger_length, trigger_channel, created_at
		FROM disturbance_recordings
		WHERE device_id = ?
		ORDER BY id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying recordings: %w", err)
	}

	if err := r.attachDRFiles(ctx, recordings); err != nil {
		return nil, fmt.Errorf("loading recording files: %w", err)
	}
	return recordings, nil
}

// StoreDisturbanceRecordings appends a batch of recordings to a device.
//
// The whole batch is one transaction: the device lookup, every recording
// insert, and every DR file insert either all commit or all roll back.
// No uniqueness check happens here - deduplication is the filter's job,
// performed before download.
func (r *SQLiteRepository) StoreDisturbanceRecordings(ctx context.Context, deviceID string, recordings []DisturbanceRecording) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := deviceExistsTx(ctx, tx, deviceID); err != nil {
		return err
	}

	for i := range recordings {
		rec := &recordings[i]
		rec.DeviceID = deviceID
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO disturbance_recordings
				(device_id, name, trigger_time, trigger_length, trigger_channel, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			rec.DeviceID,
			rec.Name,
			rec.TriggerTime.UTC().Format(time.RFC3339),
			rec.TriggerLength,
			nullableString(rec.TriggerChannel),
			rec.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting recording %q: %w", rec.Name, err)
		}

		recID, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading recording id: %w", err)
		}
		rec.ID = recID

		for j := range rec.DRFiles {
			f := &rec.DRFiles[j]
			f.RecordingID = recID
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO dr_files (recording_id, file_name, file_size, file_type)
				VALUES (?, ?, ?, ?)`,
				f.RecordingID, f.FileName, f.FileSize, string(f.FileType),
			); err != nil {
				return fmt.Errorf("inserting recording file %q: %w", f.FileName, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing recordings batch: %w", err)
	}
	return nil
}

// StoreIEDFiles appends a batch of generic files to a device.
// Same transactional contract as StoreDisturbanceRecordings.
func (r *SQLiteRepository) StoreIEDFiles(ctx context.Context, deviceID string, files []IEDFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if err := deviceExistsTx(ctx, tx, deviceID); err != nil {
		return err
	}

	for i := range files {
		f := &files[i]
		f.DeviceID = deviceID
		if f.RetrievedAt.IsZero() {
			f.RetrievedAt = time.Now().UTC()
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO ied_files (device_id, file_name, file_size, retrieved_at)
			VALUES (?, ?, ?, ?)`,
			f.DeviceID,
			f.FileName,
			f.FileSize,
			f.RetrievedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting ied file %q: %w", f.FileName, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading ied file id: %w", err)
		}
		f.ID = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing files batch: %w", err)
	}
	return nil
}

// GetConfigurationValue returns the first configuration value whose id
// contains key. Substring matching mirrors how installation settings are
// keyed (e.g. "CompanyName" matches "Site/CompanyName").
func (r *SQLiteRepository) GetConfigurationValue(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM configuration_values WHERE id LIKE ? ORDER BY id LIMIT 1",
		"%"+key+"%",
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrValueNotFound
		}
		return "", fmt.Errorf("querying configuration value: %w", err)
	}
	return value, nil
}

// SetConfigurationValue creates or replaces a configuration entry.
func (r *SQLiteRepository) SetConfigurationValue(ctx context.Context, id, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO configuration_values (id, value) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value`,
		id, value,
	)
	if err != nil {
		return fmt.Errorf("storing configuration value: %w", err)
	}
	return nil
}

// queryDevices executes a device query and scans the results.
func (r *SQLiteRepository) queryDevices(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning device: %w", err)
		}
		devices = append(devices, *device)
	}

	return devices, rows.Err()
}

// queryRecordings executes a recordings query and scans the results.
func (r *SQLiteRepository) queryRecordings(ctx context.Context, query string, args ...any) ([]DisturbanceRecording, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recordings []DisturbanceRecording
	for rows.Next() {
		var rec DisturbanceRecording
		var triggerTime, createdAt string
		var triggerChannel sql.NullString
		if err := rows.Scan(&rec.ID, &rec.DeviceID, &rec.Name,
			&triggerTime, &rec.TriggerLength, &triggerChannel, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning recording: %w", err)
		}
		rec.TriggerTime, _ = time.Parse(time.RFC3339, triggerTime) //nolint:errcheck // Format is controlled
		rec.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)     //nolint:errcheck // Format is controlled
		if triggerChannel.Valid {
			rec.TriggerChannel = triggerChannel.String
		}
		recordings = append(recordings, rec)
	}

	return recordings, rows.Err()
}

// queryIEDFiles executes an ied_files query and scans the results.
func (r *SQLiteRepository) queryIEDFiles(ctx context.Context, query string, args ...any) ([]IEDFile, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []IEDFile
	for rows.Next() {
		var f IEDFile
		var retrievedAt string
		if err := rows.Scan(&f.ID, &f.DeviceID, &f.FileName, &f.FileSize, &retrievedAt); err != nil {
			return nil, fmt.Errorf("scanning ied file: %w", err)
		}
		f.RetrievedAt, _ = time.Parse(time.RFC3339, retrievedAt) //nolint:errcheck // Format is controlled
		files = append(files, f)
	}

	return files, rows.Err()
}

// attachDRFiles loads and attaches the DR files for each recording in place.
func (r *SQLiteRepository) attachDRFiles(ctx context.Context, recordings []DisturbanceRecording) error {
	if len(recordings) == 0 {
		return nil
	}

	index := make(map[int64]*DisturbanceRecording, len(recordings))
	ids := make([]string, 0, len(recordings))
	args := make([]any, 0, len(recordings))
	for i := range recordings {
		index[recordings[i].ID] = &recordings[i]
		ids = append(ids, "?")
		args = append(args, recordings[i].ID)
	}

	query := fmt.Sprintf(`
		SELECT id, recording_id, file_name, file_size, file_type
		FROM dr_files
		WHERE recording_id IN (%s)
		ORDER BY id`, strings.Join(ids, ","))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var f DRFile
		var fileType string
		if err := rows.Scan(&f.ID, &f.RecordingID, &f.FileName, &f.FileSize, &fileType); err != nil {
			return fmt.Errorf("scanning dr file: %w", err)
		}
		f.FileType = DRFileType(fileType)
		if rec, ok := index[f.RecordingID]; ok {
			rec.DRFiles = append(rec.DRFiles, f)
		}
	}

	return rows.Err()
}

// exists checks if a device with the given ID exists.
func (r *SQLiteRepository) exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM devices WHERE id = ?", id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking device exists: %w", err)
	}
	return count > 0, nil
}

// deviceExistsTx verifies a device exists inside a write transaction, so
// ingestion observes a consistent view of the device row.
func deviceExistsTx(ctx context.Context, tx *sql.Tx, id string) error {
	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM devices WHERE id = ?", id).Scan(&count); err != nil {
		return fmt.Errorf("checking device exists: %w", err)
	}
	if count == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// rowScanner is an interface that sql.Row and sql.Rows both implement.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device row without its owned collections.
func scanDevice(scanner rowScanner) (*Device, error) {
	var d Device
	var isConnected int
	var createdAt, updatedAt string

	err := scanner.Scan(&d.ID, &d.Name, &d.IPAddress, &isConnected, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	d.IsConnected = isConnected != 0

	var parseErr error
	d.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	d.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &d, nil
}

// nullableString returns a sql.NullString for optional string fields.
func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a boolean to 0/1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueConstraintError checks if an error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
