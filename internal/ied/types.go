package ied

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Device represents a monitored IED (Intelligent Electronic Device).
// This matches the database schema in migrations/20260115_120000_initial_schema.up.sql.
//
// Device is the aggregate root: its disturbance recordings and generic
// files are owned by it and are removed with it (cascade delete).
type Device struct {
	// Identity
	ID        string `json:"id"`
	Name      string `json:"name"`
	IPAddress string `json:"ip_address"`

	// IsConnected reflects the outcome of the most recent contact attempt.
	// Maintained by the connectivity Tracker, best-effort.
	IsConnected bool `json:"is_connected"`

	// Owned collections. Populated only by eager-loading reads
	// (Repository.LoadAll); nil on narrow reads.
	DisturbanceRecordings []DisturbanceRecording `json:"disturbance_recordings,omitempty"`
	IEDFiles              []IEDFile              `json:"ied_files,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// String returns a short identification string for logging.
func (d *Device) String() string {
	return fmt.Sprintf("%s (%s)", d.Name, d.IPAddress)
}

// DeepCopy creates a complete independent copy of the Device.
// The owned collections are cloned so modifications to the copy do not
// affect the original. This is essential for registry snapshot isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	if d.DisturbanceRecordings != nil {
		cpy.DisturbanceRecordings = make([]DisturbanceRecording, len(d.DisturbanceRecordings))
		for i := range d.DisturbanceRecordings {
			cpy.DisturbanceRecordings[i] = *d.DisturbanceRecordings[i].DeepCopy()
		}
	}

	if d.IEDFiles != nil {
		cpy.IEDFiles = make([]IEDFile, len(d.IEDFiles))
		copy(cpy.IEDFiles, d.IEDFiles)
	}

	return &cpy
}

// DisturbanceRecording is a bundle of files captured by a device during a
// triggering event. It belongs to exactly one device and is immutable after
// ingestion; the only mutation path is deletion with its parent.
type DisturbanceRecording struct {
	ID       int64  `json:"id"`
	DeviceID string `json:"device_id"`

	Name string `json:"name"`

	// TriggerTime is when the device detected the triggering event.
	TriggerTime time.Time `json:"trigger_time"`

	// TriggerLength is the duration of the recording in seconds.
	TriggerLength float64 `json:"trigger_length"`

	// TriggerChannel is the channel that caused the trigger, if reported.
	TriggerChannel string `json:"trigger_channel,omitempty"`

	// DRFiles are the component files of the recording, in insertion order.
	DRFiles []DRFile `json:"dr_files,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DeepCopy creates an independent copy of the DisturbanceRecording.
func (r *DisturbanceRecording) DeepCopy() *DisturbanceRecording {
	if r == nil {
		return nil
	}
	cpy := *r
	if r.DRFiles != nil {
		cpy.DRFiles = make([]DRFile, len(r.DRFiles))
		copy(cpy.DRFiles, r.DRFiles)
	}
	return &cpy
}

// DRFileType classifies a component file within a disturbance recording.
type DRFileType string

// DRFile type values for the COMTRADE recording format.
const (
	DRFileTypeConfiguration DRFileType = "configuration" // .cfg
	DRFileTypeData          DRFileType = "data"          // .dat
	DRFileTypeAncillary     DRFileType = "ancillary"     // headers, information files
)

// DRFile is a single component file of a disturbance recording.
// Immutable after creation.
type DRFile struct {
	ID          int64      `json:"id"`
	RecordingID int64      `json:"recording_id"`
	FileName    string     `json:"file_name"`
	FileSize    int64      `json:"file_size"`
	FileType    DRFileType `json:"file_type"`
}

// IEDFile is a generic file retrieved from a device outside the
// disturbance-recording bundle structure. Immutable after creation.
//
// The pair (FileName, FileSize), scoped to one device, is the identity
// used by the deduplication engine.
type IEDFile struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	FileName    string    `json:"file_name"`
	FileSize    int64     `json:"file_size"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// ConfigurationValue is a global key-value setting (e.g. the installation's
// company name). Singleton per key.
type ConfigurationValue struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// FileDescriptor describes a file discovered on a physical device by the
// polling collaborator, before download. Only FileName and FileSize
// participate in deduplication; Meta is carried through unchanged for the
// protocol driver's own use (e.g. remote paths, modification stamps).
type FileDescriptor struct {
	FileName string            `json:"file_name"`
	FileSize int64             `json:"file_size"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// GenerateID creates a new unique device ID.
func GenerateID() string {
	return uuid.New().String()
}
