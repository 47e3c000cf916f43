package collector

import (
	"context"
	"path"
	"strings"

	"github.com/ordos-scada/ordos-core/internal/ied"
)

// Scanner is the protocol-side interface the collector drives. An
// implementation talks to one family of relays (IEC 61850 MMS, FTP,
// vendor serial protocols) and hides transport details entirely.
//
// All methods take the device so implementations can use its address and
// identity. Downloads receive only descriptors the collector has already
// decided are new.
type Scanner interface {
	// Connect establishes a session with the device. An error marks the
	// device unreachable for this cycle.
	Connect(ctx context.Context, device *ied.Device) error

	// ListFiles returns the files the device currently offers.
	ListFiles(ctx context.Context, device *ied.Device) ([]ied.FileDescriptor, error)

	// DownloadRecordings retrieves the given COMTRADE files and assembles
	// them into disturbance recordings with their DR files attached.
	DownloadRecordings(ctx context.Context, device *ied.Device, files []ied.FileDescriptor) ([]ied.DisturbanceRecording, error)

	// DownloadFiles retrieves the given generic files.
	DownloadFiles(ctx context.Context, device *ied.Device, files []ied.FileDescriptor) ([]ied.IEDFile, error)
}

// comtradeExtensions are the file extensions that make up a COMTRADE
// recording set (IEEE C37.111).
var comtradeExtensions = map[string]bool{
	".cfg": true,
	".dat": true,
	".hdr": true,
	".inf": true,
}

// splitComtrade partitions descriptors into COMTRADE members and plain
// files, preserving order within each group.
func splitComtrade(files []ied.FileDescriptor) (comtrade, plain []ied.FileDescriptor) {
	for _, f := range files {
		if comtradeExtensions[strings.ToLower(path.Ext(f.FileName))] {
			comtrade = append(comtrade, f)
		} else {
			plain = append(plain, f)
		}
	}
	return comtrade, plain
}
