package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ordos-scada/ordos-core/internal/ied"
)

// DirScanner is the built-in Scanner over a spool directory.
//
// Protocol gateways that cannot speak to Ordos directly retrieve files
// from their relays and drop them into per-device subdirectories of a
// shared spool: <root>/<device-id>/<file>. The scanner treats each
// subdirectory as that device's file listing. Files are read, never
// moved or deleted; the archive's duplicate filter keeps repeat cycles
// cheap.
type DirScanner struct {
	root string
}

// NewDirScanner creates a scanner rooted at the given spool directory.
func NewDirScanner(root string) *DirScanner {
	return &DirScanner{root: root}
}

// Connect verifies the device's spool subdirectory exists. A missing
// directory means the gateway has not delivered for this device, which
// the collector reports as unreachable.
func (s *DirScanner) Connect(ctx context.Context, device *ied.Device) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(s.deviceDir(device))
	if err != nil {
		return fmt.Errorf("device spool unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("device spool %s is not a directory", s.deviceDir(device))
	}
	return nil
}

// ListFiles returns the regular files in the device's spool subdirectory.
func (s *DirScanner) ListFiles(ctx context.Context, device *ied.Device) ([]ied.FileDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.deviceDir(device))
	if err != nil {
		return nil, fmt.Errorf("listing device spool: %w", err)
	}

	var files []ied.FileDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("reading spool entry %s: %w", entry.Name(), err)
		}
		files = append(files, ied.FileDescriptor{
			FileName: entry.Name(),
			FileSize: info.Size(),
		})
	}
	return files, nil
}

// DownloadRecordings assembles disturbance recordings from COMTRADE
// members, grouped by base name. The trigger time is taken from the
// data file's modification time, which gateways preserve from the relay.
func (s *DirScanner) DownloadRecordings(ctx context.Context, device *ied.Device, files []ied.FileDescriptor) ([]ied.DisturbanceRecording, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	groups := make(map[string][]ied.FileDescriptor)
	var order []string
	for _, f := range files {
		base := strings.TrimSuffix(f.FileName, filepath.Ext(f.FileName))
		if _, seen := groups[base]; !seen {
			order = append(order, base)
		}
		groups[base] = append(groups[base], f)
	}

	recordings := make([]ied.DisturbanceRecording, 0, len(order))
	for _, base := range order {
		rec := ied.DisturbanceRecording{Name: base}
		for _, f := range groups[base] {
			info, err := os.Stat(filepath.Join(s.deviceDir(device), f.FileName))
			if err != nil {
				return nil, fmt.Errorf("reading recording file %s: %w", f.FileName, err)
			}
			if rec.TriggerTime.IsZero() || info.ModTime().Before(rec.TriggerTime) {
				rec.TriggerTime = info.ModTime().UTC()
			}
			rec.DRFiles = append(rec.DRFiles, ied.DRFile{
				FileName: f.FileName,
				FileSize: info.Size(),
				FileType: drFileType(f.FileName),
			})
		}
		recordings = append(recordings, rec)
	}
	return recordings, nil
}

// DownloadFiles builds file entries for the given descriptors, stamping
// retrieval time from the spool copy.
func (s *DirScanner) DownloadFiles(ctx context.Context, device *ied.Device, files []ied.FileDescriptor) ([]ied.IEDFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := make([]ied.IEDFile, 0, len(files))
	for _, f := range files {
		info, err := os.Stat(filepath.Join(s.deviceDir(device), f.FileName))
		if err != nil {
			return nil, fmt.Errorf("reading spool file %s: %w", f.FileName, err)
		}
		result = append(result, ied.IEDFile{
			FileName:    f.FileName,
			FileSize:    info.Size(),
			RetrievedAt: time.Now().UTC(),
		})
	}
	return result, nil
}

func (s *DirScanner) deviceDir(device *ied.Device) string {
	return filepath.Join(s.root, device.ID)
}

// drFileType maps a COMTRADE member extension to its role.
func drFileType(name string) ied.DRFileType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cfg":
		return ied.DRFileTypeConfiguration
	case ".dat":
		return ied.DRFileTypeData
	default:
		return ied.DRFileTypeAncillary
	}
}
