package collector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ordos-scada/ordos-core/internal/ied"
)

func writeSpoolFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
		t.Fatalf("writing spool file %s: %v", name, err)
	}
}

func TestDirScanner(t *testing.T) {
	root := t.TempDir()
	deviceDir := filepath.Join(root, "relay-1")
	if err := os.MkdirAll(deviceDir, 0o750); err != nil {
		t.Fatalf("creating device dir: %v", err)
	}

	writeSpoolFile(t, deviceDir, "fault_001.cfg", "station,relay-1\n")
	writeSpoolFile(t, deviceDir, "fault_001.dat", "0001,42\n0002,43\n")
	writeSpoolFile(t, deviceDir, "events.log", "event log contents")

	scanner := NewDirScanner(root)
	dev := &ied.Device{ID: "relay-1", Name: "Bay 1"}
	ctx := context.Background()

	if err := scanner.Connect(ctx, dev); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	files, err := scanner.ListFiles(ctx, dev)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}

	comtrade, plain := splitComtrade(files)
	if len(comtrade) != 2 || len(plain) != 1 {
		t.Fatalf("split = %d/%d, want 2/1", len(comtrade), len(plain))
	}

	recordings, err := scanner.DownloadRecordings(ctx, dev, comtrade)
	if err != nil {
		t.Fatalf("DownloadRecordings failed: %v", err)
	}
	if len(recordings) != 1 {
		t.Fatalf("got %d recordings, want 1", len(recordings))
	}
	rec := recordings[0]
	if rec.Name != "fault_001" {
		t.Errorf("recording name = %q, want fault_001", rec.Name)
	}
	if len(rec.DRFiles) != 2 {
		t.Fatalf("recording has %d files, want 2", len(rec.DRFiles))
	}
	types := map[string]ied.DRFileType{}
	for _, f := range rec.DRFiles {
		types[f.FileName] = f.FileType
	}
	if types["fault_001.cfg"] != ied.DRFileTypeConfiguration {
		t.Errorf("cfg file type = %q", types["fault_001.cfg"])
	}
	if types["fault_001.dat"] != ied.DRFileTypeData {
		t.Errorf("dat file type = %q", types["fault_001.dat"])
	}
	if rec.TriggerTime.IsZero() {
		t.Error("trigger time not set")
	}

	downloaded, err := scanner.DownloadFiles(ctx, dev, plain)
	if err != nil {
		t.Fatalf("DownloadFiles failed: %v", err)
	}
	if len(downloaded) != 1 {
		t.Fatalf("got %d downloaded files, want 1", len(downloaded))
	}
	if downloaded[0].FileName != "events.log" {
		t.Errorf("file name = %q", downloaded[0].FileName)
	}
	if downloaded[0].FileSize != int64(len("event log contents")) {
		t.Errorf("file size = %d", downloaded[0].FileSize)
	}
}

func TestDirScannerMissingDevice(t *testing.T) {
	scanner := NewDirScanner(t.TempDir())
	dev := &ied.Device{ID: "relay-9", Name: "Absent"}

	if err := scanner.Connect(context.Background(), dev); err == nil {
		t.Error("expected error for missing spool directory")
	}
}
