package ied

import (
	"context"
	"testing"
)

func setupDedup(t *testing.T) (*Deduplicator, *SQLiteRepository, *captureLogger) {
	t.Helper()
	repo := NewSQLiteRepository(setupTestDB(t))
	log := &captureLogger{}
	return NewDeduplicator(repo, log), repo, log
}

func TestFilterNew(t *testing.T) {
	dedup, repo, _ := setupDedup(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "Bay 1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.StoreIEDFiles(ctx, "relay-1", []IEDFile{
		{FileName: "log1.txt", FileSize: 1000},
		{FileName: "log2.txt", FileSize: 2000},
	}); err != nil {
		t.Fatalf("StoreIEDFiles failed: %v", err)
	}

	tests := []struct {
		name       string
		candidates []FileDescriptor
		want       []string
	}{
		{
			name: "same name same size is a duplicate",
			candidates: []FileDescriptor{
				{FileName: "log1.txt", FileSize: 1000},
			},
			want: nil,
		},
		{
			name: "same name different size is new",
			candidates: []FileDescriptor{
				{FileName: "log1.txt", FileSize: 1001},
			},
			want: []string{"log1.txt"},
		},
		{
			name: "different name same size is new",
			candidates: []FileDescriptor{
				{FileName: "log3.txt", FileSize: 1000},
			},
			want: []string{"log3.txt"},
		},
		{
			name: "mixed listing keeps order of new files",
			candidates: []FileDescriptor{
				{FileName: "log1.txt", FileSize: 1000},
				{FileName: "log2.txt", FileSize: 2100},
				{FileName: "log3.txt", FileSize: 500},
				{FileName: "log2.txt", FileSize: 2000},
			},
			want: []string{"log2.txt", "log3.txt"},
		},
		{
			name:       "empty listing",
			candidates: nil,
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dedup.FilterNew(ctx, "relay-1", tt.candidates)
			if err != nil {
				t.Fatalf("FilterNew failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d files, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].FileName != tt.want[i] {
					t.Errorf("file[%d] = %q, want %q", i, got[i].FileName, tt.want[i])
				}
			}
		})
	}
}

func TestFilterNewFreshDevice(t *testing.T) {
	dedup, repo, _ := setupDedup(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "Bay 1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	candidates := []FileDescriptor{
		{FileName: "a.cfg", FileSize: 10},
		{FileName: "b.dat", FileSize: 20},
	}
	got, err := dedup.FilterNew(ctx, "relay-1", candidates)
	if err != nil {
		t.Fatalf("FilterNew failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d files for device with empty archive, want 2", len(got))
	}
}

func TestFilterNewUnknownDevice(t *testing.T) {
	dedup, _, log := setupDedup(t)

	got, err := dedup.FilterNew(context.Background(), "nonexistent", []FileDescriptor{
		{FileName: "a.cfg", FileSize: 10},
	})
	if err != nil {
		t.Fatalf("FilterNew for unknown device errored: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d files for unknown device, want 0", len(got))
	}
	if len(log.warns) == 0 {
		t.Error("expected a warning for unknown device")
	}
}

func TestFilterNewScopedPerDevice(t *testing.T) {
	dedup, repo, _ := setupDedup(t)
	ctx := context.Background()

	if err := repo.Create(ctx, testDevice("relay-1", "Bay 1")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.Create(ctx, testDevice("relay-2", "Bay 2")); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := repo.StoreIEDFiles(ctx, "relay-1", []IEDFile{
		{FileName: "events.log", FileSize: 4096},
	}); err != nil {
		t.Fatalf("StoreIEDFiles failed: %v", err)
	}

	// relay-2 has no copy of events.log, so it is new there
	got, err := dedup.FilterNew(ctx, "relay-2", []FileDescriptor{
		{FileName: "events.log", FileSize: 4096},
	})
	if err != nil {
		t.Fatalf("FilterNew failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d files for relay-2, want 1", len(got))
	}
}
