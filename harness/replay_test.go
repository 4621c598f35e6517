package harness

import (
	"path/filepath"
	"testing"
)

func TestReplayLogAppendAndAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")

	log, err := OpenReplayLog(path)
	if err != nil {
		t.Fatalf("OpenReplayLog: %v", err)
	}
	defer log.Close()

	records := []CallRecord{
		{ArenaID: "arena-1", Op: "alloc", BlockIdx: 0, Size: 32},
		{ArenaID: "arena-1", Op: "realloc", BlockIdx: 0, Size: 64},
		{ArenaID: "arena-1", Op: "free", BlockIdx: 0},
	}
	for _, rec := range records {
		if err := log.Append(rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := log.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("All returned %d records, want %d", len(got), len(records))
	}
	for i, rec := range got {
		if rec.Seq != uint64(i+1) {
			t.Errorf("record %d Seq = %d, want %d", i, rec.Seq, i+1)
		}
		if rec.Op != records[i].Op || rec.Size != records[i].Size {
			t.Errorf("record %d = %+v, want Op/Size matching %+v", i, rec, records[i])
		}
	}
}

func TestReplayLogReopenPreservesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "replay.db")

	log1, err := OpenReplayLog(path)
	if err != nil {
		t.Fatalf("OpenReplayLog: %v", err)
	}
	if err := log1.Append(CallRecord{ArenaID: "a", Op: "alloc", Size: 16}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := log1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	log2, err := OpenReplayLog(path)
	if err != nil {
		t.Fatalf("reopen OpenReplayLog: %v", err)
	}
	defer log2.Close()

	got, err := log2.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("All returned %d records after reopen, want 1", len(got))
	}
}
