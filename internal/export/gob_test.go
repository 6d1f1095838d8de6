package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FlowScope/internal/model"
)

func TestGobSinkRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gob_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dnsRecord := &model.FlowRecord{
		Key: model.FlowKey{
			SrcAddr: "10.0.0.5",
			SrcPort: 33333,
			DstAddr: "8.8.8.8",
			DstPort: 53,
			Proto:   model.ProtoDNS,
		},
		StartTime:    time.Unix(1715506300, 0).UTC(),
		EndTime:      time.Unix(1715506300, 40_000_000).UTC(),
		Packets:      2,
		Bytes:        180,
		PayloadBytes: 140,
		MinTTL:       64,
		MaxTTL:       64,
		TCPFlags:     make(model.TCPFlagSet),
	}
	records := []*model.FlowRecord{sampleRecord(), dnsRecord}

	// 1. Write one snapshot.
	sink := NewGobSink(filepath.Join(tmpDir, "snapshots"))
	snapshotTime := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	if err := sink.Write(records, snapshotTime); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	// 2. Both files land in the timestamped directory.
	dir := filepath.Join(tmpDir, "snapshots", "2024-05-12_10-00-00")
	if _, err := os.Stat(filepath.Join(dir, "records.dat")); err != nil {
		t.Fatalf("Expected records.dat: %v", err)
	}
	rawSummary, err := os.ReadFile(filepath.Join(dir, "summary.json"))
	if err != nil {
		t.Fatalf("Expected summary.json: %v", err)
	}

	// 3. The summary sidecar carries the batch totals.
	var sum snapshotSummary
	if err := json.Unmarshal(rawSummary, &sum); err != nil {
		t.Fatalf("Failed to parse summary: %v", err)
	}
	if sum.TotalFlows != 2 || sum.TotalPackets != 7 || sum.TotalBytes != 930 {
		t.Errorf("Unexpected totals: %+v", sum)
	}
	if sum.ClosedFlows != 1 || sum.OpenFlows != 1 {
		t.Errorf("Unexpected closure counts: %+v", sum)
	}

	// 4. Reading the snapshot restores the records in order.
	got, err := ReadSnapshot(dir)
	if err != nil {
		t.Fatalf("ReadSnapshot failed: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("Expected %d records, got %d", len(records), len(got))
	}
	for i, rec := range got {
		want := records[i]
		if rec.Key != want.Key {
			t.Errorf("Record %d: expected key %s, got %s", i, want.Key, rec.Key)
		}
		if rec.Packets != want.Packets || rec.Bytes != want.Bytes || rec.PayloadBytes != want.PayloadBytes {
			t.Errorf("Record %d: counters did not survive the round trip", i)
		}
		if !rec.StartTime.Equal(want.StartTime) || !rec.EndTime.Equal(want.EndTime) {
			t.Errorf("Record %d: timestamps did not survive the round trip", i)
		}
		if rec.MinTTL != want.MinTTL || rec.MaxTTL != want.MaxTTL {
			t.Errorf("Record %d: TTL extrema did not survive the round trip", i)
		}
		if rec.TCPFlags.String() != want.TCPFlags.String() {
			t.Errorf("Record %d: expected flags %q, got %q", i, want.TCPFlags, rec.TCPFlags)
		}
		if rec.Closed != want.Closed {
			t.Errorf("Record %d: expected closed=%v, got %v", i, want.Closed, rec.Closed)
		}
	}
}

func TestGobSinkSkipsEmptyBatch(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gob_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	root := filepath.Join(tmpDir, "snapshots")
	sink := NewGobSink(root)
	snapshotTime := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	if err := sink.Write(nil, snapshotTime); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "2024-05-12_10-00-00")); !os.IsNotExist(err) {
		t.Error("Expected no snapshot directory for an empty batch")
	}
}

func TestReadSnapshotMissingDir(t *testing.T) {
	if _, err := ReadSnapshot("/no/such/snapshot"); err == nil {
		t.Error("Expected an error for a missing snapshot directory")
	}
}
