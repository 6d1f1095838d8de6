package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"FlowScope/internal/model"
)

// sampleRecord builds one fully populated HTTPS record: 5 packets, 750
// bytes, closed, alive for 250ms.
func sampleRecord() *model.FlowRecord {
	flags := make(model.TCPFlagSet)
	flags.Add(model.TCPFlagSYN)
	flags.Add(model.TCPFlagSYN | model.TCPFlagACK)
	flags.Add(model.TCPFlagACK)

	return &model.FlowRecord{
		Key: model.FlowKey{
			SrcAddr: "10.0.0.5",
			SrcPort: 52100,
			DstAddr: "93.184.216.34",
			DstPort: 443,
			Proto:   model.ProtoHTTPS,
		},
		StartTime:    time.Unix(1715506200, 0).UTC(),
		EndTime:      time.Unix(1715506200, 250000000).UTC(),
		Packets:      5,
		Bytes:        750,
		PayloadBytes: 650,
		MinTTL:       57,
		MaxTTL:       64,
		TCPFlags:     flags,
		Closed:       true,
	}
}

func TestWriteCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "start_time,end_time,source_address,source_port,destination_address,destination_port," +
		"protocol_label,packet_count,total_bytes,payload_bytes,average_packet_size,duration_seconds," +
		"min_ttl,max_ttl,observed_tcp_flags,closed"
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected only the header line, got %d lines", len(lines))
	}
	if lines[0] != want {
		t.Errorf("Unexpected header:\n  got  %s\n  want %s", lines[0], want)
	}
}

func TestWriteCSVRow(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*model.FlowRecord{sampleRecord()}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected header + 1 row, got %d rows", len(rows))
	}

	row := rows[1]
	want := []string{
		"1715506200.0000", "1715506200.2500",
		"10.0.0.5", "52100", "93.184.216.34", "443",
		"HTTPS", "5", "750", "650",
		"150.00", "0.2500", "57", "64",
		"S|A|SA", "true",
	}
	if len(row) != len(want) {
		t.Fatalf("Expected %d columns, got %d", len(want), len(row))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("Column %s: expected %q, got %q", csvHeader[i], want[i], row[i])
		}
	}
}

func TestUnixSeconds(t *testing.T) {
	if got := unixSeconds(time.Time{}); got != "0.0000" {
		t.Errorf("Expected the zero time to render as 0.0000, got %q", got)
	}
	if got := unixSeconds(time.Unix(1715506200, 50_000_000).UTC()); got != "1715506200.0500" {
		t.Errorf("Expected 1715506200.0500, got %q", got)
	}
}

func TestExportCSVCreatesParents(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "csv_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "nested", "out", "flows.csv")
	if err := ExportCSV(path, nil); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read exported file: %v", err)
	}
	if !strings.HasPrefix(string(data), "start_time,") {
		t.Error("Expected the export to start with the header row")
	}
}

func TestCSVSinkWritesTimestampedFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "csv_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	sink, err := NewCSVSink(filepath.Join(tmpDir, "csv"))
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	defer sink.Close()

	snapshotTime := time.Date(2024, 5, 12, 10, 0, 0, 0, time.UTC)
	if err := sink.Write([]*model.FlowRecord{sampleRecord()}, snapshotTime); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	path := filepath.Join(tmpDir, "csv", "flows_2024-05-12_10-00-00.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected a timestamped csv file: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Errorf("Expected header + 1 row, got %d lines", len(lines))
	}
}

func TestCSVSinkSkipsEmptyBatch(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "csv_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	dir := filepath.Join(tmpDir, "csv")
	sink, err := NewCSVSink(dir)
	if err != nil {
		t.Fatalf("NewCSVSink failed: %v", err)
	}
	if err := sink.Write(nil, time.Now()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list sink dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected no files for an empty batch, found %d", len(entries))
	}
}
