package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"FlowScope/internal/model"
)

// csvHeader is the column order of every CSV export. Downstream readers key
// on these names, so the order is part of the format.
var csvHeader = []string{
	"start_time", "end_time",
	"source_address", "source_port", "destination_address", "destination_port",
	"protocol_label", "packet_count", "total_bytes", "payload_bytes",
	"average_packet_size", "duration_seconds", "min_ttl", "max_ttl",
	"observed_tcp_flags", "closed",
}

// WriteCSV renders records to w with a header row, one record per line, in
// the order given.
func WriteCSV(w io.Writer, records []*model.FlowRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(csvRow(rec)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportCSV writes records to a file at path, creating parent directories as
// needed. An empty record list still produces the header line.
func ExportCSV(path string, records []*model.FlowRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory '%s': %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file '%s': %w", path, err)
	}
	defer f.Close()
	return WriteCSV(f, records)
}

func csvRow(rec *model.FlowRecord) []string {
	return []string{
		unixSeconds(rec.StartTime),
		unixSeconds(rec.EndTime),
		rec.Key.SrcAddr,
		strconv.FormatUint(uint64(rec.Key.SrcPort), 10),
		rec.Key.DstAddr,
		strconv.FormatUint(uint64(rec.Key.DstPort), 10),
		string(rec.Key.Proto),
		strconv.FormatUint(rec.Packets, 10),
		strconv.FormatUint(rec.Bytes, 10),
		strconv.FormatUint(rec.PayloadBytes, 10),
		strconv.FormatFloat(rec.AvgPacketSize(), 'f', 2, 64),
		strconv.FormatFloat(rec.Duration(), 'f', 4, 64),
		strconv.FormatUint(uint64(rec.MinTTL), 10),
		strconv.FormatUint(uint64(rec.MaxTTL), 10),
		rec.TCPFlags.String(),
		strconv.FormatBool(rec.Closed),
	}
}

// unixSeconds renders a timestamp as fractional unix seconds with four
// decimal places. The zero time renders as 0.0000.
func unixSeconds(t time.Time) string {
	if t.IsZero() {
		return "0.0000"
	}
	v := float64(t.Unix()) + float64(t.Nanosecond())/1e9
	return strconv.FormatFloat(v, 'f', 4, 64)
}

// CSVSink writes each batch as a standalone timestamped CSV file under one
// directory. It implements the model.FlowSink interface.
type CSVSink struct {
	dir string
}

// NewCSVSink creates the output directory up front so a bad path fails at
// startup instead of at the first flush.
func NewCSVSink(dir string) (*CSVSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create csv directory '%s': %w", dir, err)
	}
	return &CSVSink{dir: dir}, nil
}

// Write stores one batch as flows_<timestamp>.csv. Empty batches are
// skipped.
func (s *CSVSink) Write(records []*model.FlowRecord, snapshotTime time.Time) error {
	if len(records) == 0 {
		return nil
	}
	path := filepath.Join(s.dir, fmt.Sprintf("flows_%s.csv", snapshotTime.Format(snapshotTimeLayout)))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create csv file '%s': %w", path, err)
	}
	defer f.Close()
	return WriteCSV(f, records)
}

// Close implements model.FlowSink; nothing is held open between batches.
func (s *CSVSink) Close() error { return nil }
