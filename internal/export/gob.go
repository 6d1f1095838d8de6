package export

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"FlowScope/internal/engine/flowtable"
	"FlowScope/internal/model"
)

// snapshotSummary is the sidecar metadata written next to each gob snapshot.
type snapshotSummary struct {
	TotalFlows   int    `json:"total_flows"`
	TotalPackets uint64 `json:"total_packets"`
	TotalBytes   uint64 `json:"total_bytes"`
	ClosedFlows  int    `json:"closed_flows"`
	OpenFlows    int    `json:"open_flows"`
	Timestamp    string `json:"timestamp"`
}

// GobSink writes each batch under a timestamped directory: records.dat holds
// the gob-encoded records, summary.json the batch totals. It implements the
// model.FlowSink interface.
type GobSink struct {
	rootPath string
}

// NewGobSink creates a snapshot sink rooted at rootPath.
func NewGobSink(rootPath string) *GobSink {
	return &GobSink{rootPath: rootPath}
}

// Write serializes one batch to disk. Empty batches are skipped.
func (s *GobSink) Write(records []*model.FlowRecord, snapshotTime time.Time) error {
	if len(records) == 0 {
		return nil
	}

	// 1. Create the timestamped snapshot directory.
	dir := filepath.Join(s.rootPath, snapshotTime.Format(snapshotTimeLayout))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	// 2. Encode the record list.
	recPath := filepath.Join(dir, "records.dat")
	file, err := os.Create(recPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file '%s': %w", recPath, err)
	}
	defer file.Close()
	if err := gob.NewEncoder(file).Encode(records); err != nil {
		return fmt.Errorf("failed to encode records to gob for file '%s': %w", recPath, err)
	}

	// 3. Write the summary sidecar.
	sum := flowtable.Summarize(records)
	summary := snapshotSummary{
		TotalFlows:   sum.Flows,
		TotalPackets: sum.Packets,
		TotalBytes:   sum.Bytes,
		ClosedFlows:  sum.ClosedFlows,
		OpenFlows:    sum.OpenFlows,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	sumPath := filepath.Join(dir, "summary.json")
	summaryFile, err := os.Create(sumPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer summaryFile.Close()
	jsonEncoder := json.NewEncoder(summaryFile)
	jsonEncoder.SetIndent("", "  ")
	if err := jsonEncoder.Encode(summary); err != nil {
		return fmt.Errorf("failed to encode summary to json: %w", err)
	}

	return nil
}

// Close implements model.FlowSink; snapshots are self-contained.
func (s *GobSink) Close() error { return nil }

// ReadSnapshot loads the records of one snapshot directory back into memory,
// the inverse of Write.
func ReadSnapshot(dir string) ([]*model.FlowRecord, error) {
	recPath := filepath.Join(dir, "records.dat")
	file, err := os.Open(recPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot file '%s': %w", recPath, err)
	}
	defer file.Close()

	var records []*model.FlowRecord
	if err := gob.NewDecoder(file).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot file '%s': %w", recPath, err)
	}
	return records, nil
}
