package model

import "time"

// FlowSink receives the finalized records of one aggregation run (or one
// collector snapshot). Implementations must tolerate being called with the
// same batch other sinks received; records are read-only by contract.
type FlowSink interface {
	// Write persists one batch. snapshotTime identifies the batch and is
	// used for file/table naming.
	Write(records []*FlowRecord, snapshotTime time.Time) error

	// Close releases any underlying resources.
	Close() error
}
