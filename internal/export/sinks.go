// Package export persists finalized flow records: CSV files, gob snapshots,
// ClickHouse batches, and the console statistics report.
package export

import (
	"log"

	"FlowScope/internal/config"
	"FlowScope/internal/model"
)

// snapshotTimeLayout names snapshot files and directories; it sorts
// lexicographically in time order.
const snapshotTimeLayout = "2006-01-02_15-04-05"

// BuildSinks constructs every enabled sink from the configuration. A sink
// that fails to build is skipped with a warning rather than aborting the
// run, so an unreachable ClickHouse never blocks CSV output.
func BuildSinks(defs []config.SinkDef) []model.FlowSink {
	sinks := make([]model.FlowSink, 0, len(defs))
	for _, def := range defs {
		if !def.Enabled {
			continue
		}

		var sink model.FlowSink
		var err error
		switch def.Type {
		case "csv":
			sink, err = NewCSVSink(def.CSV.Dir)
		case "gob":
			sink = NewGobSink(def.Gob.RootPath)
		case "clickhouse":
			sink, err = NewClickHouseSink(def.ClickHouse)
		default:
			log.Printf("Warning: unknown sink type '%s' in config, skipping.", def.Type)
			continue
		}
		if err != nil {
			log.Printf("Warning: failed to create sink type '%s': %v, skipping.", def.Type, err)
			continue
		}
		sinks = append(sinks, sink)
	}
	return sinks
}

// CloseSinks closes every sink, logging failures instead of propagating
// them; shutdown should not stop at the first broken sink.
func CloseSinks(sinks []model.FlowSink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Printf("Warning: failed to close sink: %v", err)
		}
	}
}
