// snapana inspects one gob snapshot directory written by the collector:
// it lists the decoded records and re-derives the statistics report.
package main

import (
	"fmt"
	"log"
	"os"

	"FlowScope/internal/engine/flowtable"
	"FlowScope/internal/export"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts/snapana/main.go <snapshot_dir>")
		os.Exit(1)
	}
	snapshotDir := os.Args[1]

	records, err := export.ReadSnapshot(snapshotDir)
	if err != nil {
		log.Fatalf("Failed to read snapshot: %v", err)
	}

	fmt.Printf("Decoded %d flow records from %s:\n\n", len(records), snapshotDir)
	for _, rec := range records {
		fmt.Printf("  %s  packets=%d bytes=%d closed=%v\n", rec.Key, rec.Packets, rec.Bytes, rec.Closed)
	}
	fmt.Println()

	export.WriteReport(os.Stdout, flowtable.Summarize(records))
}
