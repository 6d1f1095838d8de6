package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"FlowScope/internal/config"
	"FlowScope/internal/engine/flowtable"
	"FlowScope/internal/export"
	"FlowScope/pkg/capture"
)

func main() {
	// 1. Parse command-line flags
	pcapPath := flag.String("r", "", "Capture file to analyze, pcap or pcapng (required).")
	csvPath := flag.String("csv", "", "Optional output path for the CSV export.")
	configPath := flag.String("config", "", "Optional config file; enabled sinks receive the records.")
	flag.Parse()

	if *pcapPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: flowscope -r <capture.pcap> [-csv flows.csv] [-config configs/config.yaml]")
		flag.Usage()
		os.Exit(1)
	}

	// 2. Load and decode the whole capture
	log.Printf("Reading capture: %s", *pcapPath)
	packets, err := capture.Load(*pcapPath)
	if err != nil {
		log.Fatalf("Failed to read capture: %v", err)
	}
	log.Printf("Decoded %d packets.", len(packets))

	// 3. Aggregate packets into flow records
	table := flowtable.New()
	for _, pkt := range packets {
		table.Ingest(pkt)
	}
	records := table.Finalize()
	if n := table.Skipped(); n > 0 {
		log.Printf("Skipped %d packets without an IP layer.", n)
	}

	// 4. Derive and print statistics
	summary := flowtable.Summarize(records)
	export.WriteReport(os.Stdout, summary)

	// 5. Optional CSV export
	if *csvPath != "" {
		if err := export.ExportCSV(*csvPath, records); err != nil {
			log.Fatalf("Failed to export CSV: %v", err)
		}
		log.Printf("CSV exported to: %s", *csvPath)
	}

	// 6. Push the batch to any sinks enabled in the config
	if *configPath != "" {
		cfg, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		sinks := export.BuildSinks(cfg.Sinks)
		snapshotTime := time.Now()
		for _, sink := range sinks {
			if err := sink.Write(records, snapshotTime); err != nil {
				log.Printf("Error writing to sink: %v", err)
			}
		}
		export.CloseSinks(sinks)
	}
}
