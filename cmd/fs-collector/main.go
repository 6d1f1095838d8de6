package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FlowScope/internal/collect"
	"FlowScope/internal/config"
	"FlowScope/internal/export"
	"FlowScope/internal/model"
	"FlowScope/internal/probe"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	log.Println("Starting fs-collector...")

	// 1. Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Println("Configuration loaded successfully.")

	interval, err := cfg.Collector.Interval()
	if err != nil {
		log.Fatalf("Invalid collector configuration: %v", err)
	}

	// 2. Build the configured sinks
	sinks := export.BuildSinks(cfg.Sinks)
	if len(sinks) == 0 {
		log.Fatalf("No enabled sinks in config, collector has nowhere to write.")
	}

	// 3. Start the collector
	collector := collect.NewCollector(interval, cfg.Collector.SizeOfPacketChannel, sinks)
	collector.Start()

	// 4. Subscribe to the probe stream
	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	if err := sub.Start(func(pkt *model.Packet) { collector.Enqueue(pkt) }); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	// 5. Wait for a shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Detach the subscriber before stopping the collector so nothing sends
	// on the input channel after it closes.
	log.Println("Shutdown signal received, stopping collector...")
	sub.Close()
	collector.Stop()
	export.CloseSinks(sinks)
	log.Println("Shutdown complete.")
}
