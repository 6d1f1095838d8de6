package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"FlowScope/internal/config"
	"FlowScope/internal/model"
	"FlowScope/internal/probe"
	"FlowScope/pkg/capture"
)

func main() {
	// --- Command-Line Flag Parsing ---
	mode := flag.String("mode", "sub", "Operating mode: 'pub' to capture and publish, 'sub' to subscribe and print.")
	iface := flag.String("iface", "", "Interface to capture packets from (pub mode).")
	replay := flag.String("r", "", "Capture file to replay instead of live capture (pub mode).")
	record := flag.String("record", "", "Directory to archive captured packets as pcap (pub mode, live capture only).")
	configPath := flag.String("config", "configs/config.yaml", "Path to the configuration file.")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// --- Mode Dispatch ---
	switch *mode {
	case "pub":
		runProbe(cfg, *iface, *replay, *record)
	case "sub":
		runSubscriber(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Invalid mode: %s\n", *mode)
		flag.Usage()
		os.Exit(1)
	}
}

// runProbe captures packets, live or from a file, and publishes them to NATS.
func runProbe(cfg *config.Config, ifaceName, replayPath, recordDir string) {
	if ifaceName == "" && replayPath == "" {
		log.Println("Error: -iface or -r is required for pub mode.")
		flag.Usage()
		os.Exit(1)
	}

	pub, err := probe.NewPublisher(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer pub.Close()

	if replayPath != "" {
		replayCapture(pub, replayPath)
		return
	}
	liveCapture(pub, ifaceName, recordDir)
}

// replayCapture publishes every packet of a capture file and exits.
func replayCapture(pub *probe.Publisher, path string) {
	log.Printf("Replaying capture '%s'...", path)

	src, err := capture.OpenOffline(path)
	if err != nil {
		log.Fatalf("Failed to open capture: %v", err)
	}
	defer src.Close()

	published := 0
	for {
		pkt, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read capture: %v", err)
		}
		if err := pub.Publish(capture.Decode(pkt)); err != nil {
			log.Printf("Failed to publish packet: %v", err)
		}
		published++
		if published%1000 == 0 {
			log.Printf("%d packets published...", published)
		}
	}
	log.Printf("Replay finished, %d packets published.", published)
}

// liveCapture publishes packets from an interface until interrupted,
// optionally archiving the raw traffic to a pcap file.
func liveCapture(pub *probe.Publisher, ifaceName, recordDir string) {
	log.Printf("Starting live capture on interface: %s", ifaceName)

	src, err := capture.OpenLive(ifaceName)
	if err != nil {
		log.Fatalf("Error opening device %s: %v", ifaceName, err)
	}
	defer src.Close()

	var recorder *probe.Recorder
	if recordDir != "" {
		recorder, err = probe.NewRecorder(recordDir, src.LinkType())
		if err != nil {
			log.Fatalf("Failed to start recorder: %v", err)
		}
	}

	log.Println("Capture started successfully. Publishing packets to NATS...")

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		published := 0
		for pkt := range src.Packets() {
			if recorder != nil {
				recorder.Enqueue(pkt)
			}
			if err := pub.Publish(capture.Decode(pkt)); err != nil {
				log.Printf("Failed to publish packet: %v", err)
			}
			published++
			if published%1000 == 0 {
				log.Printf("%d packets published...", published)
			}
		}
	}()

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	if recorder != nil {
		recorder.Stop()
	}
}

// runSubscriber prints every packet arriving on the probe subject; a quick
// way to check that a probe is publishing.
func runSubscriber(cfg *config.Config) {
	log.Println("Starting fs-probe in SUBSCRIBER mode...")

	sub, err := probe.NewSubscriber(cfg.Probe)
	if err != nil {
		log.Fatalf("Failed to create subscriber: %v", err)
	}
	defer sub.Close()

	handler := func(pkt *model.Packet) {
		if !pkt.HasIP() {
			return
		}
		log.Printf("Received packet: %s -> %s, len %d", pkt.IP.SrcIP, pkt.IP.DstIP, pkt.Length)
	}

	if err := sub.Start(handler); err != nil {
		log.Fatalf("Subscriber failed to start: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
}
