package main

import (
	"flag"
	"fmt"
	"io"
	"log"

	"FlowScope/internal/model"
	"FlowScope/pkg/capture"
)

// Dumps the decoded view of a capture file, one line per packet, for
// checking what the flow engine would actually see.
func main() {
	limit := flag.Int("n", 20, "Maximum number of packets to print (0 for all).")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: go run ./scripts/capdump/main.go [-n count] <path_to_capture_file>")
		return
	}

	src, err := capture.OpenOffline(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()

	count := 0
	for {
		raw, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}

		count++
		p := capture.Decode(raw)
		fmt.Printf("==== Packet %d ====\n", count)
		fmt.Printf("  time=%s len=%d\n", p.Timestamp.Format("15:04:05.000000"), p.Length)
		switch {
		case !p.HasIP():
			fmt.Println("  no network layer")
		case p.TCP != nil:
			fmt.Printf("  %s:%d -> %s:%d TCP [%s] ttl=%d\n",
				p.IP.SrcIP, p.TCP.SrcPort, p.IP.DstIP, p.TCP.DstPort,
				model.FormatTCPFlags(p.TCP.Flags), p.IP.TTL)
		case p.UDP != nil:
			fmt.Printf("  %s:%d -> %s:%d UDP ttl=%d\n",
				p.IP.SrcIP, p.UDP.SrcPort, p.IP.DstIP, p.UDP.DstPort, p.IP.TTL)
		case p.ICMP:
			fmt.Printf("  %s -> %s ICMP ttl=%d\n", p.IP.SrcIP, p.IP.DstIP, p.IP.TTL)
		default:
			fmt.Printf("  %s -> %s proto=%d ttl=%d\n", p.IP.SrcIP, p.IP.DstIP, p.IP.Protocol, p.IP.TTL)
		}

		if *limit > 0 && count >= *limit {
			break
		}
	}
	fmt.Printf("Printed %d packets.\n", count)
}
