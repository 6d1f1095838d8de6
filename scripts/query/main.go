package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"FlowScope/internal/config"
	"FlowScope/internal/query"
)

// Query client for persisted flow records. 'api' mode goes through the
// running fs-api server; 'direct' mode talks to ClickHouse itself.
func main() {
	mode := flag.String("mode", "api", "Query mode: 'api' to query via HTTP API, 'direct' to query ClickHouse directly.")
	what := flag.String("what", "summary", "What to query: 'summary', 'protocols', or 'top'.")
	sinceStr := flag.String("since", "", "Optional lower time bound in RFC3339 format (e.g., 2024-05-12T09:30:00Z).")
	limit := flag.Int("limit", 3, "Row limit for 'top' queries.")

	apiAddr := flag.String("addr", "http://localhost:8080", "Base URL of the fs-api server (api mode).")
	chHost := flag.String("ch-host", "127.0.0.1", "ClickHouse host (direct mode).")
	chPort := flag.Int("ch-port", 9000, "ClickHouse native port (direct mode).")
	chDatabase := flag.String("ch-db", "default", "ClickHouse database (direct mode).")
	chUsername := flag.String("ch-user", "default", "ClickHouse username (direct mode).")
	chPassword := flag.String("ch-pass", "", "ClickHouse password (direct mode).")

	flag.Parse()

	var since time.Time
	if *sinceStr != "" {
		var err error
		since, err = time.Parse(time.RFC3339, *sinceStr)
		if err != nil {
			log.Fatalf("Invalid -since format: %v", err)
		}
	}

	log.Printf("Running in '%s' mode.", *mode)

	switch *mode {
	case "api":
		queryViaAPI(*apiAddr, *what, since, *limit)
	case "direct":
		cfg := config.ClickHouseConfig{
			Host:     *chHost,
			Port:     *chPort,
			Database: *chDatabase,
			Username: *chUsername,
			Password: *chPassword,
		}
		directQuery(cfg, *what, since, *limit)
	default:
		log.Fatalf("Invalid mode: %s. Use 'api' or 'direct'.", *mode)
	}
}

func queryViaAPI(base, what string, since time.Time, limit int) {
	var path string
	switch what {
	case "summary":
		path = "/api/v1/summary"
	case "protocols":
		path = "/api/v1/protocols"
	case "top":
		path = "/api/v1/flows/top"
	default:
		log.Fatalf("Invalid -what: %s. Use 'summary', 'protocols', or 'top'.", what)
	}

	params := url.Values{}
	if !since.IsZero() {
		params.Set("since", since.Format(time.RFC3339))
	}
	if what == "top" {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	apiURL := base + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	log.Printf("Sending request to %s", apiURL)

	resp, err := http.Get(apiURL)
	if err != nil {
		log.Fatalf("Error sending request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Error reading response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("API returned non-200 status code: %d\nResponse: %s", resp.StatusCode, string(respBody))
	}

	var prettyJSON bytes.Buffer
	if err := json.Indent(&prettyJSON, respBody, "", "  "); err != nil {
		log.Printf("Could not prettify JSON, printing raw response:")
		fmt.Println(string(respBody))
		return
	}

	log.Println("---")
	fmt.Println(prettyJSON.String())
}

func directQuery(cfg config.ClickHouseConfig, what string, since time.Time, limit int) {
	q, err := query.NewClickHouseQuerier(cfg)
	if err != nil {
		log.Fatalf("Error connecting to ClickHouse: %v", err)
	}
	defer q.Close()

	log.Println("Successfully connected to ClickHouse.")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch what {
	case "summary":
		s, err := q.Summary(ctx, since)
		if err != nil {
			log.Fatalf("Error executing query: %v", err)
		}
		log.Println("--- Flow Summary (Direct) ---")
		fmt.Printf("TotalFlows: %d\n", s.TotalFlows)
		fmt.Printf("TotalPackets: %d\n", s.TotalPackets)
		fmt.Printf("TotalBytes: %d\n", s.TotalBytes)
		fmt.Printf("ClosedFlows: %d\n", s.ClosedFlows)
		fmt.Printf("OpenFlows: %d\n", s.OpenFlows)

	case "protocols":
		rows, err := q.Protocols(ctx, since)
		if err != nil {
			log.Fatalf("Error executing query: %v", err)
		}
		log.Println("--- Flows by Protocol (Direct) ---")
		if len(rows) == 0 {
			log.Println("No data found for the specified criteria.")
			return
		}
		for _, row := range rows {
			fmt.Printf("%s: %d\n", row.Protocol, row.Flows)
		}

	case "top":
		rows, err := q.TopFlows(ctx, since, limit)
		if err != nil {
			log.Fatalf("Error executing query: %v", err)
		}
		log.Println("--- Top Flows by Volume (Direct) ---")
		if len(rows) == 0 {
			log.Println("No data found for the specified criteria.")
			return
		}
		for _, row := range rows {
			fmt.Printf("%s:%d -> %s:%d (%s)\n", row.SrcAddr, row.SrcPort, row.DstAddr, row.DstPort, row.Protocol)
			fmt.Printf("  Packets: %d\n", row.Packets)
			fmt.Printf("  Bytes: %d\n", row.Bytes)
			fmt.Println("---------------------")
		}

	default:
		log.Fatalf("Invalid -what: %s. Use 'summary', 'protocols', or 'top'.", what)
	}
}
