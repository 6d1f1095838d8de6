// Package query is the read side of persisted flow records: aggregate
// statistics served from ClickHouse for the HTTP API.
package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"FlowScope/internal/config"
)

// Summary mirrors the offline report totals, computed in ClickHouse over
// every persisted snapshot.
type Summary struct {
	TotalFlows   uint64 `json:"total_flows"`
	TotalPackets uint64 `json:"total_packets"`
	TotalBytes   uint64 `json:"total_bytes"`
	ClosedFlows  uint64 `json:"closed_flows"`
	OpenFlows    uint64 `json:"open_flows"`
}

// ProtocolFlows is one row of the per-protocol flow histogram.
type ProtocolFlows struct {
	Protocol string `json:"protocol"`
	Flows    uint64 `json:"flows"`
}

// TopFlow is one row of the by-volume flow ranking.
type TopFlow struct {
	SrcAddr  string `json:"source_address"`
	SrcPort  uint16 `json:"source_port"`
	DstAddr  string `json:"destination_address"`
	DstPort  uint16 `json:"destination_port"`
	Protocol string `json:"protocol"`
	Packets  uint64 `json:"packets"`
	Bytes    uint64 `json:"bytes"`
}

// Querier defines the interface for querying persisted flow records. The
// zero value of since means "no lower time bound".
type Querier interface {
	Summary(ctx context.Context, since time.Time) (*Summary, error)
	Protocols(ctx context.Context, since time.Time) ([]ProtocolFlows, error)
	TopFlows(ctx context.Context, since time.Time, limit int) ([]TopFlow, error)
	Close() error
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// sinceClause builds the optional lower time bound shared by all queries.
func sinceClause(since time.Time) (string, []interface{}) {
	if since.IsZero() {
		return "", nil
	}
	return " WHERE SnapshotTime >= ?", []interface{}{since}
}

// Summary computes the run totals over all persisted records.
func (q *clickhouseQuerier) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			COUNT(*)         AS TotalFlows,
			SUM(PacketCount) AS TotalPackets,
			SUM(ByteCount)   AS TotalBytes,
			countIf(Closed)  AS ClosedFlows,
			countIf(NOT Closed) AS OpenFlows
		FROM flow_records
	`)
	where, args := sinceClause(since)
	queryBuilder.WriteString(where)

	var s Summary
	row := q.conn.QueryRow(ctx, queryBuilder.String(), args...)
	if err := row.Scan(&s.TotalFlows, &s.TotalPackets, &s.TotalBytes, &s.ClosedFlows, &s.OpenFlows); err != nil {
		return nil, fmt.Errorf("failed to scan summary result: %w", err)
	}
	return &s, nil
}

// Protocols returns flow counts per protocol label, most common first.
func (q *clickhouseQuerier) Protocols(ctx context.Context, since time.Time) ([]ProtocolFlows, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT Protocol, COUNT(*) AS Flows
		FROM flow_records
	`)
	where, args := sinceClause(since)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(`
		GROUP BY Protocol
		ORDER BY Flows DESC, Protocol ASC
	`)

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var result []ProtocolFlows
	for rows.Next() {
		var pf ProtocolFlows
		if err := rows.Scan(&pf.Protocol, &pf.Flows); err != nil {
			return nil, fmt.Errorf("failed to scan protocol result: %w", err)
		}
		result = append(result, pf)
	}
	return result, rows.Err()
}

// TopFlows returns the limit largest flows by byte volume.
func (q *clickhouseQuerier) TopFlows(ctx context.Context, since time.Time, limit int) ([]TopFlow, error) {
	if limit <= 0 {
		limit = 3
	}
	if limit > 100 {
		limit = 100
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT SrcAddr, SrcPort, DstAddr, DstPort, Protocol, PacketCount, ByteCount
		FROM flow_records
	`)
	where, args := sinceClause(since)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(`
		ORDER BY ByteCount DESC
		LIMIT %d
	`, limit))

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var result []TopFlow
	for rows.Next() {
		var tf TopFlow
		if err := rows.Scan(&tf.SrcAddr, &tf.SrcPort, &tf.DstAddr, &tf.DstPort, &tf.Protocol, &tf.Packets, &tf.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan top flow result: %w", err)
		}
		result = append(result, tf)
	}
	return result, rows.Err()
}

// Close releases the underlying connection.
func (q *clickhouseQuerier) Close() error {
	return q.conn.Close()
}
