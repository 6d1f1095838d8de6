package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"FlowScope/internal/config"
	"FlowScope/internal/model"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS flow_records (
    SnapshotTime DateTime,
    SrcAddr      String,
    SrcPort      UInt16,
    DstAddr      String,
    DstPort      UInt16,
    Protocol     String,
    StartTime    DateTime64(6),
    EndTime      DateTime64(6),
    PacketCount  UInt64,
    ByteCount    UInt64,
    PayloadBytes UInt64,
    MinTTL       UInt8,
    MaxTTL       UInt8,
    TCPFlags     String,
    Closed       Bool
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(SnapshotTime)
ORDER BY (SnapshotTime, Protocol, SrcAddr);
`

// ClickHouseSink batches finalized records into the flow_records table. It
// implements the model.FlowSink interface.
type ClickHouseSink struct {
	conn driver.Conn
}

// NewClickHouseSink connects to ClickHouse and ensures the table exists.
func NewClickHouseSink(cfg config.ClickHouseConfig) (*ClickHouseSink, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseSink{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
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

// Write inserts one batch into flow_records, stamped with the snapshot time.
func (s *ClickHouseSink) Write(records []*model.FlowRecord, snapshotTime time.Time) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(context.Background(), "INSERT INTO flow_records")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, rec := range records {
		err = batch.Append(
			snapshotTime,
			rec.Key.SrcAddr,
			rec.Key.SrcPort,
			rec.Key.DstAddr,
			rec.Key.DstPort,
			string(rec.Key.Proto),
			rec.StartTime,
			rec.EndTime,
			rec.Packets,
			rec.Bytes,
			rec.PayloadBytes,
			rec.MinTTL,
			rec.MaxTTL,
			rec.TCPFlags.String(),
			rec.Closed,
		)
		if err != nil {
			return fmt.Errorf("failed to append record to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}

	log.Printf("Wrote %d flow records to ClickHouse", len(records))
	return nil
}

// Close releases the underlying connection.
func (s *ClickHouseSink) Close() error {
	return s.conn.Close()
}
