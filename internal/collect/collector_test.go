package collect

import (
	"net"
	"sync"
	"testing"
	"time"

	"FlowScope/internal/model"
)

// captureSink records every batch it receives, for inspection by tests.
type captureSink struct {
	mu      sync.Mutex
	batches [][]*model.FlowRecord
}

func (s *captureSink) Write(records []*model.FlowRecord, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, records)
	return nil
}

func (s *captureSink) Close() error { return nil }

func (s *captureSink) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *captureSink) batch(i int) []*model.FlowRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[i]
}

func dnsPacket(step int, src string, sport uint16) *model.Packet {
	base := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	return &model.Packet{
		Timestamp: base.Add(time.Duration(step) * 50 * time.Millisecond),
		Length:    90,
		IP: &model.IPv4Layer{
			SrcIP:     net.ParseIP(src),
			DstIP:     net.ParseIP("8.8.8.8"),
			TTL:       64,
			HeaderLen: 20,
			Protocol:  17,
		},
		UDP: &model.UDPLayer{SrcPort: sport, DstPort: 53},
	}
}

func waitForBatch(t *testing.T, sink *captureSink) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for sink.batchCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Timed out waiting for a snapshot batch")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestCollectorPeriodicFlush(t *testing.T) {
	sink := &captureSink{}
	c := NewCollector(50*time.Millisecond, 100, []model.FlowSink{sink})

	// 1. Buffer three packets of one flow, then start the collector.
	for i := 0; i < 3; i++ {
		c.Enqueue(dnsPacket(i, "10.0.0.5", 33333))
	}
	c.Start()
	defer c.Stop()

	// 2. The ticker flushes them as one record.
	waitForBatch(t, sink)
	records := sink.batch(0)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record in the batch, got %d", len(records))
	}
	rec := records[0]
	if rec.Key.Proto != model.ProtoDNS {
		t.Errorf("Expected protocol DNS, got %s", rec.Key.Proto)
	}
	if rec.Packets != 3 || rec.Bytes != 270 {
		t.Errorf("Expected 3 packets / 270 bytes, got %d / %d", rec.Packets, rec.Bytes)
	}
}

func TestCollectorStopFlushesRemainder(t *testing.T) {
	sink := &captureSink{}
	// An interval far beyond the test runtime; only Stop can flush.
	c := NewCollector(time.Hour, 100, []model.FlowSink{sink})
	c.Start()

	c.Enqueue(dnsPacket(0, "10.0.0.5", 33333))
	c.Enqueue(dnsPacket(1, "10.0.0.6", 44444))
	c.Stop()

	if sink.batchCount() != 1 {
		t.Fatalf("Expected exactly 1 batch from the final flush, got %d", sink.batchCount())
	}
	if len(sink.batch(0)) != 2 {
		t.Errorf("Expected 2 records in the final batch, got %d", len(sink.batch(0)))
	}
}

func TestCollectorFansOutToAllSinks(t *testing.T) {
	first := &captureSink{}
	second := &captureSink{}
	c := NewCollector(time.Hour, 100, []model.FlowSink{first, second})
	c.Start()

	c.Enqueue(dnsPacket(0, "10.0.0.5", 33333))
	c.Stop()

	if first.batchCount() != 1 || second.batchCount() != 1 {
		t.Fatalf("Expected both sinks to receive the batch, got %d and %d",
			first.batchCount(), second.batchCount())
	}
	if len(first.batch(0)) != len(second.batch(0)) {
		t.Error("Expected both sinks to receive the same batch")
	}
}

func TestCollectorSkipsNonIPPackets(t *testing.T) {
	sink := &captureSink{}
	c := NewCollector(time.Hour, 100, []model.FlowSink{sink})
	c.Start()

	c.Enqueue(&model.Packet{Timestamp: time.Now(), Length: 60})
	c.Stop()

	if sink.batchCount() != 0 {
		t.Errorf("Expected no batch from non-IP traffic, got %d", sink.batchCount())
	}
}

func TestCollectorEmptyIntervalProducesNoOutput(t *testing.T) {
	sink := &captureSink{}
	c := NewCollector(20*time.Millisecond, 100, []model.FlowSink{sink})
	c.Start()

	// Let several empty intervals pass.
	time.Sleep(100 * time.Millisecond)
	c.Stop()

	if sink.batchCount() != 0 {
		t.Errorf("Expected no batches without traffic, got %d", sink.batchCount())
	}
}
