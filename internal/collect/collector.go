// Package collect runs the streaming side of flow reconstruction: packets
// arrive on a buffered channel, one goroutine folds them into the flow
// table, and a ticker periodically finalizes the table and fans the batch
// out to the configured sinks.
package collect

import (
	"log"
	"sync"
	"time"

	"FlowScope/internal/engine/flowtable"
	"FlowScope/internal/model"
)

// defaultBufferSize is used when the configuration leaves the packet channel
// size unset.
const defaultBufferSize = 10000

// Collector owns one flow table. All table access happens on the collector
// goroutine; other goroutines only send on the input channel.
type Collector struct {
	table *flowtable.Table
	sinks []model.FlowSink

	interval   time.Duration
	packetChan chan *model.Packet
	wg         sync.WaitGroup
}

// NewCollector creates a collector that snapshots every interval and writes
// each batch to all the given sinks.
func NewCollector(interval time.Duration, bufferSize int, sinks []model.FlowSink) *Collector {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Collector{
		table:      flowtable.New(),
		sinks:      sinks,
		interval:   interval,
		packetChan: make(chan *model.Packet, bufferSize),
	}
}

// Start launches the ingest goroutine.
func (c *Collector) Start() {
	c.wg.Add(1)
	go c.run()
	log.Printf("Collector started with snapshot interval %s.", c.interval)
}

// Enqueue hands one packet to the ingest goroutine. It blocks while the
// buffer is full, which backpressures the subscriber rather than losing
// packets. Must not be called after Stop.
func (c *Collector) Enqueue(pkt *model.Packet) {
	c.packetChan <- pkt
}

func (c *Collector) run() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case pkt, ok := <-c.packetChan:
			if !ok {
				c.flush(time.Now())
				return
			}
			c.table.Ingest(pkt)
		case now := <-ticker.C:
			c.flush(now)
		}
	}
}

// flush finalizes the table and hands the batch to every sink. Empty
// intervals produce no output.
func (c *Collector) flush(snapshotTime time.Time) {
	records := c.table.Finalize()
	if len(records) == 0 {
		return
	}

	log.Printf("Flushing %d flow records at %s.", len(records), snapshotTime.Format("2006-01-02_15-04-05"))
	for _, sink := range c.sinks {
		if err := sink.Write(records, snapshotTime); err != nil {
			log.Printf("Error writing snapshot batch: %v", err)
		}
	}
}

// Stop drains buffered packets, takes a final snapshot, and waits for the
// ingest goroutine to exit. Detach the packet source first; Enqueue after
// Stop panics.
func (c *Collector) Stop() {
	log.Println("Collector stopping...")
	close(c.packetChan)
	c.wg.Wait()
	if n := c.table.Skipped(); n > 0 {
		log.Printf("Skipped %d packets without an IP layer.", n)
	}
	log.Println("Collector stopped.")
}
