// Package flowtable turns an ordered packet sequence into flow records.
// Packets sharing a 5-tuple accumulate into one record until a TCP FIN or
// RST closes it; a reappearing tuple then opens a fresh record. The table
// is single-owner: exactly one goroutine may ingest at a time.
package flowtable

import (
	"sort"

	"FlowScope/internal/engine/classify"
	"FlowScope/internal/model"
)

// openEntry tracks an in-progress record together with its creation order,
// so records still open at the end of a run can be emitted deterministically
// even though Go maps iterate in random order.
type openEntry struct {
	rec *model.FlowRecord
	seq uint64
}

// Table is the flow aggregation state for one run: the open-flow index plus
// the closed records in closure order.
type Table struct {
	open    map[model.FlowKey]*openEntry
	done    []*model.FlowRecord
	seq     uint64
	skipped uint64
}

// New creates an empty flow table.
func New() *Table {
	return &Table{
		open: make(map[model.FlowKey]*openEntry),
	}
}

// Ingest processes a single packet in capture order. Packets without an IP
// layer have no flow identity and are skipped; everything else is absorbed
// into exactly one flow record. Ingest never fails.
func (t *Table) Ingest(p *model.Packet) {
	if !p.HasIP() {
		t.skipped++
		return
	}

	key := flowKey(p)

	if entry, ok := t.open[key]; ok {
		absorb(entry.rec, p)
		// Closure is checked against the accumulated flag set, so the
		// packet that follows a terminal flag still merges before the
		// record closes.
		if entry.rec.TCPFlags.Contains(model.TCPFlagFIN | model.TCPFlagRST) {
			entry.rec.Closed = true
			t.done = append(t.done, entry.rec)
			delete(t.open, key)
		}
		return
	}

	rec := &model.FlowRecord{
		Key:      key,
		TCPFlags: make(model.TCPFlagSet),
	}
	absorb(rec, p)
	t.open[key] = &openEntry{rec: rec, seq: t.seq}
	t.seq++
}

// Finalize drains the table: records closed during the run come first, in
// closure order, followed by still-open records in creation order. Open
// records keep Closed=false unless their flag set already held a FIN or
// RST, so "ended by signal" stays distinguishable from "ended by capture
// truncation". The table is reset and can be reused for a new run.
func (t *Table) Finalize() []*model.FlowRecord {
	remaining := make([]*openEntry, 0, len(t.open))
	for _, entry := range t.open {
		remaining = append(remaining, entry)
	}
	sort.Slice(remaining, func(i, j int) bool {
		return remaining[i].seq < remaining[j].seq
	})

	out := t.done
	for _, entry := range remaining {
		entry.rec.Closed = entry.rec.TCPFlags.Contains(model.TCPFlagFIN | model.TCPFlagRST)
		out = append(out, entry.rec)
	}

	t.open = make(map[model.FlowKey]*openEntry)
	t.done = nil
	t.seq = 0
	return out
}

// Skipped returns how many packets were dropped for lacking an IP layer.
// Skipped packets appear in no record and no statistic; the counter exists
// for log lines only.
func (t *Table) Skipped() uint64 {
	return t.skipped
}

// Aggregate runs a whole packet sequence through a fresh table. This is the
// offline path: the capture is already materialized, so the result covers
// every IP-bearing packet exactly once.
func Aggregate(packets []*model.Packet) []*model.FlowRecord {
	t := New()
	for _, p := range packets {
		t.Ingest(p)
	}
	return t.Finalize()
}

// flowKey derives the flow identity of an IP-bearing packet. Ports are zero
// for protocols that have none. The protocol label is part of the identity,
// matching how the classifier distinguishes e.g. DNS from plain UDP.
func flowKey(p *model.Packet) model.FlowKey {
	key := model.FlowKey{
		SrcAddr: p.IP.SrcIP.String(),
		DstAddr: p.IP.DstIP.String(),
		Proto:   classify.Classify(p),
	}
	switch {
	case p.TCP != nil:
		key.SrcPort = p.TCP.SrcPort
		key.DstPort = p.TCP.DstPort
	case p.UDP != nil:
		key.SrcPort = p.UDP.SrcPort
		key.DstPort = p.UDP.DstPort
	}
	return key
}

// absorb folds one packet into a record, seeding extrema on first contact.
func absorb(rec *model.FlowRecord, p *model.Packet) {
	first := rec.Packets == 0

	rec.Packets++
	rec.Bytes += uint64(p.Length)
	if payload := p.Length - p.IP.HeaderLen; payload > 0 {
		rec.PayloadBytes += uint64(payload)
	}

	if first || p.Timestamp.Before(rec.StartTime) {
		rec.StartTime = p.Timestamp
	}
	if first || p.Timestamp.After(rec.EndTime) {
		rec.EndTime = p.Timestamp
	}

	if first || p.IP.TTL < rec.MinTTL {
		rec.MinTTL = p.IP.TTL
	}
	if first || p.IP.TTL > rec.MaxTTL {
		rec.MaxTTL = p.IP.TTL
	}

	if p.TCP != nil {
		rec.TCPFlags.Add(p.TCP.Flags)
	}
}
