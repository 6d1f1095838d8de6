package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Protocol is the application-level label assigned to a flow by the
// classifier. Labels are plain strings so they survive CSV, gob and
// ClickHouse round trips unchanged.
type Protocol string

const (
	ProtoICMP  Protocol = "ICMP"
	ProtoHTTPS Protocol = "HTTPS"
	ProtoHTTP  Protocol = "HTTP"
	ProtoTCP   Protocol = "TCP"
	ProtoUDP   Protocol = "UDP"
	// ProtoOther labels packets with no network layer at all. Such packets
	// never reach a flow record; the label exists so classification stays
	// total.
	ProtoOther Protocol = "Other"
	ProtoDNS   Protocol = "DNS"
)

// OtherProto labels an IP packet whose transport layer is not recognized,
// keeping the raw IP protocol number visible, e.g. "Other(47)" for GRE.
func OtherProto(ipProtocol uint8) Protocol {
	return Protocol(fmt.Sprintf("Other(%d)", ipProtocol))
}

// FlowKey identifies one flow instance: the 5-tuple as observed on the
// wire. Direction is not folded; symmetric-but-reversed tuples are distinct
// flows.
type FlowKey struct {
	SrcAddr string
	SrcPort uint16
	DstAddr string
	DstPort uint16
	Proto   Protocol
}

// String renders the key for logs and reports.
func (k FlowKey) String() string {
	return fmt.Sprintf("%s:%d -> %s:%d/%s", k.SrcAddr, k.SrcPort, k.DstAddr, k.DstPort, k.Proto)
}

// TCPFlagSet is the set of distinct raw TCP flag combinations observed on a
// flow. Keys are TCPFlag* bit combinations; values are always true.
type TCPFlagSet map[uint16]bool

// Add records one packet's flag combination.
func (s TCPFlagSet) Add(flags uint16) {
	s[flags] = true
}

// Contains reports whether any recorded combination has one of the given
// flag bits set.
func (s TCPFlagSet) Contains(mask uint16) bool {
	for flags, ok := range s {
		if ok && flags&mask != 0 {
			return true
		}
	}
	return false
}

// String renders the set as letter-coded combinations in ascending raw
// order, joined by "|", e.g. "S|SA|A|FA". An empty set renders as "".
func (s TCPFlagSet) String() string {
	if len(s) == 0 {
		return ""
	}
	combos := make([]int, 0, len(s))
	for flags, ok := range s {
		if ok {
			combos = append(combos, int(flags))
		}
	}
	sort.Ints(combos)
	parts := make([]string, len(combos))
	for i, c := range combos {
		parts[i] = FormatTCPFlags(uint16(c))
	}
	return strings.Join(parts, "|")
}

// FlowRecord is the aggregation state for one flow instance. The flow table
// owns and mutates records while a run is in progress; afterwards they are
// handed out as a read-only result list.
type FlowRecord struct {
	Key FlowKey

	StartTime time.Time // earliest packet timestamp seen
	EndTime   time.Time // latest packet timestamp seen

	Packets      uint64
	Bytes        uint64 // sum of wire lengths
	PayloadBytes uint64 // sum of wire length minus IP header length

	MinTTL uint8
	MaxTTL uint8

	TCPFlags TCPFlagSet

	// Closed is true once a FIN or RST was observed on the flow. Records
	// emitted at end of capture without a termination signal keep false,
	// so truncated flows stay distinguishable.
	Closed bool
}

// Duration returns the flow lifetime in seconds, 0 when timestamps were
// never set.
func (r *FlowRecord) Duration() float64 {
	if r.StartTime.IsZero() || r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime).Seconds()
}

// AvgPacketSize returns the mean wire length in bytes, 0 for an empty
// record.
func (r *FlowRecord) AvgPacketSize() float64 {
	if r.Packets == 0 {
		return 0
	}
	return float64(r.Bytes) / float64(r.Packets)
}
