package model

import (
	"net"
	"time"
)

// TCP flag bits as they appear in the TCP header, low bit first.
const (
	TCPFlagFIN uint16 = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
	TCPFlagECE
	TCPFlagCWR
	TCPFlagNS
)

var tcpFlagLetters = []struct {
	bit    uint16
	letter byte
}{
	{TCPFlagFIN, 'F'},
	{TCPFlagSYN, 'S'},
	{TCPFlagRST, 'R'},
	{TCPFlagPSH, 'P'},
	{TCPFlagACK, 'A'},
	{TCPFlagURG, 'U'},
	{TCPFlagECE, 'E'},
	{TCPFlagCWR, 'C'},
	{TCPFlagNS, 'N'},
}

// FormatTCPFlags renders a raw flag combination as a compact letter string,
// e.g. SYN|ACK -> "SA". An empty combination renders as ".".
func FormatTCPFlags(flags uint16) string {
	if flags == 0 {
		return "."
	}
	var buf []byte
	for _, fl := range tcpFlagLetters {
		if flags&fl.bit != 0 {
			buf = append(buf, fl.letter)
		}
	}
	return string(buf)
}

// IPv4Layer holds the network-layer fields the flow engine cares about.
type IPv4Layer struct {
	SrcIP     net.IP
	DstIP     net.IP
	TTL       uint8
	HeaderLen int   // header size in bytes (IHL * 4)
	Protocol  uint8 // IP protocol number of the payload
}

// TCPLayer holds the transport-layer fields for TCP packets.
type TCPLayer struct {
	SrcPort uint16
	DstPort uint16
	Flags   uint16 // raw flag combination of this packet (TCPFlag* bits)
}

// UDPLayer holds the transport-layer fields for UDP packets.
type UDPLayer struct {
	SrcPort uint16
	DstPort uint16
}

// Packet is the decoded view of a single captured packet. Layers that were
// not present in the capture are nil; the flow engine queries presence
// instead of re-parsing bytes.
type Packet struct {
	Timestamp time.Time
	Length    int // wire length in bytes, from capture metadata

	IP   *IPv4Layer
	TCP  *TCPLayer
	UDP  *UDPLayer
	ICMP bool
}

// HasIP reports whether the packet carried an IPv4 layer. Packets without
// one have no flow identity and are skipped by the aggregator.
func (p *Packet) HasIP() bool {
	return p.IP != nil
}
