// Package capture is the packet-decoder side of FlowScope: it opens capture
// sources (offline pcap/pcapng files, live interfaces) and turns raw
// gopacket packets into the layer view the flow engine consumes. The flow
// engine itself never touches bytes.
package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"FlowScope/internal/model"
)

// Decode extracts the decoded-packet view from a gopacket packet. It is
// total: packets without an IPv4 layer come back with IP == nil and are
// skipped downstream, never rejected here.
func Decode(pkt gopacket.Packet) *model.Packet {
	p := &model.Packet{}

	if meta := pkt.Metadata(); meta != nil {
		p.Timestamp = meta.Timestamp
		p.Length = meta.Length
	}
	if p.Length == 0 {
		// Synthesized packets carry no capture metadata.
		p.Length = len(pkt.Data())
	}

	l := pkt.Layer(layers.LayerTypeIPv4)
	if l == nil {
		return p
	}
	ip := l.(*layers.IPv4)
	p.IP = &model.IPv4Layer{
		SrcIP:     ip.SrcIP,
		DstIP:     ip.DstIP,
		TTL:       ip.TTL,
		HeaderLen: int(ip.IHL) * 4,
		Protocol:  uint8(ip.Protocol),
	}

	if l := pkt.Layer(layers.LayerTypeTCP); l != nil {
		tcp := l.(*layers.TCP)
		p.TCP = &model.TCPLayer{
			SrcPort: uint16(tcp.SrcPort),
			DstPort: uint16(tcp.DstPort),
			Flags:   tcpFlagBits(tcp),
		}
	} else if l := pkt.Layer(layers.LayerTypeUDP); l != nil {
		udp := l.(*layers.UDP)
		p.UDP = &model.UDPLayer{
			SrcPort: uint16(udp.SrcPort),
			DstPort: uint16(udp.DstPort),
		}
	}

	if pkt.Layer(layers.LayerTypeICMPv4) != nil {
		p.ICMP = true
	}

	return p
}

// tcpFlagBits reassembles the raw header flag combination from gopacket's
// per-flag booleans.
func tcpFlagBits(tcp *layers.TCP) uint16 {
	var flags uint16
	if tcp.FIN {
		flags |= model.TCPFlagFIN
	}
	if tcp.SYN {
		flags |= model.TCPFlagSYN
	}
	if tcp.RST {
		flags |= model.TCPFlagRST
	}
	if tcp.PSH {
		flags |= model.TCPFlagPSH
	}
	if tcp.ACK {
		flags |= model.TCPFlagACK
	}
	if tcp.URG {
		flags |= model.TCPFlagURG
	}
	if tcp.ECE {
		flags |= model.TCPFlagECE
	}
	if tcp.CWR {
		flags |= model.TCPFlagCWR
	}
	if tcp.NS {
		flags |= model.TCPFlagNS
	}
	return flags
}
