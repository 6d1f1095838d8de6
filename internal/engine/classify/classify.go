// Package classify assigns application-level protocol labels to decoded
// packets using layer presence and well-known ports. It inspects no payload
// bytes and keeps no state.
package classify

import (
	"FlowScope/internal/model"
)

// Well-known ports used by the heuristics.
const (
	portHTTP  = 80
	portHTTPS = 443
	portDNS   = 53
)

// Classify maps a decoded packet to a protocol label. It is total: every
// packet gets exactly one label. The check order matters because a packet
// can satisfy several checks at once (ICMP and TCP both ride on IP).
//
// Packets without an IP layer are labeled Other; they carry no flow
// identity and callers skip them instead of aggregating.
func Classify(p *model.Packet) model.Protocol {
	if !p.HasIP() {
		return model.ProtoOther
	}
	if p.ICMP {
		return model.ProtoICMP
	}
	if p.TCP != nil {
		switch {
		case p.TCP.SrcPort == portHTTPS || p.TCP.DstPort == portHTTPS:
			return model.ProtoHTTPS
		case p.TCP.SrcPort == portHTTP || p.TCP.DstPort == portHTTP:
			return model.ProtoHTTP
		default:
			return model.ProtoTCP
		}
	}
	if p.UDP != nil {
		if p.UDP.SrcPort == portDNS || p.UDP.DstPort == portDNS {
			return model.ProtoDNS
		}
		return model.ProtoUDP
	}
	return model.OtherProto(p.IP.Protocol)
}
