package capture

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

const (
	snapshotLen int32 = 1600
	promiscuous       = true
	liveTimeout       = pcap.BlockForever
)

// LiveSource captures packets from a network interface via libpcap.
type LiveSource struct {
	handle *pcap.Handle
	src    *gopacket.PacketSource
}

// OpenLive starts capturing on the named interface. The snapshot length and
// promiscuous mode match what the probe has always used; the timeout blocks
// forever so the capture loop is purely packet-driven.
func OpenLive(iface string) (*LiveSource, error) {
	handle, err := pcap.OpenLive(iface, snapshotLen, promiscuous, liveTimeout)
	if err != nil {
		return nil, &DecodeError{Source: iface, Err: err}
	}
	return &LiveSource{
		handle: handle,
		src:    gopacket.NewPacketSource(handle, handle.LinkType()),
	}, nil
}

// Packets returns the capture's packet channel; it ends when the handle is
// closed.
func (s *LiveSource) Packets() <-chan gopacket.Packet {
	return s.src.Packets()
}

// LinkType reports the capture's link layer, needed when archiving packets
// back to a pcap file.
func (s *LiveSource) LinkType() layers.LinkType {
	return s.handle.LinkType()
}

// Close stops the capture.
func (s *LiveSource) Close() {
	s.handle.Close()
}
