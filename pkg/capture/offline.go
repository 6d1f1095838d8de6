package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"FlowScope/internal/model"
)

// Classic pcap magic numbers (microsecond and nanosecond variants, both
// byte orders) and the pcapng section header block type.
const (
	magicPcapMicro   = 0xa1b2c3d4
	magicPcapMicroLE = 0xd4c3b2a1
	magicPcapNano    = 0xa1b23c4d
	magicPcapNanoLE  = 0x4d3cb2a1
	magicPcapNG      = 0x0a0d0d0a
)

// offlineReader is the common surface of pcapgo's pcap and pcapng readers.
type offlineReader interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// OfflineSource reads packets from a capture file. Both classic pcap and
// pcapng are handled, chosen by magic number, without needing libpcap.
type OfflineSource struct {
	path string
	file *os.File
	src  *gopacket.PacketSource
	link layers.LinkType
}

// OpenOffline opens a capture file for reading. Unreadable files and
// unrecognized formats yield a *DecodeError.
func OpenOffline(path string) (*OfflineSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Source: path, Err: err}
	}

	br := bufio.NewReader(f)
	head, err := br.Peek(4)
	if err != nil {
		f.Close()
		return nil, &DecodeError{Source: path, Err: fmt.Errorf("reading file header: %w", err)}
	}

	var r offlineReader
	switch binary.BigEndian.Uint32(head) {
	case magicPcapMicro, magicPcapMicroLE, magicPcapNano, magicPcapNanoLE:
		r, err = pcapgo.NewReader(br)
	case magicPcapNG:
		r, err = pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	default:
		err = errors.New("not a pcap or pcapng file")
	}
	if err != nil {
		f.Close()
		return nil, &DecodeError{Source: path, Err: err}
	}

	return &OfflineSource{
		path: path,
		file: f,
		src:  gopacket.NewPacketSource(r, r.LinkType()),
		link: r.LinkType(),
	}, nil
}

// LinkType returns the capture's link layer type.
func (s *OfflineSource) LinkType() layers.LinkType {
	return s.link
}

// Next returns the next packet. io.EOF marks a clean end of capture; any
// other failure comes back as a *DecodeError.
func (s *OfflineSource) Next() (gopacket.Packet, error) {
	pkt, err := s.src.NextPacket()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, &DecodeError{Source: s.path, Err: err}
	}
	return pkt, nil
}

// Close releases the underlying file.
func (s *OfflineSource) Close() error {
	return s.file.Close()
}

// Load opens a capture file and decodes every packet up front, mirroring
// how the offline analyzer works: a corrupt capture fails the whole run
// before any aggregation starts, never after.
func Load(path string) ([]*model.Packet, error) {
	src, err := OpenOffline(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var packets []*model.Packet
	for {
		raw, err := src.Next()
		if err == io.EOF {
			return packets, nil
		}
		if err != nil {
			return nil, err
		}
		packets = append(packets, Decode(raw))
	}
}
