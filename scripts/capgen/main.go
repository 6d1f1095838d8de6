// capgen writes a small deterministic capture that exercises every flow
// shape the analyzer understands: a TCP session closed by FIN, one aborted
// by RST, a 5-tuple that reappears after closure, HTTP/HTTPS/DNS/ICMP
// classification, and a non-IP frame.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var (
	srcMAC = net.HardwareAddr{0x00, 0x11, 0x22, 0x33, 0x44, 0x55}
	dstMAC = net.HardwareAddr{0x00, 0x66, 0x77, 0x88, 0x99, 0xAA}
)

type generator struct {
	writer *pcapgo.Writer
	ts     time.Time
}

// write appends one frame, advancing the synthetic clock 50ms per packet.
func (g *generator) write(data []byte) {
	ci := gopacket.CaptureInfo{
		Timestamp:     g.ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := g.writer.WritePacket(ci, data); err != nil {
		log.Fatalf("Failed to write packet: %v", err)
	}
	g.ts = g.ts.Add(50 * time.Millisecond)
}

func serialize(ls ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		log.Fatalf("Failed to serialize layers: %v", err)
	}
	return buf.Bytes()
}

func ethernet(etherType layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       dstMAC,
		EthernetType: etherType,
	}
}

func ipv4(src, dst string, proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		SrcIP:    net.ParseIP(src),
		DstIP:    net.ParseIP(dst),
		Version:  4,
		TTL:      64,
		Protocol: proto,
	}
}

// tcp emits one TCP segment; set fills in the flag bits.
func (g *generator) tcp(src string, sport uint16, dst string, dport uint16, payloadSize int, set func(*layers.TCP)) {
	ipLayer := ipv4(src, dst, layers.IPProtocolTCP)
	tcpLayer := &layers.TCP{
		SrcPort: layers.TCPPort(sport),
		DstPort: layers.TCPPort(dport),
		Window:  14600,
	}
	set(tcpLayer)
	tcpLayer.SetNetworkLayerForChecksum(ipLayer)
	g.write(serialize(ethernet(layers.EthernetTypeIPv4), ipLayer, tcpLayer, gopacket.Payload(make([]byte, payloadSize))))
}

func (g *generator) udp(src string, sport uint16, dst string, dport uint16, payloadSize int) {
	ipLayer := ipv4(src, dst, layers.IPProtocolUDP)
	udpLayer := &layers.UDP{
		SrcPort: layers.UDPPort(sport),
		DstPort: layers.UDPPort(dport),
	}
	udpLayer.SetNetworkLayerForChecksum(ipLayer)
	g.write(serialize(ethernet(layers.EthernetTypeIPv4), ipLayer, udpLayer, gopacket.Payload(make([]byte, payloadSize))))
}

func (g *generator) icmpEcho(src, dst string, seq uint16) {
	ipLayer := ipv4(src, dst, layers.IPProtocolICMPv4)
	icmpLayer := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       1,
		Seq:      seq,
	}
	g.write(serialize(ethernet(layers.EthernetTypeIPv4), ipLayer, icmpLayer, gopacket.Payload(make([]byte, 32))))
}

// arp emits one non-IP frame; the analyzer counts and skips it.
func (g *generator) arp() {
	arpLayer := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   srcMAC,
		SourceProtAddress: []byte{10, 0, 0, 5},
		DstHwAddress:      make([]byte, 6),
		DstProtAddress:    []byte{10, 0, 0, 1},
	}
	g.write(serialize(ethernet(layers.EthernetTypeARP), arpLayer))
}

func main() {
	outputFile := flag.String("o", "testdata.pcap", "Output pcap file path")
	flag.Parse()

	f, err := os.Create(*outputFile)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	pcapWriter := pcapgo.NewWriter(f)
	if err := pcapWriter.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		log.Fatalf("Failed to write pcap header: %v", err)
	}

	g := &generator{
		writer: pcapWriter,
		ts:     time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC),
	}

	log.Printf("Generating flows into %s...", *outputFile)

	// HTTPS session closed by FIN; its reverse direction stays open.
	g.tcp("10.0.0.5", 52100, "93.184.216.34", 443, 0, func(t *layers.TCP) { t.SYN = true })
	g.tcp("93.184.216.34", 443, "10.0.0.5", 52100, 0, func(t *layers.TCP) { t.SYN = true; t.ACK = true })
	g.tcp("10.0.0.5", 52100, "93.184.216.34", 443, 200, func(t *layers.TCP) { t.PSH = true; t.ACK = true })
	g.tcp("93.184.216.34", 443, "10.0.0.5", 52100, 1200, func(t *layers.TCP) { t.PSH = true; t.ACK = true })
	g.tcp("10.0.0.5", 52100, "93.184.216.34", 443, 0, func(t *layers.TCP) { t.FIN = true; t.ACK = true })

	// HTTP request cut off by the end of the capture.
	g.tcp("10.0.0.5", 52200, "203.0.113.7", 80, 0, func(t *layers.TCP) { t.SYN = true })
	g.tcp("10.0.0.5", 52200, "203.0.113.7", 80, 120, func(t *layers.TCP) { t.PSH = true; t.ACK = true })

	// DNS query and response.
	g.udp("10.0.0.5", 33333, "8.8.8.8", 53, 40)
	g.udp("8.8.8.8", 53, "10.0.0.5", 33333, 120)

	// ICMP echo pair, one flow without ports.
	g.icmpEcho("10.0.0.5", "1.1.1.1", 1)
	g.icmpEcho("10.0.0.5", "1.1.1.1", 2)

	// Plain TCP aborted by RST, then the same 5-tuple reappears as a new
	// flow.
	g.tcp("10.0.0.9", 49000, "198.51.100.2", 8080, 0, func(t *layers.TCP) { t.SYN = true })
	g.tcp("10.0.0.9", 49000, "198.51.100.2", 8080, 0, func(t *layers.TCP) { t.RST = true })
	g.tcp("10.0.0.9", 49000, "198.51.100.2", 8080, 0, func(t *layers.TCP) { t.SYN = true })

	// One non-IP frame.
	g.arp()

	log.Printf("Capture written to %s.", *outputFile)
}
