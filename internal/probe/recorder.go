package probe

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// recorderBufferSize bounds the queue between capture and disk; when the
// disk falls behind, packets are dropped rather than stalling capture.
const recorderBufferSize = 10000

// Recorder archives raw captured packets to a timestamped pcap file in the
// background. A single writer goroutine keeps packets in capture order.
type Recorder struct {
	file       *os.File
	writer     *pcapgo.Writer
	packetChan chan gopacket.Packet
	wg         sync.WaitGroup
}

// NewRecorder creates <dir>/<timestamp>.pcap and starts the writer
// goroutine. linkType must match the capture source.
func NewRecorder(dir string, linkType layers.LinkType) (*Recorder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create recording directory: %w", err)
	}

	fileName := fmt.Sprintf("%s.pcap", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(dir, fileName)
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file '%s': %w", filePath, err)
	}

	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(1600, linkType); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write pcap file header: %w", err)
	}

	r := &Recorder{
		file:       file,
		writer:     writer,
		packetChan: make(chan gopacket.Packet, recorderBufferSize),
	}

	r.wg.Add(1)
	go r.run()

	log.Printf("Recording packets to %s", filePath)
	return r, nil
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for pkt := range r.packetChan {
		if err := r.writer.WritePacket(pkt.Metadata().CaptureInfo, pkt.Data()); err != nil {
			log.Printf("Recorder: error writing packet: %v", err)
		}
	}
}

// Enqueue hands a packet to the writer goroutine, dropping it when the
// queue is full.
func (r *Recorder) Enqueue(pkt gopacket.Packet) {
	select {
	case r.packetChan <- pkt:
	default:
		log.Println("Recorder: channel is full, dropping packet.")
	}
}

// Stop drains the queue and closes the file.
func (r *Recorder) Stop() {
	close(r.packetChan)
	r.wg.Wait()
	if err := r.file.Close(); err != nil {
		log.Printf("Recorder: error closing file: %v", err)
	}
	log.Println("Recorder stopped and file closed.")
}
