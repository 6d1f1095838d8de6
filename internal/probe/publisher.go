// Package probe moves captured packets between hosts over NATS: a publisher
// that ships decoded packets as gob frames, a subscriber that feeds them to
// a collector, and a recorder that archives raw traffic to pcap alongside.
package probe

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"FlowScope/internal/config"
	"FlowScope/internal/model"
)

// Publisher ships decoded packets to a NATS subject, one self-contained gob
// frame per packet.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a new NATS publisher.
func NewPublisher(cfg config.ProbeConfig) (*Publisher, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Publisher{nc: nc, subject: cfg.Subject}, nil
}

// Publish encodes one packet and publishes it to the configured subject.
// Each frame carries its own type description so subscribers can decode
// messages independently and join mid-stream.
func (p *Publisher) Publish(pkt *model.Packet) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pkt); err != nil {
		return fmt.Errorf("failed to encode packet: %w", err)
	}
	return p.nc.Publish(p.subject, buf.Bytes())
}

// Close drains and closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}
