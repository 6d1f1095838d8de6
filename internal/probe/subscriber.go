package probe

import (
	"bytes"
	"encoding/gob"
	"log"

	"github.com/nats-io/nats.go"

	"FlowScope/internal/config"
	"FlowScope/internal/model"
)

// PacketHandler is a function that processes one received packet.
type PacketHandler func(pkt *model.Packet)

// Subscriber receives gob-framed packets from a NATS subject.
type Subscriber struct {
	nc      *nats.Conn
	sub     *nats.Subscription
	subject string
}

// NewSubscriber creates a new NATS subscriber.
func NewSubscriber(cfg config.ProbeConfig) (*Subscriber, error) {
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS server at %s", cfg.NATSURL)
	return &Subscriber{nc: nc, subject: cfg.Subject}, nil
}

// Start subscribes to the configured subject and decodes each message,
// passing the packet to handler. Frames that fail to decode are logged and
// dropped; one bad frame must not stop the stream.
func (s *Subscriber) Start(handler PacketHandler) error {
	sub, err := s.nc.Subscribe(s.subject, func(msg *nats.Msg) {
		var pkt model.Packet
		if err := gob.NewDecoder(bytes.NewReader(msg.Data)).Decode(&pkt); err != nil {
			log.Printf("Error decoding packet frame: %v", err)
			return
		}
		handler(&pkt)
	})
	if err != nil {
		return err
	}
	s.sub = sub
	log.Printf("Subscribed to '%s'. Waiting for messages...", s.subject)
	return nil
}

// Close unsubscribes and closes the NATS connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.nc != nil {
		s.nc.Close()
		log.Println("NATS connection closed.")
	}
}
