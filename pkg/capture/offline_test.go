package capture

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// writeCapture writes the given frames to a classic pcap file, one frame
// every 50ms starting from a fixed base time.
func writeCapture(t *testing.T, path string, frames [][]byte) []time.Time {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create capture file: %v", err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65535, layers.LinkTypeEthernet); err != nil {
		t.Fatalf("Failed to write file header: %v", err)
	}

	base := time.Date(2024, 5, 12, 9, 30, 0, 0, time.UTC)
	times := make([]time.Time, 0, len(frames))
	for i, data := range frames {
		ts := base.Add(time.Duration(i) * 50 * time.Millisecond)
		ci := gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatalf("Failed to write packet %d: %v", i, err)
		}
		times = append(times, ts)
	}
	return times
}

func TestLoadRoundTrip(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capture_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// 1. Write a small capture.
	frames := [][]byte{
		tcpFrame(t, "10.0.0.5", 52100, "93.184.216.34", 443, 0, func(tcp *layers.TCP) { tcp.SYN = true }),
		tcpFrame(t, "93.184.216.34", 443, "10.0.0.5", 52100, 0, func(tcp *layers.TCP) { tcp.SYN = true; tcp.ACK = true }),
		tcpFrame(t, "10.0.0.5", 52100, "93.184.216.34", 443, 200, func(tcp *layers.TCP) { tcp.PSH = true; tcp.ACK = true }),
	}
	path := filepath.Join(tmpDir, "roundtrip.pcap")
	times := writeCapture(t, path, frames)

	// 2. Load it back in full.
	packets, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(packets) != len(frames) {
		t.Fatalf("Expected %d packets, got %d", len(frames), len(packets))
	}

	// 3. Timestamps and wire lengths come from the capture metadata.
	for i, p := range packets {
		if !p.Timestamp.Equal(times[i]) {
			t.Errorf("Packet %d: expected timestamp %v, got %v", i, times[i], p.Timestamp)
		}
		if p.Length != len(frames[i]) {
			t.Errorf("Packet %d: expected length %d, got %d", i, len(frames[i]), p.Length)
		}
	}

	first := packets[0]
	if !first.HasIP() || first.TCP == nil {
		t.Fatal("Expected the first packet to decode as TCP over IPv4")
	}
	if first.IP.SrcIP.String() != "10.0.0.5" || first.TCP.DstPort != 443 {
		t.Errorf("Unexpected first packet: %s -> :%d", first.IP.SrcIP, first.TCP.DstPort)
	}
}

func TestOpenOfflineNext(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capture_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	frames := [][]byte{
		tcpFrame(t, "10.0.0.1", 40000, "10.0.0.2", 80, 10, func(tcp *layers.TCP) { tcp.ACK = true }),
		tcpFrame(t, "10.0.0.2", 80, "10.0.0.1", 40000, 10, func(tcp *layers.TCP) { tcp.ACK = true }),
	}
	path := filepath.Join(tmpDir, "next.pcap")
	writeCapture(t, path, frames)

	src, err := OpenOffline(path)
	if err != nil {
		t.Fatalf("OpenOffline failed: %v", err)
	}
	defer src.Close()

	if src.LinkType() != layers.LinkTypeEthernet {
		t.Errorf("Expected link type Ethernet, got %v", src.LinkType())
	}

	count := 0
	for {
		_, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		count++
	}
	if count != len(frames) {
		t.Errorf("Expected %d packets, got %d", len(frames), count)
	}
}

func TestOpenOfflineMissingFile(t *testing.T) {
	_, err := OpenOffline("/no/such/capture.pcap")
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected a *DecodeError, got %T", err)
	}
	if derr.Source != "/no/such/capture.pcap" {
		t.Errorf("Expected the path in the error, got %q", derr.Source)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Error("Expected the underlying os error to be preserved")
	}
}

func TestOpenOfflineUnrecognizedFormat(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capture_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(path, []byte("this is not a capture file\n"), 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	_, err = OpenOffline(path)
	if err == nil {
		t.Fatal("Expected an error for an unrecognized format")
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected a *DecodeError, got %T", err)
	}
}

func TestOpenOfflineEmptyFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capture_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "empty.pcap")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	var derr *DecodeError
	if _, err := OpenOffline(path); !errors.As(err, &derr) {
		t.Fatalf("Expected a *DecodeError for an empty file, got %v", err)
	}
}

// A capture cut off mid-record fails the whole load; no partial packet
// list comes back.
func TestLoadTruncatedCapture(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "capture_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	frames := [][]byte{
		tcpFrame(t, "10.0.0.1", 40000, "10.0.0.2", 80, 100, func(tcp *layers.TCP) { tcp.ACK = true }),
	}
	path := filepath.Join(tmpDir, "whole.pcap")
	writeCapture(t, path, frames)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read capture back: %v", err)
	}
	truncPath := filepath.Join(tmpDir, "truncated.pcap")
	if err := os.WriteFile(truncPath, raw[:len(raw)-10], 0644); err != nil {
		t.Fatalf("Failed to write truncated capture: %v", err)
	}

	packets, err := Load(truncPath)
	if err == nil {
		t.Fatal("Expected an error for a truncated capture")
	}
	var derr *DecodeError
	if !errors.As(err, &derr) {
		t.Fatalf("Expected a *DecodeError, got %T", err)
	}
	if packets != nil {
		t.Errorf("Expected no packets from a failed load, got %d", len(packets))
	}
}
