package export

import (
	"io"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"FlowScope/internal/engine/flowtable"
)

// WriteReport renders the run statistics as a console report: a totals box,
// the per-protocol flow histogram, and the top flows ranked by volume.
// Counters are printed with thousands separators.
func WriteReport(w io.Writer, s *flowtable.Summary) {
	p := message.NewPrinter(language.English)
	bar := strings.Repeat("=", 60)

	p.Fprintln(w, bar)
	p.Fprintln(w, "           FLOW STATISTICS")
	p.Fprintln(w, bar)
	p.Fprintf(w, "  Total flows:              %d\n", s.Flows)
	p.Fprintf(w, "  Total packets:            %d\n", s.Packets)
	p.Fprintf(w, "  Total bytes:              %d\n", s.Bytes)
	p.Fprintf(w, "  Closed flows (FIN/RST):   %d\n", s.ClosedFlows)
	p.Fprintf(w, "  Open flows:               %d\n", s.OpenFlows)
	p.Fprintln(w, bar)

	p.Fprintf(w, "\n  Flows by protocol:\n")
	for _, pc := range s.ByProtocol {
		p.Fprintf(w, "    %8s: %d\n", string(pc.Proto), pc.Flows)
	}

	p.Fprintf(w, "\n  Top 3 flows by data volume:\n")
	p.Fprintf(w, "  %-4s %-18s %-18s %6s %6s %-6s %7s %12s %10s\n",
		"#", "Source IP", "Destination IP", "SP", "DP", "Proto", "Pkts", "Bytes", "Avg")
	p.Fprintln(w, "  "+strings.Repeat("-", 92))
	for i, rec := range s.TopByBytes {
		p.Fprintf(w, "  %-4d %-18s %-18s %6d %6d %-6s %7d %12d %10.2f\n",
			i+1, rec.Key.SrcAddr, rec.Key.DstAddr, rec.Key.SrcPort, rec.Key.DstPort,
			string(rec.Key.Proto), rec.Packets, rec.Bytes, rec.AvgPacketSize())
	}
	p.Fprintln(w)
}
