package flowtable

import (
	"sort"

	"FlowScope/internal/model"
)

// topFlowCount is how many flows the summary ranks by volume.
const topFlowCount = 3

// ProtocolCount is one row of the per-protocol flow histogram.
type ProtocolCount struct {
	Proto model.Protocol
	Flows int
}

// Summary holds the derived statistics for one finalized record list.
type Summary struct {
	Flows   int
	Packets uint64
	Bytes   uint64

	ClosedFlows int
	OpenFlows   int

	// ByProtocol is sorted by descending flow count; protocols with equal
	// counts keep first-encounter order.
	ByProtocol []ProtocolCount

	// TopByBytes holds up to topFlowCount records ranked by total bytes,
	// ties broken by encounter order. The records alias the input list.
	TopByBytes []*model.FlowRecord
}

// Summarize derives the run statistics from a finalized record list. It is
// read-only and deterministic; an empty input yields an all-zero summary.
func Summarize(records []*model.FlowRecord) *Summary {
	s := &Summary{Flows: len(records)}

	seen := make(map[model.Protocol]int, 8)
	for _, rec := range records {
		s.Packets += rec.Packets
		s.Bytes += rec.Bytes
		if rec.Closed {
			s.ClosedFlows++
		} else {
			s.OpenFlows++
		}

		if idx, ok := seen[rec.Key.Proto]; ok {
			s.ByProtocol[idx].Flows++
		} else {
			seen[rec.Key.Proto] = len(s.ByProtocol)
			s.ByProtocol = append(s.ByProtocol, ProtocolCount{Proto: rec.Key.Proto, Flows: 1})
		}
	}

	// Stable so ties keep the first-encounter order built above.
	sort.SliceStable(s.ByProtocol, func(i, j int) bool {
		return s.ByProtocol[i].Flows > s.ByProtocol[j].Flows
	})

	ranked := make([]*model.FlowRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Bytes > ranked[j].Bytes
	})
	if len(ranked) > topFlowCount {
		ranked = ranked[:topFlowCount]
	}
	s.TopByBytes = ranked

	return s
}
