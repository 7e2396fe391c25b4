package replay

import (
	"fmt"

	"github.com/danielpatrickdp/semdrift/internal/journal"
)

// FromJournal builds a fixture from a journaled stream. Each event becomes an
// update step expecting the recorded drift flag and score, and a final
// snapshot step expects the last recorded state vector.
func FromJournal(stream journal.Stream, events []journal.UpdateEvent) *Fixture {
	ageDecay, weight := stream.AgeDecayRate, stream.DriftWeight
	f := &Fixture{
		Description: fmt.Sprintf("journal stream %s", stream.StreamID),
		Engine: FixtureEngine{
			Alpha:          stream.Alpha,
			DriftThreshold: stream.DriftThreshold,
			AgeDecayRate:   &ageDecay,
			DriftWeight:    &weight,
		},
		Steps: make([]Step, 0, len(events)+1),
	}
	for _, ev := range events {
		detected, score := ev.DriftDetected, ev.DriftScore
		f.Steps = append(f.Steps, Step{
			ID:        fmt.Sprintf("seq-%d", ev.Seq),
			Op:        OpUpdate,
			Embedding: ev.Embedding,
			NowMs:     ev.NowMs,
			Expect:    Expectation{DriftDetected: &detected, DriftScore: &score},
		})
	}
	if n := len(events); n > 0 {
		last := events[n-1]
		f.Steps = append(f.Steps, Step{
			ID:     "final-state",
			Op:     OpSnapshot,
			NowMs:  last.NowMs,
			Expect: Expectation{Vector: last.StateVector},
		})
	}
	return f
}
