package health

// #region labels
// Qualitative labels returned by Summarize.
const (
	Stable   = "stable"
	Drifting = "drifting"
	Volatile = "volatile"
)

// Label thresholds. Values equal to a bound fall into the lower bucket.
const (
	stableAbove   float32 = 0.8
	driftingAbove float32 = 0.5
)

// #endregion labels

// #region config
// Config holds the decay knobs of the health model.
type Config struct {
	AgeDecayRate float32 // penalty per millisecond since the last update
	DriftWeight  float32 // penalty per unit of last observed drift score
}

// DefaultConfig returns the standard decay parameters.
func DefaultConfig() Config {
	return Config{
		AgeDecayRate: 0.0001,
		DriftWeight:  0.5,
	}
}

// #endregion config
