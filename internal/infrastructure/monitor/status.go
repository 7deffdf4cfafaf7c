package monitor

import "time"

// Probe is the result of checking one dependency.
type Probe struct {
	Enabled   bool   `json:"enabled"`
	Online    bool   `json:"online"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// BufferStatus describes the local write buffer.
type BufferStatus struct {
	Online  bool `json:"online"`
	Pending int  `json:"pending"`
	Dead    int  `json:"dead"`
}

type Status struct {
	Driver    string       `json:"driver"`
	Store     Probe        `json:"store"`
	Cache     Probe        `json:"cache"`
	Buffer    BufferStatus `json:"buffer"`
	LastCheck time.Time    `json:"last_check"`
}

// Healthy is true when the primary store answers and a configured cache does too.
func (s Status) Healthy() bool {
	return s.Store.Online && (!s.Cache.Enabled || s.Cache.Online)
}
