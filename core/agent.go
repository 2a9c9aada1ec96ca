package core

// AgentStatus describes the availability of an agent.
type AgentStatus string

const (
	// StatusIdle means the agent has no dispatches in flight.
	StatusIdle AgentStatus = "idle"
	// StatusBusy means at least one dispatch or stream holds the agent.
	StatusBusy AgentStatus = "busy"
	// StatusOffline excludes the agent from automatic selection.
	StatusOffline AgentStatus = "offline"
)

// Capability describes one skill an agent advertises, with a confidence
// level in [0, 1] used by the selector's scoring formula.
type Capability struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// PerformanceStats accumulates dispatch outcomes for a single agent.
// Rates and averages are derived on read, never stored.
type PerformanceStats struct {
	TotalTasks          int64 `json:"total_tasks"`
	SuccessfulTasks     int64 `json:"successful_tasks"`
	TotalResponseTimeMs int64 `json:"total_response_time_ms"`
}

// SuccessRate returns the percentage of successful tasks in [0, 100],
// or 0 when no task completed yet.
func (p PerformanceStats) SuccessRate() float64 {
	if p.TotalTasks == 0 {
		return 0
	}

	return float64(p.SuccessfulTasks) / float64(p.TotalTasks) * 100.0
}

// AvgResponseTimeMs returns the mean response time across all completed
// tasks, or 0 when none completed yet.
func (p PerformanceStats) AvgResponseTimeMs() float64 {
	if p.TotalTasks == 0 {
		return 0
	}

	return float64(p.TotalResponseTimeMs) / float64(p.TotalTasks)
}

// Agent is the registry's unit of bookkeeping: identity, advertised
// capabilities, current status and accumulated performance.
type Agent struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Role         string           `json:"role,omitempty"`
	Personality  string           `json:"personality,omitempty"`
	Model        string           `json:"model,omitempty"`
	Capabilities []Capability     `json:"capabilities,omitempty"`
	Status       AgentStatus      `json:"status"`
	Stats        PerformanceStats `json:"stats"`
}

// Capability returns the named capability and whether the agent
// advertises it. Matching is exact.
func (a Agent) Capability(name string) (Capability, bool) {
	for _, c := range a.Capabilities {
		if c.Name == name {
			return c, true
		}
	}

	return Capability{}, false
}

// Clone returns a deep copy of the agent. Registry reads hand out clones
// so callers never share the registry's backing slices.
func (a Agent) Clone() Agent {
	out := a
	if a.Capabilities != nil {
		out.Capabilities = make([]Capability, len(a.Capabilities))
		copy(out.Capabilities, a.Capabilities)
	}

	return out
}
