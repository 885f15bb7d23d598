package env

// Observation is a single agent's local view of the environment.
type Observation []float64

// State is the global (centralized) view of the environment.
type State []float64

// JointAction holds one discrete action per agent, indexed by agent ID.
type JointAction []int

type AgentInfo struct {
	ID       int
	Position [2]int
	Active   bool
}

// Environment is a multi-agent episodic environment. Implementations are not
// safe for concurrent use; a single episode owns the environment while it runs.
type Environment interface {
	NrAgents() int
	// Reset starts a new episode and returns each agent's first observation
	Reset() ([]Observation, error)
	// Step applies the joint action and reports the next observations, the
	// per-agent rewards and whether the episode is over
	Step(JointAction) (next []Observation, rewards []float64, done bool, err error)
	GlobalState() State
	AgentInfos() []AgentInfo
	// Returns accumulated by each agent since the last Reset
	DiscountedReturns() []float64
	UndiscountedReturns() []float64
	// DomainValue scores the finished episode in domain terms (e.g. fraction of goals reached)
	DomainValue() float64
}

// WinRater is implemented by environments with a notion of winning an episode.
type WinRater interface {
	WinRate() float64
}

// Framer is implemented by environments that can draw themselves as text.
type Framer interface {
	Frame() string
}

// Copy returns a deep copy of the observations so callers may keep them
// across steps.
func Copy(observations []Observation) []Observation {
	out := make([]Observation, len(observations))
	for i, o := range observations {
		out[i] = append(Observation(nil), o...)
	}
	return out
}
