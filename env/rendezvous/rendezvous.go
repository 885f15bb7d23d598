// Package rendezvous implements a small cooperative grid world: every agent
// has to reach one of the goal cells before the horizon runs out.
package rendezvous

import (
	"fmt"
	"math"
	"strings"

	"vast/env"

	"golang.org/x/exp/rand"
)

const (
	Stay = iota
	Up
	Down
	Left
	Right
	NrActions
)

const (
	ArrivalReward = 1.0
	DomainName    = "rendezvous"
)

type Config struct {
	NrAgents    int
	NrGoals     int
	Size        int
	Horizon     int
	Gamma       float64
	StepPenalty float64
	Seed        uint64
}

// DefaultConfig returns a configuration for nrAgents agents on a 5x5 grid.
func DefaultConfig(nrAgents int) Config {
	return Config{
		NrAgents:    nrAgents,
		NrGoals:     2,
		Size:        5,
		Horizon:     50,
		Gamma:       0.95,
		StepPenalty: 0.01,
		Seed:        1,
	}
}

type Env struct {
	cfg Config
	rng *rand.Rand

	positions [][2]int
	goals     [][2]int
	arrived   []bool
	timeStep  int

	discounted   []float64
	undiscounted []float64
}

var _ env.Environment = (*Env)(nil)
var _ env.WinRater = (*Env)(nil)
var _ env.Framer = (*Env)(nil)

func New(cfg Config) *Env {
	if cfg.NrAgents < 1 {
		panic("need at least one agent")
	}
	if cfg.Size < 2 || cfg.NrGoals < 1 || cfg.NrGoals >= cfg.Size*cfg.Size || cfg.Horizon < 1 {
		panic("invalid rendezvous configuration")
	}
	return &Env{
		cfg:          cfg,
		rng:          rand.New(rand.NewSource(cfg.Seed)),
		positions:    make([][2]int, cfg.NrAgents),
		goals:        make([][2]int, cfg.NrGoals),
		arrived:      make([]bool, cfg.NrAgents),
		discounted:   make([]float64, cfg.NrAgents),
		undiscounted: make([]float64, cfg.NrAgents),
	}
}

func (e *Env) NrAgents() int {
	return e.cfg.NrAgents
}

func (e *Env) Reset() ([]env.Observation, error) {
	for i := range e.goals {
		e.goals[i] = e.randomCell()
	}
	for i := range e.positions {
		// Agents never start on a goal so every episode lasts at least one step
		e.positions[i] = e.randomCell()
		for e.isGoal(e.positions[i]) {
			e.positions[i] = e.randomCell()
		}
		e.arrived[i] = false
		e.discounted[i] = 0
		e.undiscounted[i] = 0
	}
	e.timeStep = 0
	return e.observations(), nil
}

func (e *Env) Step(action env.JointAction) ([]env.Observation, []float64, bool, error) {
	if len(action) != e.cfg.NrAgents {
		return nil, nil, false, fmt.Errorf("joint action has %d entries, want %d", len(action), e.cfg.NrAgents)
	}
	if e.done() {
		return nil, nil, false, fmt.Errorf("step after episode end at time step %d", e.timeStep)
	}

	rewards := make([]float64, e.cfg.NrAgents)
	discount := math.Pow(e.cfg.Gamma, float64(e.timeStep))
	for i, a := range action {
		if a < 0 || a >= NrActions {
			return nil, nil, false, fmt.Errorf("agent %d chose unknown action %d", i, a)
		}
		if e.arrived[i] {
			continue
		}
		e.positions[i] = e.move(e.positions[i], a)
		rewards[i] = -e.cfg.StepPenalty
		if e.isGoal(e.positions[i]) {
			e.arrived[i] = true
			rewards[i] += ArrivalReward
		}
		e.discounted[i] += discount * rewards[i]
		e.undiscounted[i] += rewards[i]
	}
	e.timeStep++

	return e.observations(), rewards, e.done(), nil
}

// GlobalState concatenates all agent positions, arrival flags and goal cells.
func (e *Env) GlobalState() env.State {
	state := make(env.State, 0, 3*len(e.positions)+2*len(e.goals))
	for i, p := range e.positions {
		state = append(state, float64(p[0]), float64(p[1]), boolToFloat(e.arrived[i]))
	}
	for _, g := range e.goals {
		state = append(state, float64(g[0]), float64(g[1]))
	}
	return state
}

func (e *Env) AgentInfos() []env.AgentInfo {
	infos := make([]env.AgentInfo, len(e.positions))
	for i, p := range e.positions {
		infos[i] = env.AgentInfo{ID: i, Position: p, Active: !e.arrived[i]}
	}
	return infos
}

func (e *Env) DiscountedReturns() []float64 {
	return append([]float64(nil), e.discounted...)
}

func (e *Env) UndiscountedReturns() []float64 {
	return append([]float64(nil), e.undiscounted...)
}

// DomainValue is the fraction of agents that reached a goal.
func (e *Env) DomainValue() float64 {
	count := 0
	for _, a := range e.arrived {
		if a {
			count++
		}
	}
	return float64(count) / float64(len(e.arrived))
}

// WinRate is 1 when every agent reached a goal, 0 otherwise.
func (e *Env) WinRate() float64 {
	return boolToFloat(e.allArrived())
}

func (e *Env) Frame() string {
	grid := make([][]byte, e.cfg.Size)
	for y := range grid {
		grid[y] = []byte(strings.Repeat(".", e.cfg.Size))
	}
	for _, g := range e.goals {
		grid[g[1]][g[0]] = 'G'
	}
	for i, p := range e.positions {
		grid[p[1]][p[0]] = byte('0' + i%10)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "t=%d\n", e.timeStep)
	for _, row := range grid {
		b.Write(row)
		b.WriteByte('\n')
	}
	return b.String()
}

// observations returns, per agent: position, the sign of the offset to the
// nearest goal and an arrival flag.
func (e *Env) observations() []env.Observation {
	obs := make([]env.Observation, len(e.positions))
	for i, p := range e.positions {
		g := e.nearestGoal(p)
		obs[i] = env.Observation{
			float64(p[0]),
			float64(p[1]),
			sign(g[0] - p[0]),
			sign(g[1] - p[1]),
			boolToFloat(e.arrived[i]),
		}
	}
	return obs
}

func (e *Env) move(p [2]int, action int) [2]int {
	switch action {
	case Up:
		p[1]--
	case Down:
		p[1]++
	case Left:
		p[0]--
	case Right:
		p[0]++
	}
	p[0] = min(max(p[0], 0), e.cfg.Size-1)
	p[1] = min(max(p[1], 0), e.cfg.Size-1)
	return p
}

func (e *Env) nearestGoal(p [2]int) [2]int {
	best := e.goals[0]
	bestDist := manhattan(p, best)
	for _, g := range e.goals[1:] {
		if d := manhattan(p, g); d < bestDist {
			best, bestDist = g, d
		}
	}
	return best
}

func (e *Env) isGoal(p [2]int) bool {
	for _, g := range e.goals {
		if g == p {
			return true
		}
	}
	return false
}

func (e *Env) allArrived() bool {
	for _, a := range e.arrived {
		if !a {
			return false
		}
	}
	return true
}

func (e *Env) done() bool {
	return e.allArrived() || e.timeStep >= e.cfg.Horizon
}

func (e *Env) randomCell() [2]int {
	return [2]int{e.rng.Intn(e.cfg.Size), e.rng.Intn(e.cfg.Size)}
}

func manhattan(a, b [2]int) int {
	return abs(a[0]-b[0]) + abs(a[1]-b[1])
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
