package engine

import (
	"errors"

	"vast/controller"
	"vast/env"
)

// mockEnv runs fixed-length episodes in which every agent earns a reward of 1
// per step.
type mockEnv struct {
	nrAgents int
	length   int
	gamma    float64
	winRate  *float64
	stepErr  error
	// reuse hands out the same observation buffers on every call
	reuse bool

	buffer       []env.Observation

	timeStep     int
	resets       int
	discounted   []float64
	undiscounted []float64
}

func newMockEnv(nrAgents, length int) *mockEnv {
	return &mockEnv{nrAgents: nrAgents, length: length, gamma: 0.5}
}

func (m *mockEnv) NrAgents() int { return m.nrAgents }

func (m *mockEnv) Reset() ([]env.Observation, error) {
	m.resets++
	m.timeStep = 0
	m.discounted = make([]float64, m.nrAgents)
	m.undiscounted = make([]float64, m.nrAgents)
	return m.observations(), nil
}

func (m *mockEnv) Step(action env.JointAction) ([]env.Observation, []float64, bool, error) {
	if m.stepErr != nil {
		return nil, nil, false, m.stepErr
	}
	if len(action) != m.nrAgents {
		return nil, nil, false, errors.New("wrong joint action size")
	}
	discount := 1.0
	for i := 0; i < m.timeStep; i++ {
		discount *= m.gamma
	}
	rewards := make([]float64, m.nrAgents)
	for i := range rewards {
		rewards[i] = 1
		m.discounted[i] += discount
		m.undiscounted[i]++
	}
	m.timeStep++
	return m.observations(), rewards, m.timeStep >= m.length, nil
}

func (m *mockEnv) GlobalState() env.State { return env.State{float64(m.timeStep)} }

func (m *mockEnv) AgentInfos() []env.AgentInfo {
	infos := make([]env.AgentInfo, m.nrAgents)
	for i := range infos {
		infos[i] = env.AgentInfo{ID: i, Position: [2]int{i, m.timeStep}, Active: true}
	}
	return infos
}

func (m *mockEnv) DiscountedReturns() []float64   { return m.discounted }
func (m *mockEnv) UndiscountedReturns() []float64 { return m.undiscounted }
func (m *mockEnv) DomainValue() float64           { return float64(m.timeStep) }

func (m *mockEnv) observations() []env.Observation {
	if m.reuse && m.buffer != nil {
		for i := range m.buffer {
			m.buffer[i][0] = float64(m.timeStep)
		}
		return m.buffer
	}
	obs := make([]env.Observation, m.nrAgents)
	for i := range obs {
		obs[i] = env.Observation{float64(m.timeStep)}
	}
	if m.reuse {
		m.buffer = obs
	}
	return obs
}

type winningEnv struct {
	*mockEnv
}

func (w winningEnv) WinRate() float64 { return 1 }

// mockController records every call it receives.
type mockController struct {
	nrAgents  int
	updateErr error

	groupCalls  []int // time steps
	policyCalls []bool
	transitions []controller.Transition
}

func (c *mockController) GroupAgents(infos []env.AgentInfo, timeStep int) controller.Subteams {
	c.groupCalls = append(c.groupCalls, timeStep)
	teams := controller.Subteams{{}}
	for _, info := range infos {
		teams[0] = append(teams[0], info.ID)
	}
	return teams
}

func (c *mockController) Policy(observations []env.Observation, timeStep int, training bool) env.JointAction {
	c.policyCalls = append(c.policyCalls, training)
	return make(env.JointAction, c.nrAgents)
}

func (c *mockController) Update(t controller.Transition) (controller.UpdateResult, error) {
	if c.updateErr != nil {
		return controller.UpdateResult{}, c.updateErr
	}
	c.transitions = append(c.transitions, t)
	return controller.UpdateResult{SampledSubteams: len(c.transitions), MaxSubteams: 3}, nil
}

func (c *mockController) SaveModelWeights(directory string) error { return nil }

type countingRenderer struct {
	renders int
	closed  bool
}

func (r *countingRenderer) Render(env.Environment) { r.renders++ }
func (r *countingRenderer) Close() error           { r.closed = true; return nil }
