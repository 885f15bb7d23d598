package controller

import "vast/env"

// Subteams partitions agent IDs into groups. The grouping is recomputed by
// the controller at every time step of a training episode.
type Subteams [][]int

// Transition is the experience handed to Controller.Update after each step.
type Transition struct {
	State            env.State
	Observations     []env.Observation
	JointAction      env.JointAction
	Rewards          []float64
	NextState        env.State
	NextObservations []env.Observation
	Done             bool
	Subteams         Subteams
}

// UpdateResult reports how the centralized update grouped the agents.
type UpdateResult struct {
	SampledSubteams int
	MaxSubteams     int
}

type Controller interface {
	// GroupAgents assigns agents to subteams for the given time step
	GroupAgents(infos []env.AgentInfo, timeStep int) Subteams
	// Policy returns a joint action; exploration is only applied while training
	Policy(observations []env.Observation, timeStep int, training bool) env.JointAction
	// Update learns from one transition
	Update(t Transition) (UpdateResult, error)
	SaveModelWeights(directory string) error
}

// NonEmpty counts the subteams that contain at least one agent.
func (s Subteams) NonEmpty() int {
	count := 0
	for _, team := range s {
		if len(team) > 0 {
			count++
		}
	}
	return count
}

// Of returns a lookup from agent ID to subteam index.
func (s Subteams) Of(nrAgents int) []int {
	index := make([]int, nrAgents)
	for i := range index {
		index[i] = -1
	}
	for team, members := range s {
		for _, id := range members {
			if id >= 0 && id < nrAgents {
				index[id] = team
			}
		}
	}
	return index
}
