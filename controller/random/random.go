// Package random provides a controller that acts uniformly at random. It is
// the baseline every learning controller should beat.
package random

import (
	"vast/controller"
	"vast/env"

	"golang.org/x/exp/rand"
)

const AlgorithmName = "random"

type Controller struct {
	nrAgents   int
	nrActions  int
	nrSubteams int
	rng        *rand.Rand
}

var _ controller.Controller = (*Controller)(nil)

func New(nrAgents, nrActions, nrSubteams int, seed uint64) *Controller {
	if nrAgents < 1 || nrActions < 1 {
		panic("need at least one agent and one action")
	}
	return &Controller{
		nrAgents:   nrAgents,
		nrActions:  nrActions,
		nrSubteams: nrSubteams,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (c *Controller) GroupAgents(infos []env.AgentInfo, timeStep int) controller.Subteams {
	return controller.GroupRandomly(c.rng, len(infos), c.nrSubteams)
}

func (c *Controller) Policy(observations []env.Observation, timeStep int, training bool) env.JointAction {
	action := make(env.JointAction, c.nrAgents)
	for i := range action {
		action[i] = c.rng.Intn(c.nrActions)
	}
	return action
}

func (c *Controller) Update(t controller.Transition) (controller.UpdateResult, error) {
	return controller.UpdateResult{
		SampledSubteams: t.Subteams.NonEmpty(),
		MaxSubteams:     c.nrSubteams,
	}, nil
}

// SaveModelWeights is a no-op; a random policy has no weights.
func (c *Controller) SaveModelWeights(directory string) error {
	return nil
}
