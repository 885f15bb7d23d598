// Package tabular implements independent Q-learners whose rewards are shared
// within spatially grouped subteams.
package tabular

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vast/controller"
	"vast/env"

	"golang.org/x/exp/rand"
)

const (
	AlgorithmName = "tabular-q"
	WeightsFile   = "weights.json"
)

type Option func(c *Controller)

type Controller struct {
	nrAgents    int
	nrActions   int
	nrSubteams  int
	alpha       float64
	gamma       float64
	temperature float64
	rng         *rand.Rand
	tables      []map[string][]float64
}

var _ controller.Controller = (*Controller)(nil)

func WithAlpha(alpha float64) Option {
	return func(c *Controller) {
		if alpha > 0 && alpha <= 1 {
			c.alpha = alpha
		}
	}
}

func WithGamma(gamma float64) Option {
	return func(c *Controller) {
		if gamma >= 0 && gamma <= 1 {
			c.gamma = gamma
		}
	}
}

func WithTemperature(temperature float64) Option {
	return func(c *Controller) {
		if temperature > 0 {
			c.temperature = temperature
		}
	}
}

func WithSubteams(nrSubteams int) Option {
	return func(c *Controller) {
		if nrSubteams > 0 {
			c.nrSubteams = nrSubteams
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(c *Controller) {
		c.rng = rand.New(rand.NewSource(seed))
	}
}

func New(nrAgents, nrActions int, options ...Option) *Controller {
	if nrAgents < 1 || nrActions < 1 {
		panic("need at least one agent and one action")
	}
	c := &Controller{ // Default values
		nrAgents:    nrAgents,
		nrActions:   nrActions,
		nrSubteams:  1,
		alpha:       0.1,
		gamma:       0.95,
		temperature: 0.1,
		rng:         rand.New(rand.NewSource(1)),
		tables:      make([]map[string][]float64, nrAgents),
	}
	for i := range c.tables {
		c.tables[i] = make(map[string][]float64)
	}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Controller) GroupAgents(infos []env.AgentInfo, timeStep int) controller.Subteams {
	return controller.GroupByPosition(infos, c.nrSubteams)
}

func (c *Controller) Policy(observations []env.Observation, timeStep int, training bool) env.JointAction {
	action := make(env.JointAction, c.nrAgents)
	for i := range action {
		values := c.values(i, observations[i])
		if training {
			action[i] = controller.Sample(c.rng, controller.Boltzmann(values, c.temperature))
		} else {
			action[i] = controller.Argmax(values)
		}
	}
	return action
}

// Update applies one Q-learning step per agent. Each agent learns from the
// mean reward of its subteam rather than from its own reward alone.
func (c *Controller) Update(t controller.Transition) (controller.UpdateResult, error) {
	if len(t.Observations) != c.nrAgents || len(t.NextObservations) != c.nrAgents {
		return controller.UpdateResult{}, fmt.Errorf("transition has %d observations, want %d", len(t.Observations), c.nrAgents)
	}
	if len(t.JointAction) != c.nrAgents || len(t.Rewards) != c.nrAgents {
		return controller.UpdateResult{}, fmt.Errorf("transition has %d actions and %d rewards, want %d", len(t.JointAction), len(t.Rewards), c.nrAgents)
	}

	rewards := teamRewards(t.Rewards, t.Subteams)
	for i := 0; i < c.nrAgents; i++ {
		a := t.JointAction[i]
		if a < 0 || a >= c.nrActions {
			return controller.UpdateResult{}, fmt.Errorf("agent %d took unknown action %d", i, a)
		}
		target := rewards[i]
		if !t.Done {
			next := c.values(i, t.NextObservations[i])
			target += c.gamma * next[controller.Argmax(next)]
		}
		values := c.values(i, t.Observations[i])
		values[a] += c.alpha * (target - values[a])
	}

	return controller.UpdateResult{
		SampledSubteams: t.Subteams.NonEmpty(),
		MaxSubteams:     c.nrSubteams,
	}, nil
}

// SaveModelWeights stores every agent's Q table as JSON in the directory.
func (c *Controller) SaveModelWeights(directory string) error {
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := os.Create(filepath.Join(directory, WeightsFile))
	if err != nil {
		return fmt.Errorf("failed to create weights file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(c.tables); err != nil {
		return fmt.Errorf("failed to write weights: %w", err)
	}
	return nil
}

func (c *Controller) LoadModelWeights(directory string) error {
	f, err := os.Open(filepath.Join(directory, WeightsFile))
	if err != nil {
		return fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()

	var tables []map[string][]float64
	if err := json.NewDecoder(f).Decode(&tables); err != nil {
		return fmt.Errorf("failed to read weights: %w", err)
	}
	if len(tables) != c.nrAgents {
		return fmt.Errorf("weights hold %d agents, want %d", len(tables), c.nrAgents)
	}
	for i, table := range tables {
		for key, values := range table {
			if len(values) != c.nrActions {
				return fmt.Errorf("agent %d state %q has %d action values, want %d", i, key, len(values), c.nrActions)
			}
		}
		if table == nil {
			tables[i] = make(map[string][]float64)
		}
	}
	c.tables = tables
	return nil
}

// values returns the agent's action values for an observation, adding a
// zeroed row for unseen observations.
func (c *Controller) values(agent int, observation env.Observation) []float64 {
	k := key(observation)
	values, ok := c.tables[agent][k]
	if !ok {
		values = make([]float64, c.nrActions)
		c.tables[agent][k] = values
	}
	return values
}

func key(observation env.Observation) string {
	parts := make([]string, len(observation))
	for i, v := range observation {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// teamRewards replaces each agent's reward by the mean reward of its subteam.
// Agents without a subteam keep their own reward.
func teamRewards(rewards []float64, subteams controller.Subteams) []float64 {
	index := subteams.Of(len(rewards))
	sums := make([]float64, len(subteams))
	sizes := make([]int, len(subteams))
	for id, team := range index {
		if team >= 0 {
			sums[team] += rewards[id]
			sizes[team]++
		}
	}
	shared := append([]float64(nil), rewards...)
	for id, team := range index {
		if team >= 0 {
			shared[id] = sums[team] / float64(sizes[team])
		}
	}
	return shared
}
