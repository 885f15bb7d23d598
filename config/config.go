// Package config holds the experiment parameters shared by the episode
// runner, the training loop and the command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults for a short rendezvous experiment
const (
	EPISODES_PER_EPOCH    = 10
	EVALUATIONS_PER_EPOCH = 10
	T_MAX                 = 50000
	TEST_INTERVAL         = 5000
	NR_AGENTS             = 4
	NR_SUBTEAMS           = 2
	RENDER_EVERY          = 1
)

// Environment variables that override the loaded parameters
const (
	EnvDirectory = "VAST_DIRECTORY"
	EnvTMax      = "VAST_T_MAX"
	EnvSeed      = "VAST_SEED"
)

var ErrInvalidParams = errors.New("invalid params")

type Params struct {
	AlgorithmName       string `yaml:"algorithm_name" json:"algorithm_name"`
	DomainName          string `yaml:"domain_name" json:"domain_name"`
	NrAgents            int    `yaml:"nr_agents" json:"nr_agents"`
	NrSubteams          int    `yaml:"nr_subteams" json:"nr_subteams"`
	EpisodesPerEpoch    int    `yaml:"episodes_per_epoch" json:"episodes_per_epoch"`
	EvaluationsPerEpoch int    `yaml:"evaluations_per_epoch" json:"evaluations_per_epoch"`
	TMax                int    `yaml:"t_max" json:"t_max"`
	TestInterval        int    `yaml:"test_interval" json:"test_interval"`
	// MaxEpisodeSteps aborts episodes that never finish; 0 disables the check
	MaxEpisodeSteps int `yaml:"max_episode_steps" json:"max_episode_steps"`
	// Directory receives results and weights; empty disables checkpointing
	Directory    string `yaml:"directory" json:"directory,omitempty"`
	SaveEpisodes bool   `yaml:"save_episodes" json:"save_episodes"`
	Render       bool   `yaml:"render" json:"render"`
	RenderEvery  int    `yaml:"render_every" json:"render_every"`
	Seed         uint64 `yaml:"seed" json:"seed"`

	Domain     DomainParams     `yaml:"domain" json:"domain"`
	Controller ControllerParams `yaml:"controller" json:"controller"`
}

type DomainParams struct {
	GridSize    int     `yaml:"grid_size" json:"grid_size"`
	NrGoals     int     `yaml:"nr_goals" json:"nr_goals"`
	Horizon     int     `yaml:"horizon" json:"horizon"`
	Gamma       float64 `yaml:"gamma" json:"gamma"`
	StepPenalty float64 `yaml:"step_penalty" json:"step_penalty"`
}

type ControllerParams struct {
	Alpha       float64 `yaml:"alpha" json:"alpha"`
	Gamma       float64 `yaml:"gamma" json:"gamma"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

func Default() Params {
	return Params{
		AlgorithmName:       "tabular-q",
		DomainName:          "rendezvous",
		NrAgents:            NR_AGENTS,
		NrSubteams:          NR_SUBTEAMS,
		EpisodesPerEpoch:    EPISODES_PER_EPOCH,
		EvaluationsPerEpoch: EVALUATIONS_PER_EPOCH,
		TMax:                T_MAX,
		TestInterval:        TEST_INTERVAL,
		RenderEvery:         RENDER_EVERY,
		Seed:                1,
		Domain: DomainParams{
			GridSize:    5,
			NrGoals:     2,
			Horizon:     50,
			Gamma:       0.95,
			StepPenalty: 0.01,
		},
		Controller: ControllerParams{
			Alpha:       0.1,
			Gamma:       0.95,
			Temperature: 0.1,
		},
	}
}

// Load reads YAML parameters on top of the defaults.
func Load(path string) (Params, error) {
	params := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return params, fmt.Errorf("failed to read params: %w", err)
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, fmt.Errorf("failed to parse params %s: %w", path, err)
	}
	return params, nil
}

// ApplyEnv loads the given dotenv files (a missing file is not an error) and
// overrides parameters from VAST_* environment variables.
func (p *Params) ApplyEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	if dir, ok := os.LookupEnv(EnvDirectory); ok {
		p.Directory = dir
	}
	if value, ok := os.LookupEnv(EnvTMax); ok {
		tMax, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidParams, EnvTMax, value)
		}
		p.TMax = tMax
	}
	if value, ok := os.LookupEnv(EnvSeed); ok {
		seed, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an unsigned integer", ErrInvalidParams, EnvSeed, value)
		}
		p.Seed = seed
	}
	return nil
}

// Validate checks the run parameters shared by every domain and algorithm.
func (p Params) Validate() error {
	switch {
	case p.NrAgents < 1:
		return fmt.Errorf("%w: nr_agents must be positive, got %d", ErrInvalidParams, p.NrAgents)
	case p.NrSubteams < 1:
		return fmt.Errorf("%w: nr_subteams must be positive, got %d", ErrInvalidParams, p.NrSubteams)
	case p.EpisodesPerEpoch < 1:
		return fmt.Errorf("%w: episodes_per_epoch must be positive, got %d", ErrInvalidParams, p.EpisodesPerEpoch)
	case p.EvaluationsPerEpoch < 0:
		return fmt.Errorf("%w: evaluations_per_epoch must not be negative, got %d", ErrInvalidParams, p.EvaluationsPerEpoch)
	case p.TMax < 0:
		return fmt.Errorf("%w: t_max must not be negative, got %d", ErrInvalidParams, p.TMax)
	case p.TestInterval < 0:
		return fmt.Errorf("%w: test_interval must not be negative, got %d", ErrInvalidParams, p.TestInterval)
	case p.MaxEpisodeSteps < 0:
		return fmt.Errorf("%w: max_episode_steps must not be negative, got %d", ErrInvalidParams, p.MaxEpisodeSteps)
	}
	return nil
}

// Validate checks the grid world settings used by the rendezvous domain.
func (d DomainParams) Validate() error {
	switch {
	case d.GridSize < 2:
		return fmt.Errorf("%w: grid_size must be at least 2, got %d", ErrInvalidParams, d.GridSize)
	case d.NrGoals < 1 || d.NrGoals >= d.GridSize*d.GridSize:
		return fmt.Errorf("%w: nr_goals must be between 1 and %d, got %d", ErrInvalidParams, d.GridSize*d.GridSize-1, d.NrGoals)
	case d.Horizon < 1:
		return fmt.Errorf("%w: horizon must be positive, got %d", ErrInvalidParams, d.Horizon)
	case d.Gamma < 0 || d.Gamma > 1:
		return fmt.Errorf("%w: domain gamma must be in [0, 1], got %g", ErrInvalidParams, d.Gamma)
	}
	return nil
}

// Validate checks the learning parameters of the tabular controller.
func (c ControllerParams) Validate() error {
	switch {
	case c.Alpha <= 0 || c.Alpha > 1:
		return fmt.Errorf("%w: alpha must be in (0, 1], got %g", ErrInvalidParams, c.Alpha)
	case c.Gamma < 0 || c.Gamma > 1:
		return fmt.Errorf("%w: controller gamma must be in [0, 1], got %g", ErrInvalidParams, c.Gamma)
	case c.Temperature <= 0:
		return fmt.Errorf("%w: temperature must be positive, got %g", ErrInvalidParams, c.Temperature)
	}
	return nil
}
