package engine

import (
	"fmt"

	"vast/config"
	"vast/controller"
	"vast/env"
	"vast/experiments/metrics"
	"vast/render"

	"github.com/rs/zerolog/log"
)

type Option func(o *options)

type options struct {
	episode   int
	collector metrics.Collector
}

// WithEpisode sets the episode index used to name the saved episode summary.
func WithEpisode(episode int) Option {
	return func(o *options) {
		if episode >= 0 {
			o.episode = episode
		}
	}
}

func WithCollector(collector metrics.Collector) Option {
	return func(o *options) {
		if collector != nil {
			o.collector = collector
		}
	}
}

// RunEpisode plays one episode of the controller against the environment.
// While training, the controller regroups agents and learns after every
// step; otherwise it only acts.
func RunEpisode(e env.Environment, c controller.Controller, params config.Params, renderer render.Renderer, training bool, opts ...Option) (Result, error) {
	o := options{collector: metrics.NewDummyCollector()}
	for _, opt := range opts {
		opt(&o)
	}
	o.collector.Start(training)

	timeStep := 0
	observations, err := e.Reset()
	if err != nil {
		return Result{}, fmt.Errorf("failed to reset environment: %w", err)
	}
	// Environments may reuse their buffers; transitions must not change later
	observations = env.Copy(observations)
	state := e.GlobalState()
	agentInfos := e.AgentInfos()

	var subteams controller.Subteams
	if training {
		subteams = c.GroupAgents(agentInfos, timeStep)
	}
	var sampledSubteams, maxSubteams *int

	done := false
	for !done {
		if params.MaxEpisodeSteps > 0 && timeStep >= params.MaxEpisodeSteps {
			return Result{}, fmt.Errorf("%w: %d steps", ErrEpisodeTooLong, timeStep)
		}

		jointAction := c.Policy(observations, timeStep, training)
		var nextObservations []env.Observation
		var rewards []float64
		nextObservations, rewards, done, err = e.Step(jointAction)
		if err != nil {
			return Result{}, fmt.Errorf("failed to step environment at time step %d: %w", timeStep, err)
		}
		nextObservations = env.Copy(nextObservations)
		nextState := e.GlobalState()
		timeStep++
		o.collector.AddStep()
		agentInfos = e.AgentInfos()

		if training {
			update, err := c.Update(controller.Transition{
				State:            state,
				Observations:     observations,
				JointAction:      jointAction,
				Rewards:          rewards,
				NextState:        nextState,
				NextObservations: nextObservations,
				Done:             done,
				Subteams:         subteams,
			})
			if err != nil {
				return Result{}, fmt.Errorf("failed to update controller at time step %d: %w", timeStep, err)
			}
			o.collector.AddUpdate()
			subteams = c.GroupAgents(agentInfos, timeStep)
			sampled, largest := update.SampledSubteams, update.MaxSubteams
			sampledSubteams, maxSubteams = &sampled, &largest
		}

		state = nextState
		observations = nextObservations
		renderer.Render(e)
	}

	result := Result{
		DiscountedReturns:   e.DiscountedReturns(),
		UndiscountedReturns: e.UndiscountedReturns(),
		DomainValue:         e.DomainValue(),
		SampledSubteams:     sampledSubteams,
		MaxSubteams:         maxSubteams,
		TimeSteps:           timeStep,
	}
	if winRater, ok := e.(env.WinRater); ok {
		winRate := winRater.WinRate()
		result.WinRate = &winRate
	}

	if params.Directory != "" && params.SaveEpisodes {
		if err := saveEpisode(params.Directory, o.episode, result); err != nil {
			return Result{}, err
		}
	}

	o.collector.AddEpisode()
	metric := o.collector.Complete()
	log.Debug().Msgf("episode %d finished after %d steps (training=%t, %.0f steps/s)", o.episode, timeStep, training, metric.StepsPerSecond())
	return result, nil
}

func saveEpisode(directory string, episode int, result Result) error {
	writer, err := metrics.NewWriter(directory)
	if err != nil {
		return fmt.Errorf("failed to create episode writer: %w", err)
	}
	if err := writer.WriteJSON(fmt.Sprintf("episode_%d.json", episode), result); err != nil {
		return fmt.Errorf("failed to save episode %d: %w", episode, err)
	}
	return nil
}
