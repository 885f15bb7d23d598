package experiments

import (
	"context"
	"errors"
	"fmt"

	"vast/config"
	"vast/controller"
	"vast/engine"
	"vast/env"
	"vast/experiments/metrics"
	"vast/render"
)

// EpisodesResult aggregates a batch of episodes. Returns are indexed by agent
// first and episode second. Subteam statistics hold the last values reported
// by any episode of the batch.
type EpisodesResult struct {
	DiscountedReturns   [][]float64             `json:"discounted_returns"`
	UndiscountedReturns [][]float64             `json:"undiscounted_returns"`
	DomainValues        []float64               `json:"domain_values"`
	SampledSubteams     *int                    `json:"sampled_subteams"`
	MaxSubteams         *int                    `json:"max_subteams"`
	TimeSteps           int                     `json:"time_step"`
	WinRates            []float64               `json:"win_rates,omitempty"`
	Metrics             []metrics.EpisodeMetric `json:"-"`
}

type Option func(o *options)

type options struct {
	firstEpisode int
	renderer     render.Renderer
}

// WithFirstEpisode offsets the episode indices of the batch, so saved
// episode summaries of consecutive batches do not overwrite each other.
func WithFirstEpisode(episode int) Option {
	return func(o *options) {
		if episode >= 0 {
			o.firstEpisode = episode
		}
	}
}

// WithRenderer replaces the renderer built from the params.
func WithRenderer(renderer render.Renderer) Option {
	return func(o *options) {
		if renderer != nil {
			o.renderer = renderer
		}
	}
}

// RunEpisodes runs n episodes back to back and aggregates their results.
func RunEpisodes(ctx context.Context, n int, e env.Environment, c controller.Controller, params config.Params, training bool, opts ...Option) (result EpisodesResult, err error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	renderer := o.renderer
	if renderer == nil {
		renderer = render.NewRenderer(params)
	}
	defer func() {
		if closeErr := renderer.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close renderer: %w", closeErr))
		}
	}()

	nrAgents := e.NrAgents()
	result = EpisodesResult{
		DiscountedReturns:   newReturnLists(nrAgents),
		UndiscountedReturns: newReturnLists(nrAgents),
		DomainValues:        []float64{},
	}

	collector := metrics.NewCollector()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		episode, err := engine.RunEpisode(e, c, params, renderer, training,
			engine.WithEpisode(o.firstEpisode+i),
			engine.WithCollector(collector),
		)
		result.Metrics = append(result.Metrics, collector.Complete())
		if err != nil {
			return result, fmt.Errorf("episode %d: %w", o.firstEpisode+i, err)
		}

		if episode.MaxSubteams != nil {
			result.MaxSubteams = episode.MaxSubteams
		}
		if episode.SampledSubteams != nil {
			result.SampledSubteams = episode.SampledSubteams
		}
		appendReturns(result.DiscountedReturns, episode.DiscountedReturns)
		appendReturns(result.UndiscountedReturns, episode.UndiscountedReturns)
		result.DomainValues = append(result.DomainValues, episode.DomainValue)
		if episode.WinRate != nil {
			result.WinRates = append(result.WinRates, *episode.WinRate)
		}
		result.TimeSteps += episode.TimeSteps
	}

	return result, nil
}

func newReturnLists(nrAgents int) [][]float64 {
	lists := make([][]float64, nrAgents)
	for i := range lists {
		lists[i] = []float64{}
	}
	return lists
}

// appendReturns appends each agent's return to that agent's list. Surplus
// entries on either side are ignored.
func appendReturns(lists [][]float64, returns []float64) {
	for i := 0; i < len(lists) && i < len(returns); i++ {
		lists[i] = append(lists[i], returns[i])
	}
}
