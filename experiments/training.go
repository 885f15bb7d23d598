package experiments

import (
	"context"
	"fmt"
	"time"

	"vast/config"
	"vast/controller"
	"vast/env"
	"vast/experiments/metrics"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TrainingResult holds the learning curves of a training run, one point per
// evaluation. Returns are indexed by agent first and evaluation second.
type TrainingResult struct {
	RunID               string      `json:"run_id"`
	DiscountedReturns   [][]float64 `json:"discounted_returns"`
	UndiscountedReturns [][]float64 `json:"undiscounted_returns"`
	DomainValues        []float64   `json:"domain_values"`
	WinRates            []float64   `json:"win_rates,omitempty"`
	TimeSteps           []int       `json:"time_steps"`
	SampledSubteams     []*int      `json:"sampled_subteams"`
	MaxSubteams         []*int      `json:"max_subteams"`
}

// RunTraining alternates training epochs with evaluations until params.TMax
// environment steps have been spent. An evaluation runs whenever at least
// params.TestInterval steps passed since the previous one. With
// params.Directory set, the results and the controller's weights are
// checkpointed at the end.
func RunTraining(ctx context.Context, e env.Environment, c controller.Controller, params config.Params) (TrainingResult, error) {
	if err := params.Validate(); err != nil {
		return TrainingResult{}, err
	}

	startTime := time.Now()
	nrAgents := e.NrAgents()
	result := TrainingResult{
		RunID:               uuid.NewString(),
		DiscountedReturns:   newReturnLists(nrAgents),
		UndiscountedReturns: newReturnLists(nrAgents),
		DomainValues:        []float64{},
		TimeSteps:           []int{},
		SampledSubteams:     []*int{},
		MaxSubteams:         []*int{},
	}
	var progress []metrics.ProgressRecord
	var episodeRecords []metrics.EpisodeRecord
	episode := 0
	record := func(batch EpisodesResult) {
		for _, m := range batch.Metrics {
			episodeRecords = append(episodeRecords, metrics.EpisodeRecord{Episode: episode, EpisodeMetric: m})
			episode++
		}
	}

	log.Info().Msgf("starting training run %s (%s, %s)...", result.RunID, params.AlgorithmName, params.DomainName)

	timeStep := 0
	lastLog := 0
	for timeStep <= params.TMax {
		training, err := RunEpisodes(ctx, params.EpisodesPerEpoch, e, c, params, true, WithFirstEpisode(episode))
		record(training)
		if err != nil {
			return result, fmt.Errorf("training at step %d: %w", timeStep, err)
		}
		if training.TimeSteps == 0 {
			return result, fmt.Errorf("training at step %d made no progress", timeStep)
		}
		timeStep += training.TimeSteps

		if timeStep-lastLog < params.TestInterval {
			continue
		}
		lastLog = timeStep
		result.SampledSubteams = append(result.SampledSubteams, training.SampledSubteams)
		result.MaxSubteams = append(result.MaxSubteams, training.MaxSubteams)
		result.TimeSteps = append(result.TimeSteps, timeStep)
		log.Info().Msgf("Finished step %d (%s, %s, %d agents (%d)):", timeStep, params.AlgorithmName, params.DomainName, params.NrAgents, params.NrSubteams)

		evaluation, err := RunEpisodes(ctx, params.EvaluationsPerEpoch, e, c, params, false, WithFirstEpisode(episode))
		record(evaluation)
		if err != nil {
			return result, fmt.Errorf("evaluation at step %d: %w", timeStep, err)
		}

		discounted := meanOfLists(evaluation.DiscountedReturns)
		undiscounted := meanOfLists(evaluation.UndiscountedReturns)
		log.Info().Msgf("- Discounted return:   %f", discounted)
		log.Info().Msgf("- Undiscounted return: %f", undiscounted)
		domainValue := mean(evaluation.DomainValues)
		result.DomainValues = append(result.DomainValues, domainValue)

		p := metrics.ProgressRecord{
			TimeStep:           timeStep,
			DiscountedReturn:   discounted,
			UndiscountedReturn: undiscounted,
			DomainValue:        domainValue,
			SampledSubteams:    training.SampledSubteams,
			MaxSubteams:        training.MaxSubteams,
			StepsPerSecond:     throughput(training.Metrics),
		}
		if len(evaluation.WinRates) != 0 {
			winRate := mean(evaluation.WinRates)
			result.WinRates = append(result.WinRates, winRate)
			p.WinRate = &winRate
			log.Info().Msgf("- Win rate:           %f", winRate)
		}
		log.Info().Msgf("- Domain value:       %f", domainValue)
		log.Info().Msgf("- Throughput:         %.0f steps/s", p.StepsPerSecond)
		progress = append(progress, p)

		for i := 0; i < nrAgents && i < len(evaluation.DiscountedReturns); i++ {
			result.DiscountedReturns[i] = append(result.DiscountedReturns[i], mean(evaluation.DiscountedReturns[i]))
		}
		for i := 0; i < nrAgents && i < len(evaluation.UndiscountedReturns); i++ {
			result.UndiscountedReturns[i] = append(result.UndiscountedReturns[i], mean(evaluation.UndiscountedReturns[i]))
		}
	}

	log.Info().Msgf("completed training run %s after %d steps", result.RunID, timeStep)

	if params.Directory != "" {
		if err := checkpoint(params, c, result, progress, episodeRecords, startTime); err != nil {
			return result, err
		}
	}
	return result, nil
}

func checkpoint(params config.Params, c controller.Controller, result TrainingResult, progress []metrics.ProgressRecord, episodes []metrics.EpisodeRecord, startTime time.Time) error {
	writer, err := metrics.NewWriter(params.Directory)
	if err != nil {
		return fmt.Errorf("failed to create results writer: %w", err)
	}

	if err := writer.WriteJSON(metrics.ResultsFile, result); err != nil {
		return fmt.Errorf("failed to store results: %w", err)
	}
	log.Info().Msg("stored results")

	if err := writer.WriteSetup(result.RunID, params, startTime, time.Now()); err != nil {
		return fmt.Errorf("failed to store setup: %w", err)
	}
	if err := writer.WriteProgress(progress); err != nil {
		return fmt.Errorf("failed to store progress: %w", err)
	}
	if err := writer.WriteEpisodeRecords(episodes); err != nil {
		return fmt.Errorf("failed to store episode records: %w", err)
	}
	log.Info().Msg("stored training metrics")

	if err := c.SaveModelWeights(params.Directory); err != nil {
		return fmt.Errorf("failed to save model weights: %w", err)
	}
	log.Info().Msgf("stored model weights in %s", params.Directory)
	return nil
}

// mean returns 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// meanOfLists averages over every value of every list.
func meanOfLists(lists [][]float64) float64 {
	sum := 0.0
	count := 0
	for _, list := range lists {
		for _, v := range list {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// throughput is the step rate over the completed episodes of a batch.
func throughput(episodes []metrics.EpisodeMetric) float64 {
	steps := 0
	var duration time.Duration
	for _, m := range episodes {
		if !m.Completed {
			continue
		}
		steps += m.TimeSteps
		duration += m.Duration
	}
	return metrics.EpisodeMetric{TimeSteps: steps, Duration: duration}.StepsPerSecond()
}
