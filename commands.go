package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"vast/config"
	"vast/controller"
	"vast/controller/random"
	"vast/controller/tabular"
	"vast/env"
	"vast/env/rendezvous"
	"vast/experiments"
)

func trainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a controller and checkpoint results and weights",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams()
			if err != nil {
				return err
			}
			e, err := newEnvironment(params)
			if err != nil {
				return err
			}
			c, err := newController(params)
			if err != nil {
				return err
			}
			_, err = experiments.RunTraining(cmd.Context(), e, c, params)
			return err
		},
	}
}

func evaluateCmd() *cobra.Command {
	var episodes int
	var weights string
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run evaluation episodes without exploration or learning",
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams()
			if err != nil {
				return err
			}
			e, err := newEnvironment(params)
			if err != nil {
				return err
			}
			c, err := newController(params)
			if err != nil {
				return err
			}
			if weights != "" {
				loader, ok := c.(interface{ LoadModelWeights(string) error })
				if !ok {
					return fmt.Errorf("controller %s has no weights to load", params.AlgorithmName)
				}
				if err := loader.LoadModelWeights(weights); err != nil {
					return err
				}
			}

			result, err := experiments.RunEpisodes(cmd.Context(), episodes, e, c, params, false)
			if err != nil {
				return err
			}
			log.Info().Msgf("evaluated %d episodes (%d steps)", episodes, result.TimeSteps)
			for i := range result.DiscountedReturns {
				log.Info().Msgf("- agent %d: discounted %v undiscounted %v", i, result.DiscountedReturns[i], result.UndiscountedReturns[i])
			}
			log.Info().Msgf("- domain values: %v", result.DomainValues)
			if len(result.WinRates) != 0 {
				log.Info().Msgf("- win rates: %v", result.WinRates)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&episodes, "episodes", "n", config.EVALUATIONS_PER_EPOCH, "number of evaluation episodes")
	cmd.Flags().StringVar(&weights, "weights", "", "directory holding saved weights")
	return cmd
}

func newEnvironment(params config.Params) (env.Environment, error) {
	switch params.DomainName {
	case rendezvous.DomainName:
		if err := params.Domain.Validate(); err != nil {
			return nil, err
		}
		return rendezvous.New(rendezvous.Config{
			NrAgents:    params.NrAgents,
			NrGoals:     params.Domain.NrGoals,
			Size:        params.Domain.GridSize,
			Horizon:     params.Domain.Horizon,
			Gamma:       params.Domain.Gamma,
			StepPenalty: params.Domain.StepPenalty,
			Seed:        params.Seed,
		}), nil
	}
	return nil, fmt.Errorf("%w: unknown domain %q", config.ErrInvalidParams, params.DomainName)
}

func newController(params config.Params) (controller.Controller, error) {
	switch params.AlgorithmName {
	case random.AlgorithmName:
		return random.New(params.NrAgents, rendezvous.NrActions, params.NrSubteams, params.Seed), nil
	case tabular.AlgorithmName:
		if err := params.Controller.Validate(); err != nil {
			return nil, err
		}
		return tabular.New(params.NrAgents, rendezvous.NrActions,
			tabular.WithSubteams(params.NrSubteams),
			tabular.WithAlpha(params.Controller.Alpha),
			tabular.WithGamma(params.Controller.Gamma),
			tabular.WithTemperature(params.Controller.Temperature),
			tabular.WithSeed(params.Seed),
		), nil
	}
	return nil, fmt.Errorf("%w: unknown algorithm %q", config.ErrInvalidParams, params.AlgorithmName)
}
