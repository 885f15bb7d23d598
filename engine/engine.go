package engine

import "errors"

// ErrEpisodeTooLong is returned when an episode exceeds params.MaxEpisodeSteps.
var ErrEpisodeTooLong = errors.New("episode exceeded the step limit")

// Result summarizes a single finished episode. Subteam statistics are only
// reported while training and are nil otherwise; WinRate is nil for
// environments without a notion of winning.
type Result struct {
	DiscountedReturns   []float64 `json:"discounted_returns"`
	UndiscountedReturns []float64 `json:"undiscounted_returns"`
	DomainValue         float64   `json:"domain_value"`
	SampledSubteams     *int      `json:"sampled_subteams"`
	MaxSubteams         *int      `json:"max_subteams"`
	TimeSteps           int       `json:"time_step"`
	WinRate             *float64  `json:"win_rate,omitempty"`
}
