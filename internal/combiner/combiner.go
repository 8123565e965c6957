// Package combiner merges the signals of several strategies into one per date.
package combiner

import (
	"fmt"
	"math"
	"strings"

	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
)

// Rule is one of MajorityVote, WeightedAverage or Consensus.
type Rule interface {
	// Name is the rule's configuration name
	Name() string
	rule()
}

// MajorityVote emits the side with more votes; ties hold.
type MajorityVote struct{}

// WeightedAverage emits Buy when sum(weight*signal) > Threshold and Sell when it is < -Threshold.
// Nil Weights means equal weights of 1/N.
type WeightedAverage struct {
	Weights   []float64
	Threshold float64
}

// Consensus emits Buy or Sell only when every input agrees.
type Consensus struct{}

func (MajorityVote) Name() string    { return "majority_vote" }
func (WeightedAverage) Name() string { return "weighted_average" }
func (Consensus) Name() string       { return "consensus" }

func (MajorityVote) rule()    {}
func (WeightedAverage) rule() {}
func (Consensus) rule()       {}

// Combine merges inputs that share one date index under the rule.
func Combine(inputs []types.SignalSeries, rule Rule) (types.CombinedSignal, error) {
	if len(inputs) == 0 {
		return types.CombinedSignal{}, errors.New(errors.ErrCodeEmptyInput, "combine needs at least one signal series")
	}

	if rule == nil {
		return types.CombinedSignal{}, errors.New(errors.ErrCodeInvalidRule, "combine needs a rule")
	}

	for i := 1; i < len(inputs); i++ {
		if !inputs[0].SameIndex(inputs[i]) {
			return types.CombinedSignal{}, errors.Newf(errors.ErrCodeMismatchedIndex,
				"signal series %q does not share the date index of %q", inputs[i].Name, inputs[0].Name)
		}
	}

	var decide func(votes []types.Signal) types.Signal

	switch r := rule.(type) {
	case MajorityVote:
		decide = majority
	case Consensus:
		decide = consensus
	case WeightedAverage:
		weights, err := r.resolve(len(inputs))
		if err != nil {
			return types.CombinedSignal{}, err
		}

		decide = func(votes []types.Signal) types.Signal {
			return weighted(votes, weights, r.Threshold)
		}
	default:
		return types.CombinedSignal{}, errors.Newf(errors.ErrCodeInvalidRule, "unsupported rule %T", rule)
	}

	names := make([]string, len(inputs))
	for i, input := range inputs {
		names[i] = input.Name
	}

	out := types.CombinedSignal{
		SignalSeries: types.NewSignalSeries(fmt.Sprintf("%s(%s)", rule.Name(), strings.Join(names, ",")), inputs[0].Dates),
		Rule:         rule.Name(),
		Inputs:       names,
	}

	votes := make([]types.Signal, len(inputs))
	for t := range out.Signals {
		for i, input := range inputs {
			votes[i] = input.Signals[t]
		}

		out.Signals[t] = decide(votes)
	}

	return out, nil
}

// resolve validates the weights, defaulting to equal weights.
func (w WeightedAverage) resolve(n int) ([]float64, error) {
	if w.Threshold < 0 || math.IsNaN(w.Threshold) || math.IsInf(w.Threshold, 0) {
		return nil, errors.Newf(errors.ErrCodeInvalidThreshold, "threshold must be a finite non-negative number, got %v", w.Threshold)
	}

	if w.Weights == nil {
		weights := make([]float64, n)
		for i := range weights {
			weights[i] = 1 / float64(n)
		}

		return weights, nil
	}

	if len(w.Weights) != n {
		return nil, errors.Newf(errors.ErrCodeInvalidWeights, "got %d weights for %d signal series", len(w.Weights), n)
	}

	sum := 0.0
	for _, weight := range w.Weights {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			return nil, errors.Newf(errors.ErrCodeInvalidWeights, "weights must be finite and non-negative, got %v", weight)
		}

		sum += weight
	}

	if sum <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidWeights, "weights must sum to a positive value")
	}

	return w.Weights, nil
}

func majority(votes []types.Signal) types.Signal {
	buys, sells := 0, 0

	for _, v := range votes {
		switch v {
		case types.SignalBuy:
			buys++
		case types.SignalSell:
			sells++
		}
	}

	switch {
	case buys > sells:
		return types.SignalBuy
	case sells > buys:
		return types.SignalSell
	default:
		return types.SignalHold
	}
}

func consensus(votes []types.Signal) types.Signal {
	first := votes[0]
	for _, v := range votes[1:] {
		if v != first {
			return types.SignalHold
		}
	}

	return first
}

func weighted(votes []types.Signal, weights []float64, threshold float64) types.Signal {
	score := 0.0
	for i, v := range votes {
		score += weights[i] * float64(v)
	}

	switch {
	case score > threshold:
		return types.SignalBuy
	case score < -threshold:
		return types.SignalSell
	default:
		return types.SignalHold
	}
}
