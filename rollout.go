package bclone

import (
	"log"

	"github.com/unixpickle/essentials"
)

// DefaultMaxEpLen is the default cap on the length of an
// evaluation episode.
const DefaultMaxEpLen = 400

// An Env is a continuous-control environment.
type Env interface {
	Reset() (obs []float64, err error)
	Step(action []float64) (obs []float64, reward float64, done bool, err error)
	Render() error
}

// Rollouts runs episodes of an Actor in an environment
// and returns the total reward of each episode.
//
// Episodes end when the environment is done or after
// maxEpLen steps.
// If render is true, every step is rendered.
func Rollouts(env Env, actor Actor, episodes, maxEpLen int,
	render bool) ([]float64, error) {
	var rewards []float64
	for i := 0; i < episodes; i++ {
		reward, err := rollout(env, actor, maxEpLen, render)
		if err != nil {
			return rewards, essentials.AddCtx("rollout", err)
		}
		rewards = append(rewards, reward)
	}
	return rewards, nil
}

func rollout(env Env, actor Actor, maxEpLen int, render bool) (float64, error) {
	obs, err := env.Reset()
	if err != nil {
		return 0, err
	}
	var total float64
	for t := 0; t < maxEpLen; t++ {
		if render {
			if err := env.Render(); err != nil {
				return total, err
			}
		}
		var reward float64
		var done bool
		obs, reward, done, err = env.Step(actor.Act(obs))
		if err != nil {
			return total, err
		}
		total += reward
		if done {
			break
		}
	}
	return total, nil
}

// EnvEvaluator is an Evaluator which runs rendered
// episodes of a deterministic Actor.
type EnvEvaluator struct {
	Env   Env
	Actor Actor

	// MaxEpLen caps each episode.
	// If 0, DefaultMaxEpLen is used.
	MaxEpLen int

	// Logger receives per-episode rewards.
	// If nil, the standard logger is used.
	Logger *log.Logger
}

// Evaluate runs the episodes and logs their rewards.
func (e *EnvEvaluator) Evaluate(episodes int) error {
	maxLen := e.MaxEpLen
	if maxLen == 0 {
		maxLen = DefaultMaxEpLen
	}
	logger := e.Logger
	if logger == nil {
		logger = log.Default()
	}
	rewards, err := Rollouts(e.Env, e.Actor, episodes, maxLen, true)
	for i, r := range rewards {
		logger.Printf("episode %d: reward=%f", i, r)
	}
	return err
}
