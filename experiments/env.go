package experiments

import (
	"errors"
	"math"

	"github.com/unixpickle/anyrl"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/bclone"
	gym "github.com/unixpickle/gym-socket-api/binding-go"
)

// Env is an environment with a Close() method for
// releasing the environment's resources.
type Env interface {
	bclone.Env
	Close() error
}

// EnvInfo describes the spaces of an environment.
type EnvInfo struct {
	Name string

	// ObsDim is the size of an observation, including the
	// desired goal for goal-based environments.
	ObsDim int

	ActDim   int
	ActLimit float64
}

// CheckData verifies that a data split is compatible
// with the environment.
func (e *EnvInfo) CheckData(s *bclone.Split) error {
	if s.ObsDim() != e.ObsDim {
		return errors.New("observation size mismatch between data and environment")
	}
	if s.ActDim() != e.ActDim {
		return errors.New("action size mismatch between data and environment")
	}
	return nil
}

// anyrlEnv adapts an anyrl.Env created from a gym client.
type anyrlEnv struct {
	Env     anyrl.Env
	Client  gym.Env
	Creator anyvec.Creator
	Min     []float64
	Max     []float64
}

func (a *anyrlEnv) Reset() ([]float64, error) {
	obs, err := a.Env.Reset()
	if err != nil {
		return nil, err
	}
	return bclone.VecToFloats(obs), nil
}

func (a *anyrlEnv) Step(action []float64) (obs []float64, reward float64,
	done bool, err error) {
	scaled := clampAction(action, a.Min, a.Max)
	vec := a.Creator.MakeVectorData(a.Creator.MakeNumericList(scaled))
	obsVec, reward, done, err := a.Env.Step(vec)
	if obsVec != nil {
		obs = bclone.VecToFloats(obsVec)
	}
	return
}

func (a *anyrlEnv) Render() error {
	return a.Client.Render()
}

func (a *anyrlEnv) Close() error {
	return a.Client.Close()
}

// goalEnv flattens the dictionary observations of a
// goal-based gym environment by appending the desired
// goal to the observation.
type goalEnv struct {
	Client gym.Env
	Min    []float64
	Max    []float64
}

func (g *goalEnv) Reset() ([]float64, error) {
	obs, err := g.Client.Reset()
	if err != nil {
		return nil, err
	}
	return goalObs(obs)
}

func (g *goalEnv) Step(action []float64) (obs []float64, reward float64,
	done bool, err error) {
	rawObs, reward, done, _, err := g.Client.Step(clampAction(action, g.Min, g.Max))
	if err != nil {
		return nil, reward, done, err
	}
	obs, err = goalObs(rawObs)
	return
}

func (g *goalEnv) Render() error {
	return g.Client.Render()
}

func (g *goalEnv) Close() error {
	return g.Client.Close()
}

func goalObs(obs gym.Obs) ([]float64, error) {
	var dict struct {
		Observation []float64 `json:"observation"`
		DesiredGoal []float64 `json:"desired_goal"`
	}
	if err := obs.Unmarshal(&dict); err != nil {
		return nil, err
	}
	if dict.Observation == nil || dict.DesiredGoal == nil {
		return nil, errors.New("observation is missing observation or desired_goal")
	}
	return append(dict.Observation, dict.DesiredGoal...), nil
}

func clampAction(action, min, max []float64) []float64 {
	res := make([]float64, len(action))
	for i, x := range action {
		res[i] = x
		if i < len(min) {
			res[i] = math.Max(res[i], min[i])
		}
		if i < len(max) {
			res[i] = math.Min(res[i], max[i])
		}
	}
	return res
}
