package experiments

import (
	"errors"

	"github.com/unixpickle/anyrl"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	gym "github.com/unixpickle/gym-socket-api/binding-go"
)

// MakeEnv connects to gym-socket-api and creates the
// environment named by the flags.
//
// Goal-based environments produce observations with the
// desired goal appended.
func MakeEnv(c anyvec.Creator, f *Flags) (env Env, info *EnvInfo, err error) {
	defer func() {
		err = essentials.AddCtx("make env "+f.Env, err)
	}()

	client, err := gym.Make(f.GymHost, f.Env)
	if err != nil {
		return nil, nil, err
	}
	actSpace, err := client.ActionSpace()
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	if len(actSpace.High) == 0 {
		client.Close()
		return nil, nil, errors.New("action space is not continuous")
	}

	if f.GoalBased {
		env = &goalEnv{Client: client, Min: actSpace.Low, Max: actSpace.High}
	} else {
		rawEnv, err := anyrl.GymEnv(c, client, false)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		env = &anyrlEnv{
			Env:     rawEnv,
			Client:  client,
			Creator: c,
			Min:     actSpace.Low,
			Max:     actSpace.High,
		}
	}

	obs, err := env.Reset()
	if err != nil {
		env.Close()
		return nil, nil, err
	}
	info = &EnvInfo{
		Name:     f.Env,
		ObsDim:   len(obs),
		ActDim:   len(actSpace.High),
		ActLimit: actSpace.High[0],
	}
	return env, info, nil
}
