package bclone

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

// ModelConfig describes a policy and its optimizer.
type ModelConfig struct {
	ObsDim   int
	ActDim   int
	Hidden   []int
	ActLimit float64

	// Rate is the Adam step size.
	Rate float64

	// SavePath is where weights are saved.
	SavePath string

	// Load indicates that the weights should be loaded
	// from SavePath rather than initialized randomly.
	Load bool
}

// Model couples a policy with its optimizer and save
// location.
type Model struct {
	Policy    *GaussianPolicy
	Optimizer *Adam
	SavePath  string
}

// NewModel creates a model from a configuration,
// loading weights if requested.
func NewModel(c anyvec.Creator, config *ModelConfig) (*Model, error) {
	var policy *GaussianPolicy
	if config.Load {
		var err error
		policy, err = LoadPolicy(config.SavePath, config.ActLimit)
		if err != nil {
			return nil, essentials.AddCtx("create model", err)
		}
		obsDim, actDim, err := policy.Dims()
		if err != nil {
			return nil, essentials.AddCtx("create model", err)
		}
		if obsDim != config.ObsDim || actDim != config.ActDim {
			return nil, fmt.Errorf("create model: checkpoint maps %d observation "+
				"components to %d action components, expected %d to %d",
				obsDim, actDim, config.ObsDim, config.ActDim)
		}
	} else {
		policy = NewGaussianPolicy(c, config.ObsDim, config.ActDim, config.Hidden,
			config.ActLimit)
	}
	return &Model{
		Policy:    policy,
		Optimizer: NewAdam(policy.Parameters(), config.Rate),
		SavePath:  config.SavePath,
	}, nil
}

// SaveWeights saves the policy to SavePath.
func (m *Model) SaveWeights() error {
	return SavePolicy(m.SavePath, m.Policy)
}

// SavePolicy saves the networks of a policy to a file.
func SavePolicy(path string, p *GaussianPolicy) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return essentials.AddCtx("save policy", err)
		}
	}
	err := serializer.SaveAny(path, p.Trunk, p.MeanHead, p.LogStdHead)
	return essentials.AddCtx("save policy", err)
}

// LoadPolicy loads a policy saved with SavePolicy.
//
// The action limit is not saved, so it must be provided.
func LoadPolicy(path string, actLimit float64) (*GaussianPolicy, error) {
	var trunk, meanHead, logStdHead anynet.Net
	if err := serializer.LoadAny(path, &trunk, &meanHead, &logStdHead); err != nil {
		return nil, essentials.AddCtx("load policy", err)
	}
	return &GaussianPolicy{
		Trunk:      trunk,
		MeanHead:   meanHead,
		LogStdHead: logStdHead,
		ActLimit:   actLimit,
	}, nil
}

// Dims returns the observation and action sizes of the
// policy's networks.
func (g *GaussianPolicy) Dims() (obsDim, actDim int, err error) {
	in := firstFC(append(append(anynet.Net{}, g.Trunk...), g.MeanHead...))
	out := lastFC(g.MeanHead)
	logStdOut := lastFC(g.LogStdHead)
	if in == nil || out == nil {
		return 0, 0, errors.New("policy has no fully-connected layers")
	}
	if logStdOut != nil && logStdOut.OutCount != out.OutCount {
		return 0, 0, errors.New("policy heads have different output sizes")
	}
	return in.InCount, out.OutCount, nil
}

func firstFC(net anynet.Net) *anynet.FC {
	for _, layer := range net {
		if fc, ok := layer.(*anynet.FC); ok {
			return fc
		}
	}
	return nil
}

func lastFC(net anynet.Net) *anynet.FC {
	for i := len(net) - 1; i >= 0; i-- {
		if fc, ok := net[i].(*anynet.FC); ok {
			return fc
		}
	}
	return nil
}
