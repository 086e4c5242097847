package bclone

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// A Distribution is a batch of action distributions.
type Distribution interface {
	// LogProb computes the log-likelihood of every
	// component of a batch of actions.
	LogProb(acts anydiff.Res) anydiff.Res

	// Mode returns the most likely batch of actions.
	Mode() anydiff.Res
}

// A Policy maps batches of observations to action
// distributions.
type Policy interface {
	Dist(obs anydiff.Res, n int) Distribution
	Parameters() []*anydiff.Var
}

// An Actor picks actions for single observations.
type Actor interface {
	Act(obs []float64) []float64
}

// Gaussian is a batch of diagonal Gaussian distributions.
//
// Both Mean and LogStd have one component per action
// component per batch entry.
type Gaussian struct {
	Mean   anydiff.Res
	LogStd anydiff.Res
}

// LogProb computes the per-component log density of the
// actions.
func (g *Gaussian) LogProb(acts anydiff.Res) anydiff.Res {
	c := g.Mean.Output().Creator()
	invStd := anydiff.Exp(anydiff.Scale(g.LogStd, c.MakeNumeric(-1)))
	z := anydiff.Mul(anydiff.Sub(acts, g.Mean), invStd)
	sq := anydiff.Scale(anydiff.Mul(z, z), c.MakeNumeric(-0.5))

	norm := make([]float64, g.Mean.Output().Len())
	for i := range norm {
		norm[i] = -0.5 * math.Log(2*math.Pi)
	}
	return anydiff.Add(anydiff.Sub(sq, g.LogStd), anydiff.NewConst(floatsToVec(c, norm)))
}

// Mode returns the mean.
func (g *Gaussian) Mode() anydiff.Res {
	return g.Mean
}

// Bounds on the log standard deviation produced by a
// GaussianPolicy.
const (
	MinLogStd = -20.0
	MaxLogStd = 2.0
)

// GaussianPolicy is a feed-forward policy which produces
// a diagonal Gaussian over actions.
//
// Observations pass through Trunk, whose output is fed to
// MeanHead and LogStdHead.
type GaussianPolicy struct {
	Trunk      anynet.Net
	MeanHead   anynet.Net
	LogStdHead anynet.Net

	// ActLimit scales the mean, which MeanHead squashes
	// into [-1, 1].
	// If 0, the mean is not scaled.
	ActLimit float64
}

// NewGaussianPolicy creates a randomly initialized policy
// with a tanh layer after every hidden layer.
func NewGaussianPolicy(c anyvec.Creator, obsDim, actDim int, hidden []int,
	actLimit float64) *GaussianPolicy {
	trunk := anynet.Net{}
	inSize := obsDim
	for _, size := range hidden {
		trunk = append(trunk, anynet.NewFC(c, inSize, size), anynet.Tanh)
		inSize = size
	}
	return &GaussianPolicy{
		Trunk: trunk,
		MeanHead: anynet.Net{
			anynet.NewFC(c, inSize, actDim),
			anynet.Tanh,
		},
		LogStdHead: anynet.Net{
			anynet.NewFCZero(c, inSize, actDim),
		},
		ActLimit: actLimit,
	}
}

// Dist applies the policy to a batch of n observations.
func (g *GaussianPolicy) Dist(obs anydiff.Res, n int) Distribution {
	features := g.Trunk.Apply(obs, n)
	mean := g.MeanHead.Apply(features, n)
	if g.ActLimit != 0 {
		c := obs.Output().Creator()
		mean = anydiff.Scale(mean, c.MakeNumeric(g.ActLimit))
	}
	return &Gaussian{
		Mean:   mean,
		LogStd: clampRes(g.LogStdHead.Apply(features, n), MinLogStd, MaxLogStd),
	}
}

// Parameters returns every trainable parameter.
func (g *GaussianPolicy) Parameters() []*anydiff.Var {
	return anynet.AllParameters(g.Trunk, g.MeanHead, g.LogStdHead)
}

// Act returns the deterministic (mean) action for an
// observation.
func (g *GaussianPolicy) Act(obs []float64) []float64 {
	c := g.creator()
	in := anydiff.NewConst(floatsToVec(c, obs))
	out := g.Dist(in, 1).Mode().Output()
	return append([]float64{}, VecToFloats(out)...)
}

// clampRes clamps every component of x to [min, max].
// Clamped components receive no gradient.
func clampRes(x anydiff.Res, min, max float64) anydiff.Res {
	vals := VecToFloats(x.Output())
	mask := make([]float64, len(vals))
	offset := make([]float64, len(vals))
	for i, v := range vals {
		switch {
		case v < min:
			offset[i] = min
		case v > max:
			offset[i] = max
		default:
			mask[i] = 1
		}
	}
	c := x.Output().Creator()
	return anydiff.Add(anydiff.Mul(x, anydiff.NewConst(floatsToVec(c, mask))),
		anydiff.NewConst(floatsToVec(c, offset)))
}

func (g *GaussianPolicy) creator() anyvec.Creator {
	return g.Parameters()[0].Vector.Creator()
}
