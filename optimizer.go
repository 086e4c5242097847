package bclone

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet/anysgd"
)

// DefaultRate is the default Adam step size.
const DefaultRate = 1e-4

// An Optimizer updates a fixed set of parameters from
// their gradients.
type Optimizer interface {
	// ZeroGrad returns an empty gradient for every
	// parameter being optimized.
	ZeroGrad() anydiff.Grad

	// Step applies one update using the gradient of a
	// loss.
	Step(grad anydiff.Grad)
}

// Adam minimizes a loss with the Adam update rule.
type Adam struct {
	Params []*anydiff.Var

	// Rate is the step size.
	// If 0, DefaultRate is used.
	Rate float64

	transformer anysgd.Adam
}

// NewAdam creates an Adam optimizer for the parameters.
func NewAdam(params []*anydiff.Var, rate float64) *Adam {
	return &Adam{
		Params: params,
		Rate:   rate,
		transformer: anysgd.Adam{
			DecayRate1: 0.9,
			DecayRate2: 0.999,
			Damping:    1e-8,
		},
	}
}

// ZeroGrad creates a zero gradient for the parameters.
func (a *Adam) ZeroGrad() anydiff.Grad {
	return anydiff.NewGrad(a.Params...)
}

// Step performs a descent step along the gradient.
func (a *Adam) Step(grad anydiff.Grad) {
	c := a.Params[0].Vector.Creator()
	rate := a.Rate
	if rate == 0 {
		rate = DefaultRate
	}
	grad = a.transformer.Transform(grad)
	grad.Scale(c.MakeNumeric(-rate))
	grad.AddToVars()
}
