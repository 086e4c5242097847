package bclone

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"gonum.org/v1/gonum/mat"
)

// LossTag is the tag under which losses are logged.
const LossTag = "BC_MSE_loss"

// DefaultBatchSize is the default minibatch size.
const DefaultBatchSize = 512

// A Trainer fits a Policy to demonstrations.
type Trainer struct {
	Policy    Policy
	Optimizer Optimizer
	Data      *Split

	// BatchSize is the number of rows sampled per step.
	// If 0, DefaultBatchSize is used.
	BatchSize int

	// TrainSink and ValidSink receive training and
	// validation losses, respectively.
	// Either may be nil.
	TrainSink Sink
	ValidSink Sink

	// Rand is used to sample minibatches.
	// If nil, the global source is used.
	Rand *rand.Rand
}

// TrainStep performs one optimizer update on a minibatch
// of training data and returns the minibatch loss.
func (t *Trainer) TrainStep(step int) (float64, error) {
	grad := t.Optimizer.ZeroGrad()
	loss := sampledLoss(t.Rand, t.Data.TrainObs, t.Data.TrainActs, t.Policy,
		t.batchSize())
	value := scalarValue(loss.Output())

	c := loss.Output().Creator()
	loss.Propagate(anyvec.Ones(c, 1), grad)
	t.Optimizer.Step(grad)

	return value, essentials.AddCtx("train step", addScalar(t.TrainSink, value, step))
}

// TestStep computes the loss on a minibatch of
// validation data without updating the policy.
func (t *Trainer) TestStep(step int) (float64, error) {
	loss := sampledLoss(t.Rand, t.Data.ValidObs, t.Data.ValidActs, t.Policy,
		t.batchSize())
	value := scalarValue(loss.Output())
	return value, essentials.AddCtx("test step", addScalar(t.ValidSink, value, step))
}

// SupervisedLoss computes and logs the loss on a
// minibatch of the given data, but does not apply it.
//
// The result can be added to another objective, in which
// case the caller is responsible for propagating through
// the sum and stepping the optimizer.
func (t *Trainer) SupervisedLoss(obs, acts *mat.Dense, step int) (anydiff.Res, error) {
	loss := sampledLoss(t.Rand, obs, acts, t.Policy, t.batchSize())
	err := addScalar(t.TrainSink, scalarValue(loss.Output()), step)
	return loss, essentials.AddCtx("supervised loss", err)
}

func (t *Trainer) batchSize() int {
	if t.BatchSize == 0 {
		return DefaultBatchSize
	}
	return t.BatchSize
}

func addScalar(s Sink, value float64, step int) error {
	if s == nil {
		return nil
	}
	return s.AddScalar(LossTag, value, step)
}
