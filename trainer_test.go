package bclone

import (
	"math/rand"
	"testing"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestTrainStepDecreasesLoss(t *testing.T) {
	trainer, split := testingTrainer(t, 1e-2)
	initial := fullLoss(trainer.Policy, split)
	for i := 0; i < 300; i++ {
		if _, err := trainer.TrainStep(i); err != nil {
			t.Fatal(err)
		}
	}
	final := fullLoss(trainer.Policy, split)
	if final > initial-0.1 {
		t.Errorf("loss did not decrease enough: initial=%f final=%f", initial, final)
	}
}

func TestTestStepReadOnly(t *testing.T) {
	trainer, split := testingTrainer(t, 1e-2)
	before := paramSnapshot(trainer.Policy)

	if _, err := trainer.TestStep(0); err != nil {
		t.Fatal(err)
	}
	if _, err := trainer.SupervisedLoss(split.TrainObs, split.TrainActs, 0); err != nil {
		t.Fatal(err)
	}

	after := paramSnapshot(trainer.Policy)
	for i, x := range before {
		if after[i] != x {
			t.Fatalf("parameter %d changed from %f to %f", i, x, after[i])
		}
	}

	// Sanity check that training does change parameters.
	if _, err := trainer.TrainStep(0); err != nil {
		t.Fatal(err)
	}
	after = paramSnapshot(trainer.Policy)
	var changed bool
	for i, x := range before {
		if after[i] != x {
			changed = true
		}
	}
	if !changed {
		t.Error("train step did not change parameters")
	}
}

func TestTrainerSinks(t *testing.T) {
	trainer, _ := testingTrainer(t, 1e-3)
	trainSink := &recordingSink{}
	validSink := &recordingSink{}
	trainer.TrainSink = trainSink
	trainer.ValidSink = validSink

	trainLoss, err := trainer.TrainStep(7)
	if err != nil {
		t.Fatal(err)
	}
	testLoss, err := trainer.TestStep(7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := trainer.SupervisedLoss(trainer.Data.TrainObs, trainer.Data.TrainActs,
		8); err != nil {
		t.Fatal(err)
	}

	if len(trainSink.Records) != 2 || len(validSink.Records) != 1 {
		t.Fatalf("unexpected record counts: train=%d valid=%d",
			len(trainSink.Records), len(validSink.Records))
	}
	if r := trainSink.Records[0]; r.Tag != LossTag || r.Step != 7 || r.Value != trainLoss {
		t.Errorf("unexpected train record: %+v", r)
	}
	if r := validSink.Records[0]; r.Tag != LossTag || r.Step != 7 || r.Value != testLoss {
		t.Errorf("unexpected validation record: %+v", r)
	}
	if r := trainSink.Records[1]; r.Step != 8 {
		t.Errorf("unexpected supervised loss record: %+v", r)
	}
}

func TestSupervisedLossComposes(t *testing.T) {
	trainer, split := testingTrainer(t, 1e-2)
	before := paramSnapshot(trainer.Policy)

	loss, err := trainer.SupervisedLoss(split.TrainObs, split.TrainActs, 0)
	if err != nil {
		t.Fatal(err)
	}
	grad := trainer.Optimizer.ZeroGrad()
	c := loss.Output().Creator()
	loss.Propagate(anyvec.Ones(c, 1), grad)
	trainer.Optimizer.Step(grad)

	after := paramSnapshot(trainer.Policy)
	var changed bool
	for i, x := range before {
		if after[i] != x {
			changed = true
		}
	}
	if !changed {
		t.Error("stepping the returned loss did not change parameters")
	}
}

func testingTrainer(t *testing.T, rate float64) (*Trainer, *Split) {
	c := anyvec64.DefaultCreator{}
	gen := rand.New(rand.NewSource(42))
	obs, acts := randomDemos(gen, 200, 3, 2)
	split, err := splitTables(obs, acts)
	if err != nil {
		t.Fatal(err)
	}
	policy := NewGaussianPolicy(c, 3, 2, []int{16}, 1)
	return &Trainer{
		Policy:    policy,
		Optimizer: NewAdam(policy.Parameters(), rate),
		Data:      split,
		BatchSize: 32,
		Rand:      gen,
	}, split
}

func fullLoss(p Policy, s *Split) float64 {
	rows, _ := s.TrainObs.Dims()
	obs, acts := packRows(s)
	return scalarValue(BatchLoss(p, obs, acts, rows).Output())
}

func packRows(s *Split) (obs, acts []float64) {
	rows, _ := s.TrainObs.Dims()
	for i := 0; i < rows; i++ {
		obs = append(obs, s.TrainObs.RawRowView(i)...)
		acts = append(acts, s.TrainActs.RawRowView(i)...)
	}
	return
}

func paramSnapshot(p Policy) []float64 {
	var res []float64
	for _, param := range p.Parameters() {
		res = append(res, VecToFloats(param.Vector)...)
	}
	return res
}

type sinkRecord struct {
	Tag   string
	Value float64
	Step  int
}

type recordingSink struct {
	Records []sinkRecord
	Closed  bool
}

func (r *recordingSink) AddScalar(tag string, value float64, step int) error {
	r.Records = append(r.Records, sinkRecord{Tag: tag, Value: value, Step: step})
	return nil
}

func (r *recordingSink) Close() error {
	r.Closed = true
	return nil
}
