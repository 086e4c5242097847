package bclone

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"gonum.org/v1/gonum/mat"
)

func TestGaussianLogProb(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	dist := &Gaussian{
		Mean:   anydiff.NewConst(floatsToVec(c, []float64{0, 1, -2})),
		LogStd: anydiff.NewConst(floatsToVec(c, []float64{0, math.Log(2), 0.5})),
	}
	acts := []float64{1, 1, 0}
	actual := VecToFloats(dist.LogProb(anydiff.NewConst(floatsToVec(c, acts))).Output())

	for i, x := range acts {
		mean := VecToFloats(dist.Mean.Output())[i]
		std := math.Exp(VecToFloats(dist.LogStd.Output())[i])
		expected := -0.5*math.Pow((x-mean)/std, 2) - math.Log(std) -
			0.5*math.Log(2*math.Pi)
		if math.Abs(actual[i]-expected) > 1e-8 {
			t.Errorf("component %d: expected %f but got %f", i, expected, actual[i])
		}
	}
}

func TestLossIdenticalRows(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	policy := NewGaussianPolicy(c, 3, 2, []int{8}, 1)
	obsRow := []float64{0.3, -0.2, 0.9}
	actRow := []float64{0.5, -0.1}
	obs := mat.NewDense(10, 3, nil)
	acts := mat.NewDense(10, 2, nil)
	for i := 0; i < 10; i++ {
		obs.SetRow(i, obsRow)
		acts.SetRow(i, actRow)
	}
	expected := scalarValue(BatchLoss(policy, obsRow, actRow, 1).Output())
	for i := 0; i < 5; i++ {
		actual := scalarValue(Loss(obs, acts, policy, 7).Output())
		if math.Abs(actual-expected) > 1e-8 {
			t.Errorf("expected %f but got %f", expected, actual)
		}
	}
}

func TestLogStdBounds(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	policy := &GaussianPolicy{
		MeanHead: anynet.Net{anynet.NewFC(c, 3, 3)},
	}
	obs := anydiff.NewConst(floatsToVec(c, []float64{-100, 0.5, 50}))
	dist := policy.Dist(obs, 1).(*Gaussian)
	logStd := VecToFloats(dist.LogStd.Output())
	for i, x := range []float64{MinLogStd, 0.5, MaxLogStd} {
		if logStd[i] != x {
			t.Errorf("component %d: expected %f but got %f", i, x, logStd[i])
		}
	}
	loss := VecToFloats(dist.LogProb(anydiff.NewConst(floatsToVec(c,
		[]float64{1, 1, 1}))).Output())
	for i, x := range loss {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Errorf("component %d: log-likelihood is %f", i, x)
		}
	}
}

func TestClampResGrad(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	v := anydiff.NewVar(floatsToVec(c, []float64{-3, 0.25, 3}))
	res := clampRes(v, -1, 1)
	for i, x := range []float64{-1, 0.25, 1} {
		if actual := VecToFloats(res.Output())[i]; actual != x {
			t.Errorf("output %d: expected %f but got %f", i, x, actual)
		}
	}
	grad := anydiff.NewGrad(v)
	res.Propagate(anyvec.Ones(c, 3), grad)
	for i, x := range []float64{0, 1, 0} {
		if actual := VecToFloats(grad[v])[i]; actual != x {
			t.Errorf("gradient %d: expected %f but got %f", i, x, actual)
		}
	}
}

func TestLossRowOrder(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	gen := rand.New(rand.NewSource(1337))
	policy := NewGaussianPolicy(c, 3, 2, []int{8}, 1)
	obs, acts := randomDemos(gen, 60, 3, 2)
	permObs, permActs := permuteRows(gen, obs, acts)

	fullLoss := scalarValue(BatchLoss(policy, obs.RawMatrix().Data,
		acts.RawMatrix().Data, 60).Output())

	for _, data := range [][2]*mat.Dense{{obs, acts}, {permObs, permActs}} {
		var sum float64
		const numDraws = 500
		for i := 0; i < numDraws; i++ {
			loss := sampledLoss(gen, data[0], data[1], policy, 16)
			sum += scalarValue(loss.Output())
		}
		mean := sum / numDraws
		if math.Abs(mean-fullLoss) > 0.05 {
			t.Errorf("expected mean loss near %f but got %f", fullLoss, mean)
		}
	}
}

func TestSampleRows(t *testing.T) {
	gen := rand.New(rand.NewSource(1337))
	obs := testTable(5, 2, 0)
	acts := testTable(5, 1, 100)
	obsData, actData := sampleRows(gen, obs, acts, 1000)
	if len(obsData) != 2000 || len(actData) != 1000 {
		t.Fatalf("unexpected sizes: %d, %d", len(obsData), len(actData))
	}
	counts := make([]int, 5)
	for i, act := range actData {
		row := int(act) - 100
		counts[row]++
		if obsData[i*2] != float64(row*2) || obsData[i*2+1] != float64(row*2+1) {
			t.Fatalf("sample %d: rows are not aligned", i)
		}
	}
	for row, count := range counts {
		if count < 150 || count > 250 {
			t.Errorf("row %d sampled %d times", row, count)
		}
	}
}

// randomDemos generates demonstrations where actions are
// a noisy function of observations.
func randomDemos(gen *rand.Rand, rows, obsDim, actDim int) (obs, acts *mat.Dense) {
	obs = mat.NewDense(rows, obsDim, nil)
	acts = mat.NewDense(rows, actDim, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < obsDim; j++ {
			obs.Set(i, j, gen.NormFloat64())
		}
		for j := 0; j < actDim; j++ {
			x := obs.At(i, j%obsDim)
			acts.Set(i, j, 0.5*math.Tanh(x)+0.05*gen.NormFloat64())
		}
	}
	return
}

func permuteRows(gen *rand.Rand, obs, acts *mat.Dense) (*mat.Dense, *mat.Dense) {
	rows, obsCols := obs.Dims()
	_, actCols := acts.Dims()
	newObs := mat.NewDense(rows, obsCols, nil)
	newActs := mat.NewDense(rows, actCols, nil)
	for i, j := range gen.Perm(rows) {
		newObs.SetRow(i, obs.RawRowView(j))
		newActs.SetRow(i, acts.RawRowView(j))
	}
	return newObs, newActs
}
