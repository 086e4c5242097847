package bclone

import (
	"math/rand"

	"github.com/unixpickle/anydiff"
	"gonum.org/v1/gonum/mat"
)

// Loss computes the behavioral cloning loss on a random
// minibatch of rows.
//
// Rows are sampled uniformly with replacement, so a batch
// may contain the same timestep more than once.
//
// The loss is the negative mean log-likelihood of the
// demonstrated actions under the policy's distribution.
func Loss(obs, acts *mat.Dense, policy Policy, batchSize int) anydiff.Res {
	return sampledLoss(nil, obs, acts, policy, batchSize)
}

func sampledLoss(gen *rand.Rand, obs, acts *mat.Dense, policy Policy,
	batchSize int) anydiff.Res {
	obsData, actData := sampleRows(gen, obs, acts, batchSize)
	return BatchLoss(policy, obsData, actData, batchSize)
}

// BatchLoss computes the negative mean log-likelihood of
// a packed batch of actions given a packed batch of
// observations.
func BatchLoss(policy Policy, obs, acts []float64, n int) anydiff.Res {
	c := policy.Parameters()[0].Vector.Creator()
	obsRes := anydiff.NewConst(floatsToVec(c, obs))
	actRes := anydiff.NewConst(floatsToVec(c, acts))
	logProbs := policy.Dist(obsRes, n).LogProb(actRes)
	scale := -1 / float64(logProbs.Output().Len())
	return anydiff.Scale(anydiff.Sum(logProbs), c.MakeNumeric(scale))
}

// sampleRows draws n row indices with replacement and
// packs the selected rows of both tables.
//
// If gen is nil, the global source is used.
func sampleRows(gen *rand.Rand, obs, acts *mat.Dense, n int) (obsData,
	actData []float64) {
	rows, _ := obs.Dims()
	for i := 0; i < n; i++ {
		var idx int
		if gen == nil {
			idx = rand.Intn(rows)
		} else {
			idx = gen.Intn(rows)
		}
		obsData = append(obsData, obs.RawRowView(idx)...)
		actData = append(actData, acts.RawRowView(idx)...)
	}
	return
}
