package experiments

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/unixpickle/bclone"
)

// Flags holds the parameters of a behavioral cloning run.
type Flags struct {
	FilePath  string
	Env       string
	NumSteps  int
	BatchSize int
	Hidden    int
	Layers    int
	GoalBased bool
	Load      bool
	ExpName   string

	GymHost      string
	StepSize     float64
	MaxEpLen     int
	TestInterval int
	LogDir       string
	SaveDir      string
}

// AddFlags adds the options to the flag package's global
// set of flags.
func (f *Flags) AddFlags() {
	flag.StringVar(&f.FilePath, "filepath", "", "trajectory archive (.npz)")
	flag.StringVar(&f.Env, "env", "pointMass-v0", "environment name")
	flag.IntVar(&f.NumSteps, "n_steps", 100000, "training steps")
	flag.IntVar(&f.BatchSize, "batch_size", bclone.DefaultBatchSize, "minibatch size")
	flag.IntVar(&f.Hidden, "hid", 256, "hidden layer width")
	flag.IntVar(&f.Layers, "l", 2, "hidden layer count")
	flag.BoolVar(&f.GoalBased, "goal_based", true, "append desired goals to observations")
	flag.BoolVar(&f.Load, "load", false, "resume from saved weights")
	flag.StringVar(&f.ExpName, "exp_name", "experiment_2", "experiment name")

	flag.StringVar(&f.GymHost, "gym", "localhost:5001", "host for gym-socket-api")
	flag.Float64Var(&f.StepSize, "lr", bclone.DefaultRate, "Adam step size")
	flag.IntVar(&f.MaxEpLen, "max_ep_len", bclone.DefaultMaxEpLen,
		"maximum steps per evaluation episode")
	flag.IntVar(&f.TestInterval, "test_interval", bclone.DefaultTestInterval,
		"steps between validation losses")
	flag.StringVar(&f.LogDir, "logdir", "logs", "directory for loss logs")
	flag.StringVar(&f.SaveDir, "savedir", "saved_models", "directory for weights")
}

// ExperimentName returns the experiment name, deriving
// one from the environment and architecture if none was
// given.
func (f *Flags) ExperimentName() string {
	if f.ExpName != "" {
		return f.ExpName
	}
	return fmt.Sprintf("BC_%s_Hidden_%dl_%d", f.Env, f.Hidden, f.Layers)
}

// Architecture returns the hidden layer sizes.
func (f *Flags) Architecture() []int {
	res := make([]int, f.Layers)
	for i := range res {
		res[i] = f.Hidden
	}
	return res
}

// SavePath returns the file for the experiment's weights.
func (f *Flags) SavePath() string {
	return filepath.Join(f.SaveDir, f.ExperimentName()+".anynet")
}
