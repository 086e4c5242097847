// Trains a policy by behavioral cloning on a trajectory
// archive, then saves it.
//
// Press Ctrl+C during training to watch the policy, save
// it, or quit.

package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/unixpickle/anyvec/anyvec32"
	"github.com/unixpickle/bclone"
	"github.com/unixpickle/bclone/experiments"
	"github.com/unixpickle/essentials"
)

func main() {
	flags := &experiments.Flags{}
	flags.AddFlags()
	flag.Parse()

	if flags.FilePath == "" {
		essentials.Die("Missing -filepath flag. See -help.")
	}

	log.Println("Run with arguments:", os.Args[1:])
	expName := flags.ExperimentName()

	creator := anyvec32.CurrentCreator()

	log.Println("Loading data...")
	data, err := bclone.LoadData(flags.FilePath, flags.GoalBased)
	must(err)

	log.Println("Creating environment...")
	env, info, err := experiments.MakeEnv(creator, flags)
	must(err)
	defer env.Close()
	must(info.CheckData(data))

	trainDir, validDir := bclone.LogDirs(flags.LogDir, time.Now(), expName)
	must(experiments.SaveArgs(trainDir, flags))
	trainSink, err := bclone.NewFileSink(trainDir)
	must(err)
	validSink, err := bclone.NewFileSink(validDir)
	must(err)

	model, err := bclone.NewModel(creator, &bclone.ModelConfig{
		ObsDim:   info.ObsDim,
		ActDim:   info.ActDim,
		Hidden:   flags.Architecture(),
		ActLimit: info.ActLimit,
		Rate:     flags.StepSize,
		SavePath: flags.SavePath(),
		Load:     flags.Load,
	})
	must(err)

	loop := &bclone.Loop{
		Stepper: &bclone.Trainer{
			Policy:    model.Policy,
			Optimizer: model.Optimizer,
			Data:      data,
			BatchSize: flags.BatchSize,
			TrainSink: trainSink,
			ValidSink: validSink,
		},
		Model:        model,
		NumSteps:     flags.NumSteps,
		TestInterval: flags.TestInterval,
		Interrupter:  experiments.NewSignalInterrupter(),
		Operator:     experiments.NewConsoleOperator(),
		Evaluator: &bclone.EnvEvaluator{
			Env:      env,
			Actor:    model.Policy,
			MaxEpLen: flags.MaxEpLen,
		},
	}

	log.Println("Done initialisation, begin training. Press Ctrl+C to pause.")
	err = loop.Run()
	must(trainSink.Close())
	must(validSink.Close())
	if err == bclone.ErrAborted {
		env.Close()
		essentials.Die(err)
	}
	must(err)
	log.Println("Saved weights to:", flags.SavePath())
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
