package bclone

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/unixpickle/essentials"
)

// DefaultTestInterval is the default number of steps
// between validation losses.
const DefaultTestInterval = 50

// Prompt is shown to the operator after an interrupt.
const Prompt = "\nWhat would you like to do: "

// ErrAborted is returned by Loop.Run when the operator
// quits without saving.
var ErrAborted = errors.New("training aborted by operator")

// LoopState is the state of a Loop.
type LoopState int

const (
	Running LoopState = iota
	PausedForInput
	Terminated
)

// String returns a human-readable state name.
func (l LoopState) String() string {
	switch l {
	case Running:
		return "running"
	case PausedForInput:
		return "paused"
	case Terminated:
		return "terminated"
	default:
		return ""
	}
}

// A Stepper runs training and validation steps.
//
// It is implemented by *Trainer.
type Stepper interface {
	TrainStep(step int) (float64, error)
	TestStep(step int) (float64, error)
}

// A Checkpointer persists model weights.
type Checkpointer interface {
	SaveWeights() error
}

// An Interrupter signals that the operator wants to
// pause training.
type Interrupter interface {
	// Interrupted returns a channel which becomes ready
	// when an interrupt is pending.
	Interrupted() <-chan struct{}

	// Rearm is called after an interrupt has been
	// handled and training is about to resume.
	Rearm()
}

// An Operator answers prompts during a pause.
type Operator interface {
	Ask(prompt string) (string, error)
}

// An Evaluator runs rendered episodes of the current
// policy.
type Evaluator interface {
	Evaluate(episodes int) error
}

// Loop runs a Stepper for a fixed number of steps,
// periodically validating, and saves the model at the
// end.
//
// Interrupts are checked before every step.
// During a pause, the operator may answer with a number
// of episodes to evaluate, "s" to save, "q" to abort
// without saving, or anything else to resume.
type Loop struct {
	Stepper Stepper
	Model   Checkpointer

	NumSteps int

	// TestInterval is the number of steps between test
	// steps.
	// If 0, DefaultTestInterval is used.
	TestInterval int

	// Interrupter, Operator, and Evaluator implement
	// pauses.
	// If Interrupter is nil, training is never paused.
	Interrupter Interrupter
	Operator    Operator
	Evaluator   Evaluator

	// Logger is used for progress reports.
	// If nil, the standard logger is used.
	Logger *log.Logger

	state LoopState
	step  int
}

// Run trains until the step budget is exhausted or the
// operator aborts.
//
// On normal termination, the model is saved.
// If the operator aborts, ErrAborted is returned and the
// model is not saved.
func (l *Loop) Run() error {
	l.state = Running
	for l.step < l.NumSteps {
		if l.interrupted() {
			if err := l.pause(); err != nil {
				l.state = Terminated
				return err
			}
			continue
		}
		if _, err := l.Stepper.TrainStep(l.step); err != nil {
			l.state = Terminated
			return err
		}
		if l.step%l.testInterval() == 0 {
			loss, err := l.Stepper.TestStep(l.step)
			if err != nil {
				l.state = Terminated
				return err
			}
			l.logger().Println("Test Loss: ", l.step, loss)
		}
		l.step++
	}
	l.state = Terminated
	return essentials.AddCtx("final save", l.Model.SaveWeights())
}

// State returns the current state of the loop.
func (l *Loop) State() LoopState {
	return l.state
}

// Step returns the number of completed training steps.
func (l *Loop) Step() int {
	return l.step
}

func (l *Loop) interrupted() bool {
	if l.Interrupter == nil {
		return false
	}
	select {
	case <-l.Interrupter.Interrupted():
		return true
	default:
		return false
	}
}

func (l *Loop) pause() error {
	l.state = PausedForInput
	if l.Operator == nil {
		return errors.New("pause: no operator to answer the prompt")
	}
	txt, err := l.Operator.Ask(Prompt)
	if err != nil {
		return essentials.AddCtx("pause", err)
	}
	txt = strings.TrimSpace(txt)
	if episodes, ok := parseEpisodes(txt); ok {
		if l.Evaluator == nil {
			l.logger().Println("No evaluator; skipping", episodes, "rollouts.")
		} else if err := l.Evaluator.Evaluate(episodes); err != nil {
			return essentials.AddCtx("evaluate", err)
		}
	}
	l.logger().Println("Returning to Training.")
	switch txt {
	case "q":
		return ErrAborted
	case "s":
		if err := l.Model.SaveWeights(); err != nil {
			return essentials.AddCtx("save", err)
		}
	}
	l.Interrupter.Rearm()
	l.state = Running
	return nil
}

func (l *Loop) testInterval() int {
	if l.TestInterval == 0 {
		return DefaultTestInterval
	}
	return l.TestInterval
}

func (l *Loop) logger() *log.Logger {
	if l.Logger == nil {
		return log.Default()
	}
	return l.Logger
}

// parseEpisodes parses a response consisting only of
// decimal digits.
func parseEpisodes(txt string) (int, bool) {
	if txt == "" {
		return 0, false
	}
	for _, ch := range txt {
		if ch < '0' || ch > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(txt)
	return n, err == nil
}
