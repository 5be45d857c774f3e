package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/session"
	"github.com/ayusman/mudra/internal/store"
)

// outcome is the message shown after a session.
type outcome struct {
	message string
	failed  bool
}

func success(format string, args ...any) outcome {
	return outcome{message: fmt.Sprintf(format, args...)}
}

func failure(format string, args ...any) outcome {
	return outcome{message: fmt.Sprintf(format, args...), failed: true}
}

func (o outcome) print() {
	switch {
	case o.message == "":
	case o.failed:
		color.Red(o.message)
	default:
		color.Green(o.message)
	}
}

func trainingOutcome(result session.TrainingResult, err error) outcome {
	if err != nil {
		return errorOutcome(err)
	}
	if result.Captured == 0 {
		return success("No poses captured for %q; %d examples stored", result.Label, result.Total)
	}
	return success("Saved %d new %q examples (%d total)", result.Captured, result.Label, result.Total)
}

func detectionOutcome(err error) outcome {
	if err != nil {
		return errorOutcome(err)
	}
	return success("Detection finished")
}

func errorOutcome(err error) outcome {
	switch {
	case errors.Is(err, gesture.ErrNoExamples):
		return failure("No gestures trained yet. Train one first.")
	case errors.Is(err, gesture.ErrDimensionMismatch):
		return failure("Stored gestures do not fit the current landmark model: %v", err)
	case errors.Is(err, gesture.ErrNonFinite):
		return failure("The detector produced an invalid pose: %v", err)
	case errors.Is(err, store.ErrPersistenceUnavailable):
		return failure("Gesture store unavailable: %v", err)
	case errors.Is(err, gesture.ErrEmptyLabel):
		return failure("A gesture needs a name")
	default:
		return failure("Session failed: %v", err)
	}
}

// describe summarizes the stored gestures for the menu header.
func describe(summary []gesture.LabelCount) string {
	if len(summary) == 0 {
		return "No gestures trained yet"
	}

	total := 0
	parts := make([]string, len(summary))
	for i, lc := range summary {
		total += lc.Count
		parts[i] = fmt.Sprintf("%s (%d)", lc.Label, lc.Count)
	}

	noun := "examples"
	if total == 1 {
		noun = "example"
	}
	return fmt.Sprintf("%d %s: %s", total, noun, strings.Join(parts, ", "))
}
