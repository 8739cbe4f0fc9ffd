package system

import (
	"errors"
	"fmt"
)

type cleanupStep struct {
	name string
	fn   func() error
}

// CleanupStack runs undo steps in reverse order (LIFO). Every step runs even
// when an earlier one fails.
type CleanupStack struct {
	steps   []cleanupStep
	onError func(name string, err error)
}

// NewCleanupStack creates a new cleanup stack. onError, if not nil, is called
// for every failing step.
func NewCleanupStack(onError func(name string, err error)) *CleanupStack {
	return &CleanupStack{onError: onError}
}

// Add pushes a named cleanup step
func (s *CleanupStack) Add(name string, fn func() error) {
	s.steps = append(s.steps, cleanupStep{name: name, fn: fn})
}

// Len returns the number of pending steps
func (s *CleanupStack) Len() int {
	return len(s.steps)
}

// Execute runs all pending steps, newest first, and empties the stack
func (s *CleanupStack) Execute() error {
	var errs []error
	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.fn(); err != nil {
			if s.onError != nil {
				s.onError(step.name, err)
			}
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	s.steps = nil
	return errors.Join(errs...)
}
