package validation

import (
	"fmt"
)

const (
	MinWorkers = 1
	MaxWorkers = 20
)

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

func ValidateNonEmptyString(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateDeviceState(state string) error {
	validStates := map[string]bool{
		"open":  true,
		"close": true,
	}
	if !validStates[state] {
		return fmt.Errorf("invalid device state: %s (must be one of: open, close)", state)
	}
	return nil
}

func ValidateEventLimit(limit int) error {
	if limit < 1 || limit > 500 {
		return fmt.Errorf("event limit must be between 1 and 500, got %d", limit)
	}
	return nil
}
