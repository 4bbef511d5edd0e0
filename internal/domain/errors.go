package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllSourcesFailed is matched by every AllSourcesFailedError.
	ErrAllSourcesFailed = errors.New("all price sources failed")

	// ErrResolutionInFlight is returned when a resolution for the same asset is already running.
	ErrResolutionInFlight = errors.New("price resolution already in flight")

	ErrAlertNotFound = errors.New("alert not found")
	ErrUnknownAsset  = errors.New("unknown asset")
)

// SourceError is one adapter's failure inside a fallback chain.
type SourceError struct {
	Source SourceName
	Err    error
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// AllSourcesFailedError is the terminal error of a fallback chain.
type AllSourcesFailedError struct {
	Asset    string
	Failures []SourceError
}

func (e *AllSourcesFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("%s: %s (%s)", ErrAllSourcesFailed, e.Asset, strings.Join(parts, "; "))
}

func (e *AllSourcesFailedError) Is(target error) bool {
	return target == ErrAllSourcesFailed
}

// ValidationError carries a user-facing message for rejected input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

const (
	MsgInvalidPrice     = "Please enter a valid price"
	MsgUnknownAsset     = "Unknown cryptocurrency"
	MsgInvalidCompare   = "Select at least two cryptocurrencies to compare"
	MsgInvalidCondition = "Please select a valid condition"
)
