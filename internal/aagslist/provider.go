// Package aagslist loads the flagged subject list from a provider, retrying at
// the boundary and caching the result for the caller.
package aagslist

import (
	"context"
	"errors"
)

var (
	// ErrProviderUnavailable is returned when the provider failed, after retries.
	ErrProviderUnavailable = errors.New("aags list provider unavailable")
	// ErrEmptyList is returned when the provider succeeded with no subjects.
	// For annotation purposes it is treated like ErrProviderUnavailable.
	ErrEmptyList = errors.New("aags list is empty")
)

// Provider supplies the up-to-date subject numbers that satisfy AAGS.
//
// note: fault injection point
type Provider interface {
	FetchSubjects(ctx context.Context) ([]string, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context) ([]string, error)

func (f ProviderFunc) FetchSubjects(ctx context.Context) ([]string, error) {
	return f(ctx)
}

// Result is the outcome of a provider call in the shape the browser extension
// exchanged over message passing: either {success: true, subjects: [...]} or
// {success: false, error: "..."}.
type Result struct {
	Success  bool     `json:"success"`
	Subjects []string `json:"subjects,omitempty"`
	Error    string   `json:"error,omitempty"`
}

func Succeeded(subjects []string) Result {
	if subjects == nil {
		subjects = []string{}
	}
	return Result{Success: true, Subjects: subjects}
}

func Failed(err error) Result {
	return Result{Success: false, Error: err.Error()}
}

// ResultOf converts a provider's return values into a Result.
func ResultOf(subjects []string, err error) Result {
	if err != nil {
		return Failed(err)
	}
	return Succeeded(subjects)
}

// Err returns the result as an error: nil on a non-empty success,
// ErrEmptyList on an empty one, ErrProviderUnavailable otherwise.
func (r Result) Err() error {
	if !r.Success {
		if r.Error == "" {
			return ErrProviderUnavailable
		}
		return errors.Join(ErrProviderUnavailable, errors.New(r.Error))
	}
	if len(r.Subjects) == 0 {
		return ErrEmptyList
	}
	return nil
}
