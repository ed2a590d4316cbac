package telemetry

import (
	"context"
	"errors"
)

// Result is one scripted fetch outcome.
type Result struct {
	Payload string
	Err     error
}

// FakeFetcher is a test double that returns scripted fetch results.
type FakeFetcher struct {
	// Results contains scripted outcomes. Each call to Fetch consumes
	// the next one; when exhausted, the last result repeats.
	Results []Result

	// Calls counts how many times Fetch was invoked.
	Calls int

	// index tracks current position in Results
	index int
}

// NewFakeFetcher creates a FakeFetcher with the given scripted results.
func NewFakeFetcher(results []Result) *FakeFetcher {
	return &FakeFetcher{Results: results}
}

// Fetch returns the next scripted result. Context cancellation is
// honored before the script is consulted.
func (f *FakeFetcher) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.Calls++

	if len(f.Results) == 0 {
		return "", errors.New("no results configured")
	}

	r := f.Results[f.index]
	if f.index < len(f.Results)-1 {
		f.index++
	}
	return r.Payload, r.Err
}

// Reset rewinds the script.
func (f *FakeFetcher) Reset() {
	f.index = 0
	f.Calls = 0
}
