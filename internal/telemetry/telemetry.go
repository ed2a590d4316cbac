// Package telemetry fetches the raw text report from the sensor unit.
// The real implementation does one bounded-time HTTP GET per poll cycle.
// The fake implementation allows testing without a device.
package telemetry

import (
	"context"
	"time"
)

// FetchBudget is the fixed completion budget for one fetch, measured
// from request start. It is independent of the poll interval and of any
// transport-level timeout: the fetcher never waits longer than this.
const FetchBudget = 3 * time.Second

// Fetcher performs one fetch of the raw telemetry payload.
type Fetcher interface {
	// Fetch returns the full raw text payload, or an error for any
	// transport-level failure (connection refused, non-2xx status,
	// timeout, partial transfer). It does not interpret the content.
	Fetch(ctx context.Context) (string, error)
}
