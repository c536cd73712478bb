package reconcile

import "errors"

// ErrUpstreamInvalid wraps an upstream-invalid condition (§7): the
// upstream bytes contained no BEGIN:VCALENDAR. It is returned whether or
// not a last-known-good snapshot exists; Reconcile never falls back for
// this case.
var ErrUpstreamInvalid = errors.New("reconcile: upstream invalid")

// ErrNoFallback is returned when a fallback to the last-known-good
// snapshot was indicated by policy (§7) but no snapshot has ever been
// recorded for this tenant.
var ErrNoFallback = errors.New("reconcile: no last-known-good snapshot available")
