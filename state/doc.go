// SPDX-License-Identifier: MIT

// Package state tracks the forward (state) solution that adjoint solves
// depend on.
//
// A Problem wraps the caller's forward solve. EnsureSolved is idempotent per
// version; MarkChanged bumps the version so that any solver caching results
// against an older Snapshot knows they are stale.
package state
