// Copyright 2023 The Bazel Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package regex

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/Retropikzel/STklos/internal/engine"
)

// A handle is the sole owner of a compiled engine program.
// It never refers back to its Pattern, so a live handle does not keep
// the Pattern reachable.
type handle struct {
	prog     engine.Program
	released atomic.Bool
}

var (
	live = struct {
		sync.Mutex
		handles map[*handle]struct{}
	}{handles: make(map[*handle]struct{})}

	compiledCount atomic.Int64
	releasedCount atomic.Int64
)

// track gives p ownership of prog and schedules its release for when p
// becomes unreachable. It runs before p is returned to any caller.
func track(p *Pattern, prog engine.Program) {
	h := &handle{prog: prog}

	live.Lock()
	live.handles[h] = struct{}{}
	live.Unlock()
	compiledCount.Add(1)

	p.h = h
	p.cleanup = runtime.AddCleanup(p, (*handle).release, h)
}

// release frees the program. Only the first call has any effect.
func (h *handle) release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	live.Lock()
	delete(live.handles, h)
	live.Unlock()

	h.prog.Release()
	releasedCount.Add(1)
}

// Close releases the Pattern's compiled program without waiting for the
// Pattern to become unreachable. Matching a closed Pattern fails with
// ErrReleased. Close is idempotent; it must not race with a match on
// the same Pattern.
func (p *Pattern) Close() error {
	if p == nil || p.h == nil {
		return nil
	}
	p.cleanup.Stop()
	p.h.release()
	return nil
}

// Shutdown releases the programs of every Pattern still alive.
// It is meant to run once as the process exits; Patterns used after
// Shutdown fail with ErrReleased.
func Shutdown() {
	live.Lock()
	handles := make([]*handle, 0, len(live.handles))
	for h := range live.handles {
		handles = append(handles, h)
	}
	live.Unlock()

	for _, h := range handles {
		h.release()
	}
}

// ResourceStats counts compiled programs over the life of the process.
type ResourceStats struct {
	Compiled int64 // programs created by a successful compile
	Released int64 // programs released
	Live     int64 // Compiled - Released
}

// Resources returns the current program counters.
func Resources() ResourceStats {
	r := releasedCount.Load()
	c := compiledCount.Load()
	return ResourceStats{Compiled: c, Released: r, Live: c - r}
}
