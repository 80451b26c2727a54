// Package hydrate separates the two randomness phases of a server-rendered
// page. The shared-render phase must be reproducible from pure input data:
// the first response is rendered once, compared structurally against the
// first interactive pass, and any disagreement corrupts the document. The
// live phase may use genuine randomness, but only in code that runs strictly
// after the interactive handoff.
//
// The two phases are kept in syntactically distinct constructors (SharedRand
// vs LiveRand) so a reader can tell at the call site which one a value comes
// from.
//
// The server only ever uses the shared-render half (see the feed plan
// endpoint). The live-phase helpers (LiveRand, AfterHandoff, LiveCounter,
// ShuffleIndices) are the library surface for interactive collaborators that
// embed this module; they have no server-side call sites on purpose.
package hydrate

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Unit maps a stable per-item key and its position index to a reproducible
// value in [0,1). The same key and index always yield the same value, so a
// badge, color scheme, or call-to-action label derived from it looks random
// yet matches between the first paint and the first interactive pass.
func Unit(key string, index int) float64 {
	h := xxhash.Sum64String(key + "#" + strconv.Itoa(index))
	// Top 53 bits keep the full float64 mantissa resolution.
	return float64(h>>11) / float64(1<<53)
}

// Pick deterministically chooses one of options for the given key and index.
// Returns the empty string for an empty option list.
func Pick(options []string, key string, index int) string {
	if len(options) == 0 {
		return ""
	}
	return options[int(Unit(key, index)*float64(len(options)))]
}

// SharedRand returns a pseudo-random source seeded only from the given keys.
// This is the shared-render source: identical inputs produce an identical
// stream, render after render. Use it for any choice that shapes the first
// response, such as the feed builder's per-block slot pairs.
func SharedRand(keys ...string) *rand.Rand {
	d := xxhash.New()
	for _, k := range keys {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
	}
	return rand.New(rand.NewSource(int64(d.Sum64())))
}

// LiveRand returns a wall-clock-seeded source. Post-mount use only: nothing
// derived from it may appear in the shared render path.
func LiveRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// ShuffleIndices returns the integers [0, n) in the order drawn from rng.
// Used post-mount to reassign which campaign occupies a discretionary slot
// without changing the structural slot layout.
func ShuffleIndices(n int, rng *rand.Rand) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rng.Shuffle(n, func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
	return idx
}
