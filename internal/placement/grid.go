package placement

import (
	"math/rand"

	"sponsorgrid/internal/models"
)

// Block geometry for the interleaved feed: the organic stream is consumed in
// blocks of 6, and every full block surfaces 2 sponsored items in
// non-adjacent positions.
const (
	blockSize         = 6
	sponsoredPerBlock = 2
)

// nonAdjacentPairs enumerates every (i, j) index pair within a block of 6
// with i < j and j-i >= 2. There are exactly 10 such pairs; one is drawn
// uniformly per block. Non-adjacency is only guaranteed inside a block: a
// pair landing at the edges of two adjacent blocks can still touch. That
// looseness is part of the observable ad density and is intentionally left
// alone.
var nonAdjacentPairs = [][2]int{
	{0, 2}, {0, 3}, {0, 4}, {0, 5},
	{1, 3}, {1, 4}, {1, 5},
	{2, 4}, {2, 5},
	{3, 5},
}

// Entry is one resolved slot of the built feed: exactly one of Listing or
// Sponsored is set.
type Entry struct {
	Listing   *models.Listing  `json:"listing,omitempty"`
	Sponsored *models.Campaign `json:"sponsored,omitempty"`
}

// BuildFeed interleaves sponsored campaigns into a stream of organic
// listings. Every full block of 6 organic items yields a block of 6 output
// slots: 2 sponsored slots at uniformly chosen non-adjacent positions,
// filled round-robin from the sponsored list, and 4 slots holding the next 4
// organic items in order. A partial trailing block, or an empty sponsored
// list, passes the organic items through untouched.
//
// The output therefore has the same length as the organic input: within a
// full block, sponsored items take over positions rather than extending the
// list. Sponsored campaigns repeat via modulo indexing when the list is
// shorter than the number of slots to fill.
//
// rng drives the per-block pair choice. The server render path must pass a
// deterministic source (see the hydrate package) so the same inputs always
// produce the same feed; nil falls back to the global math/rand source and
// is only appropriate after the interactive handoff.
func BuildFeed(organic []models.Listing, sponsored []models.Campaign, rng *rand.Rand) []Entry {
	out := make([]Entry, 0, len(organic))
	if len(sponsored) == 0 {
		for i := range organic {
			out = append(out, Entry{Listing: &organic[i]})
		}
		return out
	}

	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}

	cursor := 0
	i := 0
	for ; i+blockSize <= len(organic); i += blockSize {
		pair := nonAdjacentPairs[intn(len(nonAdjacentPairs))]
		next := i // next organic item to surface from this block
		for k := 0; k < blockSize; k++ {
			if k == pair[0] || k == pair[1] {
				out = append(out, Entry{Sponsored: &sponsored[cursor%len(sponsored)]})
				cursor++
			} else {
				out = append(out, Entry{Listing: &organic[next]})
				next++
			}
		}
	}
	// Partial trailing block: organic only, original order.
	for ; i < len(organic); i++ {
		out = append(out, Entry{Listing: &organic[i]})
	}
	return out
}
