package placement

import (
	"fmt"

	"sponsorgrid/internal/models"
)

// feedPositions is the static scheduling policy mapping a (tier, cell)
// coordinate to a 1-indexed position in the flattened feed: the first 12
// organic items carry up to 4 interleaved sponsor slots at 3/6/9/12, the
// next 12 at 15/18/21/24, and so on. A lookup table, not derived data.
var feedPositions = [models.FeedTiers][models.FeedCellsPerTier]int{
	{3, 6, 9, 12},
	{15, 18, 21, 24},
	{27, 30, 33, 36},
}

// Position maps a 1-indexed (tier, cell) coordinate to its grid position.
// Out-of-range input is a programming error: the arbiter validates
// coordinates at write time, so a bad value here means a bug upstream and
// the function panics rather than guessing.
func Position(tier, cell int) int {
	if tier < 1 || tier > models.FeedTiers || cell < 1 || cell > models.FeedCellsPerTier {
		panic(fmt.Sprintf("placement: feed coordinate (%d,%d) out of range", tier, cell))
	}
	return feedPositions[tier-1][cell-1]
}
