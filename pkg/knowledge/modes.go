package knowledge

import "fmt"

// Mode names a retrieval strategy.
type Mode string

const (
	// ModeNaive is plain similarity search over stored text chunks.
	ModeNaive Mode = "naive"

	// ModeLocal searches the graph neighborhood of entities matched in
	// the query.
	ModeLocal Mode = "local"

	// ModeGlobal searches whole-graph relationship structure.
	ModeGlobal Mode = "global"

	// ModeHybrid balances vector similarity with graph keyword overlap.
	ModeHybrid Mode = "hybrid"

	// ModeMix fans out to vector and graph retrieval and combines the
	// rankings. Maximum recall, highest cost.
	ModeMix Mode = "mix"
)

// Modes lists every valid retrieval mode.
func Modes() []Mode {
	return []Mode{ModeNaive, ModeLocal, ModeGlobal, ModeHybrid, ModeMix}
}

// ParseMode validates a mode string. Unknown modes fail with
// ErrInvalidArgument rather than silently defaulting.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeNaive, ModeLocal, ModeGlobal, ModeHybrid, ModeMix:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: unknown retrieval mode %q", ErrInvalidArgument, s)
	}
}
