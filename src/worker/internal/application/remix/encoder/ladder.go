package encoder

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Ladder is the bitrates to try, best first, and the size an output must fit under.
type Ladder struct {
	Name         string
	Bitrates     []string
	CeilingBytes int64
}

var (
	StandardLadder = Ladder{
		Name:         "standard",
		Bitrates:     []string{"320k", "192k", "128k"},
		CeilingBytes: 8 * 1024 * 1024,
	}

	LegacyLadder = Ladder{
		Name:         "legacy",
		Bitrates:     []string{"256k", "128k", "96k", "64k"},
		CeilingBytes: 6 * 1024 * 1024,
	}
)

func LadderByName(name string) (Ladder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StandardLadder.Name:
		return StandardLadder, nil
	case LegacyLadder.Name:
		return LegacyLadder, nil
	default:
		return Ladder{}, errors.Newf("unknown encoder ladder %q", name)
	}
}

// Validate requires a positive ceiling and strictly descending bitrates.
func (l Ladder) Validate() error {
	if len(l.Bitrates) == 0 {
		return errors.New("ladder has no bitrates")
	}

	if l.CeilingBytes <= 0 {
		return errors.New("ladder ceiling must be positive")
	}

	previous := int64(-1)
	for _, bitrate := range l.Bitrates {
		kbps, err := parseKbps(bitrate)
		if err != nil {
			return errors.Wrapf(err, "bad bitrate %q", bitrate)
		}

		if previous >= 0 && kbps >= previous {
			return errors.Newf("bitrates must strictly descend, %q doesn't", bitrate)
		}

		previous = kbps
	}

	return nil
}

func parseKbps(bitrate string) (int64, error) {
	trimmed := strings.TrimSuffix(strings.ToLower(bitrate), "k")
	kbps, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return 0, err
	}

	if kbps <= 0 {
		return 0, errors.New("bitrate must be positive")
	}

	return kbps, nil
}
