package stem

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/cockroachdb/errors"
)

// Name is one of the four sources the separator produces.
type Name string

const (
	Bass   Name = "bass"
	Drums  Name = "drums"
	Vocals Name = "vocals"
	Other  Name = "other"
)

// All is the canonical stem order. Mixer input indices follow it.
var All = []Name{Bass, Drums, Vocals, Other}

var ErrInvalid = errors.New("invalid stem")

func Parse(s string) (Name, error) {
	candidate := Name(strings.ToLower(strings.TrimSpace(s)))
	for _, name := range All {
		if candidate == name {
			return name, nil
		}
	}

	return "", errors.Wrapf(ErrInvalid, "%q is not one of %s", s, Valid())
}

const suggestThreshold = 0.85

// Suggest returns the closest stem to a misspelled name, if any is close enough.
func Suggest(s string) (Name, bool) {
	candidate := strings.ToLower(strings.TrimSpace(s))
	if candidate == "" {
		return "", false
	}

	metric := metrics.NewJaroWinkler()
	best, bestScore := Name(""), 0.0
	for _, name := range All {
		score := strutil.Similarity(candidate, string(name), metric)
		if score > bestScore {
			best, bestScore = name, score
		}
	}

	if bestScore < suggestThreshold {
		return "", false
	}

	return best, true
}

// Valid lists the accepted names for user facing messages.
func Valid() string {
	names := make([]string, len(All))
	for i, name := range All {
		names[i] = string(name)
	}

	return strings.Join(names, ", ")
}

// Index is the mixer input slot of the stem, -1 if unknown.
func (n Name) Index() int {
	for i, name := range All {
		if n == name {
			return i
		}
	}

	return -1
}

func (n Name) FileName() string {
	return string(n) + ".wav"
}

func (n Name) Title() string {
	if n == "" {
		return ""
	}

	return strings.ToUpper(string(n[:1])) + string(n[1:])
}
