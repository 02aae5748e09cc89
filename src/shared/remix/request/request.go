package request

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
	"github.com/veedubyou/stem-remixer/src/shared/remix/stem"
)

const (
	MaxGainDB     float64 = 100
	DefaultGainDB float64 = 4
)

const MissingTitleMessage = "Missing song title"

var GainRangeMessage = fmt.Sprintf("Gain must be between -%g and +%g dB", MaxGainDB, MaxGainDB)

// Request is what a user asked for: which stem, how much, and on which track.
type Request struct {
	Stem   stem.Name
	GainDB float64
	Title  string
}

// Interpret parses "<stem> [<gainDb>] <title>".
// A second token that reads as a number is the gain, otherwise the default gain
// applies and everything after the stem is the title.
func Interpret(text string) (Request, error) {
	tokens := splitTokens(text, 3)
	if len(tokens) == 0 {
		return Request{}, remixerr.Validation(invalidStemMessage(""))
	}

	stemName, err := stem.Parse(tokens[0])
	if err != nil {
		return Request{}, remixerr.Validation(invalidStemMessage(tokens[0]))
	}

	if len(tokens) < 2 {
		return Request{}, remixerr.Validation(MissingTitleMessage)
	}

	gain := DefaultGainDB
	titleTokens := tokens[1:]

	if parsed, err := strconv.ParseFloat(tokens[1], 64); err == nil {
		if len(tokens) < 3 {
			return Request{}, remixerr.Validation(MissingTitleMessage)
		}

		gain = parsed
		titleTokens = tokens[2:]
	}

	if math.IsNaN(gain) || math.IsInf(gain, 0) || math.Abs(gain) > MaxGainDB {
		return Request{}, remixerr.Validation(GainRangeMessage)
	}

	title := cleanTitle(strings.Join(titleTokens, " "))
	if title == "" {
		return Request{}, remixerr.Validation(MissingTitleMessage)
	}

	return Request{
		Stem:   stemName,
		GainDB: gain,
		Title:  title,
	}, nil
}

func invalidStemMessage(given string) string {
	msg := fmt.Sprintf("Invalid stem '%s'. Must be one of: %s", given, stem.Valid())
	if suggestion, ok := stem.Suggest(given); ok {
		msg += fmt.Sprintf(". Did you mean '%s'?", suggestion)
	}

	return msg
}

// splitTokens splits on the first n-1 whitespace runs, the last token keeps
// its inner whitespace.
func splitTokens(text string, n int) []string {
	rest := strings.TrimSpace(text)
	tokens := []string{}

	for rest != "" && len(tokens) < n-1 {
		end := strings.IndexFunc(rest, unicode.IsSpace)
		if end < 0 {
			break
		}

		tokens = append(tokens, rest[:end])
		rest = strings.TrimLeftFunc(rest[end:], unicode.IsSpace)
	}

	if rest != "" {
		tokens = append(tokens, rest)
	}

	return tokens
}

const quoteChars = "\"'“”‘’"

// cleanTitle removes one layer of quotes on each end.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)

	for _, quote := range quoteChars {
		if trimmed, ok := strings.CutPrefix(title, string(quote)); ok {
			title = trimmed
			break
		}
	}

	for _, quote := range quoteChars {
		if trimmed, ok := strings.CutSuffix(title, string(quote)); ok {
			title = trimmed
			break
		}
	}

	return strings.TrimSpace(title)
}
