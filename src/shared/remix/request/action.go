package request

import (
	"fmt"
	"math"
	"strings"

	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
)

// Action is the verb the user invoked, it decides the sign of the gain.
type Action string

const (
	Boost  Action = "boost"
	Reduce Action = "reduce"
)

func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case Boost:
		return Boost, nil
	case Reduce:
		return Reduce, nil
	default:
		return "", remixerr.Validation(fmt.Sprintf("Unknown command '%s'. Must be one of: boost, reduce", s))
	}
}

// Label is the word used in output file names.
func (a Action) Label() string {
	switch a {
	case Boost:
		return "Boost"
	case Reduce:
		return "Reduce"
	default:
		return ""
	}
}

// ForAction forces the gain sign to match the verb, whatever the user typed.
func ForAction(action Action, req Request) Request {
	magnitude := math.Abs(req.GainDB)

	switch action {
	case Boost:
		req.GainDB = magnitude
	case Reduce:
		req.GainDB = -magnitude
	default:
		panic(fmt.Sprintf("unhandled remix action %q", action))
	}

	return req
}

// Command interprets args for the given verb in one go.
func Command(action Action, args string) (Request, error) {
	req, err := Interpret(args)
	if err != nil {
		return Request{}, err
	}

	return ForAction(action, req), nil
}
