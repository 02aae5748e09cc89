package remixerr

import (
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/domains"
	"github.com/cockroachdb/errors/markers"
)

var (
	ValidationMark  = domains.New("remix_validation")
	SeparationMark  = domains.New("remix_separation_failed")
	StemMissingMark = domains.New("remix_stem_missing")
	EncodingMark    = domains.New("remix_encoding_failed")
	TimeoutMark     = domains.New("remix_timed_out")
	DefaultMark     = domains.New("remix_default_error")
)

const (
	SeparationMessage  = "Audio separation failed"
	StemMissingMessage = "Audio separation produced incomplete stems"
	EncodingMessage    = "Audio mixing failed"
	TimeoutMessage     = "The remix took too long and was stopped"
	DefaultMessage     = "Something went wrong while remixing the track"
)

// Validation builds a user correctable error, its message is shown verbatim.
func Validation(msg string) error {
	return errors.Mark(errors.New(msg), ValidationMark)
}

// UserMessage picks the single message a user should see for err.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case markers.Is(err, ValidationMark):
		return validationText(err)
	case markers.Is(err, TimeoutMark):
		return TimeoutMessage
	case markers.Is(err, SeparationMark):
		return SeparationMessage
	case markers.Is(err, StemMissingMark):
		return StemMissingMessage
	case markers.Is(err, EncodingMark):
		return EncodingMessage
	default:
		return DefaultMessage
	}
}

// validationText strips wrapping context so only the innermost message remains.
func validationText(err error) string {
	cause := errors.UnwrapAll(err)
	if cause == nil {
		return err.Error()
	}

	return cause.Error()
}

// ToolFailure is an error that carries an external tool's console output.
type ToolFailure interface {
	error
	ToolOutput() string
}

// DebugLog is the diagnostic text kept next to a failed job,
// the error chain plus any tool output buried in it.
func DebugLog(err error) string {
	if err == nil {
		return ""
	}

	var toolFailure ToolFailure
	if errors.As(err, &toolFailure) && toolFailure.ToolOutput() != "" {
		return err.Error() + "\n" + toolFailure.ToolOutput()
	}

	return err.Error()
}
