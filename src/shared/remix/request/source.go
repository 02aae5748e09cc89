package request

import (
	"net/url"
	"strings"

	"github.com/veedubyou/stem-remixer/src/shared/remix/remixerr"
)

const (
	LocalSourceMessage  = "Local files can't be remixed here, link the track over http or https instead"
	SourceSchemeMessage = "original_url must be an http or https URL"
)

// CheckSource accepts http and https sources. file sources only pass where
// the deployment is allowed to read its own disk.
func CheckSource(rawURL string, allowLocal bool) error {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return remixerr.Validation(SourceSchemeMessage)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return nil
	case "file":
		if allowLocal {
			return nil
		}
		return remixerr.Validation(LocalSourceMessage)
	default:
		return remixerr.Validation(SourceSchemeMessage)
	}
}
