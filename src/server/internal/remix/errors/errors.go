package remixerrors

import (
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
)

const (
	InvalidRemixRequestCode   = api.ErrorCode("invalid_remix_request")
	BadRemixDataCode          = api.ErrorCode("bad_remix_data")
	RemixNotFoundCode         = api.ErrorCode("remix_not_found")
	RemixQueueUnavailableCode = api.ErrorCode("remix_queue_unavailable")
	RemixRateLimitedCode      = api.ErrorCode("remix_rate_limited")
)
