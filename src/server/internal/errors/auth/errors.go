package auth

import (
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
)

const (
	NotGoogleAuthorizedCode    = api.ErrorCode("failed_google_verification")
	BadAuthorizationHeaderCode = api.ErrorCode("bad_header")
)
