package authusecase

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/veedubyou/stem-remixer/src/server/google_id"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/api"
	"github.com/veedubyou/stem-remixer/src/server/internal/errors/auth"
)

const (
	bearerPrefix = "Bearer "
)

type Usecase struct {
	googleValidator google_id.Validator
}

func NewUsecase(googleValidator google_id.Validator) Usecase {
	return Usecase{
		googleValidator: googleValidator,
	}
}

// Authenticate resolves the user behind a "Bearer <Google ID token>" header.
func (u Usecase) Authenticate(ctx context.Context, header string) (google_id.User, *api.Error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return google_id.User{}, api.CommitError(
			errors.New("Auth header doesn't have the bearer prefix"),
			auth.BadAuthorizationHeaderCode,
			"Authorization header has unexpected shape")
	}

	token := strings.TrimPrefix(header, bearerPrefix)
	userFromGoogle, err := u.googleValidator.ValidateToken(ctx, token)
	if err != nil {
		err = errors.Wrap(err, "Failed to validate Google ID token")
		switch {
		case markers.Is(err, google_id.NotValidatedMark):
			return google_id.User{}, api.CommitError(err,
				auth.NotGoogleAuthorizedCode,
				"Your Google login doesn't seem to be valid. Please try again")

		case markers.Is(err, google_id.MalformedClaimsMark):
			fallthrough
		default:
			return google_id.User{}, api.CommitError(err,
				api.DefaultErrorCode,
				"Unknown error: Couldn't verify your Google login status")
		}
	}

	return userFromGoogle, nil
}
