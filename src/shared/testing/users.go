package testing

import (
	"context"

	"github.com/veedubyou/stem-remixer/src/server/google_id"
	"github.com/veedubyou/stem-remixer/src/shared/lib/errors/mark"
)

var PrimaryUser = google_id.User{
	GoogleID: "000000000000000000001",
	Name:     "Primary User",
	Email:    "primary@example.com",
}

func TokenForUserID(googleID string) string {
	return "test-token-" + googleID
}

func AuthHeaderFor(user google_id.User) string {
	return "Bearer " + TokenForUserID(user.GoogleID)
}

func WithUserCred(user google_id.User) RequestModifier {
	return WithHeader("Authorization", AuthHeaderFor(user))
}

var _ google_id.Validator = TestingValidator{}

// TestingValidator accepts only tokens made by TokenForUserID for known users.
type TestingValidator struct{}

func (t TestingValidator) ValidateToken(_ context.Context, requestToken string) (google_id.User, error) {
	if requestToken == TokenForUserID(PrimaryUser.GoogleID) {
		return PrimaryUser, nil
	}

	return google_id.User{}, mark.Message(google_id.NotValidatedMark, "User is not validated")
}
