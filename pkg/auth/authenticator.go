package auth

import "log/slog"

// authenticator allow-lists the Telegram users who may run extractions.
// An empty list means the bot is closed.
type authenticator struct {
	authorizedUserIDs []int64
}

func NewAuthenticator(authorizedUserIDs []int64) *authenticator {
	slog.Info("telegram authorized user IDs", "user_ids", authorizedUserIDs)

	return &authenticator{
		authorizedUserIDs: authorizedUserIDs,
	}
}

func (a *authenticator) IsAuthorized(userID int64) bool {
	for _, id := range a.authorizedUserIDs {
		if userID == id {
			return true
		}
	}
	return false
}
