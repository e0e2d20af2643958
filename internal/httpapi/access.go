package httpapi

import (
	"context"
	"fmt"

	"github.com/workcity/chat-service/internal/chat"
)

// requireAccess is the single authorization predicate for every
// session-scoped operation: the actor must be an active participant of the
// session or hold the manage-all-chats capability. It also confirms the
// session exists so callers get 404 before 403 for dead ids.
func (a *API) requireAccess(ctx context.Context, sessionID int64, id Identity) error {
	if _, err := a.store.GetSession(ctx, sessionID); err != nil {
		return err
	}
	if id.Privileged {
		return nil
	}
	ok, err := a.store.IsActiveParticipant(ctx, sessionID, id.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: user %d is not a participant of session %d",
			chat.ErrUnauthorized, id.UserID, sessionID)
	}
	return nil
}
