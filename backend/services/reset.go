package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"masterycourse/backend/apierr"
	"masterycourse/backend/observability"

	"golang.org/x/crypto/bcrypt"
)

// ResetProgress wipes the caller's progress and module milestones. The key is
// checked before anything is read or deleted.
func (s *ProgressService) ResetProgress(ctx context.Context, discordID, key string) (int64, error) {
	ctx, span := observability.Tracer().Start(ctx, "progress.ResetProgress")
	defer span.End()

	if !s.cfg.ResetEnabled {
		return 0, apierr.Forbidden("Progress reset is disabled")
	}
	if !ResetKeyMatches(s.cfg.ResetKey, key) {
		s.log.Warn("progress reset rejected", "user_id", discordID)
		return 0, apierr.Forbidden("Invalid reset key")
	}

	user, err := s.lookupUser(ctx, discordID)
	if err != nil {
		return 0, err
	}

	deleted, err := s.progress.DeleteForUser(ctx, user.ID)
	if err != nil {
		return 0, apierr.Persistence("Failed to reset progress", err)
	}
	if _, err := s.achievements.DeleteForUser(ctx, user.ID); err != nil {
		s.log.Warn("achievement reset failed (continuing)", "user_id", user.ID, "error", err)
	}
	s.log.Info("progress reset", "user_id", user.ID, "records", deleted)
	return deleted, nil
}

// ResetKeyMatches compares supplied against the configured key, which may be
// stored as plain text or as a bcrypt hash.
func ResetKeyMatches(configured, supplied string) bool {
	if configured == "" || supplied == "" {
		return false
	}
	if strings.HasPrefix(configured, "$2a$") || strings.HasPrefix(configured, "$2b$") || strings.HasPrefix(configured, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(supplied)) == 1
}
