package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// invalidate removes every key selected by matchers. It never fails the caller.
func invalidate(cache ports.ExpiringCache, logger *logrus.Logger, matchers []ports.KeyMatcher) int {
	if cache == nil {
		return 0
	}
	removed := 0
	for _, m := range matchers {
		removed += cache.DeleteMatching(m)
	}
	if logger != nil {
		logger.WithField("removed", removed).Debug("cache invalidated")
	}
	return removed
}

// resolveListID prefers the user's configured list over the account default.
func resolveListID(ctx context.Context, settingsRepo ports.SettingsRepository, lists ports.MailingListClient, userID uuid.UUID) string {
	if lists == nil {
		return ""
	}
	if settingsRepo != nil {
		if s, err := settingsRepo.Get(ctx, userID); err == nil && s.MailchimpListID != "" {
			return s.MailchimpListID
		}
	}
	return lists.DefaultListID()
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ports.ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email %q", ports.ErrInvalidInput, email)
	}
	return nil
}

func isNotFound(err error) bool { return errors.Is(err, ports.ErrNotFound) }
