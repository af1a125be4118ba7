package root

import (
	"context"
	"net/mail"
	"regexp"
	"strings"

	"society-shield/backend/internal/platform/root/domain"
)

// ContactVerifier confirms that the root operator controls the email and mobile
// submitted with a password change.
type ContactVerifier interface {
	VerifyEmail(ctx context.Context, account *domain.RootAccount, email string) bool
	VerifyMobile(ctx context.Context, account *domain.RootAccount, mobile string) bool
}

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// RecordedContactVerifier accepts well-formed contacts. When the account already has
// a contact on record, the submitted value must match it.
type RecordedContactVerifier struct{}

func (RecordedContactVerifier) VerifyEmail(_ context.Context, account *domain.RootAccount, email string) bool {
	email = normalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	return account.Email == "" || strings.EqualFold(account.Email, email)
}

func (RecordedContactVerifier) VerifyMobile(_ context.Context, account *domain.RootAccount, mobile string) bool {
	mobile = normalizeMobile(mobile)
	if !mobilePattern.MatchString(mobile) {
		return false
	}
	return account.Mobile == "" || normalizeMobile(account.Mobile) == mobile
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeMobile drops spaces, dashes and parentheses.
func normalizeMobile(mobile string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')':
			return -1
		}
		return r
	}, strings.TrimSpace(mobile))
}
