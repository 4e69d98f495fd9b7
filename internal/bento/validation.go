package bento

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	apierrors "github.com/olgasafonova/bento-mcp-server/internal/errors"
)

const (
	// MaxImportBatch is the most subscribers one import call accepts
	MaxImportBatch = 1000

	// MaxNameLength bounds tag, broadcast and sequence names
	MaxNameLength = 255

	maxEmailLength = 254
)

var fieldKeyRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,63}$`)

// ValidateEmail checks that value is a bare email address (no display name).
func ValidateEmail(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apierrors.NewValidationError(field, "", "email is required")
	}
	if len(value) > maxEmailLength {
		return apierrors.NewValidationError(field, "", fmt.Sprintf("email cannot exceed %d characters", maxEmailLength))
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value || addr.Name != "" {
		return apierrors.NewValidationError(field, value, "not a valid email address")
	}
	return nil
}

// ValidateName checks a required, bounded free-text name.
func ValidateName(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apierrors.NewValidationError(field, "", "is required")
	}
	if len(value) > MaxNameLength {
		return apierrors.NewValidationError(field, "", fmt.Sprintf("cannot exceed %d characters", MaxNameLength))
	}
	return nil
}

// ValidatePage checks a listing page number. Zero means the first page.
func ValidatePage(page int) error {
	if page < 0 {
		return apierrors.NewValidationError("page", fmt.Sprint(page), "page cannot be negative")
	}
	return nil
}

// ValidateImportBatch checks the size and rows of a subscriber import.
func ValidateImportBatch(rows []ImportSubscriber) error {
	if len(rows) == 0 {
		return apierrors.NewValidationError("subscribers", "", "at least one subscriber is required")
	}
	if len(rows) > MaxImportBatch {
		return apierrors.NewValidationError("subscribers", "", fmt.Sprintf("cannot import more than %d subscribers at once, got %d", MaxImportBatch, len(rows)))
	}
	for i, row := range rows {
		if err := ValidateEmail(fmt.Sprintf("subscribers[%d].email", i), row.Email); err != nil {
			return err
		}
	}
	return nil
}

// ValidateFieldKey checks a custom field key.
func ValidateFieldKey(key string) error {
	if key == "" {
		return apierrors.NewValidationError("key", "", "field key is required")
	}
	if !fieldKeyRegex.MatchString(key) {
		return apierrors.NewValidationError("key", key, "must start with a letter and contain only letters, digits and underscores (max 64)")
	}
	return nil
}

// ValidateBroadcastType checks a broadcast content type. Empty means plain.
func ValidateBroadcastType(t string) error {
	switch t {
	case "", BroadcastPlain, BroadcastHTML, BroadcastMarkdown:
		return nil
	}
	return apierrors.NewValidationError("type", t, "must be one of plain, html, markdown")
}

// ValidateDelayInterval checks a sequence email delay unit. Empty means no delay.
func ValidateDelayInterval(unit string, count int) error {
	switch unit {
	case "", "minutes", "hours", "days", "months":
	default:
		return apierrors.NewValidationError("delay_interval", unit, "must be one of minutes, hours, days, months")
	}
	if count < 0 {
		return apierrors.NewValidationError("delay_interval_count", fmt.Sprint(count), "cannot be negative")
	}
	return nil
}

// ValidateIdentifier requires either an id or a name that is non-blank after trimming.
func ValidateIdentifier(idField, nameField, id, name string) error {
	if strings.TrimSpace(id) == "" && strings.TrimSpace(name) == "" {
		return apierrors.NewValidationError(idField, "", fmt.Sprintf("provide %s or %s", idField, nameField))
	}
	return nil
}

// ValidateTemplateID checks an email template id.
func ValidateTemplateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierrors.NewValidationError("template_id", "", "template id is required")
	}
	if strings.ContainsAny(id, "/?#") {
		return apierrors.NewValidationError("template_id", id, "template id cannot contain '/', '?' or '#'")
	}
	return nil
}
