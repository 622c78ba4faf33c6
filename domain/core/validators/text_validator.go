package validators

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/pkg/errors"
)

// TextValidator enforces the editing limits from DomainConfig on user input
type TextValidator struct {
	maxTextLength   int
	maxPasteLines   int
	maxOutlineDepth int
}

// NewTextValidator creates a validator from the domain configuration
func NewTextValidator(cfg *config.DomainConfig) *TextValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &TextValidator{
		maxTextLength:   cfg.MaxTextLength,
		maxPasteLines:   cfg.MaxPasteLines,
		maxOutlineDepth: cfg.MaxOutlineDepth,
	}
}

// ValidateHumanText checks the text of a single block
func (v *TextValidator) ValidateHumanText(text string) error {
	if !utf8.ValidString(text) {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"INVALID_ENCODING",
			"Block text must be valid UTF-8",
		).WithDetail("field", "humanText")
	}

	if n := utf8.RuneCountInString(text); n > v.maxTextLength {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"TEXT_TOO_LONG",
			"Block text exceeds the maximum length",
		).WithDetail("actual_length", n).WithDetail("max_length", v.maxTextLength)
	}

	// A block is one line; newlines go through paste
	if strings.ContainsAny(text, "\r\n") {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"MULTILINE_TEXT",
			"Block text cannot contain line breaks",
		).WithDetail("field", "humanText")
	}

	return nil
}

// ValidateClipboard checks pasted text before it is split into blocks
func (v *TextValidator) ValidateClipboard(clipboard string) error {
	lines := strings.Count(clipboard, "\n") + 1
	if lines > v.maxPasteLines {
		return errors.NewDomainError(
			errors.DomainValidationError,
			"PASTE_TOO_LARGE",
			"Pasted text has too many lines",
		).WithDetail("actual_lines", lines).WithDetail("max_lines", v.maxPasteLines)
	}

	for _, line := range strings.Split(clipboard, "\n") {
		if err := v.ValidateHumanText(strings.TrimSuffix(line, "\r")); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDepth checks that a block at depth may exist
func (v *TextValidator) ValidateDepth(depth int) error {
	if depth > v.maxOutlineDepth {
		return errors.NewDomainError(
			errors.DomainBusinessRuleError,
			"OUTLINE_TOO_DEEP",
			"The outline cannot be nested any deeper",
		).WithDetail("depth", depth).WithDetail("max_depth", v.maxOutlineDepth)
	}
	return nil
}

// ValidateReferenceURL checks that a pasted reference link is an absolute
// http(s) URL, optionally on the expected host.
func ValidateReferenceURL(raw, host string) (*url.URL, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, errors.NewDomainError(
			errors.DomainValidationError,
			"INVALID_URL_FORMAT",
			"Invalid URL format",
		).WithDetail("field", "url").WithCause(err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, errors.NewDomainError(
			errors.DomainValidationError,
			"INVALID_URL_SCHEME",
			"URL must use http or https scheme",
		).WithDetail("field", "url").WithDetail("scheme", parsed.Scheme)
	}

	if parsed.Host == "" || (host != "" && !strings.EqualFold(parsed.Host, host)) {
		return nil, errors.NewDomainError(
			errors.DomainValidationError,
			"INVALID_URL_HOST",
			"URL must point at the reference host",
		).WithDetail("field", "url").WithDetail("host", parsed.Host)
	}

	return parsed, nil
}
