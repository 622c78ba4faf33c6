package validators

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/dnsosebee/methodable-sub000/domain/config"
	"github.com/dnsosebee/methodable-sub000/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextValidator(t *testing.T) {
	cfg := config.DefaultDomainConfig()
	cfg.MaxTextLength = 5
	cfg.MaxPasteLines = 2
	cfg.MaxOutlineDepth = 3
	v := NewTextValidator(cfg)

	tests := []struct {
		name    string
		run     func() error
		wantErr bool
	}{
		{name: "short text", run: func() error { return v.ValidateHumanText("héllo") }},
		{name: "too long", run: func() error { return v.ValidateHumanText("hello!") }, wantErr: true},
		{name: "newline", run: func() error { return v.ValidateHumanText("a\nb") }, wantErr: true},
		{name: "invalid utf8", run: func() error { return v.ValidateHumanText("\xff") }, wantErr: true},
		{name: "two line paste", run: func() error { return v.ValidateClipboard("ab\r\ncd") }},
		{name: "three line paste", run: func() error { return v.ValidateClipboard("a\nb\nc") }, wantErr: true},
		{name: "paste line too long", run: func() error { return v.ValidateClipboard("abcdef") }, wantErr: true},
		{name: "depth at limit", run: func() error { return v.ValidateDepth(3) }},
		{name: "depth over limit", run: func() error { return v.ValidateDepth(4) }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var domainErr *errors.DomainError
			require.True(t, stderrors.As(err, &domainErr), "got %v", err)
		})
	}
}

func TestValidateReferenceURL(t *testing.T) {
	u, err := ValidateReferenceURL(" https://guides.example.com/doc?ref=l1 ", "guides.example.com")
	require.NoError(t, err)
	assert.Equal(t, "l1", u.Query().Get("ref"))

	_, err = ValidateReferenceURL("ftp://guides.example.com/doc", "")
	assert.Error(t, err)

	_, err = ValidateReferenceURL("https://other.example.com/doc", "guides.example.com")
	assert.Error(t, err)

	_, err = ValidateReferenceURL(strings.Repeat("x", 3), "")
	assert.Error(t, err)
}
