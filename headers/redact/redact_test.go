// headers/redact/redact_test.go
package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactSensitiveHeaderData(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"Authorization", "Bearer tok", "REDACTED"},
		{"AccessToken", "tok", "REDACTED"},
		{"client_secret", "s3cret", "REDACTED"},
		{"ClientSecret", "s3cret", "REDACTED"},
		{"Passcode", "123456", "REDACTED"},
		{"User-Agent", "jamf-fleetops/0.3.1", "jamf-fleetops/0.3.1"},
		// Keys are matched exactly.
		{"authorization", "Bearer tok", "Bearer tok"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, RedactSensitiveHeaderData(true, tt.key, tt.value))
			assert.Equal(t, tt.value, RedactSensitiveHeaderData(false, tt.key, tt.value))
		})
	}
}
