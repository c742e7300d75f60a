// headers/redact/redact.go
package redact

// sensitiveKeys lists header and field names whose values never reach the logs when
// redaction is enabled.
var sensitiveKeys = map[string]bool{
	"AccessToken":   true,
	"Authorization": true,
	"ClientSecret":  true,
	"client_secret": true,
	"Passcode":      true,
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData && sensitiveKeys[key] {
		return "REDACTED"
	}
	return value
}
