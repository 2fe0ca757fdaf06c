package logger

import (
	"net/http"
	"strings"
)

// Keys whose values must never reach the logs in cleartext. Issued passwords
// travel through provisioning results, so "password" matching is load-bearing.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"service_role",
	"authorization",
}

// MaskSecret hides a credential, preserving only the last 4 characters.
func MaskSecret(value string) string {
	return maskLast4(strings.TrimSpace(value))
}

// MaskAuthorization masks bearer credentials while keeping the scheme visible.
func MaskAuthorization(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	parts := strings.Fields(value)
	if len(parts) == 2 {
		return parts[0] + " " + maskLast4(parts[1])
	}
	return maskLast4(value)
}

// MaskHeaders returns a loggable copy of headers with credentials masked.
func MaskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for key, values := range headers {
		joined := strings.Join(values, ",")
		switch strings.ToLower(key) {
		case "authorization", "x-api-key", "x-wc-webhook-signature":
			masked[key] = MaskAuthorization(joined)
		case "cookie":
			masked[key] = maskLast4(joined)
		default:
			masked[key] = joined
		}
	}
	return masked
}

// MaskJSON deep-copies a decoded JSON object, masking sensitive fields. Used
// before logging webhook payloads and provisioning results.
func MaskJSON(input map[string]any) map[string]any {
	if input == nil {
		return nil
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		if isSensitiveKey(key) {
			out[key] = maskAny(value)
			continue
		}
		switch typed := value.(type) {
		case map[string]any:
			out[key] = MaskJSON(typed)
		case []any:
			items := make([]any, 0, len(typed))
			for _, entry := range typed {
				if nested, ok := entry.(map[string]any); ok {
					items = append(items, MaskJSON(nested))
					continue
				}
				items = append(items, entry)
			}
			out[key] = items
		default:
			out[key] = value
		}
	}
	return out
}

func maskAny(value any) any {
	switch typed := value.(type) {
	case string:
		return maskLast4(typed)
	case []byte:
		return maskLast4(string(typed))
	default:
		return "****"
	}
}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(strings.TrimSpace(key))
	for _, needle := range sensitiveKeys {
		if strings.Contains(key, needle) {
			return true
		}
	}
	return false
}

func maskLast4(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
