package logging

import (
	"net/url"
	"strings"
)

// RedactedValue is the canonical placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

var sensitiveParams = map[string]struct{}{
	"apikey":   {},
	"api_key":  {},
	"key":      {},
	"token":    {},
	"password": {},
	"secret":   {},
}

func isSensitive(name string) bool {
	_, ok := sensitiveParams[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// MaskEndpoint hides credentials embedded in an RPC URL or database DSN so
// the value can be logged. URL user info passwords and sensitive query
// parameters are replaced, as are password fields of key=value DSNs.
func MaskEndpoint(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}
	if strings.Contains(trimmed, "://") {
		if parsed, err := url.Parse(trimmed); err == nil {
			return maskURL(parsed)
		}
		return RedactedValue
	}
	if strings.Contains(trimmed, "=") {
		return maskKeyValue(trimmed)
	}
	return trimmed
}

func maskURL(u *url.URL) string {
	if u.User != nil {
		if _, hasPassword := u.User.Password(); hasPassword {
			u.User = url.UserPassword(u.User.Username(), RedactedValue)
		}
	}
	if u.RawQuery != "" {
		query := u.Query()
		for name := range query {
			if isSensitive(name) {
				query.Set(name, RedactedValue)
			}
		}
		u.RawQuery = query.Encode()
	}
	// The last path segment of hosted RPC URLs is commonly an API key.
	if segments := strings.Split(strings.Trim(u.Path, "/"), "/"); len(segments) > 0 {
		last := segments[len(segments)-1]
		if len(last) >= 24 && !strings.ContainsAny(last, ".") {
			segments[len(segments)-1] = RedactedValue
			u.Path = "/" + strings.Join(segments, "/")
		}
	}
	out, err := url.PathUnescape(u.String())
	if err != nil {
		return u.String()
	}
	return out
}

func maskKeyValue(dsn string) string {
	fields := strings.Fields(dsn)
	for i, field := range fields {
		name, _, found := strings.Cut(field, "=")
		if found && isSensitive(name) {
			fields[i] = name + "=" + RedactedValue
		}
	}
	return strings.Join(fields, " ")
}
