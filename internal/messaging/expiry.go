package messaging

import "time"

// ExpiryFor maps the request enum to an absolute expiry. Unrecognized values
// resolve to no expiry.
func ExpiryFor(expiresIn string, now time.Time) *time.Time {
	var d time.Duration
	switch expiresIn {
	case "24h":
		d = 24 * time.Hour
	case "48h":
		d = 48 * time.Hour
	case "72h":
		d = 72 * time.Hour
	default:
		return nil
	}
	at := now.Add(d)
	return &at
}
