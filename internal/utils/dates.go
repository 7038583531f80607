package utils

import "time"

// ExpirationFormat is the expiration identifier format used everywhere
// outside the provider wire protocol.
const ExpirationFormat = "2006-01-02"

// UnixToExpiration converts a provider expiration timestamp to its string
// identifier. Yahoo expiration timestamps are midnight UTC of the expiry day.
func UnixToExpiration(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(ExpirationFormat)
}

// ExpirationToUnix converts an expiration identifier back to the provider's
// unix date parameter.
func ExpirationToUnix(expiration string) (int64, error) {
	t, err := time.Parse(ExpirationFormat, expiration)
	if err != nil {
		return 0, err
	}
	return t.UTC().Unix(), nil
}

// ValidExpiration reports whether the identifier parses as a date
func ValidExpiration(expiration string) bool {
	_, err := time.Parse(ExpirationFormat, expiration)
	return err == nil
}
