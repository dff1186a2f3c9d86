// Package push delivers device notifications to registered push tokens.
package push

import (
	"context"
	"regexp"
)

// Message is the user-visible notification content.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result summarizes one delivery. InvalidTokens should be pruned by the caller.
type Result struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

// Merge accumulates another batch result.
func (r *Result) Merge(other Result) {
	r.SuccessCount += other.SuccessCount
	r.FailureCount += other.FailureCount
	r.InvalidTokens = append(r.InvalidTokens, other.InvalidTokens...)
}

// Sender delivers a message to a batch of device tokens.
type Sender interface {
	SendToTokens(ctx context.Context, tokens []string, msg Message) (Result, error)
}

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9_:\-]{20,4096}$`)

// ValidToken reports whether token looks like a device registration token.
func ValidToken(token string) bool {
	return tokenPattern.MatchString(token)
}

// splitValid separates well-formed tokens from malformed ones.
func splitValid(tokens []string) (valid, invalid []string) {
	for _, t := range tokens {
		if ValidToken(t) {
			valid = append(valid, t)
		} else {
			invalid = append(invalid, t)
		}
	}
	return valid, invalid
}
