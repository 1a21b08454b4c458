// Package safety decides whether user content may be published
package safety

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/fouta-app/functions/internal/models"
)

// ReasonCode explains a rejection
type ReasonCode string

const (
	ReasonEmptyContent     ReasonCode = "empty-content"
	ReasonContentTooLong   ReasonCode = "content-too-long"
	ReasonForbiddenTerms   ReasonCode = "forbidden-terms"
	ReasonInsecureMediaURL ReasonCode = "insecure-media-url"
)

const (
	// DefaultMaxLength is the longest accepted content, in characters
	DefaultMaxLength = 5000
)

// DefaultForbiddenTerms is the stock term list
var DefaultForbiddenTerms = []string{"spam", "scam", "fake"}

// Verdict is the outcome of classification. Reason is empty when accepted.
type Verdict struct {
	Accepted bool
	Reason   ReasonCode
}

// Classifier checks payloads against a term list and a length cap
type Classifier struct {
	terms     []string
	maxLength int
}

// NewClassifier creates a classifier. Terms are matched case-insensitively
// as substrings; maxLength <= 0 means DefaultMaxLength.
func NewClassifier(forbiddenTerms []string, maxLength int) *Classifier {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	terms := make([]string, 0, len(forbiddenTerms))
	for _, t := range forbiddenTerms {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			terms = append(terms, t)
		}
	}
	return &Classifier{terms: terms, maxLength: maxLength}
}

// Classify runs the checks in order and stops at the first failure
func (c *Classifier) Classify(p models.Payload) Verdict {
	text := strings.TrimSpace(p.Content)
	if text == "" {
		return reject(ReasonEmptyContent)
	}
	if utf8.RuneCountInString(text) > c.maxLength {
		return reject(ReasonContentTooLong)
	}

	lower := strings.ToLower(text)
	for _, term := range c.terms {
		if strings.Contains(lower, term) {
			return reject(ReasonForbiddenTerms)
		}
	}

	for _, m := range p.Media {
		if !secureURL(m) {
			return reject(ReasonInsecureMediaURL)
		}
	}

	return Verdict{Accepted: true}
}

func reject(reason ReasonCode) Verdict {
	return Verdict{Reason: reason}
}

// secureURL accepts absolute https URLs with a host
func secureURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https") && u.Host != ""
}
