package parser

import (
	"fmt"
	"strings"
)

// Policy decides how the sender and keyword heuristics combine.
type Policy int

const (
	// PolicyAny classifies a message as a transaction when the sender is known OR the body has a keyword.
	PolicyAny Policy = iota
	// PolicyAll requires both a known sender AND a transaction keyword.
	PolicyAll
)

// String returns the policy name as used in configuration.
func (p Policy) String() string {
	switch p {
	case PolicyAll:
		return "all"
	default:
		return "any"
	}
}

// ParsePolicy converts a configuration value ("any", "all" or empty) to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "or":
		return PolicyAny, nil
	case "all", "and":
		return PolicyAll, nil
	default:
		return PolicyAny, fmt.Errorf("unknown classification policy %q", s)
	}
}

// Classifier decides whether a message looks like a bank or wallet transaction notification.
type Classifier struct {
	Senders  []string
	Keywords []string
	Policy   Policy
}

// NewClassifier returns a classifier using the default sender and keyword tables.
func NewClassifier(policy Policy) *Classifier {
	return &Classifier{
		Senders:  DefaultSenders,
		Keywords: DefaultTransactionKeywords,
		Policy:   policy,
	}
}

// IsTransaction reports whether the message is transaction-like.
func (c *Classifier) IsTransaction(senderID, body string) bool {
	fromBank := containsAny(lower(senderID), c.Senders)
	hasKeyword := containsAny(lower(body), c.Keywords)

	if c.Policy == PolicyAll {
		return fromBank && hasKeyword
	}
	return fromBank || hasKeyword
}
