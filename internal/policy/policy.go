// Package policy classifies gateway result codes into payment statuses.
// The classification is an ordered table of govaluate rules matched against
// the result code; the first matching rule wins and codes no rule matches
// classify as StatusUnknown.
package policy

import (
	"fmt"

	"github.com/Knetic/govaluate"
)

// PaymentStatus is the coarse outcome of a checkout.
type PaymentStatus string

const (
	// StatusInit means no charge happened yet; the session can be paid again.
	StatusInit                   PaymentStatus = "init"
	StatusSuccessful             PaymentStatus = "successful"
	StatusSuccessfulManualReview PaymentStatus = "successful_manual_review"
	StatusPending                PaymentStatus = "pending"
	StatusRejected               PaymentStatus = "rejected"
	StatusChargeback             PaymentStatus = "chargeback"
	// StatusUnknown is reported for codes outside the documented code groups.
	StatusUnknown PaymentStatus = "unknown"
)

// IsTerminal reports whether no further status change is expected.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case StatusSuccessful, StatusSuccessfulManualReview, StatusRejected, StatusChargeback:
		return true
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// StatusRule maps result codes matching Expression to Status.
// Expressions see a single parameter, code.
type StatusRule struct {
	ID         string
	Expression string
	Status     PaymentStatus
}

type compiledRule struct {
	StatusRule
	expr *govaluate.EvaluableExpression
}

// Classifier evaluates status rules in order.
type Classifier struct {
	rules []compiledRule
}

// NewClassifier compiles the given rules. Rule order is evaluation order.
func NewClassifier(rules []StatusRule) (*Classifier, error) {
	c := &Classifier{rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Expression == "" {
			return nil, fmt.Errorf("status rule ID '%s' has an empty expression", r.ID)
		}
		expr, err := govaluate.NewEvaluableExpression(r.Expression)
		if err != nil {
			return nil, fmt.Errorf("failed to compile rule ID '%s': %w", r.ID, err)
		}
		c.rules = append(c.rules, compiledRule{StatusRule: r, expr: expr})
	}
	return c, nil
}

// NewDefaultClassifier returns a classifier over DefaultRules.
func NewDefaultClassifier() *Classifier {
	c, err := NewClassifier(DefaultRules())
	if err != nil {
		panic(fmt.Sprintf("policy: default rules do not compile: %v", err))
	}
	return c
}

// Classify returns the status of the first rule matching code, or StatusUnknown.
func (c *Classifier) Classify(code string) PaymentStatus {
	if r := c.match(code); r != nil {
		return r.Status
	}
	return StatusUnknown
}

// Match returns the ID of the first rule matching code, or "" when none does.
func (c *Classifier) Match(code string) string {
	if r := c.match(code); r != nil {
		return r.ID
	}
	return ""
}

// match skips rules that fail to evaluate or do not yield a boolean.
func (c *Classifier) match(code string) *compiledRule {
	params := map[string]interface{}{"code": code}
	for i := range c.rules {
		out, err := c.rules[i].expr.Evaluate(params)
		if err != nil {
			continue
		}
		if matched, ok := out.(bool); ok && matched {
			return &c.rules[i]
		}
	}
	return nil
}
