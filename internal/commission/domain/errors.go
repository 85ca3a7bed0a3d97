package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTier           = errors.New("unknown_tier")
	ErrNoTiersConfigured     = errors.New("no_tiers_configured")
	ErrInvalidTierCode       = errors.New("invalid_tier_code")
	ErrInvalidTierRate       = errors.New("invalid_tier_rate")
	ErrInvalidTierRevenue    = errors.New("invalid_tier_revenue")
	ErrInvalidTierMultiplier = errors.New("invalid_tier_multiplier")
	ErrRecordNotFound        = errors.New("commission_record_not_found")
)

// FieldError names one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationError reports malformed or out-of-range calculation input.
// Always local and non-retryable.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid commission input"
	}
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("invalid commission input: %s", strings.Join(names, ", "))
}

// EligibilityError reports a partner below the tier's revenue threshold.
// Recoverable by choosing a lower tier, not a bug.
type EligibilityError struct {
	TierCode        string  `json:"tier_code"`
	RequiredRevenue float64 `json:"required_revenue"`
	ActualRevenue   float64 `json:"actual_revenue"`
}

func (e *EligibilityError) Error() string {
	return fmt.Sprintf("partner not eligible for tier %s: requires lifetime revenue %.2f, has %.2f",
		e.TierCode, e.RequiredRevenue, e.ActualRevenue)
}

// RateCapError reports an effective rate over the hard cap. Treated as a
// misconfiguration guard, always fatal to the single calculation.
type RateCapError struct {
	EffectiveRate float64 `json:"effective_rate"`
	Cap           float64 `json:"cap"`
}

func (e *RateCapError) Error() string {
	return fmt.Sprintf("effective commission rate %.4f exceeds cap %.2f", e.EffectiveRate, e.Cap)
}

// BatchItemError ties a failure to its input index.
type BatchItemError struct {
	Index int   `json:"index"`
	Err   error `json:"-"`
}

func (e BatchItemError) Error() string {
	return fmt.Sprintf("input %d: %v", e.Index, e.Err)
}

func (e BatchItemError) Unwrap() error { return e.Err }

// BatchError aggregates every per-index failure of a batch. The batch is
// all-or-nothing: one of these means no result was accepted.
type BatchError struct {
	Items []BatchItemError `json:"items"`
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		msgs = append(msgs, item.Error())
	}
	return fmt.Sprintf("batch calculation failed: %s", strings.Join(msgs, "; "))
}
