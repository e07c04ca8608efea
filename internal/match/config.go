// Package match implements the document-to-transaction matching core: field
// similarity scorers, the tier classifier, and the batch resolver.
package match

import "fmt"

// Weights defines the relative importance of each scorer in the combined
// confidence. They must sum to approximately 1.0.
type Weights struct {
	Amount   float64
	Date     float64
	Merchant float64
}

// Config holds all tunable matching parameters. The business rules call for
// threshold tuning based on reviewer feedback, so nothing here is hard-coded
// at call sites; a Config value is passed into the classifier and resolver
// explicitly to keep runs reproducible.
type Config struct {
	// AmountTolerancePercent is the fuzzy-tier relative amount tolerance
	// (2.0 means |a-b|/max(|a|,|b|) up to 2%).
	AmountTolerancePercent float64

	// ExactDateToleranceDays bounds the date distance for the exact tier.
	ExactDateToleranceDays int

	// FuzzyDateToleranceDays bounds the date distance for the fuzzy tier and
	// sets the decay horizon of the date score.
	FuzzyDateToleranceDays int

	// ExactMerchantThreshold is the minimum merchant score for the exact tier.
	ExactMerchantThreshold float64

	// FuzzyMerchantThreshold is the minimum merchant score for the fuzzy tier.
	FuzzyMerchantThreshold float64

	// MerchantOnlyThreshold is the minimum merchant score for a merchant-only
	// candidate, considered only when a document has no exact or fuzzy one.
	MerchantOnlyThreshold float64

	// ReviewThreshold is the minimum confidence for auto-acceptance; anything
	// below lands in the review queue.
	ReviewThreshold float64

	// TieEpsilon is the confidence distance within which two candidate
	// transactions count as tied, forcing review.
	TieEpsilon float64

	Weights Weights
}

// DefaultConfig returns the tolerances the product rules specify as defaults.
func DefaultConfig() Config {
	return Config{
		AmountTolerancePercent: 2.0,
		ExactDateToleranceDays: 1,
		FuzzyDateToleranceDays: 3,
		ExactMerchantThreshold: 0.9,
		FuzzyMerchantThreshold: 0.6,
		MerchantOnlyThreshold:  0.85,
		ReviewThreshold:        0.8,
		TieEpsilon:             0.01,
		Weights: Weights{
			Amount:   1.0 / 3.0,
			Date:     1.0 / 3.0,
			Merchant: 1.0 / 3.0,
		},
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.AmountTolerancePercent < 0 || c.AmountTolerancePercent > 100 {
		return fmt.Errorf("amount tolerance percent must be in [0,100]: %f", c.AmountTolerancePercent)
	}
	if c.ExactDateToleranceDays < 0 {
		return fmt.Errorf("exact date tolerance days cannot be negative: %d", c.ExactDateToleranceDays)
	}
	if c.FuzzyDateToleranceDays < c.ExactDateToleranceDays {
		return fmt.Errorf("fuzzy date tolerance (%d) cannot be tighter than exact (%d)",
			c.FuzzyDateToleranceDays, c.ExactDateToleranceDays)
	}
	for name, v := range map[string]float64{
		"exact merchant threshold":  c.ExactMerchantThreshold,
		"fuzzy merchant threshold":  c.FuzzyMerchantThreshold,
		"merchant-only threshold":   c.MerchantOnlyThreshold,
		"review threshold":          c.ReviewThreshold,
		"tie epsilon":               c.TieEpsilon,
		"amount weight":             c.Weights.Amount,
		"date weight":               c.Weights.Date,
		"merchant weight":           c.Weights.Merchant,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1]: %f", name, v)
		}
	}
	total := c.Weights.Amount + c.Weights.Date + c.Weights.Merchant
	if total < 0.99 || total > 1.01 {
		return fmt.Errorf("weights should sum to 1.0, got %f", total)
	}
	return nil
}
