package config

import (
	"github.com/spf13/viper"

	"github.com/expenseflow/ledger-match/internal/match"
)

// LoadMatchConfig loads matching thresholds from Viper, falling back to the
// defaults for anything unset.
func LoadMatchConfig() (match.Config, error) {
	cfg := match.DefaultConfig()

	if viper.IsSet("match.amount_tolerance_percent") {
		cfg.AmountTolerancePercent = viper.GetFloat64("match.amount_tolerance_percent")
	}
	if viper.IsSet("match.exact_date_tolerance_days") {
		cfg.ExactDateToleranceDays = viper.GetInt("match.exact_date_tolerance_days")
	}
	if viper.IsSet("match.fuzzy_date_tolerance_days") {
		cfg.FuzzyDateToleranceDays = viper.GetInt("match.fuzzy_date_tolerance_days")
	}
	if viper.IsSet("match.exact_merchant_threshold") {
		cfg.ExactMerchantThreshold = viper.GetFloat64("match.exact_merchant_threshold")
	}
	if viper.IsSet("match.fuzzy_merchant_threshold") {
		cfg.FuzzyMerchantThreshold = viper.GetFloat64("match.fuzzy_merchant_threshold")
	}
	if viper.IsSet("match.merchant_only_threshold") {
		cfg.MerchantOnlyThreshold = viper.GetFloat64("match.merchant_only_threshold")
	}
	if viper.IsSet("match.review_threshold") {
		cfg.ReviewThreshold = viper.GetFloat64("match.review_threshold")
	}
	if viper.IsSet("match.tie_epsilon") {
		cfg.TieEpsilon = viper.GetFloat64("match.tie_epsilon")
	}
	if viper.IsSet("match.amount_weight") {
		cfg.Weights.Amount = viper.GetFloat64("match.amount_weight")
	}
	if viper.IsSet("match.date_weight") {
		cfg.Weights.Date = viper.GetFloat64("match.date_weight")
	}
	if viper.IsSet("match.merchant_weight") {
		cfg.Weights.Merchant = viper.GetFloat64("match.merchant_weight")
	}

	if err := cfg.Validate(); err != nil {
		return match.Config{}, err
	}

	return cfg, nil
}
