package payment

import (
	"github.com/shopspring/decimal"

	"github.com/smartqueue/backend/internal/domain/shared"
)

// Provider is a payment operator
type Provider string

const (
	ProviderWave         Provider = "wave"
	ProviderOrangeMoney  Provider = "orange_money"
	ProviderFreeMoney    Provider = "free_money"
	ProviderWizall       Provider = "wizall"
	ProviderWari         Provider = "wari"
	ProviderPosteFinance Provider = "postefinance"
	ProviderBankTransfer Provider = "bank_transfer"
	ProviderCash         Provider = "cash"
)

// IsValid checks if the provider is known
func (p Provider) IsValid() bool {
	_, ok := catalogue[p]
	return ok
}

// ProviderTerms are the amount limits and fees an operator applies
type ProviderTerms struct {
	Provider    Provider
	DisplayName string
	MinAmount   decimal.Decimal
	MaxAmount   decimal.Decimal
	FixedFee    decimal.Decimal
	PercentFee  decimal.Decimal
	// Online providers confirm payments through a signed callback
	Online bool
}

func terms(p Provider, name string, minAmount, maxAmount, fixed int64, percent string, online bool) ProviderTerms {
	return ProviderTerms{
		Provider:    p,
		DisplayName: name,
		MinAmount:   decimal.NewFromInt(minAmount),
		MaxAmount:   decimal.NewFromInt(maxAmount),
		FixedFee:    decimal.NewFromInt(fixed),
		PercentFee:  decimal.RequireFromString(percent),
		Online:      online,
	}
}

var catalogue = map[Provider]ProviderTerms{
	ProviderWave:         terms(ProviderWave, "Wave", 100, 1_000_000, 0, "1", true),
	ProviderOrangeMoney:  terms(ProviderOrangeMoney, "Orange Money", 100, 1_000_000, 0, "1.5", true),
	ProviderFreeMoney:    terms(ProviderFreeMoney, "Free Money", 100, 500_000, 0, "1.5", true),
	ProviderWizall:       terms(ProviderWizall, "Wizall Money", 100, 500_000, 50, "1", true),
	ProviderWari:         terms(ProviderWari, "Wari", 500, 1_000_000, 100, "1", true),
	ProviderPosteFinance: terms(ProviderPosteFinance, "Poste Finance", 500, 2_000_000, 100, "0.5", true),
	ProviderBankTransfer: terms(ProviderBankTransfer, "Virement bancaire", 1000, 10_000_000, 500, "0", true),
	ProviderCash:         terms(ProviderCash, "Espèces", 100, 10_000_000, 0, "0", false),
}

// Terms returns the terms of a provider
func Terms(p Provider) (ProviderTerms, error) {
	t, ok := catalogue[p]
	if !ok {
		return ProviderTerms{}, shared.NewDomainError("UNKNOWN_PROVIDER", "Unknown payment provider: "+string(p))
	}
	return t, nil
}

// Providers returns the terms of every provider
func Providers() []ProviderTerms {
	out := make([]ProviderTerms, 0, len(catalogue))
	for _, p := range []Provider{ProviderWave, ProviderOrangeMoney, ProviderFreeMoney, ProviderWizall,
		ProviderWari, ProviderPosteFinance, ProviderBankTransfer, ProviderCash} {
		out = append(out, catalogue[p])
	}
	return out
}

// Accepts reports whether amount is within the provider's limits
func (t ProviderTerms) Accepts(amount decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(t.MinAmount) && amount.LessThanOrEqual(t.MaxAmount)
}

// Fees computes fixed + amount * percent / 100, rounded to whole francs
func (t ProviderTerms) Fees(amount decimal.Decimal) decimal.Decimal {
	percent := amount.Mul(t.PercentFee).Div(decimal.NewFromInt(100))
	return t.FixedFee.Add(percent).Round(0)
}
