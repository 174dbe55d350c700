package payment

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/smartqueue/backend/internal/domain/payment"
	"github.com/smartqueue/backend/internal/infrastructure/config"
)

// Registry holds the gateways of the enabled providers
type Registry struct {
	gateways map[payment.Provider]payment.Gateway
}

// NewRegistry builds a gateway for every enabled provider in the configuration.
// Cash is always available.
func NewRegistry(cfg config.PaymentConfig, logger *zap.Logger) (*Registry, error) {
	r := &Registry{gateways: map[payment.Provider]payment.Gateway{
		payment.ProviderCash: NewCashGateway(),
	}}

	for name, pc := range cfg.Providers {
		provider := payment.Provider(name)
		if !pc.Enabled || provider == payment.ProviderCash {
			continue
		}
		gw, err := NewMobileMoneyGateway(MobileMoneyConfig{
			Provider:    provider,
			Secret:      pc.Secret,
			CheckoutURL: pc.CheckoutURL,
		})
		if err != nil {
			return nil, fmt.Errorf("payment provider %s: %w", name, err)
		}
		if pc.CheckoutURL == "" {
			logger.Warn("Payment provider runs in sandbox mode", zap.String("provider", name))
		}
		r.gateways[provider] = gw
	}
	return r, nil
}

// NewRegistryOf builds a registry from ready gateways
func NewRegistryOf(gateways ...payment.Gateway) *Registry {
	r := &Registry{gateways: make(map[payment.Provider]payment.Gateway, len(gateways))}
	for _, gw := range gateways {
		r.gateways[gw.Provider()] = gw
	}
	return r
}

// Get returns the gateway of an enabled provider
func (r *Registry) Get(provider payment.Provider) (payment.Gateway, error) {
	gw, ok := r.gateways[provider]
	if !ok {
		return nil, ErrProviderDisabled
	}
	return gw, nil
}

// Enabled lists the enabled providers in name order
func (r *Registry) Enabled() []payment.Provider {
	out := make([]payment.Provider, 0, len(r.gateways))
	for p := range r.gateways {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
