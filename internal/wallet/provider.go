// Package wallet provides wallet connection providers: a real keystore-backed
// provider and a simulated provider for demo use.
package wallet

import (
	"context"

	"go.uber.org/zap"
)

// Provider is a wallet connection source. The concrete provider is selected
// once at connect time; fallback never happens mid-session.
type Provider interface {
	Name() string
	Connect(ctx context.Context) (address string, err error)
}

// MessageSigner is an optional provider capability. Providers that cannot
// sign simply don't implement it.
type MessageSigner interface {
	SignMessage(msg []byte) ([]byte, error)
}

// Fixed demo session values used by the simulated provider.
const (
	MockAddress        = "BONKDemo1111111111111111111111111111111111"
	MockBalance        = 15_000_000
	MockPortfolioValue = 420.69
)

// SimulatedProvider is the demo fallback: fixed address and balances, never fails.
type SimulatedProvider struct{}

// Name returns the provider name.
func (SimulatedProvider) Name() string { return "simulated" }

// Connect returns the fixed demo address.
func (SimulatedProvider) Connect(ctx context.Context) (string, error) {
	return MockAddress, nil
}

// Detect returns the keystore provider when keystorePath is configured and
// loads; otherwise the simulated provider. Load failures are logged and
// degrade to simulation, they never propagate.
func Detect(keystorePath string, logger *zap.Logger) Provider {
	if keystorePath == "" {
		return SimulatedProvider{}
	}
	provider, err := NewKeystoreProvider(keystorePath)
	if err != nil {
		if logger != nil {
			logger.Warn("keystore unavailable, using simulated wallet",
				zap.String("path", keystorePath), zap.Error(err))
		}
		return SimulatedProvider{}
	}
	return provider
}
