package service

import (
	"context"
	"fmt"

	"github.com/aurorapay/risk-engine/internal/domain/model"
	"github.com/aurorapay/risk-engine/internal/domain/port"
)

// ReputationAnalyzer scores the transaction's device fingerprint and source
// IP against external reputation data and combines them into one signal.
type ReputationAnalyzer struct {
	devices port.DeviceReputation
	ips     port.IPReputation
}

// NewReputationAnalyzer creates a reputation analyzer over the given
// reputation providers.
func NewReputationAnalyzer(devices port.DeviceReputation, ips port.IPReputation) *ReputationAnalyzer {
	return &ReputationAnalyzer{devices: devices, ips: ips}
}

// Analyze sums the device and IP reputation scores, capped at 1.0. Either
// lookup failing fails the analysis.
func (a *ReputationAnalyzer) Analyze(ctx context.Context, evt model.TransactionEvent) (float64, error) {
	deviceScore, err := a.devices.Score(ctx, evt.DeviceFingerprint)
	if err != nil {
		return 0, fmt.Errorf("device reputation: %w", err)
	}

	ipScore, err := a.ips.Score(ctx, evt.IPAddress)
	if err != nil {
		return 0, fmt.Errorf("ip reputation: %w", err)
	}

	return clamp01(deviceScore + ipScore), nil
}
