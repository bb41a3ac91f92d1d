// Package reputation provides device and IP reputation lookups.
package reputation

import (
	"context"

	"github.com/aurorapay/risk-engine/internal/domain/port"
)

var (
	_ port.DeviceReputation = (*StaticProvider)(nil)
	_ port.IPReputation     = (*StaticProvider)(nil)
)

// StaticProvider serves reputation scores from a configured table. Unknown
// identifiers score zero. It stands in for a commercial reputation feed and
// doubles as the deny-list mechanism for known-bad devices and addresses.
type StaticProvider struct {
	scores map[string]float64
}

// NewStaticProvider creates a provider from a score table. Scores are
// clamped to [0, 1].
func NewStaticProvider(scores map[string]float64) *StaticProvider {
	cleaned := make(map[string]float64, len(scores))
	for id, score := range scores {
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		cleaned[id] = score
	}
	return &StaticProvider{scores: cleaned}
}

// Score returns the configured reputation score for the identifier, or zero
// when it is unknown.
func (p *StaticProvider) Score(_ context.Context, identifier string) (float64, error) {
	return p.scores[identifier], nil
}
