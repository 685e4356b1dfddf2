package gateway

import (
	"time"

	"github.com/edvin/credgate/internal/model"
)

// Scorer computes a bounded [0, 1] risk signal for a validated credential.
// The static implementation works from tier, credential age, and token
// family; richer signal sources can slot in behind this interface.
type Scorer interface {
	Score(rec *model.CredentialRecord, tier Tier, now time.Time) float64
}

// StaticScorer scores from static record attributes only.
type StaticScorer struct{}

// tierBase reflects the blast radius of the tier itself.
var tierBase = map[Tier]float64{
	TierRestricted: 0.05,
	TierStandard:   0.10,
	TierElevated:   0.25,
	TierAdmin:      0.40,
}

// ageRampStart is the credential age beyond which staleness starts
// contributing to the score, ramping to ageWeight at 2x this age.
const (
	ageRampStart = 90 * 24 * time.Hour
	ageWeight    = 0.30
	testPenalty  = 0.20
)

func (StaticScorer) Score(rec *model.CredentialRecord, tier Tier, now time.Time) float64 {
	score := tierBase[tier]

	if age := now.Sub(rec.CreatedAt); age > ageRampStart {
		frac := float64(age-ageRampStart) / float64(ageRampStart)
		if frac > 1 {
			frac = 1
		}
		score += ageWeight * frac
	}

	if rec.Family == model.FamilyTest {
		score += testPenalty
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}
