package gateway

// Tier is the access tier derived from a credential's scopes. Tiers are
// totally ordered: ADMIN > ELEVATED > STANDARD > RESTRICTED.
type Tier int

const (
	TierRestricted Tier = iota
	TierStandard
	TierElevated
	TierAdmin
)

var tierNames = map[Tier]string{
	TierRestricted: "RESTRICTED",
	TierStandard:   "STANDARD",
	TierElevated:   "ELEVATED",
	TierAdmin:      "ADMIN",
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "RESTRICTED"
}

// ParseTier maps a tier name to its value. Unknown names map to
// RESTRICTED: tier derivation fails closed, never open.
func ParseTier(name string) Tier {
	for t, n := range tierNames {
		if n == name {
			return t
		}
	}
	return TierRestricted
}
