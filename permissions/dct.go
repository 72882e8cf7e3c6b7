package permissions

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Caveat is a single restriction narrowing what a DelegationCapabilityToken
// authorizes. Type is one of "scope", "operation", "budget". ValidateAccess
// checks "scope" and "operation" caveats; "budget" caveats are carried but
// not checked.
type Caveat struct {
	Type  string
	Key   string
	Value string
}

// DelegationCapabilityToken (DCT) is the bearer credential a delegatee
// presents to act under a contract. Re-delegation mints a child token that
// carries every caveat of its parent plus any new ones — caveats only
// accumulate, never drop, which is what makes attenuation monotonic.
type DelegationCapabilityToken struct {
	TokenID   string
	GranterID string
	BearerID  string
	Resource  string
	Caveats   []Caveat
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
}

// MintDCT issues a fresh token with the given initial caveats.
func MintDCT(granterID, bearerID, resource string, ttl time.Duration, caveats ...Caveat) *DelegationCapabilityToken {
	now := time.Now()
	return &DelegationCapabilityToken{
		TokenID:   uuid.NewString(),
		GranterID: granterID,
		BearerID:  bearerID,
		Resource:  resource,
		Caveats:   caveats,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

// Attenuate mints a child token for newBearerID carrying every caveat of d
// plus additionalCaveats. Fails if d is revoked or expired.
func (d *DelegationCapabilityToken) Attenuate(newBearerID string, additionalCaveats ...Caveat) (*DelegationCapabilityToken, error) {
	if d.Revoked {
		return nil, fmt.Errorf("permissions: cannot attenuate revoked token %s", d.TokenID)
	}
	if time.Now().After(d.ExpiresAt) {
		return nil, fmt.Errorf("permissions: cannot attenuate expired token %s", d.TokenID)
	}

	allCaveats := make([]Caveat, 0, len(d.Caveats)+len(additionalCaveats))
	allCaveats = append(allCaveats, d.Caveats...)
	allCaveats = append(allCaveats, additionalCaveats...)

	return MintDCT(d.BearerID, newBearerID, d.Resource, time.Until(d.ExpiresAt), allCaveats...), nil
}

// ValidateAccess checks whether the token still permits operation against
// scope: it must not be revoked or expired, and every caveat in the chain
// must accept the request.
func (d *DelegationCapabilityToken) ValidateAccess(operation, scope string) error {
	if d.Revoked {
		return fmt.Errorf("permissions: token %s revoked", d.TokenID)
	}
	if time.Now().After(d.ExpiresAt) {
		return fmt.Errorf("permissions: token %s expired", d.TokenID)
	}
	for _, c := range d.Caveats {
		switch c.Type {
		case "operation":
			if c.Value != operation {
				return fmt.Errorf("permissions: operation %q not permitted by token %s (allowed: %s)",
					operation, d.TokenID, c.Value)
			}
		case "scope":
			if c.Value != scope {
				return fmt.Errorf("permissions: scope %q outside boundary %q of token %s",
					scope, c.Value, d.TokenID)
			}
		}
	}
	return nil
}
