package types

import (
	"crypto/ed25519"
	"strconv"
	"time"
)

// Bid is an agent's offer to execute a task under the RFP/Bid market
// protocol (spec.md §3, §4.3).
type Bid struct {
	ID               string
	AgentID          string
	TaskID           string
	Cost             float64
	EstimatedLatency time.Duration
	EstimatedQuality float64
	Confidence       float64 // 1 - uncertainty
	PrivacyRisk      float64 // agent's self-assessment
	SubmittedAt      time.Time
	Signature        []byte // ed25519 signature over the bid's canonical encoding
}

// Sign signs the bid's canonical bytes with the agent's private key.
func (b *Bid) Sign(priv ed25519.PrivateKey) {
	b.Signature = ed25519.Sign(priv, b.canonicalBytes())
}

// Verify checks the bid's signature against the claimed agent's public key.
func (b *Bid) Verify(pub ed25519.PublicKey) bool {
	if len(b.Signature) == 0 || len(pub) == 0 {
		return false
	}
	return ed25519.Verify(pub, b.canonicalBytes(), b.Signature)
}

// canonicalBytes produces a deterministic encoding of the bid's economic
// terms for signing, independent of field order or the signature itself.
func (b *Bid) canonicalBytes() []byte {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	return []byte(b.AgentID + "|" + b.TaskID + "|" +
		f(b.Cost) + "|" +
		b.EstimatedLatency.String() + "|" +
		f(b.EstimatedQuality) + "|" +
		f(b.Confidence) + "|" +
		f(b.PrivacyRisk))
}
