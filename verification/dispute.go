package verification

import (
	"fmt"
	"time"

	"github.com/coordframe/delegation/kernelerrors"
)

// DisputeState enumerates the dispute lifecycle (spec.md §4.7):
// Raised -> Evidence -> Adjudicated(ok|ko).
type DisputeState int

const (
	DisputeRaised DisputeState = iota
	DisputeEvidence
	DisputeAdjudicatedOK
	DisputeAdjudicatedKO
)

func (s DisputeState) String() string {
	switch s {
	case DisputeRaised:
		return "Raised"
	case DisputeEvidence:
		return "Evidence"
	case DisputeAdjudicatedOK:
		return "Adjudicated(ok)"
	case DisputeAdjudicatedKO:
		return "Adjudicated(ko)"
	default:
		return "Unknown"
	}
}

func (s DisputeState) IsTerminal() bool {
	return s == DisputeAdjudicatedOK || s == DisputeAdjudicatedKO
}

// DefaultEvidenceWindow bounds how long a dispute may sit in Evidence
// before defaulting to ko for the challenger.
const DefaultEvidenceWindow = 30 * time.Second

// Dispute tracks one contested verification outcome.
type Dispute struct {
	TaskID         string
	ChallengerID   string
	RespondentID   string
	State          DisputeState
	RaisedAt       time.Time
	EvidenceWindow time.Duration
	EvidenceAt     time.Time
	Evidence       []byte
}

// RaiseDispute opens a dispute in the Raised state.
func RaiseDispute(taskID, challengerID, respondentID string, window time.Duration) *Dispute {
	if window <= 0 {
		window = DefaultEvidenceWindow
	}
	return &Dispute{
		TaskID:         taskID,
		ChallengerID:   challengerID,
		RespondentID:   respondentID,
		State:          DisputeRaised,
		RaisedAt:       time.Now(),
		EvidenceWindow: window,
	}
}

// SubmitEvidence transitions Raised -> Evidence, attaching the
// challenger's evidence payload. Fails if the dispute is not in Raised.
func (d *Dispute) SubmitEvidence(evidence []byte) error {
	if d.State != DisputeRaised {
		return fmt.Errorf("verification.SubmitEvidence: %w: dispute %s is in state %s, want Raised",
			kernelerrors.ErrInvalidTransition, d.TaskID, d.State)
	}
	d.State = DisputeEvidence
	d.EvidenceAt = time.Now()
	d.Evidence = evidence
	return nil
}

// Adjudicate resolves a dispute in the Evidence state with an explicit
// verdict. ok=true means the challenger's evidence prevailed.
func (d *Dispute) Adjudicate(ok bool) error {
	if d.State != DisputeEvidence {
		return fmt.Errorf("verification.Adjudicate: %w: dispute %s is in state %s, want Evidence",
			kernelerrors.ErrInvalidTransition, d.TaskID, d.State)
	}
	if ok {
		d.State = DisputeAdjudicatedOK
	} else {
		d.State = DisputeAdjudicatedKO
	}
	return nil
}

// ExpireIfEvidenceWindowPassed checks whether a Raised dispute's evidence
// window has elapsed with no evidence submitted; if so it auto-adjudicates
// ko for the challenger (spec.md §4.7: "absent evidence defaults to ko for
// the challenger") and returns true.
func (d *Dispute) ExpireIfEvidenceWindowPassed() bool {
	if d.State != DisputeRaised {
		return false
	}
	if time.Since(d.RaisedAt) < d.EvidenceWindow {
		return false
	}
	d.State = DisputeAdjudicatedKO
	return true
}
