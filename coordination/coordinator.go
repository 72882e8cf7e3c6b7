package coordination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coordframe/delegation/assignment"
	"github.com/coordframe/delegation/kernelerrors"
	"github.com/coordframe/delegation/ledger"
	"github.com/coordframe/delegation/logging"
	"github.com/coordframe/delegation/monitoring"
	"github.com/coordframe/delegation/reputation"
	"github.com/coordframe/delegation/security"
	"github.com/coordframe/delegation/types"
	"github.com/coordframe/delegation/verification"
)

// Coordinator owns the task lifecycle end to end: it applies state
// transitions, writes every transition (and invalid attempt) to the
// ledger, pairs reputation updates to contract outcomes atomically, and
// turns Monitoring/Security triggers into responses via the table in
// response.go (spec.md §2, §4.9).
type Coordinator struct {
	mu         sync.Mutex
	Ledger     ledger.Backend
	Reputation *reputation.Store
	Breakers   *security.Breakers
	Bus        EventBus
	Logger     logging.Logger
	// Metrics is optional: a nil Metrics makes RecordTrigger a no-op, so a
	// Coordinator built without a configured MeterProvider still works.
	Metrics *monitoring.Metrics

	tasks      map[string]*types.Task
	monitors   map[string]*monitoring.ContractMonitor
	disputes   map[string]*verification.Dispute
	behavioral map[string]security.BehavioralSample
}

// New builds a Coordinator over the given backends. A nil bus defaults to
// an in-process InMemoryEventBus so the kernel works standalone without a
// broker.
func New(ledgerBackend ledger.Backend, repStore *reputation.Store, breakers *security.Breakers, bus EventBus, logger logging.Logger) *Coordinator {
	if bus == nil {
		bus = NewInMemoryEventBus()
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Coordinator{
		Ledger:     ledgerBackend,
		Reputation: repStore,
		Breakers:   breakers,
		Bus:        bus,
		Logger:     logger,
		tasks:      make(map[string]*types.Task),
		monitors:   make(map[string]*monitoring.ContractMonitor),
		disputes:   make(map[string]*verification.Dispute),
		behavioral: make(map[string]security.BehavioralSample),
	}
}

// Register starts tracking a task, writing its creation to the ledger.
func (c *Coordinator) Register(task *types.Task) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks[task.ID] = task
	_, err := c.Ledger.Append(types.LedgerEntry{
		Kind:   types.EventTaskCreated,
		TaskID: task.ID,
		Payload: map[string]interface{}{
			"title": task.Title,
		},
	})
	return err
}

// Transition applies event to the task identified by taskID, writing a
// StateTransition ledger entry on success or an InvalidTransition entry
// on failure (spec.md §4.1). The ledger write for an invalid attempt
// never mutates task state — it is purely an audit record.
func (c *Coordinator) Transition(taskID string, event Event, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.tasks[taskID]
	if !ok {
		return fmt.Errorf("coordination.Transition: unknown task %s", taskID)
	}

	payload, err := Apply(task, event, reason)
	if err != nil {
		_, logErr := c.Ledger.Append(types.LedgerEntry{
			Kind:   types.EventInvalidTransition,
			TaskID: taskID,
			Payload: map[string]interface{}{
				"event": event.String(),
				"error": err.Error(),
			},
		})
		if logErr != nil {
			c.Logger.Error("failed to log invalid transition", map[string]interface{}{"task_id": taskID, "error": logErr.Error()})
		}
		return err
	}

	_, err = c.Ledger.Append(types.LedgerEntry{
		Kind:    types.EventStateTransition,
		TaskID:  taskID,
		Payload: payload,
	})
	return err
}

// RecordOutcome pairs a reputation update with its ledger entry atomically
// (spec.md requires these never diverge): on verification success every
// EMA dimension moves toward the observed scores; on failure the safety
// dimension takes the -0.3 penalty from the reputation package before the
// rest of the observations are applied.
func (c *Coordinator) RecordOutcome(agentID string, observations []reputation.Observation, verificationFailed bool) (types.Reputation, error) {
	fn := func(r types.Reputation) types.Reputation {
		if verificationFailed {
			r = reputation.PenalizeVerificationFailure(r)
		}
		for _, obs := range observations {
			r = reputation.Apply(r, obs)
		}
		return r
	}
	persist := func(after types.Reputation) error {
		_, err := c.Ledger.Append(types.LedgerEntry{
			Kind:    types.EventReputationUpdated,
			AgentID: agentID,
			Payload: map[string]interface{}{
				"composite": after.Composite(),
				"trust":     types.ClassifyTrust(after.Composite()).String(),
			},
		})
		return err
	}
	after, err := c.Reputation.ApplyOutcome(agentID, fn, persist)
	if err != nil {
		return after, err
	}

	if flag, flagged := c.recordBehavioralSample(agentID, observations); flagged {
		_, logErr := c.Ledger.Append(types.LedgerEntry{
			Kind:    types.EventThreatDetected,
			AgentID: agentID,
			Payload: map[string]interface{}{"kind": string(flag.Kind), "detail": flag.Detail},
		})
		if logErr != nil {
			c.Logger.Error("failed to log behavioral threat", map[string]interface{}{"agent_id": agentID, "error": logErr.Error()})
		}
	}

	if verificationFailed {
		state := c.Breakers.RecordFailure(agentID)
		if state == types.CircuitOpen {
			_, _ = c.Ledger.Append(types.LedgerEntry{
				Kind:    types.EventCircuitBreakerTripped,
				AgentID: agentID,
			})
		}
	} else {
		c.Breakers.RecordSuccess(agentID)
	}
	return after, nil
}

// behavioralWindow bounds how many past observations recordBehavioralSample
// keeps per agent, per dimension, for DetectBehavioral's rolling z-score.
const behavioralWindow = 20

// recordBehavioralSample folds observations into the agent's rolling
// BehavioralSample (completion rate, quality, reliability each feed one of
// DetectBehavioral's three series) and runs the detector against the
// updated history (spec.md §4.6).
func (c *Coordinator) recordBehavioralSample(agentID string, observations []reputation.Observation) (security.Flag, bool) {
	c.mu.Lock()
	sample := c.behavioral[agentID]
	for _, obs := range observations {
		switch obs.Dimension {
		case reputation.DimCompletionRate:
			sample.CompletionTimes = appendBounded(sample.CompletionTimes, obs.Value, behavioralWindow)
		case reputation.DimQuality:
			sample.QualityDeltas = appendBounded(sample.QualityDeltas, obs.Value, behavioralWindow)
		case reputation.DimReliability:
			sample.BidVariances = appendBounded(sample.BidVariances, obs.Value, behavioralWindow)
		}
	}
	c.behavioral[agentID] = sample
	c.mu.Unlock()
	return security.DetectBehavioral(agentID, sample)
}

func appendBounded(series []float64, v float64, max int) []float64 {
	series = append(series, v)
	if len(series) > max {
		series = series[len(series)-max:]
	}
	return series
}

// ScanForCollectiveThreats runs Sybil and collusion detection over
// assignment-market data the caller has accumulated — agent fingerprints
// from the eligibility pool and co-win history from awarded contracts —
// and appends a ThreatDetected ledger entry for every flag raised
// (spec.md §4.6). Unlike DetectBehavioral, these two detectors operate
// over sets of agents rather than a single outcome, so they are a
// separate batch-level call rather than folded into RecordOutcome.
func (c *Coordinator) ScanForCollectiveThreats(fingerprints []security.AgentFingerprint, sybilWindow time.Duration, history []security.CoWin, minSupport int, minLift float64) ([]security.Flag, error) {
	flags := append(security.DetectSybil(fingerprints, sybilWindow), security.DetectCollusion(history, minSupport, minLift)...)
	for _, f := range flags {
		if _, err := c.Ledger.Append(types.LedgerEntry{
			Kind:    types.EventThreatDetected,
			AgentID: strings.Join(f.AgentIDs, ","),
			Payload: map[string]interface{}{"kind": string(f.Kind), "detail": f.Detail},
		}); err != nil {
			return flags, err
		}
	}
	return flags, nil
}

// HandleTrigger looks up the deterministic response for the task's
// current state and trigger, applies the response's state transition
// (Terminate fails the task, Re-delegate re-queues it for assignment,
// Re-decompose returns it to Decomposing), and returns the response taken.
// Escalate and Continue are returned without any side effect: the
// contract's approval level is not changed here.
func (c *Coordinator) HandleTrigger(taskID string, trigger TriggerKind, reason string) (Response, error) {
	c.mu.Lock()
	task, ok := c.tasks[taskID]
	c.mu.Unlock()
	if !ok {
		return ResponseContinue, fmt.Errorf("coordination.HandleTrigger: unknown task %s", taskID)
	}

	resp, _ := ResponseFor(task.State, trigger)
	switch resp {
	case ResponseTerminate:
		// EventAbandon is not a legal transition out of Disputed — that
		// state only yields to the dispute-resolution events — so a
		// terminate response reached while disputed must fire the event
		// the trigger itself names instead.
		event := EventAbandon
		if task.State == types.TaskDisputed && trigger == TriggerDisputeResolvedKO {
			event = EventDisputeResolvedKO
		}
		return resp, c.Transition(taskID, event, reason)
	case ResponseRedelegate:
		if err := c.Transition(taskID, EventAbandon, reason); err != nil {
			return resp, err
		}
		return resp, c.Transition(taskID, EventRetryRequested, reason)
	case ResponseRedecompose:
		return resp, c.Transition(taskID, EventDecompose, reason)
	default:
		return resp, nil
	}
}

// TrackContract registers m so PollContract can watch it for contractID.
func (c *Coordinator) TrackContract(contractID string, m *monitoring.ContractMonitor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.monitors[contractID] = m
}

// PollContract runs every Monitoring check against the tracked contract in
// priority order (budget has already been checked by the caller via
// RecordContractUsage; heartbeat, then SLO, then spec drift) and, on the
// first trigger raised, records it to Metrics and routes it through
// HandleTrigger — so a caller driving a polling loop never has to know the
// (state, trigger) -> response table itself (spec.md §4.8, §4.9).
func (c *Coordinator) PollContract(contractID string, heartbeatInterval time.Duration, projectedCompletion time.Duration, currentChars types.Characteristics) (Response, error) {
	c.mu.Lock()
	m, ok := c.monitors[contractID]
	c.mu.Unlock()
	if !ok {
		return ResponseContinue, fmt.Errorf("coordination.PollContract: contract %s is not tracked", contractID)
	}

	trig := m.CheckHeartbeat(heartbeatInterval)
	if trig == nil {
		trig = m.CheckSLO(projectedCompletion)
	}
	if trig == nil {
		trig = m.CheckSpecDrift(currentChars)
	}
	return c.dispatchTrigger(trig)
}

// RecordContractUsage accumulates resource usage against contractID's
// tracked ContractMonitor and, if cumulative usage now exceeds its budget,
// routes the resulting budget_exceeded trigger through HandleTrigger.
func (c *Coordinator) RecordContractUsage(contractID string, cpu, memory float64) (Response, error) {
	c.mu.Lock()
	m, ok := c.monitors[contractID]
	c.mu.Unlock()
	if !ok {
		return ResponseContinue, fmt.Errorf("coordination.RecordContractUsage: contract %s is not tracked", contractID)
	}
	return c.dispatchTrigger(m.RecordUsage(cpu, memory))
}

// dispatchTrigger records trig to Metrics (a no-op if Metrics is nil) and
// hands it to HandleTrigger. monitoring.TriggerKind and
// coordination.TriggerKind share the same string values by construction,
// so the conversion never needs a lookup table.
func (c *Coordinator) dispatchTrigger(trig *monitoring.Trigger) (Response, error) {
	if trig == nil {
		return ResponseContinue, nil
	}
	c.Metrics.RecordTrigger(context.Background(), trig.Kind)
	return c.HandleTrigger(trig.TaskID, TriggerKind(trig.Kind), trig.Detail)
}

// OpenDispute starts tracking a verification.Dispute for a task already in
// the Disputed state (entered via EventVerificationFailed when
// verification fails) so a later ResolveDispute call can adjudicate it
// (spec.md §4.7).
func (c *Coordinator) OpenDispute(taskID, challengerID, respondentID string, evidenceWindow time.Duration) (*verification.Dispute, error) {
	c.mu.Lock()
	task, ok := c.tasks[taskID]
	c.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("coordination.OpenDispute: unknown task %s", taskID)
	}
	if task.State != types.TaskDisputed {
		return nil, fmt.Errorf("coordination.OpenDispute: task %s is in state %s, want Disputed", taskID, task.State)
	}

	d := verification.RaiseDispute(taskID, challengerID, respondentID, evidenceWindow)
	c.mu.Lock()
	c.disputes[taskID] = d
	c.mu.Unlock()

	_, err := c.Ledger.Append(types.LedgerEntry{
		Kind:   types.EventDisputeRaised,
		TaskID: taskID,
		Payload: map[string]interface{}{
			"challenger": challengerID,
			"respondent": respondentID,
		},
	})
	return d, err
}

// SubmitDisputeEvidence attaches the challenger's evidence to the dispute
// tracked for taskID, moving it from Raised to Evidence.
func (c *Coordinator) SubmitDisputeEvidence(taskID string, evidence []byte) error {
	c.mu.Lock()
	d, ok := c.disputes[taskID]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("coordination.SubmitDisputeEvidence: no dispute tracked for task %s", taskID)
	}
	return d.SubmitEvidence(evidence)
}

// ResolveDispute adjudicates the dispute tracked for taskID — auto-adjudicated
// against the challenger if the evidence window lapsed with nothing
// submitted, otherwise the explicit verdict — transitions the task to its
// terminal state, and records the reputation/ledger effects for both
// parties: when the challenger prevails the respondent takes the
// verification-failure penalty and the challenger gets a full reliability
// observation; otherwise the challenger gets a zero reliability observation
// and the respondent a full completion-rate observation (spec.md §4.7, §4.9).
//
// verification.Dispute's ok/ko describe who the evidence favored (ok =
// challenger's evidence prevailed); this kernel's DisputeResolvedOK/KO
// describe what happens to the task (ok = task stands, completed; ko =
// task is confirmed failed). The challenger prevailing means the
// respondent's result really was bad, so that maps to KO, not OK.
func (c *Coordinator) ResolveDispute(taskID string, challengerPrevails bool) (challengerRep, respondentRep types.Reputation, err error) {
	c.mu.Lock()
	d, ok := c.disputes[taskID]
	c.mu.Unlock()
	if !ok {
		return types.Reputation{}, types.Reputation{}, fmt.Errorf("coordination.ResolveDispute: no dispute tracked for task %s", taskID)
	}

	if !d.ExpireIfEvidenceWindowPassed() {
		if err := d.Adjudicate(challengerPrevails); err != nil {
			return types.Reputation{}, types.Reputation{}, err
		}
	}
	challengerWon := d.State == verification.DisputeAdjudicatedOK

	event := EventDisputeResolvedOK
	if challengerWon {
		event = EventDisputeResolvedKO
	}
	if err := c.Transition(taskID, event, "dispute adjudicated"); err != nil {
		return types.Reputation{}, types.Reputation{}, err
	}

	if _, err := c.Ledger.Append(types.LedgerEntry{
		Kind:   types.EventDisputeAdjudicated,
		TaskID: taskID,
		Payload: map[string]interface{}{
			"state":      d.State.String(),
			"challenger": d.ChallengerID,
			"respondent": d.RespondentID,
		},
	}); err != nil {
		return types.Reputation{}, types.Reputation{}, err
	}

	if challengerWon {
		respondentRep, err = c.RecordOutcome(d.RespondentID, nil, true)
		if err != nil {
			return types.Reputation{}, respondentRep, err
		}
		challengerRep, err = c.RecordOutcome(d.ChallengerID, []reputation.Observation{{Dimension: reputation.DimReliability, Value: 1.0}}, false)
		return challengerRep, respondentRep, err
	}

	challengerRep, err = c.RecordOutcome(d.ChallengerID, []reputation.Observation{{Dimension: reputation.DimReliability, Value: 0.0}}, false)
	if err != nil {
		return challengerRep, types.Reputation{}, err
	}
	respondentRep, err = c.RecordOutcome(d.RespondentID, []reputation.Observation{{Dimension: reputation.DimCompletionRate, Value: 1.0}}, false)
	return challengerRep, respondentRep, err
}

// BroadcastRFP publishes rfp on SubjectRFP over the Coordinator's bus and
// collects every Bid published back to SubjectBid for this task within
// rfp.Window. This is the multi-process counterpart to
// assignment.CollectBids' direct Bidder calls: the Coordinator never
// holds a reference to the bidding agents, only the bus (spec.md §4.3,
// §6).
func (c *Coordinator) BroadcastRFP(ctx context.Context, rfp assignment.RFP) ([]types.Bid, error) {
	window := rfp.Window
	if window <= 0 {
		window = assignment.DefaultBidWindow
	}
	wctx, cancel := context.WithTimeout(ctx, window)
	defer cancel()

	var mu sync.Mutex
	var bids []types.Bid
	unsubscribe, err := c.Bus.Subscribe(SubjectBid, func(payload []byte) {
		var bid types.Bid
		if jsonErr := json.Unmarshal(payload, &bid); jsonErr != nil || bid.TaskID != rfp.TaskID {
			return
		}
		mu.Lock()
		bids = append(bids, bid)
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("coordination.BroadcastRFP: subscribe: %w", err)
	}
	defer unsubscribe()

	if err := c.Bus.Publish(SubjectRFP, rfp); err != nil {
		return nil, fmt.Errorf("coordination.BroadcastRFP: publish: %w", err)
	}
	_, _ = c.Ledger.Append(types.LedgerEntry{
		Kind:    types.EventRFPIssued,
		TaskID:  rfp.TaskID,
		Payload: map[string]interface{}{"window": window.String()},
	})

	<-wctx.Done()
	mu.Lock()
	defer mu.Unlock()
	return append([]types.Bid(nil), bids...), nil
}

// IsBeneficial wraps kernelerrors.ErrNoBeneficialDelegation detection so
// callers in cmd/ can branch on it without importing optimizer directly.
func IsBeneficial(err error) bool {
	return err == nil || !errors.Is(err, kernelerrors.ErrNoBeneficialDelegation)
}

// BidWindowElapsed is a small helper so the coordinator's assignment flow
// can express "treat this as now" without importing time directly in
// every call site that only needs the default.
func BidWindowElapsed(issuedAt time.Time, window time.Duration) bool {
	return time.Since(issuedAt) >= window
}
