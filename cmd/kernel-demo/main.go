// Command kernel-demo wires every component of the coordination kernel
// together and walks one task, submitted for assignment without
// decomposition, through its lifecycle: the RFP/bid market over the event bus, Pareto-optimal selection,
// contract award under the permission matrix, execution monitoring,
// verification, collective-threat scanning, and the ledger trail left
// behind. It then walks a second task through a contested verification to
// exercise dispute adjudication. It mirrors core/cmd/example/main.go's
// role as a runnable demonstration of the framework rather than a
// production entrypoint.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"log"
	"time"

	"github.com/coordframe/delegation/assignment"
	"github.com/coordframe/delegation/config"
	"github.com/coordframe/delegation/coordination"
	"github.com/coordframe/delegation/ledger"
	"github.com/coordframe/delegation/logging"
	"github.com/coordframe/delegation/monitoring"
	"github.com/coordframe/delegation/optimizer"
	"github.com/coordframe/delegation/permissions"
	"github.com/coordframe/delegation/reputation"
	"github.com/coordframe/delegation/security"
	"github.com/coordframe/delegation/types"
)

// runBidder subscribes agent to RFP broadcasts on bus and, whenever one
// names a task it wants to bid on, signs and publishes a Bid back. It is
// the bus-routed counterpart of a direct assignment.Bidder: the
// coordinator never holds a reference to agent, only the bus.
func runBidder(bus coordination.EventBus, agent *types.Agent, priv ed25519.PrivateKey, cost float64, delay time.Duration) {
	_, _ = bus.Subscribe(coordination.SubjectRFP, func(payload []byte) {
		var rfp assignment.RFP
		if err := json.Unmarshal(payload, &rfp); err != nil {
			return
		}
		go func() {
			time.Sleep(delay)
			bid := types.Bid{
				ID:               agent.ID + "-bid",
				AgentID:          agent.ID,
				TaskID:           rfp.TaskID,
				Cost:             cost,
				EstimatedLatency: 2 * time.Second,
				EstimatedQuality: 0.85,
				Confidence:       0.8,
				PrivacyRisk:      0.1,
				SubmittedAt:      time.Now(),
			}
			bid.Sign(priv)
			_ = bus.Publish(coordination.SubjectBid, bid)
		}()
	})
}

func main() {
	cfg, err := config.NewConfig(
		config.WithName("kernel-demo"),
		config.WithBidWindow(500*time.Millisecond),
	)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Name, logging.WithFormat(cfg.Logging.Format), logging.WithLevel(cfg.Logging.Level))

	ledgerBackend := ledger.New(cfg.Ledger.Merkle)
	coord := coordination.New(ledgerBackend, reputation.NewStore(), security.NewBreakers(cfg.Security.FailureThreshold, cfg.Security.Cooldown), nil, logger)

	task, err := types.NewTask("summarize-quarterly-report", "produce an executive summary", "", types.Characteristics{
		Complexity:         0.4,
		Criticality:        0.3,
		Uncertainty:        0.2,
		Verifiability:      0.6,
		Reversibility:      0.9,
		PrivacyRisk:        0.2,
		LatencySensitivity: 0.5,
		CostSensitivity:    0.6,
		QualityRequirement: 0.7,
		Decomposability:    0.3,
		DomainSpecificity:  0.4,
	})
	if err != nil {
		log.Fatalf("new task: %v", err)
	}

	if err := coord.Register(task); err != nil {
		log.Fatalf("register task: %v", err)
	}
	if err := coord.Transition(task.ID, coordination.EventSubmitForAssignment, "no decomposition needed"); err != nil {
		log.Fatalf("transition to awaiting assignment: %v", err)
	}

	pubA, privA, _ := ed25519.GenerateKey(nil)
	pubB, privB, _ := ed25519.GenerateKey(nil)
	agentA := types.NewAgent("agent-a", "Alpha Worker", []string{"summarization"}, pubA, 4)
	agentB := types.NewAgent("agent-b", "Beta Worker", []string{"summarization"}, pubB, 4)

	budget := types.ResourceBudget{CPU: 1, Memory: 256, WallTime: time.Minute}
	slo := types.SLO{MaxLatency: 5 * time.Second, MinQuality: 0.6}
	rfp := assignment.NewRFP(task.ID, task.Characteristics, budget, slo)
	rfp.Window = cfg.Assignment.BidWindow

	runBidder(coord.Bus, agentA, privA, 2.0, 50*time.Millisecond)
	runBidder(coord.Bus, agentB, privB, 1.2, 50*time.Millisecond)

	ctx := context.Background()
	bids, err := coord.BroadcastRFP(ctx, rfp)
	if err != nil {
		log.Fatalf("broadcast rfp: %v", err)
	}
	log.Printf("collected %d bids over the event bus", len(bids))

	if err := coord.Transition(task.ID, coordination.EventBidsReceived, "bid window closed"); err != nil {
		log.Fatalf("transition to negotiating: %v", err)
	}

	repStore := coord.Reputation
	result, ok := optimizer.Select(bids, task.Characteristics, func(agentID string) float64 {
		return repStore.Get(agentID).Composite()
	})
	if !ok {
		log.Fatal("no eligible bids to select from")
	}
	winner := bids[result.WinnerIndex]
	log.Printf("winner: %s (tie-break: %s)", winner.AgentID, result.TieBreak)

	approval := permissions.RequiredApproval(task.Characteristics)
	scope, err := permissions.Attenuate(map[string]bool{"summarization": true, "publish": true}, map[string]bool{"summarization": true})
	if err != nil {
		log.Fatalf("attenuate scope: %v", err)
	}

	contract, err := assignment.AwardContract(rfp, &winner, "delegator-root", approval, scope)
	if err != nil {
		log.Fatalf("award contract: %v", err)
	}
	log.Printf("contract %s awarded to %s at approval level %s", contract.ID, contract.AssigneeID, contract.ApprovalLevel)

	coord.TrackContract(contract.ID, monitoring.NewContractMonitor(contract.ID, task.ID, budget, slo, task.Characteristics))
	if resp, err := coord.RecordContractUsage(contract.ID, 0.2, 32); err != nil {
		log.Fatalf("record contract usage: %v", err)
	} else if resp != coordination.ResponseContinue {
		log.Printf("monitoring raised %s mid-contract", resp)
	}
	if resp, err := coord.PollContract(contract.ID, cfg.Monitoring.HeartbeatInterval, time.Second, task.Characteristics); err != nil {
		log.Fatalf("poll contract: %v", err)
	} else if resp != coordination.ResponseContinue {
		log.Printf("monitoring raised %s mid-contract", resp)
	}

	if err := coord.Transition(task.ID, coordination.EventContractSigned, "contract awarded"); err != nil {
		log.Fatalf("transition to contracted: %v", err)
	}
	if err := coord.Transition(task.ID, coordination.EventExecutionStarted, "execution began"); err != nil {
		log.Fatalf("transition to in progress: %v", err)
	}
	if err := coord.Transition(task.ID, coordination.EventResultSubmitted, "result submitted"); err != nil {
		log.Fatalf("transition to awaiting verification: %v", err)
	}
	if err := coord.Transition(task.ID, coordination.EventVerificationPassed, "direct inspection passed"); err != nil {
		log.Fatalf("transition to completed: %v", err)
	}

	after, err := coord.RecordOutcome(winner.AgentID, []reputation.Observation{
		{Dimension: reputation.DimCompletionRate, Value: 1.0},
		{Dimension: reputation.DimQuality, Value: 0.9},
	}, false)
	if err != nil {
		log.Fatalf("record outcome: %v", err)
	}
	log.Printf("%s reputation composite now %.3f (%s)", winner.AgentID, after.Composite(), types.ClassifyTrust(after.Composite()))

	flags, err := coord.ScanForCollectiveThreats(
		[]security.AgentFingerprint{
			{AgentID: agentA.ID, Capabilities: agentA.Capabilities, RegisteredAt: agentA.RegisteredAt, BidPriceSeries: []float64{2.0, 2.1, 1.9}},
			{AgentID: agentB.ID, Capabilities: agentB.Capabilities, RegisteredAt: agentB.RegisteredAt, BidPriceSeries: []float64{1.2, 1.3, 1.1}},
		},
		time.Hour,
		nil, 0, 0,
	)
	if err != nil {
		log.Fatalf("scan for collective threats: %v", err)
	}
	log.Printf("collective threat scan raised %d flags", len(flags))

	log.Printf("task %s finished in state %s after %d ledger entries", task.ID, task.State, coord.Ledger.Len())

	runDisputeDemo(coord, agentA.ID, agentB.ID)
}

// runDisputeDemo walks a second task through a failed verification into a
// contested dispute that resolves in the challenger's favor, exercising
// OpenDispute/SubmitDisputeEvidence/ResolveDispute end to end.
func runDisputeDemo(coord *coordination.Coordinator, challengerID, respondentID string) {
	task, err := types.NewTask("draft-customer-email", "draft a refund notice", "", types.Characteristics{
		Complexity: 0.2, Criticality: 0.5, Reversibility: 0.7, QualityRequirement: 0.8,
	})
	if err != nil {
		log.Fatalf("dispute demo: new task: %v", err)
	}
	if err := coord.Register(task); err != nil {
		log.Fatalf("dispute demo: register: %v", err)
	}
	for _, ev := range []coordination.Event{
		coordination.EventSubmitForAssignment, coordination.EventBidsReceived,
		coordination.EventContractSigned, coordination.EventExecutionStarted,
		coordination.EventResultSubmitted,
	} {
		if err := coord.Transition(task.ID, ev, "dispute demo setup"); err != nil {
			log.Fatalf("dispute demo: transition %s: %v", ev, err)
		}
	}
	if err := coord.Transition(task.ID, coordination.EventVerificationFailed, "third-party audit disagreed"); err != nil {
		log.Fatalf("dispute demo: transition to disputed: %v", err)
	}

	if _, err := coord.OpenDispute(task.ID, challengerID, respondentID, 50*time.Millisecond); err != nil {
		log.Fatalf("dispute demo: open dispute: %v", err)
	}
	if err := coord.SubmitDisputeEvidence(task.ID, []byte("audit transcript")); err != nil {
		log.Fatalf("dispute demo: submit evidence: %v", err)
	}

	challengerRep, respondentRep, err := coord.ResolveDispute(task.ID, true)
	if err != nil {
		log.Fatalf("dispute demo: resolve dispute: %v", err)
	}
	log.Printf("dispute resolved: task %s now %s, challenger %s composite %.3f, respondent %s composite %.3f",
		task.ID, task.State, challengerID, challengerRep.Composite(), respondentID, respondentRep.Composite())
}
