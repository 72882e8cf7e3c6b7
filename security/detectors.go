package security

import (
	"math"
	"time"
)

// ThreatKind identifies which detector raised a flag.
type ThreatKind string

const (
	ThreatSybil      ThreatKind = "sybil"
	ThreatCollusion  ThreatKind = "collusion"
	ThreatBehavioral ThreatKind = "behavioral"
)

// Flag is one detector's verdict against a specific agent (or pair, for
// collusion).
type Flag struct {
	Kind     ThreatKind
	AgentIDs []string
	Detail   string
}

// AgentFingerprint is the per-agent signal Sybil detection clusters on:
// capability set, registration time, and a bid-price history used for the
// Pearson correlation check.
type AgentFingerprint struct {
	AgentID          string
	Capabilities     map[string]bool
	RegisteredAt     time.Time
	BidPriceSeries   []float64
}

// jaccard computes |A∩B| / |A∪B| over two capability sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter, union := 0, 0
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	for k := range seen {
		inUnion := a[k] || b[k]
		if inUnion {
			union++
		}
		if a[k] && b[k] {
			inter++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// pearson computes the Pearson correlation coefficient between two equal-
// length series, used on matched-index bid-price history.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}
	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA, meanB := sumA/float64(n), sumB/float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da, db := a[i]-meanA, b[i]-meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}

// DetectSybil flags pairs of agents whose fingerprints satisfy all three
// conditions in spec.md §4.6: near-duplicate capability sets (Jaccard >
// 0.9), temporally clustered registration (Δt < window), and a correlated
// bid-price history (Pearson > 0.85).
func DetectSybil(fingerprints []AgentFingerprint, window time.Duration) []Flag {
	var flags []Flag
	for i := 0; i < len(fingerprints); i++ {
		for j := i + 1; j < len(fingerprints); j++ {
			a, b := fingerprints[i], fingerprints[j]
			dt := a.RegisteredAt.Sub(b.RegisteredAt)
			if dt < 0 {
				dt = -dt
			}
			if jaccard(a.Capabilities, b.Capabilities) <= 0.9 {
				continue
			}
			if dt >= window {
				continue
			}
			if pearson(a.BidPriceSeries, b.BidPriceSeries) <= 0.85 {
				continue
			}
			flags = append(flags, Flag{
				Kind:     ThreatSybil,
				AgentIDs: []string{a.AgentID, b.AgentID},
				Detail:   "near-duplicate capability set, clustered registration, and correlated bid pricing",
			})
		}
	}
	return flags
}

// CoWin is one observed outcome: winner beat losers for a task.
type CoWin struct {
	Winners []string
	Losers  []string
}

// DetectCollusion builds the bipartite co-win graph implied by history and
// flags (winner, loser) pairs where the winner beat that loser at least
// minSupport times with lift >= minLift over the base rate expected if wins
// were independent (spec.md §4.6). Each winner is counted on its own:
// groups of winners that win together are not detected as a group.
func DetectCollusion(history []CoWin, minSupport int, minLift float64) []Flag {
	if minSupport <= 0 {
		minSupport = 5
	}
	if minLift <= 0 {
		minLift = 3
	}

	type pairKey struct{ winner, loser string }
	coWinCount := make(map[pairKey]int)
	winnerTotals := make(map[string]int)
	loserTotals := make(map[string]int)
	total := 0

	for _, cw := range history {
		for _, w := range cw.Winners {
			winnerTotals[w]++
			for _, l := range cw.Losers {
				coWinCount[pairKey{w, l}]++
				loserTotals[l]++
				total++
			}
		}
	}
	if total == 0 {
		return nil
	}

	var flags []Flag
	for pk, count := range coWinCount {
		if count < minSupport {
			continue
		}
		expected := float64(winnerTotals[pk.winner]) * float64(loserTotals[pk.loser]) / float64(total)
		if expected <= 0 {
			continue
		}
		lift := float64(count) / expected
		if lift >= minLift {
			flags = append(flags, Flag{
				Kind:     ThreatCollusion,
				AgentIDs: []string{pk.winner, pk.loser},
				Detail:   "repeated co-win pattern exceeds expected independent rate",
			})
		}
	}
	return flags
}

// BehavioralSample is one dimension's historical series for z-score
// computation.
type BehavioralSample struct {
	CompletionTimes []float64
	QualityDeltas   []float64
	BidVariances    []float64
}

// zscore returns the z-score of the last value in series against the
// series' own mean/stddev (rolling window supplied by the caller).
func zscore(series []float64) float64 {
	n := len(series)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, v := range series {
		sum += v
	}
	mean := sum / float64(n)
	var variance float64
	for _, v := range series {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(n)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0
	}
	last := series[n-1]
	return (last - mean) / stddev
}

// DetectBehavioral flags an agent when at least two of its three rolling
// z-scores (completion time, quality delta, bid variance) exceed |z| > 3
// (spec.md §4.6).
func DetectBehavioral(agentID string, sample BehavioralSample) (Flag, bool) {
	zs := []float64{
		zscore(sample.CompletionTimes),
		zscore(sample.QualityDeltas),
		zscore(sample.BidVariances),
	}
	exceeded := 0
	for _, z := range zs {
		if math.Abs(z) > 3 {
			exceeded++
		}
	}
	if exceeded >= 2 {
		return Flag{Kind: ThreatBehavioral, AgentIDs: []string{agentID}, Detail: "two or more rolling metrics exceed |z|>3"}, true
	}
	return Flag{}, false
}
