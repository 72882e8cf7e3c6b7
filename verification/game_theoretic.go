package verification

import "time"

// DefaultChallengeWindow bounds how long a game-theoretic verification
// stays open to challenge before auto-accepting (spec.md §4.7).
const DefaultChallengeWindow = 10 * time.Second

// Challenge is one attempt to dispute a game-theoretically verified
// result within the challenge window.
type Challenge struct {
	ChallengerID string
	RaisedAt     time.Time
	Successful   bool
}

// GameTheoreticResult tracks an open game-theoretic verification: a
// reward is posted for successful challenges, and after the window closes
// with no successful challenge the output is accepted.
type GameTheoreticResult struct {
	TaskID       string
	OpenedAt     time.Time
	Window       time.Duration
	RewardOffer  float64
	Challenges   []Challenge
}

// NewGameTheoreticResult opens a challenge window for taskID.
func NewGameTheoreticResult(taskID string, rewardOffer float64, window time.Duration) *GameTheoreticResult {
	if window <= 0 {
		window = DefaultChallengeWindow
	}
	return &GameTheoreticResult{
		TaskID:      taskID,
		OpenedAt:    time.Now(),
		Window:      window,
		RewardOffer: rewardOffer,
	}
}

// RaiseChallenge records a challenge attempt if the window is still open.
// Returns false if the window has already closed.
func (g *GameTheoreticResult) RaiseChallenge(challengerID string, successful bool) bool {
	if time.Since(g.OpenedAt) >= g.Window {
		return false
	}
	g.Challenges = append(g.Challenges, Challenge{ChallengerID: challengerID, RaisedAt: time.Now(), Successful: successful})
	return true
}

// WindowClosed reports whether the challenge window has elapsed.
func (g *GameTheoreticResult) WindowClosed() bool {
	return time.Since(g.OpenedAt) >= g.Window
}

// Accepted reports whether the output should be accepted: the window must
// be closed and no challenge in it successful.
func (g *GameTheoreticResult) Accepted() bool {
	if !g.WindowClosed() {
		return false
	}
	for _, c := range g.Challenges {
		if c.Successful {
			return false
		}
	}
	return true
}
