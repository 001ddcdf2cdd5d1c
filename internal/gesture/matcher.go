package gesture

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/gestureos/internal/detector"
)

// Match is the result of scoring a pose against the custom template.
type Match struct {
	Matched  bool    // Distance is strictly below the threshold
	Distance float64 // Mean per-landmark Euclidean distance
	Score    float64 // 1 - Distance/threshold when matched, else 0
}

// Candidate converts the match into a state machine proposal.
func (m Match) Candidate() Candidate {
	if !m.Matched {
		return NoCandidate
	}
	return Candidate{Type: Custom, Confidence: m.Score}
}

// Matcher scores normalized poses against a Template. It holds no template
// itself; the session owns it.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a Matcher from the pipeline config.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{threshold: cfg.MatchThreshold}
}

// Threshold returns the match threshold.
func (m *Matcher) Threshold() float64 {
	return m.threshold
}

// Match compares pose to tmpl. A nil template never matches.
func (m *Matcher) Match(pose *detector.NormalizedPose, tmpl *Template) Match {
	if pose == nil || tmpl == nil {
		return Match{Distance: math.Inf(1)}
	}

	distance := MeanDistance(pose.Points[:], tmpl.pose.Points[:])
	if distance >= m.threshold {
		return Match{Distance: distance}
	}

	return Match{
		Matched:  true,
		Distance: distance,
		Score:    1 - distance/m.threshold,
	}
}

// MeanDistance averages the Euclidean distance between corresponding
// landmarks. Extra points in the longer slice are ignored.
func MeanDistance(a, b []detector.Landmark) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return math.Inf(1)
	}

	dists := make([]float64, n)
	for i := 0; i < n; i++ {
		dists[i] = detector.Distance(a[i], b[i])
	}
	return stat.Mean(dists, nil)
}
