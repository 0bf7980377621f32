package state

import (
	"math"

	"github.com/pkg/errors"

	"go.viam.com/posesearch/rimage"
)

// Convention tells whether a smaller or a larger score means better agreement.
type Convention int

const (
	// LowerIsBetter scores measure accumulated mismatch.
	LowerIsBetter Convention = iota
	// HigherIsBetter scores count agreeing pixels.
	HigherIsBetter
)

func (c Convention) String() string {
	switch c {
	case LowerIsBetter:
		return "lower-is-better"
	case HigherIsBetter:
		return "higher-is-better"
	default:
		return "unknown"
	}
}

// Better reports whether score a is strictly better than score b under the convention.
func (c Convention) Better(a, b float64) bool {
	if c == HigherIsBetter {
		return a > b
	}
	return a < b
}

// Scorer compares a rendered depth image against the observed one.
type Scorer interface {
	Score(rendered, observed *rimage.DepthMap) (float64, error)
	Convention() Convention
}

func checkSameSize(rendered, observed *rimage.DepthMap) error {
	if rendered == nil || observed == nil {
		return errors.New("cannot score a missing depth image")
	}
	if !rendered.SameSize(observed) {
		return errors.Errorf("rendered depth is %dx%d but observed is %dx%d",
			rendered.Width(), rendered.Height(), observed.Width(), observed.Height())
	}
	return nil
}

// AbsDiffScorer accumulates absolute depth differences. Rendered depth is multiplied by
// RenderedScale first, taking it to meters. The score is the sum of differences over pixels with
// an observation or with rendered depth below BackgroundBelow, each pixel counted once.
type AbsDiffScorer struct {
	RenderedScale   float64
	BackgroundBelow float64
}

// NewAbsDiffScorer returns an AbsDiffScorer treating rendered depth under 1m as background.
func NewAbsDiffScorer(renderedScale float64) *AbsDiffScorer {
	return &AbsDiffScorer{RenderedScale: renderedScale, BackgroundBelow: 1}
}

// Convention returns LowerIsBetter.
func (s *AbsDiffScorer) Convention() Convention {
	return LowerIsBetter
}

// Score returns observedTerm + renderedTerm - overlapTerm.
func (s *AbsDiffScorer) Score(rendered, observed *rimage.DepthMap) (float64, error) {
	if err := checkSameSize(rendered, observed); err != nil {
		return 0, err
	}
	scale := float32(s.RenderedScale)
	var obScore, renScore, intScore float64
	for y := 0; y < observed.Height(); y++ {
		for x := 0; x < observed.Width(); x++ {
			obVal := observed.GetDepth(x, y)
			renVal := rendered.GetDepth(x, y) * scale
			absDiff := math.Abs(float64(obVal - renVal))

			observedHit := obVal != 0
			background := float64(renVal) < s.BackgroundBelow
			if observedHit {
				obScore += absDiff
			}
			if background {
				renScore += absDiff
			}
			if observedHit && background {
				intScore += absDiff
			}
		}
	}
	return obScore + renScore - intScore, nil
}

// MatchCountScorer counts pixels whose rendered and observed depth agree within Threshold. The
// score is the size of the union of agreeing observed pixels and agreeing rendered pixels.
type MatchCountScorer struct {
	Threshold float64
}

// NewMatchCountScorer returns a MatchCountScorer with the given closeness threshold.
func NewMatchCountScorer(threshold float64) *MatchCountScorer {
	return &MatchCountScorer{Threshold: threshold}
}

// Convention returns HigherIsBetter.
func (s *MatchCountScorer) Convention() Convention {
	return HigherIsBetter
}

// Score returns matchedObserved + matchedRendered - matchedBoth.
func (s *MatchCountScorer) Score(rendered, observed *rimage.DepthMap) (float64, error) {
	if err := checkSameSize(rendered, observed); err != nil {
		return 0, err
	}
	var obScore, renScore, intScore int
	for y := 0; y < observed.Height(); y++ {
		for x := 0; x < observed.Width(); x++ {
			obVal := observed.GetDepth(x, y)
			renVal := rendered.GetDepth(x, y)
			near := math.Abs(float64(obVal-renVal)) < s.Threshold
			if !near {
				continue
			}
			if obVal > 0 {
				obScore++
			}
			if renVal > 0 {
				renScore++
			}
			if obVal > 0 && renVal > 0 {
				intScore++
			}
		}
	}
	return float64(obScore + renScore - intScore), nil
}
