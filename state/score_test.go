package state

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/posesearch/rimage"
)

func TestScoreEmptyBuffers(t *testing.T) {
	rendered := rimage.NewEmptyDepthMap(8, 6)
	observed := rimage.NewEmptyDepthMap(8, 6)

	abs, err := NewAbsDiffScorer(0.001).Score(rendered, observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, abs, test.ShouldEqual, 0.)

	match, err := NewMatchCountScorer(0.01).Score(rendered, observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, match, test.ShouldEqual, 0.)
}

func TestAbsDiffScorer(t *testing.T) {
	observed := rimage.NewEmptyDepthMap(3, 1)
	rendered := rimage.NewEmptyDepthMap(3, 1)
	// observed only: counted once through the observed term
	observed.Set(0, 0, 0.5)
	// rendered only, in millimeters
	rendered.Set(1, 0, 250)
	// both present and matching
	observed.Set(2, 0, 0.75)
	rendered.Set(2, 0, 750)

	s := NewAbsDiffScorer(0.001)
	test.That(t, s.Convention(), test.ShouldEqual, LowerIsBetter)
	score, err := s.Score(rendered, observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, score, test.ShouldAlmostEqual, 0.75, 1e-6)

	_, err = s.Score(rimage.NewEmptyDepthMap(2, 1), observed)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = s.Score(nil, observed)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMatchCountScorer(t *testing.T) {
	observed := rimage.NewEmptyDepthMap(4, 1)
	rendered := rimage.NewEmptyDepthMap(4, 1)
	observed.Set(0, 0, 0.5)
	rendered.Set(0, 0, 0.5)
	observed.Set(1, 0, 0.5)
	rendered.Set(1, 0, 0.75)
	// a tiny rendered return over an empty observation is still close
	rendered.Set(2, 0, 0.005)

	s := NewMatchCountScorer(0.01)
	test.That(t, s.Convention(), test.ShouldEqual, HigherIsBetter)
	score, err := s.Score(rendered, observed)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, score, test.ShouldEqual, 2.)
}

func TestConvention(t *testing.T) {
	test.That(t, LowerIsBetter.Better(1, 2), test.ShouldBeTrue)
	test.That(t, LowerIsBetter.Better(2, 2), test.ShouldBeFalse)
	test.That(t, HigherIsBetter.Better(2, 1), test.ShouldBeTrue)
	test.That(t, HigherIsBetter.Better(1, 2), test.ShouldBeFalse)
	test.That(t, HigherIsBetter.String(), test.ShouldEqual, "higher-is-better")
}
