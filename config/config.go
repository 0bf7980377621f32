// Package config holds the tunable parameters of the pose search and their JSON file form.
package config

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
)

// UnvisitedPolicy decides how best-child selection treats children that have never been visited.
type UnvisitedPolicy string

const (
	// UnvisitedPrefer selects the first unvisited child before scoring any visited one.
	UnvisitedPrefer UnvisitedPolicy = "prefer"
	// UnvisitedIgnore skips unvisited children, as their exploration term is undefined.
	UnvisitedIgnore UnvisitedPolicy = "ignore"
)

const (
	defaultExplanationThreshold = 0.01
	defaultPointRemovalRadius   = 0.008
	defaultExplorationConstant  = 5000
	defaultBatchSimSteps        = 100
	defaultTreeSimSteps         = 60
	defaultDynamicMass          = 10
	defaultICPMaxIterations     = 50
	defaultICPTolerance         = 1e-8
	defaultICPMaxCorrespondence = 0.05
	defaultTrimFraction         = 0.9
	defaultTrimmedEnergyRatio   = 1.0
	defaultMinUnexplainedPoints = 3
	defaultRenderedDepthScale   = 0.001
	defaultImageWidth           = 640
	defaultImageHeight          = 480
)

// Search holds every tuned constant of the search core. Zero fields take their defaults.
type Search struct {
	// Depth difference in meters under which a rendered pixel explains the observation.
	ExplanationThreshold float64 `json:"explanation_threshold,omitempty"`
	// Segment points within this distance of an already placed object are considered explained.
	PointRemovalRadius float64 `json:"point_removal_radius,omitempty"`
	// Weight of the exploration term in best-child selection.
	ExplorationConstant float64 `json:"exploration_constant,omitempty"`

	BatchSimulationSteps int     `json:"batch_simulation_steps,omitempty"`
	TreeSimulationSteps  int     `json:"tree_simulation_steps,omitempty"`
	DynamicMass          float64 `json:"dynamic_mass,omitempty"`

	ICPMaxIterations     int     `json:"icp_max_iterations,omitempty"`
	ICPTolerance         float64 `json:"icp_tolerance,omitempty"`
	ICPMaxCorrespondence float64 `json:"icp_max_correspondence,omitempty"`
	// Fraction of the unexplained segment used by trimmed alignment.
	TrimFraction         float64 `json:"trim_fraction,omitempty"`
	TrimmedEnergyRatio   float64 `json:"trimmed_energy_ratio,omitempty"`
	MinUnexplainedPoints int     `json:"min_unexplained_points,omitempty"`

	// Multiplier taking rendered depth into the units of the observed depth for the batch scorer.
	RenderedDepthScale float64 `json:"rendered_depth_scale,omitempty"`
	ImageWidth         int     `json:"image_width,omitempty"`
	ImageHeight        int     `json:"image_height,omitempty"`

	UnvisitedPolicy UnvisitedPolicy `json:"unvisited_policy,omitempty"`

	Debug    bool   `json:"debug,omitempty"`
	DebugDir string `json:"debug_dir,omitempty"`
}

// Default returns a Search with every field set to its default.
func Default() *Search {
	s := &Search{}
	s.fillDefaults()
	return s
}

func (s *Search) fillDefaults() {
	if s.ExplanationThreshold == 0 {
		s.ExplanationThreshold = defaultExplanationThreshold
	}
	if s.PointRemovalRadius == 0 {
		s.PointRemovalRadius = defaultPointRemovalRadius
	}
	if s.ExplorationConstant == 0 {
		s.ExplorationConstant = defaultExplorationConstant
	}
	if s.BatchSimulationSteps == 0 {
		s.BatchSimulationSteps = defaultBatchSimSteps
	}
	if s.TreeSimulationSteps == 0 {
		s.TreeSimulationSteps = defaultTreeSimSteps
	}
	if s.DynamicMass == 0 {
		s.DynamicMass = defaultDynamicMass
	}
	if s.ICPMaxIterations == 0 {
		s.ICPMaxIterations = defaultICPMaxIterations
	}
	if s.ICPTolerance == 0 {
		s.ICPTolerance = defaultICPTolerance
	}
	if s.ICPMaxCorrespondence == 0 {
		s.ICPMaxCorrespondence = defaultICPMaxCorrespondence
	}
	if s.TrimFraction == 0 {
		s.TrimFraction = defaultTrimFraction
	}
	if s.TrimmedEnergyRatio == 0 {
		s.TrimmedEnergyRatio = defaultTrimmedEnergyRatio
	}
	if s.MinUnexplainedPoints == 0 {
		s.MinUnexplainedPoints = defaultMinUnexplainedPoints
	}
	if s.RenderedDepthScale == 0 {
		s.RenderedDepthScale = defaultRenderedDepthScale
	}
	if s.ImageWidth == 0 {
		s.ImageWidth = defaultImageWidth
	}
	if s.ImageHeight == 0 {
		s.ImageHeight = defaultImageHeight
	}
	if s.UnvisitedPolicy == "" {
		s.UnvisitedPolicy = UnvisitedPrefer
	}
}

// NewConfigValidationError returns an error specifying that there was a validation error
// in the config at the given path.
func NewConfigValidationError(path string, err error) error {
	return errors.Wrapf(err, "error validating %q", path)
}

// NewConfigValidationFieldRequiredError returns an error specifying that a field must be positive.
func NewConfigValidationFieldRequiredError(path, field string) error {
	return NewConfigValidationError(path, errors.Errorf("%q must be positive", field))
}

// Validate ensures all parts of the config are valid. It returns the names of implicit
// dependencies, which the search core never has.
func (s *Search) Validate(path string) ([]string, error) {
	positive := []struct {
		name  string
		value float64
	}{
		{"explanation_threshold", s.ExplanationThreshold},
		{"point_removal_radius", s.PointRemovalRadius},
		{"exploration_constant", s.ExplorationConstant},
		{"batch_simulation_steps", float64(s.BatchSimulationSteps)},
		{"tree_simulation_steps", float64(s.TreeSimulationSteps)},
		{"dynamic_mass", s.DynamicMass},
		{"icp_max_iterations", float64(s.ICPMaxIterations)},
		{"icp_tolerance", s.ICPTolerance},
		{"icp_max_correspondence", s.ICPMaxCorrespondence},
		{"trim_fraction", s.TrimFraction},
		{"trimmed_energy_ratio", s.TrimmedEnergyRatio},
		{"min_unexplained_points", float64(s.MinUnexplainedPoints)},
		{"rendered_depth_scale", s.RenderedDepthScale},
		{"image_width", float64(s.ImageWidth)},
		{"image_height", float64(s.ImageHeight)},
	}
	for _, f := range positive {
		if f.value <= 0 {
			return nil, NewConfigValidationFieldRequiredError(path, f.name)
		}
	}
	if s.TrimFraction > 1 {
		return nil, NewConfigValidationError(path, errors.New(`"trim_fraction" must be at most 1`))
	}
	switch s.UnvisitedPolicy {
	case UnvisitedPrefer, UnvisitedIgnore:
	default:
		return nil, NewConfigValidationError(path,
			errors.Errorf("unknown unvisited_policy %q, want %q or %q", s.UnvisitedPolicy, UnvisitedPrefer, UnvisitedIgnore))
	}
	return nil, nil
}

// FromReader decodes a Search from JSON, fills defaults and validates it. originalPath names the
// source in errors.
func FromReader(originalPath string, r io.Reader) (*Search, error) {
	s := &Search{}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, errors.Wrapf(err, "cannot parse search config %q", originalPath)
	}
	s.fillDefaults()
	if _, err := s.Validate(originalPath); err != nil {
		return nil, err
	}
	return s, nil
}

// Read reads a Search from the given JSON file. Environment variable references such as
// ${DEBUG_DIR} are expanded before parsing.
func Read(filePath string) (*Search, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}
