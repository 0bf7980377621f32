package state

import (
	"go.viam.com/posesearch/config"
	"go.viam.com/posesearch/logging"
	"go.viam.com/posesearch/pointcloud"
)

// Options carries the tuned parameters and collaborators shared by every state of one search.
type Options struct {
	ExplanationThreshold float64
	PointRemovalRadius   float64
	ExplorationConstant  float64

	BatchSimulationSteps int
	TreeSimulationSteps  int
	DynamicMass          float64

	ICP                  pointcloud.ICPConfig
	TrimmedICP           pointcloud.TrimmedICPConfig
	TrimFraction         float64
	MinUnexplainedPoints int

	RenderedDepthScale float64
	ImageWidth         int
	ImageHeight        int

	UnvisitedPolicy config.UnvisitedPolicy

	Debug    bool
	DebugDir string

	Logger logging.Logger
}

// NewOptions builds Options from a validated search config.
func NewOptions(cfg *config.Search, logger logging.Logger) Options {
	if logger == nil {
		logger = logging.NewBlankLogger("state")
	}
	return Options{
		ExplanationThreshold: cfg.ExplanationThreshold,
		PointRemovalRadius:   cfg.PointRemovalRadius,
		ExplorationConstant:  cfg.ExplorationConstant,
		BatchSimulationSteps: cfg.BatchSimulationSteps,
		TreeSimulationSteps:  cfg.TreeSimulationSteps,
		DynamicMass:          cfg.DynamicMass,
		ICP: pointcloud.ICPConfig{
			MaxCorrespondenceDistance: cfg.ICPMaxCorrespondence,
			MaxIterations:             cfg.ICPMaxIterations,
			TransformationEpsilon:     cfg.ICPTolerance,
		},
		TrimmedICP: pointcloud.TrimmedICPConfig{
			MaxIterations:         cfg.ICPMaxIterations,
			EnergyRatio:           cfg.TrimmedEnergyRatio,
			TransformationEpsilon: cfg.ICPTolerance,
		},
		TrimFraction:         cfg.TrimFraction,
		MinUnexplainedPoints: cfg.MinUnexplainedPoints,
		RenderedDepthScale:   cfg.RenderedDepthScale,
		ImageWidth:           cfg.ImageWidth,
		ImageHeight:          cfg.ImageHeight,
		UnvisitedPolicy:      cfg.UnvisitedPolicy,
		Debug:                cfg.Debug,
		DebugDir:             cfg.DebugDir,
		Logger:               logger,
	}
}

// DefaultOptions returns the options of the default search config.
func DefaultOptions() Options {
	return NewOptions(config.Default(), nil)
}
