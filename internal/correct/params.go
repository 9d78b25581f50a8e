package correct

import "fmt"

// Strategy names.
const (
	AveragePoint       = "average_point"
	ThresholdPoint     = "threshold_point"
	AverageFrameExp    = "average_frame_exp"
	AverageFrameHSV    = "average_frame_hsv"
	AverageDeltaFrames = "average_delta_frames"
	TemporalMatching   = "temporal_matching"

	Default = TemporalMatching
)

// Params carries the tunables of every strategy. Each strategy reads only its own.
type Params struct {
	// Threshold is the per-pixel brightness jump threshold_point treats as a scene change.
	Threshold int `yaml:"threshold"`
	// MaxStep bounds how far threshold_point moves a pixel per frame.
	MaxStep int `yaml:"max_step"`

	// Weight is the accumulation weight of average_point.
	Weight float64 `yaml:"weight"`
	// NormalizeWeights makes average_point weigh its three frames equally with the
	// carried accumulator taking the remainder.
	NormalizeWeights bool `yaml:"normalize_weights"`
	// EmitLast makes average_point write the last frame unmodified.
	EmitLast bool `yaml:"emit_last"`

	// HalfWindow is the sliding window half-width of average_frame_hsv and
	// average_delta_frames.
	HalfWindow int `yaml:"half_window"`
	// OutlierThreshold is the per-pixel difference above which average_delta_frames
	// ignores a pixel when estimating drift.
	OutlierThreshold float64 `yaml:"outlier_threshold"`
	// DarkCutoff leaves pixels with any channel at or below it uncorrected.
	DarkCutoff int `yaml:"dark_cutoff"`

	// Frames is the odd temporal window of temporal_matching.
	Frames int `yaml:"frames"`
	// Sigma enables per-pixel sigma clipping in temporal_matching. Zero disables it.
	Sigma float64 `yaml:"sigma"`
}

// Fixed half-window of average_frame_exp.
const expHalfWindow = 2

// DefaultParams returns the values the strategies were tuned with.
func DefaultParams() Params {
	return Params{
		Threshold:        20,
		MaxStep:          10,
		Weight:           0.3,
		HalfWindow:       30,
		OutlierThreshold: 30,
		DarkCutoff:       20,
		Frames:           5,
	}
}

// Validate checks every field regardless of the strategy that will use it.
func (p Params) Validate() error {
	switch {
	case p.Threshold <= 0:
		return fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidParameter, p.Threshold)
	case p.MaxStep < 0:
		return fmt.Errorf("%w: max step must not be negative, got %d", ErrInvalidParameter, p.MaxStep)
	case p.Weight <= 0 || p.Weight > 1:
		return fmt.Errorf("%w: weight must be in (0, 1], got %g", ErrInvalidParameter, p.Weight)
	case p.NormalizeWeights && p.Weight > 1.0/3:
		return fmt.Errorf("%w: normalized weight must be at most 1/3, got %g", ErrInvalidParameter, p.Weight)
	case p.HalfWindow < 0:
		return fmt.Errorf("%w: half window must not be negative, got %d", ErrInvalidParameter, p.HalfWindow)
	case p.OutlierThreshold <= 0:
		return fmt.Errorf("%w: outlier threshold must be positive, got %g", ErrInvalidParameter, p.OutlierThreshold)
	case p.DarkCutoff < 0 || p.DarkCutoff > 255:
		return fmt.Errorf("%w: dark cutoff must be in [0, 255], got %d", ErrInvalidParameter, p.DarkCutoff)
	case p.Frames < 1 || p.Frames%2 == 0:
		return fmt.Errorf("%w: temporal window must be a positive odd number, got %d", ErrInvalidParameter, p.Frames)
	case p.Sigma < 0:
		return fmt.Errorf("%w: sigma must not be negative, got %g", ErrInvalidParameter, p.Sigma)
	}
	return nil
}
