package correct

import "fmt"

var names = []string{
	AveragePoint,
	ThresholdPoint,
	AverageFrameExp,
	AverageFrameHSV,
	AverageDeltaFrames,
	TemporalMatching,
}

// Names lists the registered strategies in declaration order.
func Names() []string {
	return append([]string(nil), names...)
}

// New builds the named strategy after validating p.
func New(name string, p Params) (Strategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch name {
	case AveragePoint:
		return &averagePoint{weight: p.Weight, normalize: p.NormalizeWeights, emitLast: p.EmitLast}, nil
	case ThresholdPoint:
		return &thresholdPoint{threshold: p.Threshold, maxStep: p.MaxStep}, nil
	case AverageFrameExp:
		return &averageFrameExp{}, nil
	case AverageFrameHSV:
		return &averageFrameHSV{halfWindow: p.HalfWindow}, nil
	case AverageDeltaFrames:
		return &averageDeltaFrames{
			outlier:    p.OutlierThreshold,
			halfWindow: p.HalfWindow,
			dark:       uint8(p.DarkCutoff),
		}, nil
	case TemporalMatching:
		return &temporalMatching{frames: p.Frames, sigma: p.Sigma}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
