package logging

// ProgressSampler thins per-window transcription progress to one log line
// per completion step. The first report and the completing report always
// pass.
type ProgressSampler struct {
	step     float64
	lastStep int
	done     bool
}

// NewProgressSampler returns a sampler that emits every stepPercent points of
// completion. Non-positive steps use 10.
func NewProgressSampler(stepPercent float64) *ProgressSampler {
	if stepPercent <= 0 {
		stepPercent = 10
	}
	return &ProgressSampler{step: stepPercent, lastStep: -1}
}

// Sample reports whether progress at fraction (0..1) should be logged.
// Fractions outside the range are clamped.
func (s *ProgressSampler) Sample(fraction float64) bool {
	if s == nil {
		return true
	}
	fraction = min(max(fraction, 0), 1)
	if fraction == 1 {
		if s.done {
			return false
		}
		s.done = true
		s.lastStep = int(100 / s.step)
		return true
	}
	current := int(fraction * 100 / s.step)
	if current <= s.lastStep {
		return false
	}
	s.lastStep = current
	return true
}

// Reset starts a new run.
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastStep = -1
	s.done = false
}
