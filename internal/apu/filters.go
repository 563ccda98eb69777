package apu

import "math"

// lowPassFilter is a first-order low-pass filter approximating the NES's
// analog output stage's anti-aliasing rolloff.
type lowPassFilter struct {
	sampleRate float64
	prevOutput float64
	alpha      float64
}

func newLowPassFilter(cutoffHz, sampleRate float64) *lowPassFilter {
	f := &lowPassFilter{sampleRate: sampleRate}
	f.setCutoff(cutoffHz)
	return f
}

func (f *lowPassFilter) setCutoff(cutoffHz float64) {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / f.sampleRate
	f.alpha = dt / (rc + dt)
}

func (f *lowPassFilter) process(input float64) float64 {
	f.prevOutput = f.alpha*input + (1.0-f.alpha)*f.prevOutput
	return f.prevOutput
}

func (f *lowPassFilter) reset() { f.prevOutput = 0 }

// highPassFilter is a first-order high-pass filter used to strip the DC
// offset the NES's mixer formula introduces.
type highPassFilter struct {
	sampleRate float64
	prevInput  float64
	prevOutput float64
	alpha      float64
}

func newHighPassFilter(cutoffHz, sampleRate float64) *highPassFilter {
	f := &highPassFilter{sampleRate: sampleRate}
	f.setCutoff(cutoffHz)
	return f
}

func (f *highPassFilter) setCutoff(cutoffHz float64) {
	rc := 1.0 / (2.0 * math.Pi * cutoffHz)
	dt := 1.0 / f.sampleRate
	f.alpha = rc / (rc + dt)
}

func (f *highPassFilter) process(input float64) float64 {
	f.prevOutput = f.alpha * (f.prevOutput + input - f.prevInput)
	f.prevInput = input
	return f.prevOutput
}

func (f *highPassFilter) reset() { f.prevInput, f.prevOutput = 0, 0 }

// nesAudioFilter chains the two DC-blocking high-pass stages and the
// anti-aliasing low-pass stage a real NES's audio output network applies,
// then soft-clips the result instead of hard-clipping it.
type nesAudioFilter struct {
	highPass1 *highPassFilter
	highPass2 *highPassFilter
	lowPass   *lowPassFilter
}

func newNesAudioFilter(sampleRate float64) *nesAudioFilter {
	return &nesAudioFilter{
		highPass1: newHighPassFilter(90.0, sampleRate),
		highPass2: newHighPassFilter(440.0, sampleRate),
		lowPass:   newLowPassFilter(14000.0, sampleRate),
	}
}

func (f *nesAudioFilter) process(input float64) float64 {
	hp1 := f.highPass1.process(input)
	hp2 := f.highPass2.process(hp1)
	output := f.lowPass.process(hp2)

	switch {
	case output > 1.0:
		return 1.0 - math.Pow(math.Abs(1.0-output), 0.7)
	case output < -1.0:
		return -1.0 + math.Pow(math.Abs(1.0+output), 0.7)
	default:
		return output
	}
}

func (f *nesAudioFilter) reset() {
	f.highPass1.reset()
	f.highPass2.reset()
	f.lowPass.reset()
}
