package apu

// ResamplerQuality selects the interpolation algorithm used to convert
// the APU's native per-CPU-cycle sample stream down to the host's output
// sample rate.
type ResamplerQuality int

const (
	ResamplerLow ResamplerQuality = iota
	ResamplerMedium
	ResamplerHigh
)

// resampler converts a stream of input samples at sourceRate into a
// stream at targetRate, appending generated samples to the caller's
// output slice.
type resampler interface {
	process(input float64, output *[]float64)
	reset()
}

func newResampler(quality ResamplerQuality, sourceRate, targetRate float64) resampler {
	switch quality {
	case ResamplerMedium:
		return newHermiteResampler(sourceRate, targetRate)
	case ResamplerHigh:
		return newBlepResampler(sourceRate, targetRate)
	default:
		return newLinearResampler(sourceRate, targetRate)
	}
}

// linearResampler produces output samples by linearly interpolating
// between consecutive input samples.
type linearResampler struct {
	ratio       float64
	phase       float64
	prevSample  float64
}

func newLinearResampler(sourceRate, targetRate float64) *linearResampler {
	return &linearResampler{ratio: sourceRate / targetRate}
}

func (r *linearResampler) process(input float64, output *[]float64) {
	for r.phase < 1.0 {
		*output = append(*output, r.prevSample+(input-r.prevSample)*r.phase)
		r.phase += r.ratio
	}
	r.phase -= 1.0
	r.prevSample = input
}

func (r *linearResampler) reset() { r.phase, r.prevSample = 0, 0 }

// hermiteResampler uses 4-point cubic Hermite interpolation over a
// rolling history window for a smoother reconstruction than linear.
type hermiteResampler struct {
	ratio   float64
	phase   float64
	history [4]float64
}

func newHermiteResampler(sourceRate, targetRate float64) *hermiteResampler {
	return &hermiteResampler{ratio: sourceRate / targetRate}
}

func (r *hermiteResampler) process(input float64, output *[]float64) {
	r.history[0], r.history[1], r.history[2], r.history[3] = r.history[1], r.history[2], r.history[3], input

	for r.phase < 1.0 {
		*output = append(*output, hermiteInterpolate(r.history[0], r.history[1], r.history[2], r.history[3], r.phase))
		r.phase += r.ratio
	}
	r.phase -= 1.0
}

func (r *hermiteResampler) reset() {
	r.phase = 0
	r.history = [4]float64{}
}

func hermiteInterpolate(y0, y1, y2, y3, x float64) float64 {
	c0 := y1
	c1 := 0.5 * (y2 - y0)
	c2 := y0 - 2.5*y1 + 2.0*y2 - 0.5*y3
	c3 := 0.5*(y3-y0) + 1.5*(y1-y2)
	return ((c3*x+c2)*x+c1)*x + c0
}

const (
	blepSize  = 16
	blepScale = 0.9
)

// blepResampler adds a band-limited step correction at each detected
// discontinuity on top of linear interpolation, reducing the aliasing
// artifacts a plain linear or Hermite resampler leaves on the channels'
// hard-edged square/triangle/noise waveforms.
type blepResampler struct {
	ratio      float64
	phase      float64
	blepBuffer []float64
	prevSample float64
}

func newBlepResampler(sourceRate, targetRate float64) *blepResampler {
	return &blepResampler{ratio: sourceRate / targetRate}
}

func (r *blepResampler) process(input float64, output *[]float64) {
	delta := input - r.prevSample
	if delta < 0 {
		delta = -delta
	}
	if delta > 0.1 {
		r.addBlep(r.phase, input-r.prevSample)
	}

	for r.phase < 1.0 {
		sample := r.prevSample + (input-r.prevSample)*r.phase
		if len(r.blepBuffer) > 0 {
			sample += r.blepBuffer[0]
			r.blepBuffer = r.blepBuffer[1:]
		}
		*output = append(*output, sample)
		r.phase += r.ratio
	}
	r.phase -= 1.0
	r.prevSample = input
}

func (r *blepResampler) addBlep(phase, amplitude float64) {
	blepPhase := phase * blepSize
	startIdx := int(blepPhase)

	for i := 0; i < blepSize; i++ {
		t := (float64(i) - blepPhase + float64(startIdx)) / blepSize
		if t < 0.0 || t >= 1.0 {
			continue
		}
		value := computeBlep(t) * amplitude * blepScale
		if i < len(r.blepBuffer) {
			r.blepBuffer[i] += value
		} else {
			r.blepBuffer = append(r.blepBuffer, value)
		}
	}
}

func computeBlep(t float64) float64 {
	switch {
	case t < 0.0:
		return 0.0
	case t > 1.0:
		return 1.0
	default:
		t2 := t * t
		t3 := t2 * t
		t4 := t2 * t2
		t5 := t3 * t2
		return 0.5*t5 - 2.5*t4 + 5.0*t3 - 5.0*t2 + 2.5*t
	}
}

func (r *blepResampler) reset() {
	r.phase = 0
	r.blepBuffer = r.blepBuffer[:0]
	r.prevSample = 0
}
