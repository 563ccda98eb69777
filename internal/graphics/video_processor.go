package graphics

// VideoProcessor applies brightness/contrast/saturation adjustment to a
// rendered frame before display. Saturation is a lerp between each
// pixel and its Rec. 601 luma, contrast pivots around mid-gray, and
// brightness is a straight gain; all three at their 1.0 defaults make
// ProcessFrame a passthrough.
type VideoProcessor struct {
	brightness float32
	contrast   float32
	saturation float32
	out        []uint32
}

// NewVideoProcessor creates a processor with the given adjustment
// factors (1.0 = neutral for each).
func NewVideoProcessor(brightness, contrast, saturation float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
		saturation: saturation,
	}
}

func (vp *VideoProcessor) isIdentity() bool {
	return vp.brightness == 1.0 && vp.contrast == 1.0 && vp.saturation == 1.0
}

// ProcessFrame adjusts a frame of packed 0x00RRGGBB pixels, returning
// the input slice untouched when all factors are neutral. The returned
// slice is reused across calls.
func (vp *VideoProcessor) ProcessFrame(frameBuffer []uint32) []uint32 {
	if vp.isIdentity() {
		return frameBuffer
	}
	if cap(vp.out) < len(frameBuffer) {
		vp.out = make([]uint32, len(frameBuffer))
	}
	vp.out = vp.out[:len(frameBuffer)]

	for i, pixel := range frameBuffer {
		r := float32((pixel>>16)&0xFF) / 255.0
		g := float32((pixel>>8)&0xFF) / 255.0
		b := float32(pixel&0xFF) / 255.0

		luma := 0.299*r + 0.587*g + 0.114*b
		r = luma + (r-luma)*vp.saturation
		g = luma + (g-luma)*vp.saturation
		b = luma + (b-luma)*vp.saturation

		r = ((r-0.5)*vp.contrast + 0.5) * vp.brightness
		g = ((g-0.5)*vp.contrast + 0.5) * vp.brightness
		b = ((b-0.5)*vp.contrast + 0.5) * vp.brightness

		vp.out[i] = packChannel(r)<<16 | packChannel(g)<<8 | packChannel(b)
	}
	return vp.out
}

func packChannel(v float32) uint32 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 0xFF
	default:
		return uint32(v*255.0 + 0.5)
	}
}

// SetBrightness updates the brightness gain.
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
}

// SetContrast updates the contrast factor.
func (vp *VideoProcessor) SetContrast(contrast float32) {
	vp.contrast = contrast
}

// SetSaturation updates the saturation factor.
func (vp *VideoProcessor) SetSaturation(saturation float32) {
	vp.saturation = saturation
}
