// Package console wires the CPU, PPU, APU, controller ports, and a
// loaded cartridge together behind the six operations a host front end
// drives a system through, plus save-state capture/restore.
package console

import (
	"github.com/mp3/ccnes/internal/apu"
	"github.com/mp3/ccnes/internal/bus"
	"github.com/mp3/ccnes/internal/cartridge"
)

// Console is the top-level aggregate a host embeds: one Bus plus the
// currently loaded cartridge (kept here, rather than inside Bus, so
// save-state capture can reach the concrete mapper type for its
// per-mapper register snapshot).
type Console struct {
	bus  *bus.Bus
	cart *cartridge.Cartridge
}

// New returns a zero-initialized console with no cartridge loaded.
// Step/RunFrame are no-ops until Load installs one.
func New() *Console {
	return &Console{bus: bus.New()}
}

// Load installs a cartridge, wires its mapper into the bus, and resets.
func (c *Console) Load(cart *cartridge.Cartridge) {
	c.cart = cart
	c.bus.LoadCartridge(cart)
}

// Reset resets the CPU (reading the reset vector through the bus),
// clears the APU frame counter and audio filters, and restores the PPU
// to its canonical post-power-on dot/scanline position. Idempotent:
// calling it twice in a row leaves the console in the same state.
func (c *Console) Reset() {
	c.bus.Reset()
}

// Step runs one CPU instruction (or advances one cycle of an in-flight
// OAM-DMA stall), ticks the PPU 3x and the APU 1x per CPU cycle
// consumed, and delivers any queued NMI/IRQ edge to the CPU. Returns the
// number of CPU cycles the step consumed.
func (c *Console) Step() int {
	return c.bus.Step()
}

// RunFrame steps until the PPU completes one frame.
func (c *Console) RunFrame() {
	c.bus.RunFrame()
}

// Framebuffer returns the current 256x240 frame, row-major, top-left
// origin, one 0x00RRGGBB word per pixel.
func (c *Console) Framebuffer() [256 * 240]uint32 {
	return c.bus.FrameBuffer()
}

// PullAudio drains up to len(out) samples from the output ring buffer
// into out, converting from the internal float64 mixing/filter pipeline
// to the mono float32 format the runtime interface exposes. Never
// blocks: any shortfall is filled with silence.
func (c *Console) PullAudio(out []float32) int {
	tmp := make([]float64, len(out))
	n := c.bus.PullAudio(tmp)
	for i, v := range tmp {
		out[i] = float32(v)
	}
	return n
}

// ConfigureAudio selects the host output sample rate and resampler
// quality, rebuilding the APU's output chain. Call before stepping.
func (c *Console) ConfigureAudio(sampleRate int, quality apu.ResamplerQuality) {
	c.bus.APU.SetSampleRate(sampleRate)
	c.bus.APU.SetResamplerQuality(quality)
}

// AudioSampleRate returns the host output sample rate PullAudio's
// samples are produced at.
func (c *Console) AudioSampleRate() int { return c.bus.APU.GetSampleRate() }

// SetController sets all eight button states for controller port 0 or
// 1, packed as a bitmask: bit 0=A, 1=B, 2=Select, 3=Start, 4=Up, 5=Down,
// 6=Left, 7=Right.
func (c *Console) SetController(port int, buttons uint8) {
	var bits [8]bool
	for i := range bits {
		bits[i] = buttons&(1<<uint(i)) != 0
	}
	c.bus.SetControllerButtons(port+1, bits)
}

// CycleCount returns the total CPU cycles executed since the last Reset.
func (c *Console) CycleCount() uint64 { return c.bus.CycleCount() }

// FrameCount returns the number of frames the PPU has completed.
func (c *Console) FrameCount() uint64 { return c.bus.FrameCount() }
