package graphics

import (
	"fmt"
	"os"
)

// HeadlessBackend satisfies Backend without any host windowing system:
// frames are discarded, or periodically dumped to disk as PPM images
// for CI and scripted runs.
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow is the no-op Window the headless backend hands out.
type HeadlessWindow struct {
	title        string
	width        int
	height       int
	running      bool
	frameCount   int
	outputPath   string
	dumpInterval int // dump a frame to disk every N frames; 0 disables
}

// NewHeadlessBackend creates a backend that renders nowhere.
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize prepares the backend; calling it twice is an error.
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow returns a window-shaped frame sink.
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	return &HeadlessWindow{
		title:      title,
		width:      width,
		height:     height,
		running:    true,
		outputPath: "frame_output",
	}, nil
}

// Cleanup releases backend resources.
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless always reports true.
func (b *HeadlessBackend) IsHeadless() bool { return true }

// GetName returns the backend name.
func (b *HeadlessBackend) GetName() string { return "Headless" }

// SetTitle records the title; nothing displays it.
func (w *HeadlessWindow) SetTitle(title string) { w.title = title }

// GetSize returns the nominal window dimensions.
func (w *HeadlessWindow) GetSize() (width, height int) { return w.width, w.height }

// ShouldClose reports whether Cleanup has been called.
func (w *HeadlessWindow) ShouldClose() bool { return !w.running }

// SwapBuffers is a no-op.
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents returns nil; there is no input source.
func (w *HeadlessWindow) PollEvents() []InputEvent { return nil }

// RenderFrame counts the frame and, when dump-on-interval is enabled
// via SetDumpInterval, writes it to disk.
func (w *HeadlessWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	w.frameCount++
	if w.dumpInterval > 0 && w.frameCount%w.dumpInterval == 0 {
		return w.saveFrameAsPPM(frameBuffer, fmt.Sprintf("frame_%06d.ppm", w.frameCount))
	}
	return nil
}

// SetDumpInterval configures RenderFrame to periodically write a PPM
// snapshot of the frame buffer; 0 disables dumping.
func (w *HeadlessWindow) SetDumpInterval(frames int) {
	w.dumpInterval = frames
}

func (w *HeadlessWindow) saveFrameAsPPM(frameBuffer [256 * 240]uint32, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filename, err)
	}
	defer file.Close()

	fmt.Fprintf(file, "P3\n256 240\n255\n")
	for y := 0; y < 240; y++ {
		for x := 0; x < 256; x++ {
			pixel := frameBuffer[y*256+x]
			fmt.Fprintf(file, "%d %d %d ", (pixel>>16)&0xFF, (pixel>>8)&0xFF, pixel&0xFF)
		}
		fmt.Fprintln(file)
	}
	return nil
}

// Cleanup marks the window closed.
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps.
func (w *HeadlessWindow) SetOutputPath(path string) { w.outputPath = path }

// GetFrameCount returns how many frames have been rendered.
func (w *HeadlessWindow) GetFrameCount() int { return w.frameCount }
