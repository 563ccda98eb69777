//go:build !headless
// +build !headless

package graphics

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitengineBackend implements the Backend interface using Ebitengine.
type EbitengineBackend struct {
	initialized bool
	config      Config
	game        *EbitengineGame

	audioContext *audio.Context
	audioPlayer  *audio.Player
}

// AudioSource supplies mono float32 samples on demand. It is
// implemented by the emulated console; graphics stays decoupled from it
// the same way it stays decoupled from the concrete emulator type.
type AudioSource interface {
	// PullAudio fills out with up to len(out) samples and returns the
	// count actually written. It never blocks and zero-fills out on
	// underrun.
	PullAudio(out []float32) int

	// AudioSampleRate reports the rate PullAudio's samples are produced
	// at; the audio context is created to match.
	AudioSampleRate() int
}

// EbitengineWindow implements the Window interface for Ebitengine.
type EbitengineWindow struct {
	backend            *EbitengineBackend
	title              string
	width              int
	height             int
	game               *EbitengineGame
	running            bool
	events             []InputEvent
	emulatorUpdateFunc func() error
}

// EbitengineGame implements ebiten.Game: Update drives the emulator
// callback, Draw blits the most recent frame scaled and letterboxed into
// the window.
type EbitengineGame struct {
	window       *EbitengineWindow
	frameImage   *ebiten.Image
	imageBuffer  *image.RGBA // staging pixels, reused every frame
	windowWidth  int
	windowHeight int
}

// NewEbitengineBackend creates a new Ebitengine graphics backend.
func NewEbitengineBackend() Backend {
	return &EbitengineBackend{}
}

// Initialize initializes the Ebitengine backend.
func (b *EbitengineBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("ebitengine backend already initialized")
	}
	b.config = config
	b.initialized = true
	return nil
}

// CreateWindow creates the Ebitengine window and its game loop driver.
func (b *EbitengineBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}
	if b.config.Headless {
		return nil, fmt.Errorf("cannot create window in headless mode")
	}

	game := &EbitengineGame{
		windowWidth:  width,
		windowHeight: height,
		frameImage:   ebiten.NewImage(256, 240),
		imageBuffer:  image.NewRGBA(image.Rect(0, 0, 256, 240)),
	}
	window := &EbitengineWindow{
		backend: b,
		title:   title,
		width:   width,
		height:  height,
		game:    game,
		running: true,
	}
	game.window = window
	b.game = game

	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width, height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetVsyncEnabled(b.config.VSync)
	ebiten.SetScreenFilterEnabled(b.config.Filter == "linear")
	if b.config.Fullscreen {
		ebiten.SetFullscreen(true)
	}

	return window, nil
}

// StartAudio begins streaming source through Ebitengine's audio context.
// Safe to call once per backend lifetime; a second call replaces the
// previous player.
func (b *EbitengineBackend) StartAudio(source AudioSource) error {
	if b.audioContext == nil {
		b.audioContext = audio.NewContext(source.AudioSampleRate())
	}
	player, err := b.audioContext.NewPlayerF32(newAudioStream(source))
	if err != nil {
		return fmt.Errorf("creating audio player: %w", err)
	}
	player.Play()
	b.audioPlayer = player
	return nil
}

// Cleanup releases all Ebitengine resources.
func (b *EbitengineBackend) Cleanup() error {
	if b.audioPlayer != nil {
		b.audioPlayer.Close()
		b.audioPlayer = nil
	}
	b.initialized = false
	return nil
}

// IsHeadless reports whether the backend was configured headless.
func (b *EbitengineBackend) IsHeadless() bool { return b.config.Headless }

// GetName returns the backend name.
func (b *EbitengineBackend) GetName() string { return "Ebitengine" }

// SetTitle sets the window title.
func (w *EbitengineWindow) SetTitle(title string) {
	w.title = title
	ebiten.SetWindowTitle(title)
}

// GetSize returns window dimensions.
func (w *EbitengineWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose reports whether the window has been asked to close.
func (w *EbitengineWindow) ShouldClose() bool { return !w.running }

// SwapBuffers is a no-op; Ebitengine presents frames itself.
func (w *EbitengineWindow) SwapBuffers() {}

// PollEvents returns the input events accumulated since the last call.
func (w *EbitengineWindow) PollEvents() []InputEvent {
	events := w.events
	w.events = nil
	return events
}

// RenderFrame stages a 0x00RRGGBB frame buffer into the GPU image the
// next Draw presents.
func (w *EbitengineWindow) RenderFrame(frameBuffer [256 * 240]uint32) error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	pix := w.game.imageBuffer.Pix
	for i, p := range frameBuffer {
		pix[i*4+0] = uint8(p >> 16)
		pix[i*4+1] = uint8(p >> 8)
		pix[i*4+2] = uint8(p)
		pix[i*4+3] = 0xFF
	}
	w.game.frameImage.WritePixels(pix)
	return nil
}

// Cleanup releases window resources.
func (w *EbitengineWindow) Cleanup() error {
	w.running = false
	return nil
}

// Run enters the Ebitengine game loop; it blocks until the window
// closes or the update callback returns an error.
func (w *EbitengineWindow) Run() error {
	if w.game == nil {
		return fmt.Errorf("game not initialized")
	}
	return ebiten.RunGame(w.game)
}

// SetEmulatorUpdateFunc sets the callback Update drives once per tick.
func (w *EbitengineWindow) SetEmulatorUpdateFunc(updateFunc func() error) {
	w.emulatorUpdateFunc = updateFunc
}

// Update implements ebiten.Game.
func (g *EbitengineGame) Update() error {
	if g.window == nil {
		return nil
	}
	g.pollKeys()
	if g.window.emulatorUpdateFunc != nil {
		return g.window.emulatorUpdateFunc()
	}
	return nil
}

// Draw implements ebiten.Game: scale the 256x240 frame to fit the
// window, preserving aspect ratio, centered on black.
func (g *EbitengineGame) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{A: 255})
	if g.frameImage == nil {
		return
	}

	scale := float64(g.windowWidth) / 256
	if s := float64(g.windowHeight) / 240; s < scale {
		scale = s
	}
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(
		(float64(g.windowWidth)-256*scale)/2,
		(float64(g.windowHeight)-240*scale)/2,
	)
	screen.DrawImage(g.frameImage, op)
}

// Layout implements ebiten.Game.
func (g *EbitengineGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	g.windowWidth = outsideWidth
	g.windowHeight = outsideHeight
	return outsideWidth, outsideHeight
}

// keyBindings maps the host keys this front end watches to their
// abstract Key values; controllerBindings further maps the subset bound
// to NES controller buttons (player 1 on WASD/arrows + J/K, player 2 on
// the number row).
var keyBindings = map[ebiten.Key]Key{
	ebiten.KeyEscape:     KeyEscape,
	ebiten.KeyEnter:      KeyEnter,
	ebiten.KeySpace:      KeySpace,
	ebiten.KeyArrowUp:    KeyUp,
	ebiten.KeyArrowDown:  KeyDown,
	ebiten.KeyArrowLeft:  KeyLeft,
	ebiten.KeyArrowRight: KeyRight,
	ebiten.KeyW:          KeyW,
	ebiten.KeyA:          KeyA,
	ebiten.KeyS:          KeyS,
	ebiten.KeyD:          KeyD,
	ebiten.KeyJ:          KeyJ,
	ebiten.KeyK:          KeyK,
	ebiten.Key1:          Key1,
	ebiten.Key2:          Key2,
	ebiten.Key3:          Key3,
	ebiten.Key4:          Key4,
	ebiten.Key5:          Key5,
	ebiten.Key6:          Key6,
	ebiten.Key7:          Key7,
	ebiten.Key8:          Key8,
	ebiten.KeyF1:         KeyF1,
	ebiten.KeyF2:         KeyF2,
	ebiten.KeyF3:         KeyF3,
	ebiten.KeyF4:         KeyF4,
	ebiten.KeyF5:         KeyF5,
	ebiten.KeyF6:         KeyF6,
	ebiten.KeyF7:         KeyF7,
	ebiten.KeyF8:         KeyF8,
	ebiten.KeyF9:         KeyF9,
	ebiten.KeyF10:        KeyF10,
}

var controllerBindings = map[Key]Button{
	KeyUp:    ButtonUp,
	KeyDown:  ButtonDown,
	KeyLeft:  ButtonLeft,
	KeyRight: ButtonRight,
	KeyW:     ButtonUp,
	KeyS:     ButtonDown,
	KeyA:     ButtonLeft,
	KeyD:     ButtonRight,
	KeyJ:     ButtonA,
	KeyK:     ButtonB,
	KeyEnter: ButtonStart,
	KeySpace: ButtonSelect,

	Key1: Button2Up,
	Key2: Button2Down,
	Key3: Button2Left,
	Key4: Button2Right,
	Key5: Button2A,
	Key6: Button2B,
	Key7: Button2Start,
	Key8: Button2Select,
}

// pollKeys converts this tick's key transitions into InputEvents for
// the application layer: controller-bound keys become button events,
// everything else passes through as a key event with the current
// modifier state attached.
func (g *EbitengineGame) pollKeys() {
	var mods ModifierKey
	if ebiten.IsKeyPressed(ebiten.KeyShiftLeft) || ebiten.IsKeyPressed(ebiten.KeyShiftRight) {
		mods |= ModifierShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight) {
		mods |= ModifierCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAltLeft) || ebiten.IsKeyPressed(ebiten.KeyAltRight) {
		mods |= ModifierAlt
	}

	for ebitenKey, key := range keyBindings {
		var pressed bool
		switch {
		case inpututil.IsKeyJustPressed(ebitenKey):
			pressed = true
		case inpututil.IsKeyJustReleased(ebitenKey):
			pressed = false
		default:
			continue
		}

		if button, bound := controllerBindings[key]; bound {
			g.window.events = append(g.window.events, InputEvent{
				Type:    InputEventTypeButton,
				Button:  button,
				Pressed: pressed,
			})
			continue
		}
		g.window.events = append(g.window.events, InputEvent{
			Type:      InputEventTypeKey,
			Key:       key,
			Pressed:   pressed,
			Modifiers: mods,
		})
	}
}

// audioStream adapts an AudioSource's mono float32 samples to the
// interleaved stereo float32 PCM stream Ebitengine's audio.Player reads.
type audioStream struct {
	source AudioSource
	mono   []float32
}

func newAudioStream(source AudioSource) *audioStream {
	return &audioStream{source: source}
}

const bytesPerStereoFrame = 8 // two float32 channels

func (s *audioStream) Read(p []byte) (int, error) {
	frames := len(p) / bytesPerStereoFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(s.mono) < frames {
		s.mono = make([]float32, frames)
	}
	mono := s.mono[:frames]
	n := s.source.PullAudio(mono)
	for i := 0; i < n; i++ {
		bits := math.Float32bits(mono[i])
		binary.LittleEndian.PutUint32(p[i*bytesPerStereoFrame:], bits)
		binary.LittleEndian.PutUint32(p[i*bytesPerStereoFrame+4:], bits)
	}
	for i := n; i < frames; i++ {
		binary.LittleEndian.PutUint32(p[i*bytesPerStereoFrame:], 0)
		binary.LittleEndian.PutUint32(p[i*bytesPerStereoFrame+4:], 0)
	}
	return frames * bytesPerStereoFrame, nil
}
