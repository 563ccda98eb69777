// Package graphics abstracts the host presentation layer behind Backend
// and Window interfaces, so the emulator core can be driven by a real
// Ebitengine window, a headless frame sink, or a test double without
// caring which.
package graphics

// Backend is a host rendering/input/audio implementation.
type Backend interface {
	// Initialize prepares the backend; must be called exactly once.
	Initialize(config Config) error

	// CreateWindow creates the presentation window.
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all backend resources.
	Cleanup() error

	// IsHeadless reports whether the backend renders to a real window.
	IsHeadless() bool

	// GetName identifies the backend in logs and diagnostics.
	GetName() string
}

// Window is one presentation surface plus its input event queue.
type Window interface {
	SetTitle(title string)
	GetSize() (width, height int)

	// ShouldClose reports whether the host asked the window to close.
	ShouldClose() bool

	// SwapBuffers presents the rendered frame, where the backend
	// doesn't present implicitly.
	SwapBuffers()

	// PollEvents drains the input events accumulated since last call.
	PollEvents() []InputEvent

	// RenderFrame stages a 256x240 0x00RRGGBB frame for presentation.
	RenderFrame(frameBuffer [256 * 240]uint32) error

	Cleanup() error
}

// Config carries the host-layer settings a backend needs at
// initialization.
type Config struct {
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	Filter      string // "nearest", "linear"
	AspectRatio string // "4:3", "stretch"

	Headless bool
	Debug    bool
}

// InputEvent is one key or controller-button transition reported by a
// Window.
type InputEvent struct {
	Type      InputEventType
	Key       Key
	Button    Button
	Pressed   bool
	Modifiers ModifierKey
}

// InputEventType distinguishes raw key events, controller-mapped button
// events, and window-close requests.
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key identifies the host keys the front end watches.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyW
	KeyA
	KeyS
	KeyD
	KeyJ
	KeyK
	Key1
	Key2
	Key3
	Key4
	Key5
	Key6
	Key7
	Key8
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
)

// Button identifies a NES controller button on either port.
type Button int

const (
	ButtonUnknown Button = iota
	ButtonA
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight

	Button2A
	Button2B
	Button2Select
	Button2Start
	Button2Up
	Button2Down
	Button2Left
	Button2Right
)

// ModifierKey is a bitmask of held modifier keys.
type ModifierKey int

const (
	ModifierNone  ModifierKey = 0
	ModifierShift ModifierKey = 1 << iota
	ModifierCtrl
	ModifierAlt
)

// BackendType names a Backend implementation for config files and CLI
// flags.
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
)

// CreateBackend constructs the named backend, defaulting to Ebitengine.
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	default:
		return NewEbitengineBackend(), nil
	}
}

// AsEbitengineWindow reports whether window is the Ebitengine
// implementation, which callers need for its Run/SetEmulatorUpdateFunc
// game-loop hooks.
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	ew, ok := window.(*EbitengineWindow)
	return ew, ok
}
