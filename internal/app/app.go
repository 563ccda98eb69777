// Package app implements the main NES emulator application with GUI support.
package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mp3/ccnes/internal/cartridge"
	"github.com/mp3/ccnes/internal/console"
	"github.com/mp3/ccnes/internal/graphics"
)

// Application wires a Console to a graphics backend, drives its main
// loop, and exposes the operations a front end needs (ROM loading,
// pause/reset, save states).
type Application struct {
	console *console.Console

	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor

	config *Config
	states *StateManager

	running     bool
	paused      bool
	initialized bool
	headless    bool

	startTime  time.Time
	frameCount uint64

	lastFPSTime    time.Time
	frameAtLastFPS uint64
	currentFPS     float64

	romPath    string
	cartridge  *cartridge.Cartridge
	lastESCKey time.Time

	controller1 uint8
	controller2 uint8
}

// ApplicationError wraps a component/operation pair around the
// underlying error so callers can tell where in startup things failed.
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error { return e.Err }

// NewApplication creates a new NES emulator application.
func NewApplication(configPath string) (*Application, error) {
	return NewApplicationWithMode(configPath, false)
}

// NewApplicationWithMode creates a new NES emulator application with
// optional headless mode (no window, no input polling).
func NewApplicationWithMode(configPath string, headless bool) (*Application, error) {
	app := &Application{
		config:      NewConfig(),
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if configPath != "" {
		if err := app.config.LoadFromFile(configPath); err != nil {
			fmt.Printf("warning: could not load config from %s, using defaults: %v\n", configPath, err)
		}
	}

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{Component: "initialization", Operation: "component setup", Err: err}
	}

	return app, nil
}

func (app *Application) initializeComponents(headless bool) error {
	app.console = console.New()
	app.console.ConfigureAudio(app.config.Audio.SampleRate, app.config.ResamplerQuality())

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return fmt.Errorf("failed to initialize graphics backend: %w", err)
	}

	app.states = NewStateManager(app.config.Paths.SaveStates)
	app.initialized = true
	return nil
}

func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	if headless {
		backendType = graphics.BackendHeadless
	} else {
		switch app.config.Video.Backend {
		case "headless":
			backendType = graphics.BackendHeadless
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return fmt.Errorf("failed to create graphics backend: %w", err)
	}

	graphicsConfig := graphics.Config{
		WindowTitle:  "ccnes",
		WindowWidth:  app.config.Window.Width,
		WindowHeight: app.config.Window.Height,
		Fullscreen:   app.config.Window.Fullscreen,
		VSync:        app.config.Video.VSync,
		Filter:       app.config.Video.Filter,
		AspectRatio:  app.config.Video.AspectRatio,
		Headless:     headless,
		Debug:        app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		if backendType == graphics.BackendEbitengine {
			fmt.Printf("warning: Ebitengine backend failed (%v), falling back to headless mode\n", err)
			app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
			if err != nil {
				return fmt.Errorf("failed to create fallback headless backend: %w", err)
			}
			graphicsConfig.Headless = true
			if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
				return fmt.Errorf("failed to initialize fallback headless backend: %w", err)
			}
		} else {
			return fmt.Errorf("failed to initialize graphics backend: %w", err)
		}
	}

	if !headless && !app.graphicsBackend.IsHeadless() {
		app.window, err = app.graphicsBackend.CreateWindow(graphicsConfig.WindowTitle, graphicsConfig.WindowWidth, graphicsConfig.WindowHeight)
		if err != nil {
			return fmt.Errorf("failed to create window: %w", err)
		}
		if app.config.Audio.Enabled {
			if eb, ok := app.graphicsBackend.(interface {
				StartAudio(graphics.AudioSource) error
			}); ok {
				if err := eb.StartAudio(app.console); err != nil {
					fmt.Printf("warning: audio playback unavailable: %v\n", err)
				}
			}
		}
	}

	app.videoProcessor = graphics.NewVideoProcessor(app.config.Video.Brightness, app.config.Video.Contrast, app.config.Video.Saturation)
	return nil
}

// LoadROM loads a ROM file into the emulator and resets the console.
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	cart, err := cartridge.LoadFromFile(romPath)
	if err != nil {
		return &ApplicationError{Component: "cartridge", Operation: "load ROM", Err: err}
	}

	app.cartridge = cart
	app.romPath = romPath
	app.console.Load(cart)

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("ccnes - %s", filepath.Base(romPath)))
	}

	app.running = true
	return nil
}

// Run starts the main application loop. With the Ebitengine backend,
// the console advances once per Ebitengine Update() callback (~60Hz);
// other backends drive their own fixed-rate loop here.
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	app.running = true
	app.startTime = time.Now()
	app.lastFPSTime = time.Now()

	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			app.processInput()
			if err := app.updateEmulator(); err != nil {
				return err
			}
			if err := app.render(); err != nil {
				return err
			}
			app.updateFPS()
			if app.window.ShouldClose() {
				app.Stop()
			}
			return nil
		})
		return ebitengineWindow.Run()
	}

	for app.running {
		app.processInput()
		if err := app.updateEmulator(); err != nil {
			fmt.Printf("emulator update error: %v\n", err)
		}
		if err := app.render(); err != nil {
			fmt.Printf("render error: %v\n", err)
		}
		app.updateFPS()

		if app.window != nil && app.window.ShouldClose() {
			app.Stop()
		}
		time.Sleep(16 * time.Millisecond)
	}
	return nil
}

func (app *Application) updateEmulator() error {
	if app.paused || app.cartridge == nil {
		return nil
	}
	app.console.RunFrame()
	app.frameCount++
	return nil
}

func (app *Application) render() error {
	if app.window == nil || app.cartridge == nil {
		return nil
	}

	frame := app.console.Framebuffer()
	if app.videoProcessor != nil {
		processed := app.videoProcessor.ProcessFrame(frame[:])
		copy(frame[:], processed)
	}

	if err := app.window.RenderFrame(frame); err != nil {
		return fmt.Errorf("failed to render frame: %w", err)
	}
	app.window.SwapBuffers()
	return nil
}

func (app *Application) updateFPS() {
	now := time.Now()
	if now.Sub(app.lastFPSTime) < time.Second {
		return
	}
	elapsed := now.Sub(app.lastFPSTime).Seconds()
	app.currentFPS = float64(app.frameCount-app.frameAtLastFPS) / elapsed
	app.lastFPSTime = now
	app.frameAtLastFPS = app.frameCount
}

// processInput polls the window for events, routes quit/save-state keys
// to their handlers, and otherwise updates the tracked controller
// bitmasks sent to the console each frame.
func (app *Application) processInput() {
	if app.window == nil {
		return
	}
	events := app.window.PollEvents()
	if len(events) == 0 {
		return
	}

	for _, event := range events {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
			return
		case graphics.InputEventTypeKey:
			if app.handleSpecialKey(event) {
				continue
			}
		case graphics.InputEventTypeButton:
			app.applyButton(event.Button, event.Pressed)
		}
	}

	if app.cartridge != nil {
		app.console.SetController(0, app.controller1)
		app.console.SetController(1, app.controller2)
	}
}

// applyButton sets or clears the bit for button in whichever
// controller's bitmask it belongs to.
func (app *Application) applyButton(button graphics.Button, pressed bool) {
	bit, mask, ok := app.buttonBitRef(button)
	if !ok {
		return
	}
	if pressed {
		*mask |= 1 << bit
	} else {
		*mask &^= 1 << bit
	}
}

// buttonBitRef maps a graphics.Button to its NES controller bit index
// (bit 0=A, 1=B, 2=Select, 3=Start, 4=Up, 5=Down, 6=Left, 7=Right) and
// the controller port's bitmask field it belongs to.
func (app *Application) buttonBitRef(button graphics.Button) (uint8, *uint8, bool) {
	switch button {
	case graphics.ButtonA:
		return 0, &app.controller1, true
	case graphics.ButtonB:
		return 1, &app.controller1, true
	case graphics.ButtonSelect:
		return 2, &app.controller1, true
	case graphics.ButtonStart:
		return 3, &app.controller1, true
	case graphics.ButtonUp:
		return 4, &app.controller1, true
	case graphics.ButtonDown:
		return 5, &app.controller1, true
	case graphics.ButtonLeft:
		return 6, &app.controller1, true
	case graphics.ButtonRight:
		return 7, &app.controller1, true
	case graphics.Button2A:
		return 0, &app.controller2, true
	case graphics.Button2B:
		return 1, &app.controller2, true
	case graphics.Button2Select:
		return 2, &app.controller2, true
	case graphics.Button2Start:
		return 3, &app.controller2, true
	case graphics.Button2Up:
		return 4, &app.controller2, true
	case graphics.Button2Down:
		return 5, &app.controller2, true
	case graphics.Button2Left:
		return 6, &app.controller2, true
	case graphics.Button2Right:
		return 7, &app.controller2, true
	default:
		return 0, nil, false
	}
}

// handleSpecialKey handles keys that don't map to a controller button:
// double-tap Escape to quit, and the F1-F10 save/load-state shortcuts
// (Shift+Fn loads, Fn alone saves).
func (app *Application) handleSpecialKey(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	if event.Key == graphics.KeyEscape {
		now := time.Now()
		if !app.lastESCKey.IsZero() && now.Sub(app.lastESCKey) < 3*time.Second {
			app.Stop()
		} else {
			app.lastESCKey = now
		}
		return true
	}

	if event.Key >= graphics.KeyF1 && event.Key <= graphics.KeyF10 {
		slot := int(event.Key - graphics.KeyF1)
		var err error
		if event.Modifiers&graphics.ModifierShift != 0 {
			err = app.LoadState(slot)
		} else {
			err = app.SaveState(slot)
		}
		if err != nil {
			fmt.Printf("save state slot %d: %v\n", slot, err)
		}
		return true
	}

	return false
}

// SaveState saves the current emulator state to a numbered slot.
func (app *Application) SaveState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.states.SaveState(app.console, slot, app.romPath)
}

// LoadState loads a saved emulator state from a numbered slot.
func (app *Application) LoadState(slot int) error {
	if app.cartridge == nil {
		return errors.New("no ROM loaded")
	}
	return app.states.LoadState(app.console, slot, app.romPath)
}

// Stop stops the application's main loop.
func (app *Application) Stop() { app.running = false }

// Pause pauses emulation.
func (app *Application) Pause() { app.paused = true }

// Resume resumes emulation.
func (app *Application) Resume() { app.paused = false }

// TogglePause flips the paused state.
func (app *Application) TogglePause() { app.paused = !app.paused }

// Reset resets the console.
func (app *Application) Reset() {
	if app.console != nil {
		app.console.Reset()
	}
}

// IsRunning reports whether the main loop is active.
func (app *Application) IsRunning() bool { return app.running }

// IsPaused reports whether emulation is paused.
func (app *Application) IsPaused() bool { return app.paused }

// GetFPS returns the most recently measured frames-per-second.
func (app *Application) GetFPS() float64 { return app.currentFPS }

// GetFrameCount returns the total number of frames run.
func (app *Application) GetFrameCount() uint64 { return app.frameCount }

// GetUptime returns how long the application has been running.
func (app *Application) GetUptime() time.Duration { return time.Since(app.startTime) }

// GetROMPath returns the currently loaded ROM path.
func (app *Application) GetROMPath() string { return app.romPath }

// GetConfig returns the application configuration.
func (app *Application) GetConfig() *Config { return app.config }

// GetConsole returns the underlying console for direct access (tests,
// advanced front ends).
func (app *Application) GetConsole() *console.Console { return app.console }

// Cleanup releases all resources and shuts down the application.
func (app *Application) Cleanup() error {
	var lastErr error

	if app.states != nil {
		if err := app.states.Cleanup(); err != nil {
			lastErr = err
		}
	}
	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
		}
	}
	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
		}
	}

	app.initialized = false
	return lastErr
}
