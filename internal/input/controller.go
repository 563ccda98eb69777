// Package input implements standard NES controller handling: the
// strobe/shift-register protocol exposed at $4016/$4017.
package input

// Button represents an NES controller button.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller represents a single NES controller.
type Controller struct {
	buttons uint8

	shiftRegister uint8
	strobe        bool

	buttonSnapshot uint8
	bitPosition    uint8
}

// New creates a new Controller instance.
func New() *Controller {
	return &Controller{}
}

// SetButton sets the state of a single button.
func (c *Controller) SetButton(button Button, pressed bool) {
	if pressed {
		c.buttons |= uint8(button)
	} else {
		c.buttons &^= uint8(button)
	}
}

// SetButtons sets all eight button states at once, in NES order:
// A, B, Select, Start, Up, Down, Left, Right.
func (c *Controller) SetButtons(buttons [8]bool) {
	c.buttons = 0
	order := [8]Button{ButtonA, ButtonB, ButtonSelect, ButtonStart, ButtonUp, ButtonDown, ButtonLeft, ButtonRight}
	for i, pressed := range buttons {
		if pressed {
			c.buttons |= uint8(order[i])
		}
	}
}

// IsPressed returns true if the button is currently pressed.
func (c *Controller) IsPressed(button Button) bool {
	return (c.buttons & uint8(button)) != 0
}

// Write handles writes to the controller strobe register.
func (c *Controller) Write(value uint8) {
	wasStrobe := c.strobe
	c.strobe = (value & 1) != 0

	if c.strobe {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttons
		c.bitPosition = 0
	} else if wasStrobe {
		c.buttonSnapshot = c.buttons
		c.shiftRegister = c.buttonSnapshot
		c.bitPosition = 0
	}
}

// Read handles reads from the controller data line, shifting out one
// button state per read and loading 1s into the vacated high bit, so
// reads past the eighth return 1. While strobe is held high, every read
// returns button A's current state and the shift position stays pinned
// at 0.
func (c *Controller) Read() uint8 {
	if c.strobe {
		c.bitPosition = 0
		return c.buttonSnapshot & 1
	}

	result := c.shiftRegister & 1
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	c.bitPosition++
	return result
}

// Reset resets the controller state.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
	c.buttonSnapshot = 0
	c.bitPosition = 0
}

// BitPosition returns the current shift position, for tests.
func (c *Controller) BitPosition() uint8 {
	return c.bitPosition
}

// State is the save-state snapshot of a single controller's button
// latch and shift-register position.
type State struct {
	Buttons        uint8
	ShiftRegister  uint8
	Strobe         bool
	ButtonSnapshot uint8
	BitPos         uint8
}

// SaveState captures the controller's current state.
func (c *Controller) SaveState() State {
	return State{
		Buttons:        c.buttons,
		ShiftRegister:  c.shiftRegister,
		Strobe:         c.strobe,
		ButtonSnapshot: c.buttonSnapshot,
		BitPos:         c.bitPosition,
	}
}

// LoadState restores a previously captured controller state.
func (c *Controller) LoadState(s State) {
	c.buttons = s.Buttons
	c.shiftRegister = s.ShiftRegister
	c.strobe = s.Strobe
	c.buttonSnapshot = s.ButtonSnapshot
	c.bitPosition = s.BitPos
}

// InputState aggregates both controller ports.
type InputState struct {
	Controller1 *Controller
	Controller2 *Controller
}

// NewInputState creates a new input state with two controllers.
func NewInputState() *InputState {
	return &InputState{
		Controller1: New(),
		Controller2: New(),
	}
}

// Reset resets all input devices.
func (is *InputState) Reset() {
	is.Controller1.Reset()
	is.Controller2.Reset()
}

// SetButtons1 sets all button states for controller 1.
func (is *InputState) SetButtons1(buttons [8]bool) {
	is.Controller1.SetButtons(buttons)
}

// SetButtons2 sets all button states for controller 2.
func (is *InputState) SetButtons2(buttons [8]bool) {
	is.Controller2.SetButtons(buttons)
}

// Read reads from a controller port ($4016 or $4017). Reads from $4017
// have bit 6 forced high, matching the open-bus behavior real NES
// hardware exhibits on that port.
func (is *InputState) Read(address uint16) uint8 {
	switch address {
	case 0x4016:
		return is.Controller1.Read()
	case 0x4017:
		return is.Controller2.Read() | 0x40
	default:
		return 0
	}
}

// Write writes to the controller strobe port ($4016). Both controllers
// share the same strobe line.
func (is *InputState) Write(address uint16, value uint8) {
	if address == 0x4016 {
		is.Controller1.Write(value)
		is.Controller2.Write(value)
	}
}
