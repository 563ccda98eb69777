// Package bus implements the system bus: the CPU's 16-bit address-space
// decode, OAM-DMA, and the wiring between the CPU, PPU, APU, controller
// ports, and the loaded cartridge.
package bus

import (
	"github.com/mp3/ccnes/internal/apu"
	"github.com/mp3/ccnes/internal/cartridge"
	"github.com/mp3/ccnes/internal/cpu"
	"github.com/mp3/ccnes/internal/input"
	"github.com/mp3/ccnes/internal/memory"
	"github.com/mp3/ccnes/internal/ppu"
)

// Cartridge is the subset of *cartridge.Cartridge the bus depends on,
// local so the bus package doesn't need the concrete loader type for its
// own address-decode logic.
type Cartridge interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, v uint8)
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, v uint8)
	Mirroring() cartridge.Mirroring
	IRQPending() bool
	ClockPPUAddress(addr uint16)
}

// Bus connects the CPU, PPU, APU, controller ports, and cartridge through
// the NES's memory-mapped address space, and coordinates their relative
// clock rates (PPU at 3x CPU speed, APU at 1x).
type Bus struct {
	CPU   *cpu.CPU
	PPU   *ppu.PPU
	APU   *apu.APU
	Input *input.InputState

	ram  [0x0800]byte
	cart Cartridge

	nmiPending bool

	dmaPage  uint8
	dmaCycle int // -1 when idle; counts up through the 512 copy micro-cycles

	cpuCycles  uint64
	frameCount uint64
}

// New creates a system bus with no cartridge loaded. Load the cartridge
// with LoadCartridge before stepping.
func New() *Bus {
	b := &Bus{
		PPU:      ppu.New(),
		APU:      apu.New(),
		Input:    input.NewInputState(),
		dmaCycle: -1,
	}
	b.PPU.SetNMICallback(b.triggerNMI)
	b.PPU.SetFrameCompleteCallback(b.handleFrameComplete)
	b.CPU = cpu.New(b)
	b.APU.SetBusReadFunc(b.dmcRead)
	b.APU.SetStallFunc(b.CPU.Stall)
	return b
}

// LoadCartridge installs a cartridge and wires its mirroring mode into
// the PPU-side memory fabric, then resets the system.
func (b *Bus) LoadCartridge(cart Cartridge) {
	b.cart = cart
	b.PPU.SetMemory(memory.NewPPUMemory(cart.Mirroring()))
	b.PPU.SetCartridge(cart)
	b.Reset()
}

// Reset resets all components to their initial state.
func (b *Bus) Reset() {
	b.CPU.Reset()
	b.PPU.Reset()
	b.APU.Reset()
	b.Input.Reset()

	b.nmiPending = false
	b.dmaCycle = -1
	b.cpuCycles = 0
	b.frameCount = 0
}

func (b *Bus) triggerNMI() { b.nmiPending = true }

func (b *Bus) handleFrameComplete() { b.frameCount = b.PPU.FrameCount() }

// dmcRead is the DMC channel's CPU-bus sample fetch callback.
func (b *Bus) dmcRead(addr uint16) uint8 { return b.Read(addr) }

// Read implements cpu.Bus: decodes a CPU address into RAM, PPU
// registers, APU registers, controller ports, or the cartridge.
func (b *Bus) Read(addr uint16) uint8 {
	switch {
	case addr < 0x2000:
		return b.ram[addr&0x07FF]
	case addr < 0x4000:
		return b.PPU.ReadRegister(0x2000 + (addr & 0x0007))
	case addr == 0x4015:
		return b.APU.ReadStatus()
	case addr == 0x4016, addr == 0x4017:
		return b.Input.Read(addr)
	case addr < 0x4018:
		return 0
	case addr < 0x4020:
		return 0
	default:
		if b.cart != nil {
			return b.cart.ReadPRG(addr)
		}
		return 0
	}
}

// Write implements cpu.Bus.
func (b *Bus) Write(addr uint16, v uint8) {
	switch {
	case addr < 0x2000:
		b.ram[addr&0x07FF] = v
	case addr < 0x4000:
		b.PPU.WriteRegister(0x2000+(addr&0x0007), v)
	case addr == 0x4014:
		b.startOAMDMA(v)
	case addr == 0x4016:
		b.Input.Write(addr, v)
	case addr == 0x4017:
		b.APU.WriteRegister(addr, v)
		b.Input.Write(addr, v) // frame-counter write shares $4017 with controller 2 read
	case addr < 0x4018:
		b.APU.WriteRegister(addr, v)
	case addr < 0x4020:
		// disabled test-mode range
	default:
		if b.cart != nil {
			b.cart.WritePRG(addr, v)
		}
	}
}

// startOAMDMA begins a 256-byte transfer from CPU RAM page `page` into
// PPU OAM. Real hardware stalls the CPU for 513 cycles, or 514 if the
// write landed on an odd CPU cycle; the stall is charged to the CPU and
// consumed one cycle per Step call rather than performed as an instant
// memcpy against wall-clock time, so interleaved PPU/APU ticks during the
// stall stay cycle-accurate.
func (b *Bus) startOAMDMA(page uint8) {
	b.dmaPage = page
	cycles := 513
	if b.cpuCycles%2 == 1 {
		cycles = 514
	}
	b.CPU.Stall(cycles)
	b.dmaCycle = 0
}

// Step runs one CPU step (instruction or stalled cycle), then advances
// the PPU 3x and the APU 1x per CPU cycle consumed, servicing any
// pending NMI/mapper IRQ first.
func (b *Bus) Step() int {
	if b.dmaCycle >= 0 {
		b.serviceOAMDMAStep()
	}

	if b.nmiPending {
		b.CPU.TriggerNMI()
		b.nmiPending = false
	}
	// The IRQ line is the wired-OR of the APU frame counter, the DMC,
	// and the cartridge mapper.
	irq := b.APU.GetFrameIRQ() || b.APU.GetDMCIRQ()
	if b.cart != nil {
		irq = irq || b.cart.IRQPending()
	}
	b.CPU.SetIRQLine(irq)

	cpuCycles := b.CPU.Step()

	for i := 0; i < cpuCycles*3; i++ {
		b.PPU.Step()
	}
	for i := 0; i < cpuCycles; i++ {
		b.APU.Step()
	}

	b.cpuCycles += uint64(cpuCycles)
	return cpuCycles
}

// serviceOAMDMAStep copies one byte on every second call while the DMA
// stall is counting down, landing the full 256-byte transfer inside the 513/514
// stalled cycles a real transfer takes (two cycles per byte, plus one
// alignment cycle and the possible odd-cycle cycle).
func (b *Bus) serviceOAMDMAStep() {
	if b.dmaCycle >= 512 {
		b.dmaCycle = -1
		return
	}
	if b.dmaCycle%2 == 1 {
		byteIndex := uint8(b.dmaCycle / 2)
		srcAddr := uint16(b.dmaPage)<<8 + uint16(byteIndex)
		b.PPU.WriteOAM(byteIndex, b.Read(srcAddr))
	}
	b.dmaCycle++
}

// RunFrame runs the system until one PPU frame has completed.
func (b *Bus) RunFrame() {
	target := b.frameCount + 1
	for b.frameCount < target {
		b.Step()
	}
}

// FrameBuffer returns the current PPU frame buffer.
func (b *Bus) FrameBuffer() [256 * 240]uint32 {
	return b.PPU.GetFrameBuffer()
}

// PullAudio drains up to len(out) resampled audio samples from the APU.
func (b *Bus) PullAudio(out []float64) int {
	return b.APU.PullAudio(out)
}

// CycleCount returns the total CPU cycles executed since reset.
func (b *Bus) CycleCount() uint64 { return b.cpuCycles }

// FrameCount returns the number of frames the PPU has completed.
func (b *Bus) FrameCount() uint64 { return b.frameCount }

// SetControllerButtons sets all button states for controller 1 or 2
// (1-indexed, matching the two physical controller ports).
func (b *Bus) SetControllerButtons(controller int, buttons [8]bool) {
	switch controller {
	case 1:
		b.Input.SetButtons1(buttons)
	case 2:
		b.Input.SetButtons2(buttons)
	}
}

// State is the save-state snapshot of everything the bus owns directly:
// CPU/PPU/APU/controller state, PPU nametable/palette RAM and OAM, CPU
// RAM, and DMA/timing bookkeeping. It does not include cartridge/mapper
// state, which the caller (internal/console) captures separately since
// the bus only holds the cartridge behind a narrow interface.
type State struct {
	CPU         cpu.State
	PPU         ppu.State
	PPUMemory   memory.State
	OAM         [256]uint8
	APU         apu.State
	Controller1 input.State
	Controller2 input.State
	RAM         [0x0800]byte
	NMIPending  bool
	DMAPage     uint8
	DMACycle    int
	CPUCycles   uint64
	FrameCount  uint64
}

// SaveState captures the bus's full state except the cartridge.
func (b *Bus) SaveState() State {
	return State{
		CPU:         b.CPU.SaveState(),
		PPU:         b.PPU.SaveState(),
		PPUMemory:   b.PPU.Memory().SaveState(),
		OAM:         b.PPU.OAM(),
		APU:         b.APU.SaveState(),
		Controller1: b.Input.Controller1.SaveState(),
		Controller2: b.Input.Controller2.SaveState(),
		RAM:         b.ram,
		NMIPending:  b.nmiPending,
		DMAPage:     b.dmaPage,
		DMACycle:    b.dmaCycle,
		CPUCycles:   b.cpuCycles,
		FrameCount:  b.frameCount,
	}
}

// LoadState restores a previously captured bus state.
func (b *Bus) LoadState(s State) {
	b.CPU.LoadState(s.CPU)
	b.PPU.LoadState(s.PPU)
	b.PPU.Memory().LoadState(s.PPUMemory)
	b.PPU.LoadOAM(s.OAM)
	b.APU.LoadState(s.APU)
	b.Input.Controller1.LoadState(s.Controller1)
	b.Input.Controller2.LoadState(s.Controller2)
	b.ram = s.RAM
	b.nmiPending = s.NMIPending
	b.dmaPage = s.DMAPage
	b.dmaCycle = s.DMACycle
	b.cpuCycles = s.CPUCycles
	b.frameCount = s.FrameCount
}
