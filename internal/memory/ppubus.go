// Package memory implements the PPU-side nametable/palette memory fabric:
// 2 KiB of nametable VRAM remapped through the cartridge's mirroring mode,
// plus 32 bytes of palette RAM with its documented mirror-hole quirk.
package memory

import "github.com/mp3/ccnes/internal/cartridge"

// PPUMemory holds the PPU's internal VRAM and palette RAM. Pattern-table
// reads/writes ($0000-$1FFF) are not stored here; they pass through to the
// cartridge's mapper.
type PPUMemory struct {
	vram       [0x800]byte
	paletteRAM [32]byte
	mirroring  cartridge.Mirroring
}

// NewPPUMemory creates zero-initialized nametable/palette RAM.
func NewPPUMemory(mirroring cartridge.Mirroring) *PPUMemory {
	return &PPUMemory{mirroring: mirroring}
}

// SetMirroring updates the active mirroring mode; mappers such as MMC1
// and MMC3 change this dynamically.
func (m *PPUMemory) SetMirroring(mode cartridge.Mirroring) { m.mirroring = mode }

// ReadNametable reads a byte from nametable space ($2000-$2FFF before
// mirroring into the 4 KiB window, or any address in $2000-$3EFF after
// the caller has masked to that range).
func (m *PPUMemory) ReadNametable(addr uint16) uint8 {
	return m.vram[m.nametableIndex(addr)]
}

// WriteNametable writes a byte to nametable space.
func (m *PPUMemory) WriteNametable(addr uint16, v uint8) {
	m.vram[m.nametableIndex(addr)] = v
}

// nametableIndex maps a $2000-$2FFF (or mirrored $3000-$3EFF) address into
// the physical 2 KiB VRAM array according to the current mirroring mode.
func (m *PPUMemory) nametableIndex(addr uint16) uint16 {
	addr &= 0x0FFF // fold $3000-$3EFF mirror of $2000-$2EFF
	table := addr / 0x400
	offset := addr % 0x400

	var physicalTable uint16
	switch m.mirroring {
	case cartridge.MirrorHorizontal:
		physicalTable = table / 2 // tables {0,1}->0, {2,3}->1
	case cartridge.MirrorVertical:
		physicalTable = table % 2 // tables {0,2}->0, {1,3}->1
	case cartridge.MirrorSingleLow:
		physicalTable = 0
	case cartridge.MirrorSingleHigh:
		physicalTable = 1
	case cartridge.MirrorFourScreen:
		// Four-screen expects extra cartridge RAM; this implementation
		// provides only the on-PPU 2KiB, so fold each table onto itself
		// modulo the two physical banks (closest safe approximation).
		physicalTable = table % 2
	default:
		physicalTable = table / 2
	}
	return physicalTable*0x400 + offset
}

// ReadPalette reads palette RAM, applying the background-color mirror
// quirk: $3F10/$3F14/$3F18/$3F1C alias $3F00/$3F04/$3F08/$3F0C.
func (m *PPUMemory) ReadPalette(addr uint16) uint8 {
	return m.paletteRAM[m.paletteIndex(addr)]
}

// WritePalette writes palette RAM honoring the same mirror quirk (writes
// to a mirrored hole also land in its base cell).
func (m *PPUMemory) WritePalette(addr uint16, v uint8) {
	m.paletteRAM[m.paletteIndex(addr)] = v
}

func (m *PPUMemory) paletteIndex(addr uint16) uint16 {
	index := addr & 0x1F
	if index >= 0x10 && index%4 == 0 {
		index &= 0x0F
	}
	return index
}

// State is the save-state snapshot of nametable VRAM, palette RAM, and
// the active mirroring mode.
type State struct {
	VRAM       [0x800]byte
	PaletteRAM [32]byte
	Mirroring  cartridge.Mirroring
}

// SaveState captures the nametable/palette RAM contents.
func (m *PPUMemory) SaveState() State {
	return State{VRAM: m.vram, PaletteRAM: m.paletteRAM, Mirroring: m.mirroring}
}

// LoadState restores a previously captured nametable/palette RAM state.
func (m *PPUMemory) LoadState(s State) {
	m.vram = s.VRAM
	m.paletteRAM = s.PaletteRAM
	m.mirroring = s.Mirroring
}
