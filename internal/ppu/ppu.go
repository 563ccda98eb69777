// Package ppu implements the Picture Processing Unit: register dispatch
// for $2000-$2007, a per-dot background pipeline driven by the v/t/x/w
// scroll registers and four 16-bit shift registers, sprite evaluation
// with the 8-sprite limit and overflow flag, sprite-0 hit detection, and
// VBlank/NMI edge timing.
package ppu

import (
	"github.com/mp3/ccnes/internal/cartridge"
	"github.com/mp3/ccnes/internal/memory"
)

// Cartridge is the subset of cartridge.Cartridge the PPU needs for
// pattern-table access, mirroring lookup, and mapper notification.
type Cartridge interface {
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, v uint8)
	Mirroring() cartridge.Mirroring
	ClockPPUAddress(addr uint16)
}

// PPU represents the 2C02 Picture Processing Unit.
type PPU struct {
	ppuCtrl   uint8
	ppuMask   uint8
	ppuStatus uint8
	oamAddr   uint8

	v uint16
	t uint16
	x uint8
	w bool

	mem  *memory.PPUMemory
	cart Cartridge

	scanline   int
	cycle      int
	frameCount uint64
	oddFrame   bool
	readBuffer uint8

	// Background pipeline: the four per-tile fetch latches feeding the
	// four 16-bit shift registers the pixel is extracted from.
	nametableByte    uint8
	attributeByte    uint8
	patternLowByte   uint8
	patternHighByte  uint8
	patternLowShift  uint16
	patternHighShift uint16
	attribLowShift   uint16
	attribHighShift  uint16

	// Sprite pipeline: secondary OAM filled by evaluation, and the eight
	// fetched sprite units used while rendering the following scanline.
	oam               [256]uint8
	secondaryOAM      [32]uint8
	spriteCount       uint8
	spritePatternLow  [8]uint8
	spritePatternHigh [8]uint8
	spriteAttributes  [8]uint8
	spriteX           [8]uint8
	spriteIndexes     [8]uint8

	frameBuffer [256 * 240]uint32

	nmiCallback           func()
	frameCompleteCallback func()

	backgroundEnabled bool
	spritesEnabled    bool
	renderingEnabled  bool

	cycleCount uint64

	// nmiPending and vblankRace implement the VBL-set/NMI race: the dot
	// that sets PPUSTATUS bit 7 defers the NMI callback by one Step(),
	// so a $2002 read landing on that exact dot (vblankRace still true)
	// can cancel both before the callback fires.
	nmiPending bool
	vblankRace bool
}

// New creates a PPU positioned at the pre-render scanline.
func New() *PPU {
	return &PPU{scanline: -1}
}

// Reset restores power-on PPU state.
func (p *PPU) Reset() {
	p.ppuCtrl, p.ppuMask = 0, 0
	p.ppuStatus = 0xA0
	p.oamAddr = 0
	p.v, p.t, p.x, p.w = 0, 0, 0, false
	p.scanline, p.cycle = -1, 0
	p.frameCount, p.oddFrame = 0, false
	p.readBuffer = 0
	p.nametableByte, p.attributeByte = 0, 0
	p.patternLowByte, p.patternHighByte = 0, 0
	p.patternLowShift, p.patternHighShift = 0, 0
	p.attribLowShift, p.attribHighShift = 0, 0
	p.spriteCount = 0
	p.backgroundEnabled, p.spritesEnabled, p.renderingEnabled = false, false, false
	p.cycleCount = 0
	p.nmiPending, p.vblankRace = false, false
	for i := range p.oam {
		p.oam[i] = 0
	}
	for i := range p.secondaryOAM {
		p.secondaryOAM[i] = 0xFF
	}
	for i := range p.frameBuffer {
		p.frameBuffer[i] = 0
	}
}

// SetMemory wires the nametable/palette RAM fabric.
func (p *PPU) SetMemory(mem *memory.PPUMemory) { p.mem = mem }

// SetCartridge wires the cartridge for pattern-table reads/writes and
// ClockPPUAddress notification.
func (p *PPU) SetCartridge(cart Cartridge) { p.cart = cart }

// SetNMICallback sets the callback invoked when VBlank NMI fires.
func (p *PPU) SetNMICallback(cb func()) { p.nmiCallback = cb }

// SetFrameCompleteCallback sets the callback invoked once per rendered frame.
func (p *PPU) SetFrameCompleteCallback(cb func()) { p.frameCompleteCallback = cb }

// ReadRegister reads a CPU-visible PPU register ($2000-$2007).
func (p *PPU) ReadRegister(addr uint16) uint8 {
	switch addr {
	case 0x2002:
		status := p.ppuStatus
		if p.vblankRace {
			// Reading PPUSTATUS on the exact dot VBlank would be set
			// observes it clear and suppresses this frame's NMI
			// (hardware "VBL flag race").
			status &^= 0x80
			p.ppuStatus &^= 0x80
			p.nmiPending = false
			p.vblankRace = false
		}
		p.ppuStatus &^= 0x80
		p.w = false
		return status
	case 0x2004:
		return p.oam[p.oamAddr]
	case 0x2007:
		return p.readPPUData()
	default:
		return p.ppuStatus & 0x1F
	}
}

// WriteRegister writes a CPU-visible PPU register ($2000-$2007).
func (p *PPU) WriteRegister(addr uint16, v uint8) {
	switch addr {
	case 0x2000:
		p.ppuCtrl = v
		p.t = (p.t & 0xF3FF) | ((uint16(v) & 0x03) << 10)
		if v&0x80 == 0 {
			// Clearing the NMI-enable bit while an edge is still queued
			// deasserts the line (software "NMI cancel").
			p.nmiPending = false
		} else if p.ppuStatus&0x80 != 0 && p.nmiCallback != nil {
			// Enabling NMI while VBlank is already set fires immediately.
			p.nmiCallback()
		}
	case 0x2001:
		p.ppuMask = v
		p.updateRenderingFlags()
	case 0x2003:
		p.oamAddr = v
	case 0x2004:
		if p.renderingEnabled && p.scanline < 240 {
			// OAM writes mid-render corrupt on hardware; drop them.
			return
		}
		p.oam[p.oamAddr] = v
		p.oamAddr++
	case 0x2005:
		p.writeScroll(v)
	case 0x2006:
		p.writeAddr(v)
	case 0x2007:
		p.writeData(v)
	}
}

// WriteOAM writes directly into OAM (used by OAM-DMA).
func (p *PPU) WriteOAM(addr uint8, v uint8) { p.oam[addr] = v }

// Step advances the PPU by one PPU cycle (1/3 of a CPU cycle on NTSC).
func (p *PPU) Step() {
	p.cycleCount++

	// Deliver an NMI edge latched on the previous dot once its one-dot
	// race window (see vblankRace below) has closed without a
	// suppressing $2002 read.
	if p.nmiPending {
		p.nmiPending = false
		if p.nmiCallback != nil {
			p.nmiCallback()
		}
	}
	p.vblankRace = false

	p.cycle++
	if p.scanline == -1 && p.cycle == 339 && p.oddFrame && p.backgroundEnabled {
		// On odd frames with background rendering enabled, the
		// pre-render scanline is one dot shorter: dot 339 is skipped.
		p.cycle++
	}
	if p.cycle > 340 {
		p.cycle = 0
		p.scanline++
		if p.scanline > 260 {
			p.scanline = -1
			p.frameCount++
			p.oddFrame = !p.oddFrame
			if p.frameCompleteCallback != nil {
				p.frameCompleteCallback()
			}
		}
	}

	if p.scanline == 241 && p.cycle == 1 {
		p.ppuStatus |= 0x80
		p.vblankRace = true
		if p.ppuCtrl&0x80 != 0 {
			p.nmiPending = true
		}
	}

	if p.scanline == -1 && p.cycle == 1 {
		// Pre-render dot 1 clears VBlank, sprite-0 hit, and overflow.
		p.ppuStatus &= 0x1F
	}

	p.pipeline()
}

// pipeline performs the per-dot rendering work for the pre-render and
// visible scanlines: pixel output, background tile fetches and shifts,
// scroll-register increments/copies, and sprite evaluation.
func (p *PPU) pipeline() {
	preRender := p.scanline == -1
	visibleLine := p.scanline >= 0 && p.scanline < 240
	if !preRender && !visibleLine {
		return
	}
	if !p.renderingEnabled || p.mem == nil {
		return
	}

	visibleDot := p.cycle >= 1 && p.cycle <= 256
	fetchDot := visibleDot || (p.cycle >= 321 && p.cycle <= 336)

	if visibleLine && visibleDot {
		p.renderPixel()
	}

	if fetchDot {
		p.patternLowShift <<= 1
		p.patternHighShift <<= 1
		p.attribLowShift <<= 1
		p.attribHighShift <<= 1

		// Each 8-dot group performs nametable, attribute, pattern-low,
		// and pattern-high fetches in order, loading the shift registers
		// (and stepping coarse X) at the group boundary.
		switch p.cycle % 8 {
		case 1:
			p.nametableByte = p.readPPUBus(0x2000 | p.v&0x0FFF)
		case 3:
			attrAddr := 0x23C0 | (p.v & 0x0C00) | ((p.v >> 4) & 0x38) | ((p.v >> 2) & 0x07)
			quadShift := ((p.v >> 5 & 0x02) | (p.v >> 1 & 0x01)) << 1
			p.attributeByte = p.readPPUBus(attrAddr) >> quadShift & 0x03
		case 5:
			p.patternLowByte = p.readPatternByte(p.tileAddr())
		case 7:
			p.patternHighByte = p.readPatternByte(p.tileAddr() + 8)
		case 0:
			p.patternLowShift = p.patternLowShift&0xFF00 | uint16(p.patternLowByte)
			p.patternHighShift = p.patternHighShift&0xFF00 | uint16(p.patternHighByte)
			p.attribLowShift = p.attribLowShift&0xFF00 | uint16(p.attributeByte&0x01)*0xFF
			p.attribHighShift = p.attribHighShift&0xFF00 | uint16(p.attributeByte>>1)*0xFF
			p.incrementX()
		}
	}

	switch {
	case p.cycle == 256:
		p.incrementY()
	case p.cycle == 257:
		p.copyX()
	case preRender && p.cycle >= 280 && p.cycle <= 304:
		p.copyY()
	}

	if p.cycle >= 257 && p.cycle <= 320 {
		// OAMADDR is zeroed throughout the sprite tile loading interval.
		p.oamAddr = 0
	}

	if visibleLine {
		switch p.cycle {
		case 1:
			for i := range p.secondaryOAM {
				p.secondaryOAM[i] = 0xFF
			}
		case 257:
			p.evaluateSprites()
		}
	}
}

// tileAddr computes the pattern-table address of the current tile row
// from the nametable byte and fine Y.
func (p *PPU) tileAddr() uint16 {
	var base uint16
	if p.ppuCtrl&0x10 != 0 {
		base = 0x1000
	}
	fineY := p.v >> 12 & 0x07
	return base + uint16(p.nametableByte)*16 + fineY
}

// incrementX steps coarse X in v, wrapping into the horizontally
// adjacent nametable at column 31.
func (p *PPU) incrementX() {
	if p.v&0x001F == 31 {
		p.v &^= 0x001F
		p.v ^= 0x0400
	} else {
		p.v++
	}
}

// incrementY steps fine Y in v, overflowing into coarse Y; row 29 wraps
// to 0 and toggles the vertical nametable, row 31 wraps without toggling.
func (p *PPU) incrementY() {
	if p.v&0x7000 != 0x7000 {
		p.v += 0x1000
		return
	}
	p.v &^= 0x7000
	coarseY := (p.v & 0x03E0) >> 5
	switch coarseY {
	case 29:
		coarseY = 0
		p.v ^= 0x0800
	case 31:
		coarseY = 0
	default:
		coarseY++
	}
	p.v = p.v&^0x03E0 | coarseY<<5
}

// copyX copies the horizontal bits (coarse X and horizontal nametable)
// of t into v.
func (p *PPU) copyX() {
	p.v = p.v&^0x041F | p.t&0x041F
}

// copyY copies the vertical bits (fine Y, coarse Y, vertical nametable)
// of t into v.
func (p *PPU) copyY() {
	p.v = p.v&^0x7BE0 | p.t&0x7BE0
}

func (p *PPU) renderPixel() {
	x := p.cycle - 1
	y := p.scanline

	bgPixel, bgPalette := p.backgroundPixel(x)
	spPixel, spPalette, spBehind, spSlot := p.spritePixel(x)

	var paletteAddr uint16
	switch {
	case bgPixel == 0 && spPixel == 0:
		paletteAddr = 0x3F00
	case bgPixel == 0:
		paletteAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spPixel)
	case spPixel == 0:
		paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
	default:
		if p.spriteIndexes[spSlot] == 0 && x < 255 {
			p.ppuStatus |= 0x40
		}
		if spBehind {
			paletteAddr = 0x3F00 + uint16(bgPalette)*4 + uint16(bgPixel)
		} else {
			paletteAddr = 0x3F10 + uint16(spPalette)*4 + uint16(spPixel)
		}
	}

	p.frameBuffer[y*256+x] = NESColorToRGB(p.mem.ReadPalette(paletteAddr))
}

// backgroundPixel extracts the 2-bit pattern and 2-bit palette of the
// current background dot from bit 15-x of the shift registers.
func (p *PPU) backgroundPixel(x int) (pixel, palette uint8) {
	if !p.backgroundEnabled || (x < 8 && p.ppuMask&0x02 == 0) {
		return 0, 0
	}
	bit := 15 - uint16(p.x)
	lo := uint8(p.patternLowShift >> bit & 1)
	hi := uint8(p.patternHighShift >> bit & 1)
	alo := uint8(p.attribLowShift >> bit & 1)
	ahi := uint8(p.attribHighShift >> bit & 1)
	return hi<<1 | lo, ahi<<1 | alo
}

// spritePixel returns the first in-range opaque sprite pixel at x, along
// with its palette, its behind-background priority bit, and which of the
// eight sprite units produced it.
func (p *PPU) spritePixel(x int) (pixel, palette uint8, behind bool, slot int) {
	if !p.spritesEnabled || (x < 8 && p.ppuMask&0x04 == 0) {
		return 0, 0, false, 0
	}
	for i := 0; i < int(p.spriteCount); i++ {
		offset := x - int(p.spriteX[i])
		if offset < 0 || offset > 7 {
			continue
		}
		bit := uint(7 - offset)
		if p.spriteAttributes[i]&0x40 != 0 {
			bit = uint(offset)
		}
		px := (p.spritePatternHigh[i]>>bit&1)<<1 | p.spritePatternLow[i]>>bit&1
		if px == 0 {
			continue
		}
		return px, p.spriteAttributes[i] & 0x03, p.spriteAttributes[i]&0x20 != 0, i
	}
	return 0, 0, false, 0
}

// evaluateSprites scans primary OAM for the up-to-eight sprites in range
// of the next scanline, fills secondary OAM, and fetches each unit's
// pattern row. Slots past the last in-range sprite still perform the
// dummy tile-$FF fetch so the pattern-table address traffic (and thus an
// MMC3 cartridge's A12 scanline counter) matches hardware.
func (p *PPU) evaluateSprites() {
	height := 8
	if p.ppuCtrl&0x20 != 0 {
		height = 16
	}

	count := 0
	for i := 0; i < 64; i++ {
		o := i * 4
		row := p.scanline - int(p.oam[o])
		if row < 0 || row >= height {
			continue
		}
		if count == 8 {
			p.ppuStatus |= 0x20
			break
		}
		copy(p.secondaryOAM[count*4:count*4+4], p.oam[o:o+4])
		p.spriteIndexes[count] = uint8(i)
		p.spriteAttributes[count] = p.oam[o+2]
		p.spriteX[count] = p.oam[o+3]
		p.spritePatternLow[count], p.spritePatternHigh[count] = p.fetchSpriteRow(p.oam[o+1], p.oam[o+2], row, height)
		count++
	}
	p.spriteCount = uint8(count)

	for s := count; s < 8; s++ {
		p.fetchSpriteRow(0xFF, 0, 0, height)
	}
}

// fetchSpriteRow reads one row of a sprite's pattern data, honoring
// vertical flip and the 8x16 tile-selection rule (the tile number's low
// bit picks the pattern table, and tile pairs are consecutive).
func (p *PPU) fetchSpriteRow(tile, attr uint8, row, height int) (lo, hi uint8) {
	if attr&0x80 != 0 {
		row = height - 1 - row
	}
	var base uint16
	if height == 16 {
		if tile&0x01 != 0 {
			base = 0x1000
		}
		tile &= 0xFE
		if row >= 8 {
			tile++
			row -= 8
		}
	} else if p.ppuCtrl&0x08 != 0 {
		base = 0x1000
	}
	addr := base + uint16(tile)*16 + uint16(row)
	return p.readPatternByte(addr), p.readPatternByte(addr + 8)
}

func (p *PPU) updateRenderingFlags() {
	p.backgroundEnabled = p.ppuMask&0x08 != 0
	p.spritesEnabled = p.ppuMask&0x10 != 0
	p.renderingEnabled = p.backgroundEnabled || p.spritesEnabled
}

func (p *PPU) writeScroll(v uint8) {
	if !p.w {
		p.t = (p.t & 0xFFE0) | (uint16(v) >> 3)
		p.x = v & 0x07
		p.w = true
	} else {
		p.t = (p.t & 0x8FFF) | ((uint16(v) & 0x07) << 12)
		p.t = (p.t & 0xFC1F) | ((uint16(v) & 0xF8) << 2)
		p.w = false
	}
}

func (p *PPU) writeAddr(v uint8) {
	if !p.w {
		p.t = (p.t & 0x80FF) | ((uint16(v) & 0x3F) << 8)
		p.w = true
	} else {
		p.t = (p.t & 0xFF00) | uint16(v)
		p.v = p.t
		p.w = false
		if p.cart != nil {
			p.cart.ClockPPUAddress(p.v)
		}
	}
}

func (p *PPU) readPPUData() uint8 {
	var data uint8
	if p.mem == nil {
		data = 0
	} else if p.v >= 0x3F00 {
		// Palette reads are immediate but refresh the latch with the
		// nametable byte shadowed underneath the palette window.
		data = p.readPPUBus(p.v)
		p.readBuffer = p.readPPUBus(p.v & 0x2FFF)
	} else {
		data = p.readBuffer
		p.readBuffer = p.readPPUBus(p.v)
	}
	p.advanceAddr()
	return data
}

func (p *PPU) writeData(v uint8) {
	if p.mem != nil {
		p.writePPUBus(p.v, v)
	}
	p.advanceAddr()
}

func (p *PPU) advanceAddr() {
	if p.ppuCtrl&0x04 != 0 {
		p.v += 32
	} else {
		p.v++
	}
	p.v &= 0x3FFF
	if p.cart != nil {
		p.cart.ClockPPUAddress(p.v)
	}
}

// readPPUBus/writePPUBus route a full 14-bit PPU address to pattern
// tables ($0000-$1FFF, cartridge), nametables/mirrors ($2000-$3EFF,
// PPUMemory), or palette RAM ($3F00-$3FFF, PPUMemory).
func (p *PPU) readPPUBus(addr uint16) uint8 {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		return p.readPatternByte(addr)
	case addr < 0x3F00:
		p.syncMirroring()
		return p.mem.ReadNametable(addr)
	default:
		return p.mem.ReadPalette(addr)
	}
}

func (p *PPU) writePPUBus(addr uint16, v uint8) {
	addr &= 0x3FFF
	switch {
	case addr < 0x2000:
		if p.cart != nil {
			p.cart.WriteCHR(addr, v)
		}
	case addr < 0x3F00:
		p.syncMirroring()
		p.mem.WriteNametable(addr, v)
	default:
		p.mem.WritePalette(addr, v)
	}
}

// syncMirroring refreshes the nametable fabric's mirroring mode from the
// cartridge before each nametable access, since MMC1/MMC3/AxROM switch
// it at runtime.
func (p *PPU) syncMirroring() {
	if p.cart != nil {
		p.mem.SetMirroring(p.cart.Mirroring())
	}
}

func (p *PPU) readPatternByte(addr uint16) uint8 {
	if p.cart == nil {
		return 0
	}
	p.cart.ClockPPUAddress(addr)
	return p.cart.ReadCHR(addr)
}

// GetFrameBuffer returns the current 256x240 RGB frame buffer.
func (p *PPU) GetFrameBuffer() [256 * 240]uint32 { return p.frameBuffer }

// FrameCount returns the number of frames rendered since Reset.
func (p *PPU) FrameCount() uint64 { return p.frameCount }

// Scanline/Cycle report the PPU's current raster position.
func (p *PPU) Scanline() int { return p.scanline }
func (p *PPU) Cycle() int    { return p.cycle }

// IsRenderingEnabled reports whether background or sprite rendering is on.
func (p *PPU) IsRenderingEnabled() bool { return p.renderingEnabled }

// IsVBlank reports the current state of the VBlank status flag.
func (p *PPU) IsVBlank() bool { return p.ppuStatus&0x80 != 0 }

// Memory returns the PPU's nametable/palette RAM fabric, for save-state
// capture.
func (p *PPU) Memory() *memory.PPUMemory { return p.mem }

// State is the save-state snapshot of the PPU's registers, scroll
// latches, raster position, and the background/sprite pipeline latches.
// It does not include nametable/palette RAM or OAM, which are captured
// separately via Memory().SaveState() and OAM()/LoadOAM().
type State struct {
	PPUCtrl, PPUMask, PPUStatus, OAMAddr uint8
	V, T                                 uint16
	X                                    uint8
	W                                    bool
	Scanline, Cycle                      int
	FrameCount                           uint64
	OddFrame                             bool
	ReadBuffer                           uint8

	NametableByte    uint8
	AttributeByte    uint8
	PatternLowByte   uint8
	PatternHighByte  uint8
	PatternLowShift  uint16
	PatternHighShift uint16
	AttribLowShift   uint16
	AttribHighShift  uint16

	SecondaryOAM      [32]uint8
	SpriteCount       uint8
	SpritePatternLow  [8]uint8
	SpritePatternHigh [8]uint8
	SpriteAttributes  [8]uint8
	SpriteX           [8]uint8
	SpriteIndexes     [8]uint8

	BackgroundEnabled bool
	SpritesEnabled    bool
	RenderingEnabled  bool
	CycleCount        uint64
	NMIPending        bool
	VBlankRace        bool
}

// SaveState captures the PPU's register, raster-position, and pipeline
// state.
func (p *PPU) SaveState() State {
	return State{
		PPUCtrl: p.ppuCtrl, PPUMask: p.ppuMask, PPUStatus: p.ppuStatus, OAMAddr: p.oamAddr,
		V: p.v, T: p.t, X: p.x, W: p.w,
		Scanline: p.scanline, Cycle: p.cycle, FrameCount: p.frameCount, OddFrame: p.oddFrame,
		ReadBuffer:        p.readBuffer,
		NametableByte:     p.nametableByte,
		AttributeByte:     p.attributeByte,
		PatternLowByte:    p.patternLowByte,
		PatternHighByte:   p.patternHighByte,
		PatternLowShift:   p.patternLowShift,
		PatternHighShift:  p.patternHighShift,
		AttribLowShift:    p.attribLowShift,
		AttribHighShift:   p.attribHighShift,
		SecondaryOAM:      p.secondaryOAM,
		SpriteCount:       p.spriteCount,
		SpritePatternLow:  p.spritePatternLow,
		SpritePatternHigh: p.spritePatternHigh,
		SpriteAttributes:  p.spriteAttributes,
		SpriteX:           p.spriteX,
		SpriteIndexes:     p.spriteIndexes,
		BackgroundEnabled: p.backgroundEnabled,
		SpritesEnabled:    p.spritesEnabled,
		RenderingEnabled:  p.renderingEnabled,
		CycleCount:        p.cycleCount,
		NMIPending:        p.nmiPending,
		VBlankRace:        p.vblankRace,
	}
}

// LoadState restores a previously captured PPU state.
func (p *PPU) LoadState(s State) {
	p.ppuCtrl, p.ppuMask, p.ppuStatus, p.oamAddr = s.PPUCtrl, s.PPUMask, s.PPUStatus, s.OAMAddr
	p.v, p.t, p.x, p.w = s.V, s.T, s.X, s.W
	p.scanline, p.cycle, p.frameCount, p.oddFrame = s.Scanline, s.Cycle, s.FrameCount, s.OddFrame
	p.readBuffer = s.ReadBuffer
	p.nametableByte = s.NametableByte
	p.attributeByte = s.AttributeByte
	p.patternLowByte = s.PatternLowByte
	p.patternHighByte = s.PatternHighByte
	p.patternLowShift = s.PatternLowShift
	p.patternHighShift = s.PatternHighShift
	p.attribLowShift = s.AttribLowShift
	p.attribHighShift = s.AttribHighShift
	p.secondaryOAM = s.SecondaryOAM
	p.spriteCount = s.SpriteCount
	p.spritePatternLow = s.SpritePatternLow
	p.spritePatternHigh = s.SpritePatternHigh
	p.spriteAttributes = s.SpriteAttributes
	p.spriteX = s.SpriteX
	p.spriteIndexes = s.SpriteIndexes
	p.backgroundEnabled = s.BackgroundEnabled
	p.spritesEnabled = s.SpritesEnabled
	p.renderingEnabled = s.RenderingEnabled
	p.cycleCount = s.CycleCount
	p.nmiPending = s.NMIPending
	p.vblankRace = s.VBlankRace
}

// OAM returns a copy of primary OAM (256 bytes), for save-state capture.
func (p *PPU) OAM() [256]uint8 { return p.oam }

// LoadOAM restores primary OAM from a previously captured snapshot.
func (p *PPU) LoadOAM(oam [256]uint8) { p.oam = oam }
