package cpu

// operandAddress resolves the effective address for mode, advancing PC
// past the operand bytes, and reports whether resolving it crossed a
// page boundary (relevant only for the modes that incur a penalty cycle
// for it).
func (c *CPU) operandAddress(mode Mode) (addr uint16, pageCrossed bool) {
	switch mode {
	case Implicit, Accumulator:
		return 0, false

	case Immediate:
		addr = c.PC
		c.PC++
		return addr, false

	case ZeroPage:
		addr = uint16(c.bus.Read(c.PC))
		c.PC++
		return addr, false

	case ZeroPageX:
		addr = uint16(uint8(c.bus.Read(c.PC) + c.X))
		c.PC++
		return addr, false

	case ZeroPageY:
		addr = uint16(uint8(c.bus.Read(c.PC) + c.Y))
		c.PC++
		return addr, false

	case Absolute:
		addr = c.readWord(c.PC)
		c.PC += 2
		return addr, false

	case AbsoluteX:
		base := c.readWord(c.PC)
		c.PC += 2
		addr = base + uint16(c.X)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case AbsoluteY:
		base := c.readWord(c.PC)
		c.PC += 2
		addr = base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case Indirect:
		ptr := c.readWord(c.PC)
		c.PC += 2
		addr = c.readWordBuggy(ptr)
		return addr, false

	case IndirectX:
		zp := c.bus.Read(c.PC) + c.X
		c.PC++
		lo := uint16(c.bus.Read(uint16(zp)))
		hi := uint16(c.bus.Read(uint16(zp + 1)))
		addr = lo | hi<<8
		return addr, false

	case IndirectY:
		zp := c.bus.Read(c.PC)
		c.PC++
		lo := uint16(c.bus.Read(uint16(zp)))
		hi := uint16(c.bus.Read(uint16(zp + 1)))
		base := lo | hi<<8
		addr = base + uint16(c.Y)
		return addr, (base & 0xFF00) != (addr & 0xFF00)

	case Relative:
		offset := int8(c.bus.Read(c.PC))
		c.PC++
		addr = uint16(int32(c.PC) + int32(offset))
		return addr, false

	default:
		return 0, false
	}
}

// readWordBuggy reproduces the 6502 indirect-JMP page-wrap bug: if the
// pointer's low byte is 0xFF, the high byte is fetched from the start of
// the same page rather than the next page.
func (c *CPU) readWordBuggy(ptr uint16) uint16 {
	lo := uint16(c.bus.Read(ptr))
	var hiAddr uint16
	if ptr&0x00FF == 0x00FF {
		hiAddr = ptr & 0xFF00
	} else {
		hiAddr = ptr + 1
	}
	hi := uint16(c.bus.Read(hiAddr))
	return lo | hi<<8
}
