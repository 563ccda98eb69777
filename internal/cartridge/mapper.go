package cartridge

// Mapper is the bank-switching interface every cartridge chip implements.
// The Bus and PPU talk to a cartridge exclusively through this interface;
// there is no back-reference from a Mapper to the Bus or PPU. MMC3's
// scanline IRQ instead observes PPU address traffic through
// ClockPPUAddress, which the PPU calls on each pattern-table fetch.
type Mapper interface {
	ReadPRG(addr uint16) uint8
	WritePRG(addr uint16, value uint8)
	ReadCHR(addr uint16) uint8
	WriteCHR(addr uint16, value uint8)

	// Mirroring reports the cartridge's current nametable mirroring mode;
	// it may change dynamically (MMC1, MMC3, AxROM).
	Mirroring() Mirroring

	// IRQPending reports whether the mapper currently asserts its IRQ
	// line (MMC3 only; MMC5 stores its IRQ registers but never raises the
	// line; always false otherwise).
	IRQPending() bool

	// ClockPPUAddress is called by the PPU on every pattern-table access
	// (background or sprite pattern fetch, or a $2007 access below $2000)
	// and whenever a $2006/$2007 access updates v, so that A12-edge
	// mappers (MMC3) and fetch-latched mappers (MMC2) can observe
	// address-line transitions they would otherwise miss. Nametable,
	// attribute and palette accesses are not reported.
	ClockPPUAddress(addr uint16)
}

// SaveState/LoadState are implemented per-mapper as a concrete struct
// (returned via an any) rather than a shared interface method, since each
// mapper's register set differs; internal/console's save-state encoder
// type-switches on the concrete mapper type.

func newMapper(id uint8, cart *Cartridge, flags6 uint8) (Mapper, error) {
	fourScreen := flags6&0x08 != 0
	vertical := flags6&0x01 != 0

	initialMirroring := MirrorHorizontal
	if fourScreen {
		initialMirroring = MirrorFourScreen
	} else if vertical {
		initialMirroring = MirrorVertical
	}

	switch id {
	case 0:
		return newMapper0(cart, initialMirroring), nil
	case 1:
		return newMapper1(cart, initialMirroring), nil
	case 2:
		return newMapper2(cart, initialMirroring), nil
	case 3:
		return newMapper3(cart, initialMirroring), nil
	case 4:
		return newMapper4(cart, initialMirroring), nil
	case 5:
		return newMapper5(cart, initialMirroring), nil
	case 7:
		return newMapper7(cart), nil
	case 9:
		return newMapper9(cart, initialMirroring), nil
	case 11:
		return newMapper11(cart, initialMirroring), nil
	case 66:
		return newMapper66(cart, initialMirroring), nil
	default:
		return nil, errMapper(id)
	}
}

// bankMod returns idx modulo count, treating count==0 as 1 bank; an
// out-of-range bank select wraps instead of faulting.
func bankMod(idx, count int) int {
	if count <= 0 {
		return 0
	}
	return idx % count
}
