package cartridge

// Mapper66 implements GxROM: one register, bits 0-1 select an 8 KiB CHR
// bank, bits 4-5 select a 32 KiB PRG bank, bus-conflicted. The register
// layout mirrors Color Dreams (mapper 11) with the PRG/CHR bit positions
// swapped.
type Mapper66 struct {
	cart      *Cartridge
	mirroring Mirroring
	prgBank   int
	chrBank   int
	prgBanks  int
	chrBanks  int
}

func newMapper66(cart *Cartridge, mirroring Mirroring) *Mapper66 {
	chrSize := len(cart.CHRROM)
	if cart.HasCHRRAM {
		chrSize = len(cart.CHRRAM)
	}
	chrBanks := chrSize / 0x2000
	if chrBanks == 0 {
		chrBanks = 1
	}
	return &Mapper66{
		cart:      cart,
		mirroring: mirroring,
		prgBanks:  len(cart.PRGROM) / 0x8000,
		chrBanks:  chrBanks,
	}
}

func (m *Mapper66) ReadPRG(addr uint16) uint8 {
	if addr < 0x8000 {
		return 0
	}
	bank := bankMod(m.prgBank, m.prgBanks)
	return m.cart.PRGROM[bank*0x8000+int(addr-0x8000)]
}

func (m *Mapper66) WritePRG(addr uint16, v uint8) {
	if addr < 0x8000 {
		return
	}
	actual := v & m.ReadPRG(addr)
	m.chrBank = int(actual & 0x03)
	m.prgBank = int((actual >> 4) & 0x03)
}

func (m *Mapper66) chrData() []byte {
	if m.cart.HasCHRRAM {
		return m.cart.CHRRAM
	}
	return m.cart.CHRROM
}

func (m *Mapper66) ReadCHR(addr uint16) uint8 {
	bank := bankMod(m.chrBank, m.chrBanks)
	return m.chrData()[bank*0x2000+int(addr)]
}

func (m *Mapper66) WriteCHR(addr uint16, v uint8) {
	if m.cart.HasCHRRAM {
		bank := bankMod(m.chrBank, m.chrBanks)
		m.chrData()[bank*0x2000+int(addr)] = v
	}
}

func (m *Mapper66) Mirroring() Mirroring        { return m.mirroring }
func (m *Mapper66) IRQPending() bool            { return false }
func (m *Mapper66) ClockPPUAddress(addr uint16) {}

// Mapper66State is the save-state snapshot for GxROM: the single
// register's decoded PRG and CHR bank fields.
type Mapper66State struct {
	Mirroring Mirroring
	PrgBank   int
	ChrBank   int
}

func (m *Mapper66) SaveState() any {
	return Mapper66State{Mirroring: m.mirroring, PrgBank: m.prgBank, ChrBank: m.chrBank}
}

func (m *Mapper66) LoadState(s Mapper66State) {
	m.mirroring = s.Mirroring
	m.prgBank = s.PrgBank
	m.chrBank = s.ChrBank
}
