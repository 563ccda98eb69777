package cartridge

// Mapper1 implements MMC1: a 5-bit serial shift register loaded one bit
// per write to $8000-$FFFF. The 5th write commits the accumulated value
// into one of four internal registers selected by bits 14-13 of the
// write address. A write with bit 7 set resets the shift register and
// forces PRG mode to "fix last bank."
type Mapper1 struct {
	cart      *Cartridge
	mirroring Mirroring

	shiftRegister uint8
	shiftCount    uint8

	control uint8 // mirroring(1:0) prgMode(3:2) chrMode(4)
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgRAMEnabled bool
	prgBanks      int
	chrBanks8k    int
}

func newMapper1(cart *Cartridge, mirroring Mirroring) *Mapper1 {
	m := &Mapper1{
		cart:          cart,
		mirroring:     mirroring,
		control:       0x0C, // power-on: PRG mode 3 (fix last bank)
		prgRAMEnabled: true,
		prgBanks:      len(cart.PRGROM) / 0x4000,
	}
	chrSize := len(cart.CHRROM)
	if cart.HasCHRRAM {
		chrSize = len(cart.CHRRAM)
	}
	m.chrBanks8k = chrSize / 0x2000
	if m.chrBanks8k == 0 {
		m.chrBanks8k = 1
	}
	return m
}

func (m *Mapper1) prgMode() uint8 { return (m.control >> 2) & 0x03 }
func (m *Mapper1) chrMode() uint8 { return (m.control >> 4) & 0x01 }

func (m *Mapper1) WritePRG(addr uint16, v uint8) {
	if addr >= 0x6000 && addr <= 0x7FFF {
		if m.prgRAMEnabled {
			m.cart.PRGRAM[addr-0x6000] = v
		}
		return
	}
	if addr < 0x8000 {
		return
	}

	if v&0x80 != 0 {
		m.shiftRegister = 0
		m.shiftCount = 0
		m.control |= 0x0C
		return
	}

	m.shiftRegister >>= 1
	m.shiftRegister |= (v & 0x01) << 4
	m.shiftCount++

	if m.shiftCount == 5 {
		m.writeRegister(addr, m.shiftRegister)
		m.shiftRegister = 0
		m.shiftCount = 0
	}
}

func (m *Mapper1) writeRegister(addr uint16, value uint8) {
	switch {
	case addr >= 0x8000 && addr <= 0x9FFF:
		m.control = value & 0x1F
		switch m.control & 0x03 {
		case 0:
			m.mirroring = MirrorSingleLow
		case 1:
			m.mirroring = MirrorSingleHigh
		case 2:
			m.mirroring = MirrorVertical
		case 3:
			m.mirroring = MirrorHorizontal
		}
	case addr >= 0xA000 && addr <= 0xBFFF:
		m.chrBank0 = value & 0x1F
	case addr >= 0xC000 && addr <= 0xDFFF:
		m.chrBank1 = value & 0x1F
	case addr >= 0xE000:
		m.prgBank = value & 0x0F
		m.prgRAMEnabled = value&0x10 == 0
	}
}

func (m *Mapper1) ReadPRG(addr uint16) uint8 {
	if addr >= 0x6000 && addr <= 0x7FFF {
		return m.cart.PRGRAM[addr-0x6000]
	}
	if addr < 0x8000 {
		return 0
	}

	var bank int
	var offset uint16

	switch m.prgMode() {
	case 0, 1:
		bank = bankMod(int(m.prgBank&0xFE), m.prgBanks)
		offset = addr - 0x8000
		if addr >= 0xC000 {
			bank = bankMod(int(m.prgBank|0x01), m.prgBanks)
			offset = addr - 0xC000
		}
		if addr < 0xC000 {
			offset = addr - 0x8000
		}
	case 2:
		if addr < 0xC000 {
			bank = 0
			offset = addr - 0x8000
		} else {
			bank = bankMod(int(m.prgBank), m.prgBanks)
			offset = addr - 0xC000
		}
	default: // 3: fix last bank at $C000
		if addr < 0xC000 {
			bank = bankMod(int(m.prgBank), m.prgBanks)
			offset = addr - 0x8000
		} else {
			bank = m.prgBanks - 1
			offset = addr - 0xC000
		}
	}
	return m.cart.PRGROM[bank*0x4000+int(offset)]
}

func (m *Mapper1) chrData() []byte {
	if m.cart.HasCHRRAM {
		return m.cart.CHRRAM
	}
	return m.cart.CHRROM
}

func (m *Mapper1) ReadCHR(addr uint16) uint8 {
	data := m.chrData()
	if m.chrMode() == 0 {
		bank := bankMod(int(m.chrBank0>>1), m.chrBanks8k)
		return data[bank*0x2000+int(addr)]
	}
	if addr < 0x1000 {
		bank := bankMod(int(m.chrBank0), m.chrBanks8k*2)
		return data[bank*0x1000+int(addr)]
	}
	bank := bankMod(int(m.chrBank1), m.chrBanks8k*2)
	return data[bank*0x1000+int(addr-0x1000)]
}

func (m *Mapper1) WriteCHR(addr uint16, v uint8) {
	if !m.cart.HasCHRRAM {
		return
	}
	data := m.chrData()
	if m.chrMode() == 0 {
		bank := bankMod(int(m.chrBank0>>1), m.chrBanks8k)
		data[bank*0x2000+int(addr)] = v
		return
	}
	if addr < 0x1000 {
		bank := bankMod(int(m.chrBank0), m.chrBanks8k*2)
		data[bank*0x1000+int(addr)] = v
		return
	}
	bank := bankMod(int(m.chrBank1), m.chrBanks8k*2)
	data[bank*0x1000+int(addr-0x1000)] = v
}

func (m *Mapper1) Mirroring() Mirroring        { return m.mirroring }
func (m *Mapper1) IRQPending() bool            { return false }
func (m *Mapper1) ClockPPUAddress(addr uint16) {}

// Mapper1State is the save-state snapshot for MMC1: the serial shift
// register and its bit count, the four committed registers, and the
// PRG-RAM write-enable latch.
type Mapper1State struct {
	Mirroring     Mirroring
	ShiftRegister uint8
	ShiftCount    uint8
	Control       uint8
	ChrBank0      uint8
	ChrBank1      uint8
	PrgBank       uint8
	PrgRAMEnabled bool
}

func (m *Mapper1) SaveState() any {
	return Mapper1State{
		Mirroring:     m.mirroring,
		ShiftRegister: m.shiftRegister,
		ShiftCount:    m.shiftCount,
		Control:       m.control,
		ChrBank0:      m.chrBank0,
		ChrBank1:      m.chrBank1,
		PrgBank:       m.prgBank,
		PrgRAMEnabled: m.prgRAMEnabled,
	}
}

func (m *Mapper1) LoadState(s Mapper1State) {
	m.mirroring = s.Mirroring
	m.shiftRegister = s.ShiftRegister
	m.shiftCount = s.ShiftCount
	m.control = s.Control
	m.chrBank0 = s.ChrBank0
	m.chrBank1 = s.ChrBank1
	m.prgBank = s.PrgBank
	m.prgRAMEnabled = s.PrgRAMEnabled
}
