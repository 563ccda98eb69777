package cartridge

import (
	"bytes"
	"testing"
)

const validINESMagic = "NES\x1A"

func makeHeader(prgBanks, chrBanks, mapper, flags6 uint8) []byte {
	header := make([]byte, 16)
	copy(header[0:4], validINESMagic)
	header[4] = prgBanks
	header[5] = chrBanks
	header[6] = (mapper << 4) | (flags6 & 0x0F)
	header[7] = mapper & 0xF0
	return header
}

func makeROM(prgBanks, chrBanks, mapper, flags6 uint8) []byte {
	header := makeHeader(prgBanks, chrBanks, mapper, flags6)
	prg := make([]byte, int(prgBanks)*prgBankSize)
	for i := range prg {
		// XOR in the high byte so every bank's contents are distinct;
		// a plain low-byte pattern would repeat per bank and let a
		// broken bank select read back the expected value anyway.
		prg[i] = uint8(i) ^ uint8(i>>8)
	}
	rom := append(header, prg...)
	if chrBanks > 0 {
		chr := make([]byte, int(chrBanks)*chrBankSize)
		for i := range chr {
			chr[i] = uint8(i+7) ^ uint8(i>>8)
		}
		rom = append(rom, chr...)
	}
	return rom
}

func TestLoadRejectsBadMagic(t *testing.T) {
	rom := makeROM(1, 1, 0, 0)
	rom[0] = 'X'
	_, err := LoadFromReader(bytes.NewReader(rom))
	if err == nil {
		t.Fatal("expected error for bad magic")
	}
	lerr, ok := err.(*LoadError)
	if !ok || lerr.Kind != InvalidHeader {
		t.Fatalf("expected InvalidHeader, got %v", err)
	}
}

func TestLoadRejectsUnsupportedMapper(t *testing.T) {
	rom := makeROM(1, 1, 200, 0)
	_, err := LoadFromReader(bytes.NewReader(rom))
	lerr, ok := err.(*LoadError)
	if !ok || lerr.Kind != UnsupportedMapper {
		t.Fatalf("expected UnsupportedMapper, got %v", err)
	}
}

func TestCHRRAMAutoDetect(t *testing.T) {
	rom := makeROM(1, 0, 0, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.HasCHRRAM {
		t.Fatal("expected CHR-RAM when CHR bank count is 0")
	}
	cart.WriteCHR(0x1234, 0x55)
	if got := cart.ReadCHR(0x1234); got != 0x55 {
		t.Fatalf("CHR-RAM round trip failed: got %#x", got)
	}
}

func TestMapper0MirrorsSingleBank(t *testing.T) {
	rom := makeROM(1, 1, 0, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := cart.ReadPRG(0x8000), cart.ReadPRG(0xC000); got != want {
		t.Fatalf("single 16KiB bank should mirror: 0x8000=%#x 0xC000=%#x", got, want)
	}
}

func TestMapper0Mirroring(t *testing.T) {
	rom := makeROM(1, 1, 0, 0x01) // vertical
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Mirroring() != MirrorVertical {
		t.Fatalf("expected vertical mirroring, got %v", cart.Mirroring())
	}
}

func TestMapper1ShiftRegisterCommit(t *testing.T) {
	rom := makeROM(4, 1, 1, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Default control register is mode 3 (fix last bank at $C000); select
	// PRG bank 2 for the switchable $8000 window.
	writeMMC1(cart, 0xE000, 0x02)
	got := cart.ReadPRG(0x8000)
	want := cart.PRGROM[2*0x4000]
	if got != want {
		t.Fatalf("MMC1 PRG bank select failed: got %#x want %#x", got, want)
	}
}

// writeMMC1 performs a full 5-write shift-register sequence for value v.
func writeMMC1(cart *Cartridge, addr uint16, v uint8) {
	for i := 0; i < 5; i++ {
		bit := (v >> i) & 1
		cart.WritePRG(addr, bit)
	}
}

func TestMapper2BankSwitch(t *testing.T) {
	rom := makeROM(4, 0, 2, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Write where the ROM byte is 0xFF so the bus conflict's AND does
	// not mask the bank number.
	cart.WritePRG(0x80FF, 0x02)
	got := cart.ReadPRG(0x8000)
	want := cart.PRGROM[2*0x4000]
	if got != want {
		t.Fatalf("UxROM bank select failed: got %#x want %#x", got, want)
	}
	// Last bank always fixed at 0xC000.
	lastWant := cart.PRGROM[3*0x4000]
	if got := cart.ReadPRG(0xC000); got != lastWant {
		t.Fatalf("UxROM fixed last bank failed: got %#x want %#x", got, lastWant)
	}
}

func TestMapper3CHRBankSwitch(t *testing.T) {
	rom := makeROM(1, 4, 3, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart.WritePRG(0x80FF, 0x02) // ROM byte at $80FF is 0xFF: no AND masking
	got := cart.ReadCHR(0x0000)
	want := cart.CHRROM[2*chrBankSize]
	if got != want {
		t.Fatalf("CNROM bank select failed: got %#x want %#x", got, want)
	}
}

func TestMapper4IRQFiresOnA12Edges(t *testing.T) {
	rom := makeROM(4, 2, 4, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart.WritePRG(0xC000, 4) // IRQ latch = 4
	cart.WritePRG(0xC001, 0) // reload
	cart.WritePRG(0xE001, 0) // enable IRQ

	clockA12Edge := func() {
		for i := 0; i < a12FilterThreshold+1; i++ {
			cart.ClockPPUAddress(0x0000)
		}
		cart.ClockPPUAddress(0x1000)
	}

	// The first edge reloads the counter from the latch; the next four
	// count it down to zero, so latch=4 fires on the fifth edge.
	for i := 0; i < 5; i++ {
		if cart.IRQPending() {
			t.Fatalf("IRQ fired early at edge %d", i)
		}
		clockA12Edge()
	}
	if !cart.IRQPending() {
		t.Fatal("expected IRQ pending after 5 rising edges with latch=4")
	}
}

func TestMapper9CHRLatch(t *testing.T) {
	rom := makeROM(2, 4, 9, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart.WritePRG(0xB000, 1) // FD bank = 1
	cart.WritePRG(0xC000, 2) // FE bank = 2

	cart.ClockPPUAddress(0x0FD8) // simulate fetching tile $FD
	want := cart.CHRROM[1*0x1000]
	if got := cart.ReadCHR(0x0000); got != want {
		t.Fatalf("MMC2 FD latch failed: got %#x want %#x", got, want)
	}

	cart.ClockPPUAddress(0x0FE8) // simulate fetching tile $FE
	want = cart.CHRROM[2*0x1000]
	if got := cart.ReadCHR(0x0000); got != want {
		t.Fatalf("MMC2 FE latch failed: got %#x want %#x", got, want)
	}
}

func TestMapper11BusConflict(t *testing.T) {
	rom := makeROM(2, 2, 11, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// ROM byte at 0x8000 is 0 (PRG pattern starts at 0), so any write ANDs to 0.
	cart.WritePRG(0x8000, 0xFF)
	if got := cart.ReadPRG(0x8000); got != 0 {
		t.Fatalf("expected bank 0 after bus-conflicted write, got bank producing %#x", got)
	}
}

func TestMapper66BankSelect(t *testing.T) {
	rom := makeROM(4, 2, 66, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// ROM byte at 0x8000 is 0 (PRG pattern starts at 0), so the
	// bus-conflicted write of 0x33 (PRG bank 3, CHR bank 3) ANDs down to
	// 0 and both registers select bank 0.
	cart.WritePRG(0x8000, 0x33)
	wantPRG := cart.PRGROM[0]
	if got := cart.ReadPRG(0x8000); got != wantPRG {
		t.Fatalf("GxROM PRG bank select failed: got %#x want %#x", got, wantPRG)
	}
	wantCHR := cart.CHRROM[0]
	if got := cart.ReadCHR(0x0000); got != wantCHR {
		t.Fatalf("GxROM CHR bank select failed: got %#x want %#x", got, wantCHR)
	}
}

func TestMapper66UnconflictedBankSelect(t *testing.T) {
	rom := makeROM(4, 2, 66, 0)
	cart, err := LoadFromReader(bytes.NewReader(rom))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cart.WritePRG(0x80FF, 0x11) // PRG 32KiB bank 1, CHR 8KiB bank 1
	wantPRG := cart.PRGROM[0x8000]
	if got := cart.ReadPRG(0x8000); got != wantPRG {
		t.Fatalf("GxROM PRG bank select failed: got %#x want %#x", got, wantPRG)
	}
	wantCHR := cart.CHRROM[0x2000]
	if got := cart.ReadCHR(0x0000); got != wantCHR {
		t.Fatalf("GxROM CHR bank select failed: got %#x want %#x", got, wantCHR)
	}
}
