package cpu

import "testing"

// testBus is a flat 64KiB RAM used to exercise the CPU in isolation,
// mirroring the style of small fake-bus test harnesses used throughout
// this codebase's other package tests.
type testBus struct {
	mem [0x10000]byte
}

func (b *testBus) Read(addr uint16) uint8  { return b.mem[addr] }
func (b *testBus) Write(addr uint16, v uint8) { b.mem[addr] = v }

func (b *testBus) load(addr uint16, program []byte) {
	copy(b.mem[addr:], program)
}

func newTestCPU(resetVector uint16) (*CPU, *testBus) {
	bus := &testBus{}
	bus.mem[0xFFFC] = uint8(resetVector)
	bus.mem[0xFFFD] = uint8(resetVector >> 8)
	c := New(bus)
	c.Reset()
	return c, bus
}

func TestLDASTALDARoundTrip(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x42, 0x85, 0x10, 0xA5, 0x10})
	start := c.Cycles
	c.Step() // LDA #$42
	c.Step() // STA $10
	c.Step() // LDA $10
	if c.A != 0x42 {
		t.Fatalf("expected A=0x42, got %#x", c.A)
	}
	if bus.mem[0x10] != 0x42 {
		t.Fatalf("expected mem[0x10]=0x42, got %#x", bus.mem[0x10])
	}
	if got := c.Cycles - start; got != 2+3+3 {
		t.Fatalf("expected 8 cycles for LDA/STA/LDA, got %d", got)
	}
}

func TestBranchNotTakenVsTaken(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x00, 0xF0, 0x02, 0xA9, 0xFF, 0xA9, 0x42})
	c.Step() // LDA #$00 -> Z set
	if got := c.Step(); got != 3 {
		t.Fatalf("expected taken branch to cost 2+1 cycles, got %d", got)
	}
	c.Step() // LDA #$42
	if c.A != 0x42 {
		t.Fatalf("expected branch taken to skip to A=0x42, got %#x", c.A)
	}
}

func TestBranchTakenAcrossPageCostsTwoExtraCycles(t *testing.T) {
	c, bus := newTestCPU(0xC0F0)
	// BEQ +0x20 from $C0F0: target $C112 is on the next page.
	bus.load(0xC0F0, []byte{0xA9, 0x00, 0xF0, 0x1E})
	c.Step() // LDA #$00 -> Z set
	if got := c.Step(); got != 4 {
		t.Fatalf("expected taken page-crossing branch to cost 2+1+1 cycles, got %d", got)
	}
}

func TestBranchNotTaken(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x01, 0xF0, 0x02, 0xA9, 0xFF, 0xA9, 0x42})
	c.Step() // LDA #$01 -> Z clear
	c.Step() // BEQ +2 (not taken)
	c.Step() // LDA #$FF
	if c.A != 0xFF {
		t.Fatalf("expected branch not taken to fall through to A=0xFF, got %#x", c.A)
	}
}

func TestIndirectJMPPageWrapBug(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	// Pointer at $30FF wraps within page $30, reading hi byte from $3000
	// instead of $3100.
	bus.mem[0x30FF] = 0x00
	bus.mem[0x3000] = 0x40 // buggy hi byte
	bus.mem[0x3100] = 0x80 // correct hi byte, must NOT be used
	bus.load(0xC000, []byte{0x6C, 0xFF, 0x30})
	c.Step()
	if c.PC != 0x4000 {
		t.Fatalf("expected indirect JMP page-wrap bug to yield PC=0x4000, got %#x", c.PC)
	}
}

func TestNMIServicing(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.mem[0xFFFA] = 0x00
	bus.mem[0xFFFB] = 0xD0 // NMI vector -> 0xD000
	bus.load(0xC000, []byte{0xEA}) // NOP, never reached before NMI fires
	c.TriggerNMI()
	cycles := c.Step()
	if cycles != 7 {
		t.Fatalf("expected NMI servicing to cost 7 cycles, got %d", cycles)
	}
	if c.PC != 0xD000 {
		t.Fatalf("expected PC at NMI vector 0xD000, got %#x", c.PC)
	}
	if !c.I {
		t.Fatal("expected I flag set after NMI servicing")
	}
}

func TestIRQMaskedByIFlag(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.mem[0xFFFE] = 0x00
	bus.mem[0xFFFF] = 0xE0
	bus.load(0xC000, []byte{0xA9, 0x01}) // LDA #$01
	c.I = true
	c.SetIRQLine(true)
	c.Step()
	if c.PC == 0xE000 {
		t.Fatal("IRQ must not be serviced while I flag is set")
	}
	if c.A != 0x01 {
		t.Fatalf("expected LDA to execute normally, got A=%#x", c.A)
	}
}

func TestStallConsumesCyclesWithoutExecuting(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x01})
	c.Stall(3)
	for i := 0; i < 3; i++ {
		n := c.Step()
		if n != 1 {
			t.Fatalf("expected stall step to cost 1 cycle, got %d", n)
		}
	}
	if c.A != 0 {
		t.Fatal("A must be untouched while stalled")
	}
	c.Step()
	if c.A != 0x01 {
		t.Fatalf("expected LDA to run after stall drains, got A=%#x", c.A)
	}
}

func TestADCSetsCarryAndOverflow(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x7F, 0x69, 0x01}) // LDA #$7F; ADC #$01
	c.Step()
	c.Step()
	if c.A != 0x80 {
		t.Fatalf("expected A=0x80, got %#x", c.A)
	}
	if !c.V {
		t.Fatal("expected signed overflow (0x7F+0x01)")
	}
	if c.C {
		t.Fatal("expected no carry out of 0x7F+0x01")
	}
}

func TestSBCBorrowsWithoutCarryIn(t *testing.T) {
	c, bus := newTestCPU(0xC000)
	bus.load(0xC000, []byte{0xA9, 0x05, 0xE9, 0x01}) // LDA #$05; SBC #$01 with C clear
	c.Step()
	c.Step()
	if c.A != 0x03 {
		t.Fatalf("expected A=0x03 (5-1-borrow), got %#x", c.A)
	}
}
