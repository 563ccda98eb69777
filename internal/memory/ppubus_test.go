package memory

import (
	"testing"

	"github.com/mp3/ccnes/internal/cartridge"
)

func TestPaletteMirrorHole(t *testing.T) {
	m := NewPPUMemory(cartridge.MirrorHorizontal)
	mirrored := []uint16{0x3F10, 0x3F14, 0x3F18, 0x3F1C}
	for _, addr := range mirrored {
		base := addr - 0x10
		m.WritePalette(addr, 0x2A)
		if got := m.ReadPalette(base); got != 0x2A {
			t.Fatalf("write to %#x did not alias %#x: got %#x", addr, base, got)
		}
		m.WritePalette(base, 0x11)
		if got := m.ReadPalette(addr); got != 0x11 {
			t.Fatalf("write to %#x did not alias %#x: got %#x", base, addr, got)
		}
	}
}

func TestHorizontalMirroring(t *testing.T) {
	m := NewPPUMemory(cartridge.MirrorHorizontal)
	m.WriteNametable(0x2000, 0x42)
	if got := m.ReadNametable(0x2400); got != 0x42 {
		t.Fatalf("horizontal mirroring: table 0 and 1 should share storage, got %#x", got)
	}
	if got := m.ReadNametable(0x2800); got == 0x42 {
		t.Fatalf("horizontal mirroring: table 0 and 2 must not alias")
	}
}

func TestVerticalMirroring(t *testing.T) {
	m := NewPPUMemory(cartridge.MirrorVertical)
	m.WriteNametable(0x2000, 0x7B)
	if got := m.ReadNametable(0x2800); got != 0x7B {
		t.Fatalf("vertical mirroring: table 0 and 2 should share storage, got %#x", got)
	}
}

func TestSingleScreenMirroring(t *testing.T) {
	m := NewPPUMemory(cartridge.MirrorSingleLow)
	m.WriteNametable(0x2000, 0x01)
	for _, addr := range []uint16{0x2400, 0x2800, 0x2C00} {
		if got := m.ReadNametable(addr); got != 0x01 {
			t.Fatalf("single-screen-low: all tables should alias table 0, got %#x at %#x", got, addr)
		}
	}
}
