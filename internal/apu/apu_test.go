package apu

import "testing"

func TestPulseChannelProducesOutputAfterRegisterWrites(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01) // enable pulse1
	a.WriteRegister(0x4000, 0x3F) // constant volume 15, duty 0
	a.WriteRegister(0x4002, 0x00)
	a.WriteRegister(0x4003, 0x01) // timer high + length load

	if a.pulse1.lengthCounter == 0 {
		t.Fatal("expected length counter to be loaded from table")
	}
	if a.pulse1.sequencerPos != 0 {
		t.Fatal("expected the $4003 write to restart the duty sequencer")
	}
}

func TestFrameCounterFiresIRQInFourStepMode(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x00) // 4-step mode, IRQ enabled

	for i := 0; i < 29830; i++ {
		a.stepFrameCounter()
	}
	if !a.GetFrameIRQ() {
		t.Fatal("expected frame IRQ flag set after 29830 frame-counter cycles in 4-step mode")
	}
}

func TestFrameCounterFiveStepModeNeverSetsIRQ(t *testing.T) {
	a := New()
	a.WriteRegister(0x4017, 0x80) // 5-step mode

	for i := 0; i < 37281; i++ {
		a.stepFrameCounter()
	}
	if a.GetFrameIRQ() {
		t.Fatal("5-step mode must never set the frame IRQ flag")
	}
}

func TestWriteFrameCounterFiveStepModeClocksImmediately(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x30) // halt length counter (envelope loop)
	a.pulse1.lengthCounter = 10
	a.pulse2.lengthCounter = 10 // not halted
	a.WriteRegister(0x4017, 0x80) // 5-step mode: should immediately clock length/sweep

	if a.pulse1.lengthCounter != 10 {
		t.Fatalf("length-halted channel should not decrement, got %d", a.pulse1.lengthCounter)
	}
	if a.pulse2.lengthCounter != 9 {
		t.Fatalf("expected the immediate half-frame clock to decrement an unhalted length counter to 9, got %d", a.pulse2.lengthCounter)
	}
}

func TestStatusRegisterReflectsLengthCountersAndClearsFrameIRQ(t *testing.T) {
	a := New()
	a.pulse1.lengthCounter = 5
	a.frameIRQFlag = true

	status := a.ReadStatus()
	if status&0x01 == 0 {
		t.Fatal("expected pulse1 length-counter-active bit set")
	}
	if status&0x40 == 0 {
		t.Fatal("expected frame IRQ bit set on first read")
	}
	if a.GetFrameIRQ() {
		t.Fatal("expected reading status to clear the frame IRQ flag")
	}
}

func TestDMCFetchesThroughBusReadAndStallsCPU(t *testing.T) {
	a := New()
	mem := map[uint16]uint8{0xC000: 0xAA}
	a.SetBusReadFunc(func(addr uint16) uint8 { return mem[addr] })

	stalls := 0
	a.SetStallFunc(func(cycles int) { stalls += cycles })

	a.WriteRegister(0x4012, 0x00) // sample address = 0xC000
	a.WriteRegister(0x4013, 0x00) // sample length = 1 byte
	a.WriteRegister(0x4010, 0x00) // rate index 0
	a.WriteRegister(0x4015, 0x10) // enable DMC

	for i := 0; i < int(dmcRateTable[0])+1; i++ {
		a.stepDMCTimer(&a.dmc)
	}

	if a.dmc.sampleBuffer == 0 && a.dmc.sampleBufferBits == 0 {
		t.Fatal("expected DMC to have loaded a sample byte via the bus callback")
	}
	if stalls == 0 {
		t.Fatal("expected a DMC fetch to stall the CPU")
	}
}

func TestMixChannelsProducesBoundedOutput(t *testing.T) {
	a := New()
	sample := a.mixChannels(15, 15, 15, 15, 127)
	if sample < -1.5 || sample > 1.5 {
		t.Fatalf("mixer output out of expected range: %f", sample)
	}
}

func TestPullAudioZeroFillsOnUnderrun(t *testing.T) {
	a := New()
	out := make([]float64, 64)
	n := a.PullAudio(out)
	if n != 0 {
		t.Fatalf("expected no samples available yet, got %d", n)
	}
	for _, s := range out {
		if s != 0 {
			t.Fatal("expected zero-fill on underrun")
		}
	}
}

func TestSteppingAPUProducesPullableAudio(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x3F)
	a.WriteRegister(0x4002, 0x20)
	a.WriteRegister(0x4003, 0x00)

	for i := 0; i < 100000; i++ {
		a.Step()
	}

	out := make([]float64, 32)
	n := a.PullAudio(out)
	if n == 0 {
		t.Fatal("expected stepping the APU to have produced at least some resampled output")
	}
}

func TestPulseTimerTicksEveryOtherCPUCycle(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4002, 0x00) // period 0: the sequencer advances on every timer tick
	a.WriteRegister(0x4003, 0x00)

	pos := a.pulse1.sequencerPos
	a.Step() // odd CPU cycle: pulse timer idle
	if a.pulse1.sequencerPos != pos {
		t.Fatal("pulse timer must not tick on odd CPU cycles")
	}
	a.Step() // even CPU cycle: timer ticks, sequencer advances
	if a.pulse1.sequencerPos == pos {
		t.Fatal("pulse timer must tick on even CPU cycles")
	}
}

func TestSweepTargetOverflowMutesPulse(t *testing.T) {
	a := New()
	a.WriteRegister(0x4015, 0x01)
	a.WriteRegister(0x4000, 0x3F) // duty 0, constant volume 15
	a.WriteRegister(0x4001, 0x01) // shift 1, no negate
	a.pulse1.lengthCounter = 10
	a.pulse1.sequencerPos = 1 // duty 0's single high step

	a.pulse1.timer = 0x600 // target = 0x600 + 0x300 > 0x7FF
	if a.getPulseOutput(&a.pulse1, true) != 0 {
		t.Fatal("expected pulse muted when sweep target exceeds 11 bits")
	}

	a.pulse1.timer = 0x100
	if a.getPulseOutput(&a.pulse1, true) == 0 {
		t.Fatal("expected pulse audible when sweep target is in range")
	}
}

func TestSweepDoesNotAdjustPeriodWhileMuted(t *testing.T) {
	a := New()
	a.WriteRegister(0x4001, 0x81) // enabled, shift 1, no negate
	a.pulse1.timer = 0x600        // target overflows: muted
	a.pulse1.sweepCounter = 0
	a.clockPulseSweep(&a.pulse1, true)
	if a.pulse1.timer != 0x600 {
		t.Fatalf("muted sweep must not adjust the period, got %#x", a.pulse1.timer)
	}
}
