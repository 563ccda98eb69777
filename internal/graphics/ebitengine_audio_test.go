//go:build !headless
// +build !headless

package graphics

import "testing"

type fakeAudioSource struct {
	samples []float32
}

func (f *fakeAudioSource) AudioSampleRate() int { return 44100 }

func (f *fakeAudioSource) PullAudio(out []float32) int {
	n := copy(out, f.samples)
	f.samples = f.samples[n:]
	return n
}

func TestAudioStreamInterleavesStereoFromMonoSource(t *testing.T) {
	src := &fakeAudioSource{samples: []float32{0.5, -0.5}}
	stream := newAudioStream(src)

	buf := make([]byte, 2*bytesPerStereoFrame)
	n, err := stream.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("expected to fill the whole buffer, got %d of %d bytes", n, len(buf))
	}
}

func TestAudioStreamZeroFillsOnUnderrun(t *testing.T) {
	src := &fakeAudioSource{}
	stream := newAudioStream(src)

	buf := make([]byte, bytesPerStereoFrame)
	n, err := stream.Read(buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("expected zero-filled frame even with no samples available, got %d bytes", n)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zero-filled bytes on underrun, got %v", buf)
		}
	}
}
