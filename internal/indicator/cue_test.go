package indicator

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCueSamplesPresent(t *testing.T) {
	require.NotEmpty(t, cueSamples(cueStart))
	require.NotEmpty(t, cueSamples(cueStop))
	require.NotEmpty(t, cueSamples(cueFailed))
	require.Empty(t, cueSamples(cueKind(99)))
}

func TestSynthesizeToneDuration(t *testing.T) {
	got := synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0.2})
	require.Len(t, got, samplesForDuration(100*time.Millisecond))
	require.Equal(t, int16(0), got[0])
	require.Equal(t, int16(0), got[len(got)-1])
}

func TestSynthesizeToneInvalidSpecReturnsEmpty(t *testing.T) {
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 0, duration: 100 * time.Millisecond, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 0, volume: 0.2}))
	require.Empty(t, synthesizeTone(toneSpec{frequencyHz: 440, duration: 100 * time.Millisecond, volume: 0}))
}

func TestSynthesizeCueInsertsGapBetweenTones(t *testing.T) {
	tone := toneSpec{frequencyHz: 440, duration: 50 * time.Millisecond, volume: 0.2}
	got := synthesizeCue([]toneSpec{tone, tone})
	want := 2*samplesForDuration(50*time.Millisecond) + samplesForDuration(22*time.Millisecond)
	require.Len(t, got, want)
}

func TestSamplesForDuration(t *testing.T) {
	require.Equal(t, 0, samplesForDuration(0))
	require.Equal(t, 400, samplesForDuration(25*time.Millisecond))
}

func TestPlayerEmitsCuesInOrder(t *testing.T) {
	var mu sync.Mutex
	var played [][]int16
	p := NewPlayer(true, nil)
	p.play = func(samples []int16) error {
		mu.Lock()
		defer mu.Unlock()
		played = append(played, samples)
		return errors.New("no pulse server")
	}

	p.ListeningStarted()
	p.Wait()
	p.Failed()
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, played, 2)
	require.Equal(t, startCuePCM, played[0])
	require.Equal(t, failedCuePCM, played[1])
}

func TestDisabledPlayerIsSilent(t *testing.T) {
	p := NewPlayer(false, nil)
	p.play = func([]int16) error {
		t.Fatal("disabled player must not play")
		return nil
	}
	p.ListeningStarted()
	p.ListeningStopped()
	p.Wait()

	var nilPlayer *Player
	nilPlayer.Failed()
}
