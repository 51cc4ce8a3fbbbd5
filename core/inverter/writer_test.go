package inverter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/solischarge/core/window"
)

func legacySlots() []window.Slot {
	return []window.Slot{
		{ChargeCurrent: "60", DischargeCurrent: "100", ChargeStartTime: "23:30", ChargeEndTime: "05:30", DischargeStartTime: "00:00", DischargeEndTime: "00:00"},
		window.SentinelSlot(),
		window.SentinelSlot(),
	}
}

func TestSerializedWriterOneInFlightPerDevice(t *testing.T) {
	var inflight, peak int32
	next := WriterFunc(func(ctx context.Context, device string, _ window.Layout, _ []window.Slot) error {
		n := atomic.AddInt32(&inflight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inflight, -1)
		return nil
	})
	w := NewSerializedWriter(next)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, w.WriteSchedule(context.Background(), "inv-1", window.LayoutLegacy, legacySlots()))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestSerializedWriterDevicesIndependent(t *testing.T) {
	release := make(chan struct{})
	started := make(chan string, 2)
	next := WriterFunc(func(ctx context.Context, device string, _ window.Layout, _ []window.Slot) error {
		started <- device
		<-release
		return nil
	})
	w := NewSerializedWriter(next)
	var wg sync.WaitGroup
	for _, d := range []string{"a", "b"} {
		wg.Add(1)
		go func(d string) {
			defer wg.Done()
			_ = w.WriteSchedule(context.Background(), d, window.LayoutLegacy, legacySlots())
		}(d)
	}
	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case d := <-started:
			got[d] = true
		case <-time.After(time.Second):
			t.Fatal("writes to different devices should not block each other")
		}
	}
	close(release)
	wg.Wait()
	assert.Len(t, got, 2)
}

func TestSerializedWriterContextCancelled(t *testing.T) {
	release := make(chan struct{})
	next := WriterFunc(func(ctx context.Context, _ string, _ window.Layout, _ []window.Slot) error {
		<-release
		return nil
	})
	w := NewSerializedWriter(next)
	done := make(chan struct{})
	go func() {
		_ = w.WriteSchedule(context.Background(), "inv", window.LayoutLegacy, legacySlots())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := w.WriteSchedule(ctx, "inv", window.LayoutLegacy, legacySlots())
	require.ErrorIs(t, err, context.DeadlineExceeded)
	close(release)
	<-done
}

func TestValidatingWriter(t *testing.T) {
	called := false
	v := ValidatingWriter{Next: WriterFunc(func(context.Context, string, window.Layout, []window.Slot) error {
		called = true
		return nil
	})}
	require.NoError(t, v.WriteSchedule(context.Background(), "inv", window.LayoutLegacy, legacySlots()))
	assert.True(t, called)

	called = false
	bad := legacySlots()
	bad[1].ChargeStartTime = "13:15"
	bad[1].ChargeEndTime = "14:00"
	err := v.WriteSchedule(context.Background(), "inv", window.LayoutLegacy, bad)
	assert.ErrorIs(t, err, window.ErrMisaligned)
	assert.False(t, called)

	err = v.WriteSchedule(context.Background(), "inv", window.LayoutExtended, legacySlots())
	assert.ErrorIs(t, err, window.ErrSlotCount)
}
