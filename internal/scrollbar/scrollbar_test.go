package scrollbar

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduler struct {
	interval time.Duration
	fn       func()
	starts   int
	stops    int
}

func (f *fakeScheduler) Every(d time.Duration, fn func()) func() {
	f.interval = d
	f.fn = fn
	f.starts++
	stopped := false
	return func() {
		if !stopped {
			stopped = true
			f.stops++
		}
	}
}

func (f *fakeScheduler) tick() {
	if f.fn != nil {
		f.fn()
	}
}

func newTestController(sched Scheduler, scrolls *[]float64) *Controller {
	opts := Options{
		Orientation: Vertical,
		StepSize:    10,
		PageSize:    50,
		Scheduler:   sched,
	}
	if scrolls != nil {
		opts.OnScroll = func(_ Orientation, pos float64) { *scrolls = append(*scrolls, pos) }
	}
	return New(opts, Geometry{TroughStart: 0, TroughExtent: 100, SliderExtent: 20})
}

func TestStepClampsAtFarEdge(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	for i := 0; i < 20; i++ {
		require.NoError(t, c.Step(Forward))
	}
	assert.Equal(t, 80.0, c.SliderPosition())
	require.NoError(t, c.Step(Forward))
	assert.Equal(t, 80.0, c.SliderPosition())
	assert.Equal(t, 80.0, c.ScrollRange())
}

func TestPageClampsAtNearEdge(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	require.NoError(t, c.Page(Forward))
	assert.Equal(t, 50.0, c.SliderPosition())
	require.NoError(t, c.Page(Forward))
	assert.Equal(t, 80.0, c.SliderPosition())
	require.NoError(t, c.Page(Backward))
	require.NoError(t, c.Page(Backward))
	assert.Equal(t, 0.0, c.SliderPosition())
}

func TestDragWithoutMovementIsStable(t *testing.T) {
	var scrolls []float64
	c := newTestController(&fakeScheduler{}, &scrolls)
	require.NoError(t, c.Step(Forward))
	before := c.SliderPosition()
	scrolls = nil

	require.NoError(t, c.BeginDrag(17, ButtonPrimary))
	require.NoError(t, c.UpdateDrag(17))
	require.NoError(t, c.UpdateDrag(17))
	assert.Equal(t, before, c.SliderPosition())
	assert.Empty(t, scrolls)
	require.NoError(t, c.EndDrag())
	assert.Equal(t, Idle, c.State())
}

func TestDragFollowsGrabPoint(t *testing.T) {
	var scrolls []float64
	c := newTestController(&fakeScheduler{}, &scrolls)

	require.NoError(t, c.BeginDrag(5, ButtonPrimary))
	snap := c.Snapshot()
	require.NotNil(t, snap.DragOffset)
	assert.Equal(t, 5.0, *snap.DragOffset)

	require.NoError(t, c.UpdateDrag(35))
	assert.Equal(t, 30.0, c.SliderPosition())
	require.NoError(t, c.UpdateDrag(35))
	assert.Equal(t, 30.0, c.SliderPosition())

	require.NoError(t, c.UpdateDrag(500))
	assert.Equal(t, 80.0, c.SliderPosition())
	require.NoError(t, c.UpdateDrag(-500))
	assert.Equal(t, 0.0, c.SliderPosition())

	require.NoError(t, c.EndDrag())
	assert.Nil(t, c.Snapshot().DragOffset)
	assert.Equal(t, []float64{30, 80, 0}, scrolls)
}

func TestCancelDragRestoresPosition(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	require.NoError(t, c.Page(Forward))
	require.NoError(t, c.BeginDrag(60, ButtonPrimary))
	require.NoError(t, c.UpdateDrag(70))
	assert.Equal(t, 60.0, c.SliderPosition())
	require.NoError(t, c.CancelDrag())
	assert.Equal(t, 50.0, c.SliderPosition())
	assert.Equal(t, Idle, c.State())
}

func TestNonFinitePositionsRejected(t *testing.T) {
	var scrolls []float64
	c := newTestController(&fakeScheduler{}, &scrolls)

	assert.ErrorIs(t, c.BeginDrag(math.Inf(1), ButtonPrimary), ErrInvalidPosition)
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.BeginDrag(10, ButtonPrimary))
	require.NoError(t, c.UpdateDrag(40))
	assert.ErrorIs(t, c.UpdateDrag(math.NaN()), ErrInvalidPosition)
	assert.Equal(t, 30.0, c.SliderPosition())
	assert.Equal(t, Dragging, c.State())
	assert.Equal(t, []float64{30}, scrolls)

	require.NoError(t, c.EndDrag())
	require.NoError(t, c.Step(Forward))
	assert.Equal(t, 40.0, c.SliderPosition())
}

func TestSyncSnapsNaNToTroughStart(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	require.NoError(t, c.Page(Forward))
	c.Sync(math.NaN())
	assert.Equal(t, 0.0, c.SliderPosition())
	assert.Equal(t, 0.0, c.ScrollPosition())
}

func TestNonPrimaryButtonIgnored(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)
	require.NoError(t, c.BeginDrag(10, ButtonSecondary))
	assert.Equal(t, Idle, c.State())
	assert.ErrorIs(t, c.UpdateDrag(20), ErrState)
}

func TestStateErrors(t *testing.T) {
	c := newTestController(&fakeScheduler{}, nil)

	var se *StateError
	err := c.UpdateDrag(1)
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "UpdateDrag", se.Op)
	assert.Equal(t, Idle, se.State)

	assert.ErrorIs(t, c.EndDrag(), ErrState)
	assert.ErrorIs(t, c.CancelDrag(), ErrState)
	assert.ErrorIs(t, c.ReleaseButton(), ErrState)

	require.NoError(t, c.BeginDrag(0, ButtonPrimary))
	assert.ErrorIs(t, c.BeginDrag(0, ButtonPrimary), ErrState)
	assert.ErrorIs(t, c.Step(Forward), ErrState)
	assert.ErrorIs(t, c.Page(Forward), ErrState)
	assert.ErrorIs(t, c.PressButton(Forward), ErrState)
	require.NoError(t, c.EndDrag())
}

func TestPressButtonRepeatsUntilRelease(t *testing.T) {
	sched := &fakeScheduler{}
	var scrolls []float64
	c := newTestController(sched, &scrolls)

	require.NoError(t, c.PressButton(Forward))
	assert.Equal(t, Stepping, c.State())
	assert.Equal(t, DefaultRepeatInterval, sched.interval)
	assert.Equal(t, 10.0, c.SliderPosition())

	sched.tick()
	sched.tick()
	assert.Equal(t, 30.0, c.SliderPosition())

	require.NoError(t, c.ReleaseButton())
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, sched.stops)

	// a tick already in flight when the button was released does nothing
	sched.tick()
	assert.Equal(t, 30.0, c.SliderPosition())
	assert.Equal(t, []float64{10, 20, 30}, scrolls)
}

func TestLeaveButtonStopsStepping(t *testing.T) {
	sched := &fakeScheduler{}
	c := newTestController(sched, nil)

	c.LeaveButton() // not stepping: no-op
	assert.Equal(t, Idle, c.State())

	require.NoError(t, c.PressButton(Backward))
	assert.Equal(t, 0.0, c.SliderPosition())
	c.LeaveButton()
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 1, sched.stops)

	require.NoError(t, c.PressButton(Forward))
	old := sched.fn
	c.Close()
	assert.Equal(t, 2, sched.stops)
	old()
	assert.Equal(t, 10.0, c.SliderPosition())
}

func TestSetGeometryReclamps(t *testing.T) {
	var scrolls []float64
	c := newTestController(&fakeScheduler{}, &scrolls)
	require.NoError(t, c.Page(Forward))
	require.NoError(t, c.Page(Forward))
	scrolls = nil

	c.SetGeometry(Geometry{TroughStart: 0, TroughExtent: 100, SliderExtent: 50})
	assert.Equal(t, 50.0, c.SliderPosition())
	assert.Equal(t, []float64{50}, scrolls)

	c.SetGeometry(Geometry{TroughStart: 10, TroughExtent: 100, SliderExtent: 50})
	assert.Equal(t, 60.0, c.SliderPosition())
	assert.Equal(t, 50.0, c.ScrollPosition())
	assert.Len(t, scrolls, 1)

	c.SetGeometry(Geometry{TroughStart: 10, TroughExtent: 100, SliderExtent: 150})
	assert.Equal(t, 10.0, c.SliderPosition())
	assert.Equal(t, 0.0, c.ScrollRange())
}

func TestSyncDoesNotSignalScroll(t *testing.T) {
	var scrolls []float64
	var sliders []float64
	c := New(Options{
		StepSize: 1,
		OnScroll: func(_ Orientation, pos float64) { scrolls = append(scrolls, pos) },
		OnSlider: func(_ Orientation, pos, _ float64) { sliders = append(sliders, pos) },
	}, Geometry{TroughStart: 5, TroughExtent: 100, SliderExtent: 20})

	c.Sync(40)
	assert.Equal(t, 45.0, c.SliderPosition())
	c.Sync(1000)
	assert.Equal(t, 85.0, c.SliderPosition())
	assert.Empty(t, scrolls)
	assert.Equal(t, []float64{45, 85}, sliders)
}

func TestTickerSchedulerStops(t *testing.T) {
	var mu sync.Mutex
	var last float64
	c := New(Options{
		StepSize:       1,
		RepeatInterval: 2 * time.Millisecond,
		OnScroll: func(_ Orientation, pos float64) {
			mu.Lock()
			last = pos
			mu.Unlock()
		},
	}, Geometry{TroughExtent: 10000, SliderExtent: 10})

	require.NoError(t, c.PressButton(Forward))
	assert.Eventually(t, func() bool { return c.ScrollPosition() >= 5 }, time.Second, time.Millisecond)
	require.NoError(t, c.ReleaseButton())

	stopped := c.ScrollPosition()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, stopped, c.ScrollPosition())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, stopped, last)
}
