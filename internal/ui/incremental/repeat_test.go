package incremental

import (
	"strconv"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type counter struct {
	calls []int
}

func (c *counter) mapper(v int, i int) string {
	c.calls = append(c.calls, i)
	return strconv.Itoa(v)
}

func values(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func newRepeat(initial int) (*Repeat[int, string], *counter, *fakeClock) {
	c := &counter{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	r := New(c.mapper, Options{InitialCount: initial, TargetFrameRate: 30, Now: clock.Now})
	return r, c, clock
}

func runFrames(t *testing.T, r *Repeat[int, string], clock *fakeClock, step time.Duration) tea.Msg {
	t.Helper()
	for i := 0; i < 1000; i++ {
		clock.Advance(step)
		cmd := r.Update(r.Frame())
		require.NotNil(t, cmd)
		msg := cmd()
		if _, ok := msg.(FrameMsg); !ok {
			return msg
		}
	}
	t.Fatal("pass did not finish")
	return nil
}

func TestRepeat_RendersInitialCountSynchronously(t *testing.T) {
	r, c, _ := newRepeat(3)
	cmd := r.Render(values(10), All)

	assert.Equal(t, []string{"0", "1", "2"}, r.Items())
	assert.True(t, r.Running())
	require.NotNil(t, cmd)
	assert.IsType(t, FrameMsg{}, cmd())
	assert.Equal(t, []int{0, 1, 2}, c.calls)
}

func TestRepeat_CompletesAndReportsDone(t *testing.T) {
	r, c, clock := newRepeat(2)
	r.Render(values(20), All)

	msg := runFrames(t, r, clock, time.Millisecond)
	assert.Equal(t, DoneMsg{ID: r.ID(), Count: 20}, msg)
	assert.Len(t, r.Items(), 20)
	assert.Len(t, c.calls, 20, "every value is mapped exactly once")
	assert.False(t, r.Running())
}

func TestRepeat_SmallListIsDoneImmediately(t *testing.T) {
	r, _, _ := newRepeat(5)
	cmd := r.Render(values(3), All)
	require.NotNil(t, cmd)
	assert.Equal(t, DoneMsg{ID: r.ID(), Count: 3}, cmd())
	assert.False(t, r.Running())
}

func TestRepeat_SameValuesDoNotRestart(t *testing.T) {
	r, c, clock := newRepeat(2)
	vs := values(10)
	r.Render(vs, All)
	runFrames(t, r, clock, time.Millisecond)
	calls := len(c.calls)

	assert.Nil(t, r.Render(vs, All))
	assert.Len(t, c.calls, calls)
	assert.Len(t, r.Items(), 10)
}

func TestRepeat_NewValuesRestart(t *testing.T) {
	r, _, clock := newRepeat(2)
	first := values(10)
	r.Render(first, All)
	stale := r.Frame()

	second := []int{100, 101, 102, 103}
	r.Render(second, All)
	assert.Equal(t, []string{"100", "101"}, r.Items())

	assert.Nil(t, r.Update(stale), "frames of the previous pass are ignored")

	runFrames(t, r, clock, time.Millisecond)
	assert.Equal(t, []string{"100", "101", "102", "103"}, r.Items())
}

func TestRepeat_GrowingEndExtendsPass(t *testing.T) {
	r, c, clock := newRepeat(2)
	vs := values(30)
	r.Render(vs, 5)
	runFrames(t, r, clock, time.Millisecond)
	require.Len(t, r.Items(), 5)
	batch := r.BatchSize()

	cmd := r.Render(vs, 12)
	require.NotNil(t, cmd)
	assert.Len(t, r.Items(), 5, "existing items are kept")
	assert.Equal(t, batch, r.BatchSize())

	runFrames(t, r, clock, time.Millisecond)
	assert.Len(t, r.Items(), 12)
	assert.Len(t, c.calls, 12)
}

func TestRepeat_ShrinkingEndTruncates(t *testing.T) {
	r, _, clock := newRepeat(2)
	vs := values(10)
	r.Render(vs, All)
	runFrames(t, r, clock, time.Millisecond)

	r.Render(vs, 4)
	assert.Len(t, r.Items(), 4)
}

func TestRepeat_BatchSizeAdapts(t *testing.T) {
	r, _, clock := newRepeat(8)
	r.Render(values(10000), All)

	clock.Advance(time.Millisecond)
	r.Update(r.Frame())
	assert.Equal(t, 9, r.BatchSize(), "fast frames grow the batch by one")

	clock.Advance(100 * time.Millisecond)
	r.Update(r.Frame())
	assert.Equal(t, 4, r.BatchSize(), "slow frames halve the batch")

	for range 5 {
		clock.Advance(time.Second)
		r.Update(r.Frame())
	}
	assert.Equal(t, 1, r.BatchSize(), "batch never drops below one")
}

func TestRepeat_StartAt(t *testing.T) {
	c := &counter{}
	clock := &fakeClock{now: time.Unix(0, 0)}
	r := New(c.mapper, Options{InitialCount: 2, StartAt: 3, Now: clock.Now})
	r.Render(values(6), All)
	runFrames(t, r, clock, time.Millisecond)

	assert.Equal(t, []string{"3", "4", "5"}, r.Items())
	assert.Equal(t, []int{3, 4, 5}, c.calls)
}

func TestRepeat_Cancel(t *testing.T) {
	r, _, _ := newRepeat(2)
	r.Render(values(10), All)
	frame := r.Frame()
	r.Cancel()

	assert.False(t, r.Running())
	assert.Nil(t, r.Update(frame))
	assert.Len(t, r.Items(), 2)
}

func TestRepeat_SetReplacesItem(t *testing.T) {
	r, _, _ := newRepeat(3)
	r.Render(values(3), All)
	r.Set(1, "x")
	r.Set(7, "ignored")
	assert.Equal(t, []string{"0", "x", "2"}, r.Items())
}
