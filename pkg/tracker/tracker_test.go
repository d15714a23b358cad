package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoeyai/cursorwatch/internal/logger"
	"github.com/zoeyai/cursorwatch/pkg/input"
	"github.com/zoeyai/cursorwatch/pkg/uia"
)

var (
	none  = [3]bool{false, false, false}
	left  = [3]bool{true, false, false}
	right = [3]bool{false, true, false}
)

// sequenceProbe 依次返回预设采样，用尽后保持最后一个
type sequenceProbe struct {
	samples []input.Sample
	n       int
}

func (p *sequenceProbe) Sample() input.Sample {
	i := p.n
	if i >= len(p.samples) {
		i = len(p.samples) - 1
	}
	p.n++
	return p.samples[i]
}

// recordingInspector 记录调用时的采样序号
type recordingInspector struct {
	probe *sequenceProbe
	size  uia.Size
	ok    bool
	calls []int
}

func (r *recordingInspector) ElementSizeAt(x, y int) (uia.Size, bool) {
	r.calls = append(r.calls, r.probe.n-1)
	return r.size, r.ok
}

func quietLogger() *logger.Logger {
	l := logger.New()
	l.SetEnabled(false)
	return l
}

func newTestTracker(probe input.Probe, inspector uia.Inspector, opts ...Option) *Tracker {
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithThreadInit(func() error { return nil }),
	}, opts...)
	return New(probe, inspector, opts...)
}

func tickN(t *testing.T, tr *Tracker, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, tr.Tick())
	}
}

func TestInitialState(t *testing.T) {
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), nil)

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Equal(t, Point{}, state.Position)
	assert.Equal(t, Buttons{}, state.Buttons)
	assert.Nil(t, state.ElementSize)
	assert.Equal(t, DefaultInterval, tr.Interval())
}

func TestRepeatedSamplesDoNotWrite(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{
		{X: 5, Y: 5, Buttons: none},
		{X: 5, Y: 5, Buttons: none},
		{X: 6, Y: 5, Buttons: none},
		{X: 6, Y: 5, Buttons: none},
		{X: 6, Y: 5, Buttons: none},
	}}
	tr := newTestTracker(probe, nil)

	tickN(t, tr, 5)

	stats := tr.Stats()
	assert.Equal(t, uint64(5), stats.Samples)
	assert.Equal(t, uint64(2), stats.Changes)
	assert.Equal(t, uint64(0), stats.Edges)

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Equal(t, Point{X: 6, Y: 5}, state.Position)
}

func TestEdgeDetectionFiresOncePerPress(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{
		{Buttons: none},
		{Buttons: none},
		{Buttons: left},
		{Buttons: left},
		{Buttons: none},
		{Buttons: left},
	}}
	insp := &recordingInspector{probe: probe, size: uia.Size{Width: 1, Height: 1}, ok: true}
	tr := newTestTracker(probe, insp)

	tickN(t, tr, 6)

	assert.Equal(t, []int{2, 5}, insp.calls)
	assert.Equal(t, uint64(2), tr.Stats().Edges)
	assert.Equal(t, uint64(2), tr.Stats().InspectorHits)
}

func TestSwitchingButtonsIsNotAnEdge(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{
		{Buttons: none},
		{Buttons: left},
		{Buttons: [3]bool{true, true, false}},
		{Buttons: right},
	}}
	insp := &recordingInspector{probe: probe, ok: true}
	tr := newTestTracker(probe, insp)

	tickN(t, tr, 4)
	assert.Equal(t, []int{1}, insp.calls)
}

func TestClickScenario(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{
		{X: 100, Y: 100, Buttons: none},
		{X: 100, Y: 100, Buttons: left},
	}}
	insp := uia.InspectorFunc(func(x, y int) (uia.Size, bool) {
		assert.Equal(t, 100, x)
		assert.Equal(t, 100, y)
		return uia.Size{Width: 200, Height: 40}, true
	})
	tr := newTestTracker(probe, insp)

	tickN(t, tr, 2)

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Equal(t, Point{X: 100, Y: 100}, state.Position)
	assert.Equal(t, Buttons{true, false, false}, state.Buttons)
	require.NotNil(t, state.ElementSize)
	assert.Equal(t, Size{Width: 200, Height: 40}, *state.ElementSize)
}

func TestAbsentInspectorKeepsPreviousSize(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{
		{Buttons: none},
		{Buttons: left},
	}}
	tr := newTestTracker(probe, uia.Unavailable{})

	require.NoError(t, tr.UpdateElementSize(30, 60))
	tickN(t, tr, 2)

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tr.Stats().Edges)
	require.NotNil(t, state.ElementSize)
	assert.Equal(t, Size{Width: 30, Height: 60}, *state.ElementSize)
}

func TestNegativeSizePassesThrough(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{{Buttons: none}, {Buttons: left}}}
	tr := newTestTracker(probe, uia.InspectorFunc(func(x, y int) (uia.Size, bool) {
		return uia.Size{Width: -4, Height: -9}, true
	}))

	tickN(t, tr, 2)

	state, err := tr.GetState()
	require.NoError(t, err)
	require.NotNil(t, state.ElementSize)
	assert.Equal(t, Size{Width: -4, Height: -9}, *state.ElementSize)
}

func TestInspectorPanicIsAbsent(t *testing.T) {
	probe := &sequenceProbe{samples: []input.Sample{{Buttons: none}, {X: 3, Buttons: left}}}
	tr := newTestTracker(probe, uia.InspectorFunc(func(x, y int) (uia.Size, bool) {
		panic("provider crashed")
	}))

	tickN(t, tr, 2)

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Nil(t, state.ElementSize)
	assert.Equal(t, 3, state.Position.X)
}

func TestFirstTickEdge(t *testing.T) {
	tests := []struct {
		name      string
		strict    bool
		wantCalls int
	}{
		{"默认首帧可触发", false, 1},
		{"兼容模式首帧不触发", true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe := &sequenceProbe{samples: []input.Sample{{Buttons: left}, {Buttons: left}}}
			insp := &recordingInspector{probe: probe, size: uia.Size{Width: 8, Height: 8}, ok: true}
			tr := newTestTracker(probe, insp, WithStrictFirstTick(tt.strict))

			tickN(t, tr, 2)
			assert.Len(t, insp.calls, tt.wantCalls)
		})
	}
}

func TestUpdateElementSize(t *testing.T) {
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), nil)

	require.NoError(t, tr.UpdateElementSize(50, 80))

	state, err := tr.GetState()
	require.NoError(t, err)
	require.NotNil(t, state.ElementSize)
	assert.Equal(t, Size{Width: 50, Height: 80}, *state.ElementSize)

	// 返回的是副本
	state.ElementSize.Width = 1
	again, err := tr.GetState()
	require.NoError(t, err)
	assert.Equal(t, 50, again.ElementSize.Width)
}

// 每次按下时 Inspector 返回与坐标相同的宽度，读者据此检查是否读到半更新的状态
func TestConcurrentReadsSeeWholeUpdates(t *testing.T) {
	var n atomic.Int64
	probe := input.ProbeFunc(func() input.Sample {
		i := int(n.Add(1))
		btns := none
		if i%2 == 0 {
			btns = left
		}
		return input.Sample{X: i, Y: i, Buttons: btns}
	})
	insp := uia.InspectorFunc(func(x, y int) (uia.Size, bool) {
		return uia.Size{Width: x, Height: y}, true
	})
	tr := newTestTracker(probe, insp)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				state, err := tr.GetState()
				if !assert.NoError(t, err) {
					return
				}
				if state.Position.X != state.Position.Y {
					t.Errorf("坐标不一致: %+v", state.Position)
					return
				}
				if state.Buttons[ButtonLeft] {
					if state.ElementSize == nil || state.ElementSize.Width != state.Position.X {
						t.Errorf("按下状态与元素尺寸不一致: %+v", state)
						return
					}
				}
			}
		}()
	}

	for i := 0; i < 2000; i++ {
		require.NoError(t, tr.Tick())
	}
	close(stop)
	wg.Wait()
}

func TestPoisonedState(t *testing.T) {
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{X: 1} }), nil)

	assert.Panics(t, func() {
		_ = tr.cell.withWrite(func(s *PointerState) {
			s.Position.X = 99
			panic("half written")
		})
	})

	_, err := tr.GetState()
	assert.ErrorIs(t, err, ErrStatePoisoned)
	assert.ErrorIs(t, tr.UpdateElementSize(1, 1), ErrStatePoisoned)
	assert.ErrorIs(t, tr.Tick(), ErrStatePoisoned)
	assert.ErrorIs(t, tr.Run(context.Background()), ErrStatePoisoned)
}

func TestRunStopsOnCancel(t *testing.T) {
	var calls atomic.Int64
	probe := input.ProbeFunc(func() input.Sample {
		return input.Sample{X: int(calls.Add(1))}
	})
	tr := newTestTracker(probe, nil, WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	tr.Start(ctx)
	tr.Start(ctx)

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-tr.Done():
	case <-time.After(time.Second):
		t.Fatal("采样循环未在取消后退出")
	}

	state, err := tr.GetState()
	require.NoError(t, err)
	assert.Positive(t, state.Position.X)
}

func TestRunReturnsContextError(t *testing.T) {
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Run(ctx), context.Canceled)
}

func TestThreadInitErrorIsNotFatal(t *testing.T) {
	var inits atomic.Int64
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), nil,
		WithInterval(time.Millisecond),
		WithThreadInit(func() error {
			inits.Add(1)
			return assert.AnError
		}))

	ctx, cancel := context.WithCancel(context.Background())
	tr.Start(ctx)
	require.Eventually(t, func() bool { return tr.Stats().Samples > 0 }, time.Second, time.Millisecond)
	cancel()
	<-tr.Done()

	assert.Equal(t, int64(1), inits.Load())
}

func TestStateJSON(t *testing.T) {
	state := PointerState{
		Position:    Point{X: 100, Y: -20},
		Buttons:     Buttons{true, false, false},
		ElementSize: &Size{Width: 200, Height: 40},
	}

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":[100,-20],"buttons":[true,false,false],"element_size":[200,40]}`, string(data))

	var decoded PointerState
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, state, decoded)

	empty, err := json.Marshal(PointerState{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"position":[0,0],"buttons":[false,false,false],"element_size":null}`, string(empty))
}

func TestButtonsAny(t *testing.T) {
	assert.False(t, Buttons{}.Any())
	assert.True(t, Buttons{false, false, true}.Any())
}

// fakeClosable 记录 Close 调用
type fakeClosable struct {
	input.ProbeFunc
	closed bool
}

func (f *fakeClosable) Close() { f.closed = true }

func TestCloseReleasesProbe(t *testing.T) {
	probe := &fakeClosable{ProbeFunc: func() input.Sample { return input.Sample{} }}
	tr := newTestTracker(probe, nil)
	tr.Close()
	assert.True(t, probe.closed)
}

// closingInspector 统计 Close 调用次数
type closingInspector struct {
	closes atomic.Int64
}

func (c *closingInspector) ElementSizeAt(x, y int) (uia.Size, bool) { return uia.Size{}, false }
func (c *closingInspector) Close()                                  { c.closes.Add(1) }

func TestInspectorReleasedWhenLoopExits(t *testing.T) {
	inspector := &closingInspector{}
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), inspector,
		WithInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	tr.Start(ctx)
	require.Eventually(t, func() bool { return tr.Stats().Samples > 0 }, time.Second, time.Millisecond)
	assert.Zero(t, inspector.closes.Load(), "循环运行期间不应释放")

	cancel()
	<-tr.Done()
	assert.Equal(t, int64(1), inspector.closes.Load(), "循环退出时应在采样线程上释放")

	tr.Close()
	assert.Equal(t, int64(1), inspector.closes.Load(), "Close 不应重复释放")
}

func TestCloseReleasesInspectorWithoutStart(t *testing.T) {
	inspector := &closingInspector{}
	tr := newTestTracker(input.ProbeFunc(func() input.Sample { return input.Sample{} }), inspector)

	tr.Close()
	tr.Close()
	assert.Equal(t, int64(1), inspector.closes.Load())
}

func TestInspectorCallIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New()
	log.SetOutput(&buf)
	log.SetLevel(logger.DEBUG)

	probe := &sequenceProbe{samples: []input.Sample{{X: 3, Y: 4, Buttons: left}}}
	inspector := uia.InspectorFunc(func(x, y int) (uia.Size, bool) {
		return uia.Size{Width: 30, Height: 40}, true
	})
	tr := newTestTracker(probe, inspector, WithLogger(log))
	tickN(t, tr, 1)

	out := buf.String()
	assert.Contains(t, out, "category=UIA")
	assert.Contains(t, out, "status=OK")
	assert.Contains(t, out, "30x40")
}

func TestUnavailableInspectorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New()
	log.SetOutput(&buf)
	log.SetLevel(logger.DEBUG)

	probe := &sequenceProbe{samples: []input.Sample{{Buttons: left}}}
	tr := newTestTracker(probe, nil, WithLogger(log))
	tickN(t, tr, 1)

	assert.NotContains(t, buf.String(), "category=UIA")
	assert.Equal(t, uint64(1), tr.Stats().Edges)
}
