package suggest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront-browse/internal/domain"
)

var errUnavailable = errors.New("suggest service unavailable")

// fakeSuggester records calls and lets tests script each endpoint.
type fakeSuggester struct {
	mu       sync.Mutex
	calls    []string
	gates    map[string]chan struct{}
	suggest  func(text string) ([]domain.ProductSummary, error)
	products func(text string) ([]domain.ProductSummary, error)
}

func newFakeSuggester() *fakeSuggester {
	return &fakeSuggester{
		gates: make(map[string]chan struct{}),
		suggest: func(text string) ([]domain.ProductSummary, error) {
			return []domain.ProductSummary{{ID: text, Name: "suggest " + text}}, nil
		},
		products: func(text string) ([]domain.ProductSummary, error) {
			return []domain.ProductSummary{{ID: text, Name: "product " + text}}, nil
		},
	}
}

// hold makes the primary lookup for text block until the returned func is called.
func (f *fakeSuggester) hold(text string) func() {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[text] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeSuggester) Suggest(ctx context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "suggest:"+text)
	gate := f.gates[text]
	fn := f.suggest
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return fn(text)
}

func (f *fakeSuggester) SearchProducts(_ context.Context, text string, limit int) ([]domain.ProductSummary, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "products:"+text)
	fn := f.products
	f.mu.Unlock()
	return fn(text)
}

func (f *fakeSuggester) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func newTestPipeline(t *testing.T, src *fakeSuggester, debounce time.Duration) *Pipeline {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := DefaultConfig()
	cfg.Debounce = debounce
	p := New(ctx, src, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(p.Close)
	return p
}

func waitReady(t *testing.T, p *Pipeline) Snapshot {
	t.Helper()
	require.Eventually(t, func() bool {
		return p.Snapshot().Phase == PhaseReady
	}, time.Second, time.Millisecond)
	p.Wait()
	return p.Snapshot()
}

func TestPipeline_ShortTextIssuesNoRequest(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("i")

	snap := p.Snapshot()
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Visible)
	assert.Never(t, func() bool { return len(src.callLog()) > 0 }, 30*time.Millisecond, time.Millisecond)
}

func TestPipeline_MultiByteTextCountsCharacters(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("ж")
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)

	p.SetText("жк")
	snap := waitReady(t, p)
	assert.True(t, snap.Visible)
}

func TestPipeline_SuccessPopulatesAndShows(t *testing.T) {
	src := newFakeSuggester()
	src.suggest = func(text string) ([]domain.ProductSummary, error) {
		out := make([]domain.ProductSummary, 10)
		for i := range out {
			out[i] = domain.ProductSummary{ID: string(rune('a' + i))}
		}
		return out, nil
	}
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("iphone")
	snap := waitReady(t, p)

	assert.True(t, snap.Visible)
	assert.Len(t, snap.Items, 6, "list is bounded")
	assert.Equal(t, []string{"suggest:iphone"}, src.callLog())
}

func TestPipeline_DebounceCoalescesKeystrokes(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, 40*time.Millisecond)

	for _, text := range []string{"ip", "iph", "ipho", "iphon", "iphone"} {
		p.SetText(text)
		assert.Equal(t, PhasePending, p.Snapshot().Phase)
	}

	snap := waitReady(t, p)
	assert.Equal(t, []string{"suggest:iphone"}, src.callLog())
	assert.Equal(t, "iphone", snap.Items[0].ID)
}

func TestPipeline_FallbackOnPrimaryFailure(t *testing.T) {
	src := newFakeSuggester()
	src.suggest = func(string) ([]domain.ProductSummary, error) { return nil, errUnavailable }
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("galaxy")
	snap := waitReady(t, p)

	assert.Equal(t, []string{"suggest:galaxy", "products:galaxy"}, src.callLog())
	assert.True(t, snap.Visible)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "product galaxy", snap.Items[0].Name)
}

func TestPipeline_FallbackFailureClearsWithoutShowing(t *testing.T) {
	src := newFakeSuggester()
	src.suggest = func(string) ([]domain.ProductSummary, error) { return nil, errUnavailable }
	src.products = func(string) ([]domain.ProductSummary, error) { return nil, errUnavailable }
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("galaxy")
	snap := waitReady(t, p)

	assert.Empty(t, snap.Items)
	assert.False(t, snap.Visible)
}

func TestPipeline_FallbackFailureLeavesVisibilityUnchanged(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("galaxy")
	require.True(t, waitReady(t, p).Visible)

	src.mu.Lock()
	src.suggest = func(string) ([]domain.ProductSummary, error) { return nil, errUnavailable }
	src.products = func(string) ([]domain.ProductSummary, error) { return nil, errUnavailable }
	src.mu.Unlock()

	p.SetText("galaxy s")
	snap := waitReady(t, p)
	assert.Empty(t, snap.Items)
	assert.True(t, snap.Visible)
}

func TestPipeline_LateResponseForSupersededTextIsDiscarded(t *testing.T) {
	src := newFakeSuggester()
	releaseIph := src.hold("iph")
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("iph")
	require.Eventually(t, func() bool {
		return len(src.callLog()) == 1
	}, time.Second, time.Millisecond, "iph lookup should be in flight")

	p.SetText("iphone")
	require.Eventually(t, func() bool {
		snap := p.Snapshot()
		return snap.Phase == PhaseReady && len(snap.Items) == 1 && snap.Items[0].ID == "iphone"
	}, time.Second, time.Millisecond)

	releaseIph()
	p.Wait()

	snap := p.Snapshot()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "iphone", snap.Items[0].ID)
	assert.Equal(t, "iphone", snap.Text)
}

func TestPipeline_ShorteningTextClears(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("tv")
	require.True(t, waitReady(t, p).Visible)

	p.SetText("t")
	snap := p.Snapshot()
	assert.Empty(t, snap.Items)
	assert.False(t, snap.Visible)
	assert.Equal(t, "t", snap.Text)
}

func TestPipeline_DismissKeepsTextAndDropsPending(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, 20*time.Millisecond)

	p.SetText("laptop")
	p.Dismiss()

	snap := p.Snapshot()
	assert.Equal(t, "laptop", snap.Text)
	assert.False(t, snap.Visible)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Never(t, func() bool { return len(src.callLog()) > 0 }, 60*time.Millisecond, 5*time.Millisecond)
}

func TestPipeline_DismissDiscardsInFlight(t *testing.T) {
	src := newFakeSuggester()
	release := src.hold("laptop")
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("laptop")
	require.Eventually(t, func() bool { return len(src.callLog()) == 1 }, time.Second, time.Millisecond)

	p.Dismiss()
	release()
	p.Wait()

	snap := p.Snapshot()
	assert.False(t, snap.Visible)
	assert.Empty(t, snap.Items)
}

func TestPipeline_Submit(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("  oled tv ")
	waitReady(t, p)

	text, ok := p.Submit()
	require.True(t, ok)
	assert.Equal(t, "oled tv", text)

	snap := p.Snapshot()
	assert.Empty(t, snap.Text)
	assert.False(t, snap.Visible)
	assert.Empty(t, snap.Items)
}

func TestPipeline_SubmitBlankIsIgnored(t *testing.T) {
	p := newTestPipeline(t, newFakeSuggester(), time.Millisecond)

	p.SetText("   ")
	_, ok := p.Submit()
	assert.False(t, ok)
	assert.Equal(t, "   ", p.Snapshot().Text)
}

func TestPipeline_SelectResets(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("pixel")
	waitReady(t, p)
	p.Select()

	snap := p.Snapshot()
	assert.Empty(t, snap.Text)
	assert.False(t, snap.Visible)
}

func TestPipeline_SnapshotIsACopy(t *testing.T) {
	src := newFakeSuggester()
	p := newTestPipeline(t, src, time.Millisecond)

	p.SetText("pixel")
	snap := waitReady(t, p)
	snap.Items[0].Name = "mutated"

	assert.Equal(t, "suggest pixel", p.Snapshot().Items[0].Name)
}
