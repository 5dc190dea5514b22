package internal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"
)

// gatedDecoder blocks each decode until its blob name is released
type gatedDecoder struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedDecoder(names ...string) *gatedDecoder {
	g := &gatedDecoder{gates: make(map[string]chan struct{})}
	for _, n := range names {
		g.gates[n] = make(chan struct{})
	}
	return g
}

func (g *gatedDecoder) release(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[name])
}

func (g *gatedDecoder) decode(ctx context.Context, b Blob) (Preview, error) {
	g.mu.Lock()
	gate := g.gates[b.Name]
	g.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return Preview{DataURL: "preview:" + b.Name, MIMEType: b.MIMEType}, nil
}

func echoDecoder(ctx context.Context, b Blob) (Preview, error) {
	return Preview{DataURL: "preview:" + b.Name}, nil
}

type stubSource struct {
	blob Blob
	err  error
}

func (s stubSource) Name() string { return "stub" }

func (s stubSource) Frame(ctx context.Context) (Blob, error) {
	return s.blob, s.err
}

func waitPipeline(t *testing.T, p *CapturePipeline) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func assertAligned(t *testing.T, p *CapturePipeline) {
	t.Helper()
	blobs, previews := p.Blobs(), p.Previews()
	if len(blobs) != len(previews) {
		t.Fatalf("len(blobs) = %d, len(previews) = %d", len(blobs), len(previews))
	}
	for i := range blobs {
		if previews[i].Pending {
			continue
		}
		if want := "preview:" + blobs[i].Name; previews[i].DataURL != want {
			t.Errorf("preview[%d] = %q, want %q", i, previews[i].DataURL, want)
		}
	}
}

func TestCapturePipeline_RemoveBeforeDecodeLands(t *testing.T) {
	gate := newGatedDecoder("a", "b")
	p := NewCapturePipeline(WithDecoder(gate.decode))

	p.Enqueue(Blob{Name: "a"}, Blob{Name: "b"})
	if err := p.RemoveAt(0); err != nil {
		t.Fatalf("RemoveAt(0) error = %v", err)
	}

	gate.release("b")
	gate.release("a")
	waitPipeline(t, p)

	snap := p.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot() len = %d, want 1", len(snap))
	}
	if snap[0].Blob.Name != "b" || snap[0].Preview.DataURL != "preview:b" {
		t.Errorf("Snapshot()[0] = %+v, want blob b with preview b", snap[0])
	}
}

func TestCapturePipeline_OutOfOrderCompletion(t *testing.T) {
	names := []string{"p1", "p2", "p3", "p4"}
	gate := newGatedDecoder(names...)
	p := NewCapturePipeline(WithDecoder(gate.decode), WithDecodeWorkers(len(names)))

	blobs := make([]Blob, len(names))
	for i, n := range names {
		blobs[i] = Blob{Name: n}
	}
	ids := p.Enqueue(blobs...)
	if len(ids) != len(names) {
		t.Fatalf("Enqueue() returned %d ids", len(ids))
	}
	if p.Pending() != len(names) {
		t.Errorf("Pending() = %d, want %d", p.Pending(), len(names))
	}
	for _, prev := range p.Previews() {
		if !prev.Pending {
			t.Error("new items should carry a pending preview")
		}
	}

	for i := len(names) - 1; i >= 0; i-- {
		gate.release(names[i])
	}
	waitPipeline(t, p)

	assertAligned(t, p)
	for i, item := range p.Snapshot() {
		if item.ID != ids[i] {
			t.Errorf("item %d id = %s, want %s", i, item.ID, ids[i])
		}
		if !item.Preview.Ready() {
			t.Errorf("item %d preview not ready: %+v", i, item.Preview)
		}
	}
}

func TestCapturePipeline_RandomOperationsStayAligned(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	p := NewCapturePipeline(WithDecoder(echoDecoder), WithDecodeWorkers(2))
	ctx := context.Background()

	n := 0
	for step := 0; step < 200; step++ {
		switch rng.Intn(4) {
		case 0:
			n++
			p.Enqueue(Blob{Name: fmt.Sprintf("pick-%d", n)})
		case 1:
			n++
			if _, err := p.Capture(ctx, stubSource{blob: Blob{Name: fmt.Sprintf("cam-%d", n)}}); err != nil {
				t.Fatalf("Capture() error = %v", err)
			}
		case 2:
			if l := p.Len(); l > 0 {
				if err := p.RemoveAt(rng.Intn(l)); err != nil {
					t.Fatalf("RemoveAt() error = %v", err)
				}
			}
		case 3:
			if rng.Intn(10) == 0 {
				p.Clear()
			}
		}
		assertAligned(t, p)
	}

	waitPipeline(t, p)
	assertAligned(t, p)
}

func TestCapturePipeline_RemoveAtOutOfRange(t *testing.T) {
	p := NewCapturePipeline(WithDecoder(echoDecoder))
	p.Enqueue(Blob{Name: "a"}, Blob{Name: "b"})
	waitPipeline(t, p)

	tests := []int{-1, 2, 10}
	for _, idx := range tests {
		t.Run(fmt.Sprint(idx), func(t *testing.T) {
			err := p.RemoveAt(idx)
			if !errors.Is(err, ErrInvalidIndex) {
				t.Errorf("RemoveAt(%d) error = %v, want ErrInvalidIndex", idx, err)
			}
			var ie *IndexError
			if !errors.As(err, &ie) || ie.Len != 2 {
				t.Errorf("RemoveAt(%d) error = %#v", idx, err)
			}
			if p.Len() != 2 {
				t.Errorf("Len() = %d after failed remove", p.Len())
			}
		})
	}
}

func TestCapturePipeline_RemoveShiftsLaterItems(t *testing.T) {
	p := NewCapturePipeline(WithDecoder(echoDecoder))
	p.Enqueue(Blob{Name: "a"}, Blob{Name: "b"}, Blob{Name: "c"})
	waitPipeline(t, p)

	if err := p.RemoveAt(1); err != nil {
		t.Fatal(err)
	}
	blobs := p.Blobs()
	if len(blobs) != 2 || blobs[0].Name != "a" || blobs[1].Name != "c" {
		t.Errorf("Blobs() = %+v, want [a c]", blobs)
	}
	assertAligned(t, p)
}

func TestCapturePipeline_RemoveIDs(t *testing.T) {
	p := NewCapturePipeline(WithDecoder(echoDecoder))
	ids := p.Enqueue(Blob{Name: "a"}, Blob{Name: "b"}, Blob{Name: "c"}, Blob{Name: "d"})
	waitPipeline(t, p)

	p.RemoveIDs(ids[0], ids[2], "unknown")
	blobs := p.Blobs()
	if len(blobs) != 2 || blobs[0].Name != "b" || blobs[1].Name != "d" {
		t.Errorf("Blobs() = %+v, want [b d]", blobs)
	}
	assertAligned(t, p)

	p.RemoveIDs()
	if p.Len() != 2 {
		t.Errorf("Len() = %d after empty RemoveIDs, want 2", p.Len())
	}
}

func TestCapturePipeline_CaptureFailureLeavesPipelineUnchanged(t *testing.T) {
	p := NewCapturePipeline(WithDecoder(echoDecoder))
	p.Enqueue(Blob{Name: "a"})
	waitPipeline(t, p)

	_, err := p.Capture(context.Background(), stubSource{err: ErrNoLiveFrame})
	if !errors.Is(err, ErrNoLiveFrame) {
		t.Fatalf("Capture() error = %v, want ErrNoLiveFrame", err)
	}
	var ce *CaptureError
	if !errors.As(err, &ce) || ce.Source != "stub" {
		t.Errorf("Capture() error = %#v, want *CaptureError from stub", err)
	}
	if p.Len() != 1 {
		t.Errorf("Len() = %d, want 1", p.Len())
	}
}

func TestCapturePipeline_CaptureDecodeFailure(t *testing.T) {
	failing := func(ctx context.Context, b Blob) (Preview, error) {
		return Preview{}, errors.New("not an image")
	}
	p := NewCapturePipeline(WithDecoder(failing))

	if _, err := p.Capture(context.Background(), stubSource{blob: Blob{Name: "x"}}); err == nil {
		t.Fatal("Capture() should fail when the frame cannot be decoded")
	}
	if p.Len() != 0 {
		t.Errorf("Len() = %d, want 0", p.Len())
	}
}

func TestCapturePipeline_CaptureAppendsReadyItem(t *testing.T) {
	p := NewCapturePipeline(WithDecoder(echoDecoder))
	item, err := p.Capture(context.Background(), stubSource{blob: Blob{Name: "webcam-1.jpg"}})
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}
	if item.ID == "" || !item.Preview.Ready() {
		t.Errorf("Capture() item = %+v", item)
	}
	if p.Pending() != 0 {
		t.Errorf("Pending() = %d, capture must not leave a pending decode", p.Pending())
	}
	if snap := p.Snapshot(); len(snap) != 1 || snap[0].ID != item.ID {
		t.Errorf("Snapshot() = %+v", snap)
	}
}

func TestCapturePipeline_DecodeErrorKeepsItem(t *testing.T) {
	failing := func(ctx context.Context, b Blob) (Preview, error) {
		return Preview{}, errors.New("corrupt")
	}
	p := NewCapturePipeline(WithDecoder(failing))
	p.Enqueue(Blob{Name: "broken.png", MIMEType: "image/png"})
	waitPipeline(t, p)

	previews := p.Previews()
	if len(previews) != 1 {
		t.Fatalf("Previews() len = %d", len(previews))
	}
	if previews[0].Err == "" || previews[0].Ready() {
		t.Errorf("preview = %+v, want a decode error", previews[0])
	}
}

func TestCapturePipeline_ClearWithOutstandingDecodes(t *testing.T) {
	gate := newGatedDecoder("a")
	p := NewCapturePipeline(WithDecoder(gate.decode))
	p.Enqueue(Blob{Name: "a"})

	p.Clear()
	if p.Len() != 0 {
		t.Fatalf("Len() = %d after Clear()", p.Len())
	}

	gate.release("a")
	waitPipeline(t, p)
	if p.Len() != 0 {
		t.Errorf("late decode resurrected an item: %+v", p.Snapshot())
	}
}

func TestCapturePipeline_WaitHonorsContext(t *testing.T) {
	gate := newGatedDecoder("stuck")
	p := NewCapturePipeline(WithDecoder(gate.decode))
	p.Enqueue(Blob{Name: "stuck"})
	defer gate.release("stuck")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait() error = %v, want deadline exceeded", err)
	}
}
