package internal

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// CapturePipeline owns the ordered media of one screen. Items are keyed by a
// stable id internally; the positional view is derived from the id order, so
// an asynchronous preview always lands on the item it was scheduled for.
type CapturePipeline struct {
	mu      sync.Mutex
	order   []string
	items   map[string]*MediaItem
	pending int
	changed chan struct{}

	decode PreviewDecoder
	sem    *semaphore.Weighted
}

// PipelineOption configures a CapturePipeline
type PipelineOption func(*CapturePipeline)

// WithDecoder replaces the preview decoder
func WithDecoder(d PreviewDecoder) PipelineOption {
	return func(p *CapturePipeline) {
		p.decode = d
	}
}

// WithDecodeWorkers bounds the number of concurrent preview decodes
func WithDecodeWorkers(n int) PipelineOption {
	return func(p *CapturePipeline) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// NewCapturePipeline creates an empty pipeline
func NewCapturePipeline(opts ...PipelineOption) *CapturePipeline {
	p := &CapturePipeline{
		items:   make(map[string]*MediaItem),
		changed: make(chan struct{}),
		decode:  DecodePreview,
		sem:     semaphore.NewWeighted(int64(runtime.NumCPU())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capture takes one frame from src and appends it with its preview in a
// single step. On failure nothing is appended.
func (p *CapturePipeline) Capture(ctx context.Context, src FrameSource) (MediaItem, error) {
	blob, err := src.Frame(ctx)
	if err != nil {
		return MediaItem{}, &CaptureError{Source: src.Name(), Err: err}
	}
	preview, err := p.decode(ctx, blob)
	if err != nil {
		return MediaItem{}, &CaptureError{Source: src.Name(), Err: err}
	}

	item := MediaItem{ID: uuid.NewString(), Blob: blob, Preview: preview}
	p.mu.Lock()
	stored := item
	p.items[item.ID] = &stored
	p.order = append(p.order, item.ID)
	p.mu.Unlock()

	LogDebug("Captured %s (%dx%d)", blob.Name, preview.Width, preview.Height)
	return item, nil
}

// Enqueue appends every blob immediately with a pending preview and
// schedules the decodes. It returns the ids assigned to the new items.
func (p *CapturePipeline) Enqueue(blobs ...Blob) []string {
	ids := make([]string, len(blobs))

	p.mu.Lock()
	for i, b := range blobs {
		id := uuid.NewString()
		ids[i] = id
		p.items[id] = &MediaItem{ID: id, Blob: b, Preview: Preview{Pending: true}}
		p.order = append(p.order, id)
		p.pending++
	}
	p.mu.Unlock()

	for i, b := range blobs {
		go p.decodeInto(ids[i], b)
	}
	return ids
}

func (p *CapturePipeline) decodeInto(id string, b Blob) {
	ctx := context.Background()
	_ = p.sem.Acquire(ctx, 1)
	preview, err := p.decode(ctx, b)
	p.sem.Release(1)

	if err != nil {
		LogWarn("Preview decode failed for %s: %v", b.Name, err)
		preview = Preview{MIMEType: b.MIMEType, Err: err.Error()}
	}
	p.complete(id, preview)
}

// complete resolves a decode by item id. Items removed in the meantime are
// left alone.
func (p *CapturePipeline) complete(id string, preview Preview) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pending--
	if item, ok := p.items[id]; ok {
		item.Preview = preview
	} else {
		LogDebug("Dropping preview for removed item %s", id)
	}
	close(p.changed)
	p.changed = make(chan struct{})
}

// RemoveAt removes the item at index i; later items shift down by one
func (p *CapturePipeline) RemoveAt(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i < 0 || i >= len(p.order) {
		return &IndexError{Index: i, Len: len(p.order)}
	}
	delete(p.items, p.order[i])
	p.order = append(p.order[:i:i], p.order[i+1:]...)
	return nil
}

// RemoveIDs removes the items with the given ids, keeping the order of the
// rest. Unknown ids are ignored.
func (p *CapturePipeline) RemoveIDs(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := p.order[:0:0]
	for _, id := range p.order {
		if drop[id] {
			delete(p.items, id)
			continue
		}
		kept = append(kept, id)
	}
	p.order = kept
}

// Clear empties the pipeline. Outstanding decodes complete as no-ops.
func (p *CapturePipeline) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = nil
	p.items = make(map[string]*MediaItem)
}

// Len returns the number of items
func (p *CapturePipeline) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.order)
}

// Pending returns the number of decodes still in flight
func (p *CapturePipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending
}

// Snapshot returns a copy of the items in order
func (p *CapturePipeline) Snapshot() []MediaItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MediaItem, len(p.order))
	for i, id := range p.order {
		out[i] = *p.items[id]
	}
	return out
}

// Blobs returns the blob sequence, aligned with Previews
func (p *CapturePipeline) Blobs() []Blob {
	snap := p.Snapshot()
	out := make([]Blob, len(snap))
	for i, item := range snap {
		out[i] = item.Blob
	}
	return out
}

// Previews returns the preview sequence, aligned with Blobs
func (p *CapturePipeline) Previews() []Preview {
	snap := p.Snapshot()
	out := make([]Preview, len(snap))
	for i, item := range snap {
		out[i] = item.Preview
	}
	return out
}

// Wait blocks until every scheduled decode has completed or ctx is done
func (p *CapturePipeline) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.pending == 0 {
			p.mu.Unlock()
			return nil
		}
		ch := p.changed
		p.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
