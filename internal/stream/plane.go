package stream

import "sync"

// Binder is the boundary with the rendering subsystem. Grid coordinates are
// tile minus center; the renderer holds only borrowed references and must
// never dispose a bound resource itself.
type Binder interface {
	// Bind hands a ready tile's resource to the grid slot, replacing any
	// previous resource on that slot. Out-of-plane coordinates are ignored.
	Bind(gridX, gridY int, res Resource)
	// Unbind clears a slot. Called by the streamer before the cache
	// disposes a resource that is still bound.
	Unbind(gridX, gridY int)
	// Reset clears every slot, e.g. after the center tile moved and the
	// whole grid mapping changed.
	Reset()
}

// RenderPlane is the in-process Binder: a fixed NxN grid of slots centered
// on the current center tile, each holding a borrowed tile resource.
type RenderPlane struct {
	mu    sync.RWMutex
	size  int
	half  int
	slots []Resource
}

var _ Binder = (*RenderPlane)(nil)

// NewRenderPlane builds a plane with the given odd side length.
func NewRenderPlane(size int) *RenderPlane {
	if size < 1 {
		size = 1
	}
	if size%2 == 0 {
		size++
	}
	return &RenderPlane{
		size:  size,
		half:  (size - 1) / 2,
		slots: make([]Resource, size*size),
	}
}

func (p *RenderPlane) Size() int { return p.size }

func (p *RenderPlane) index(gridX, gridY int) (int, bool) {
	if gridX < -p.half || gridX > p.half || gridY < -p.half || gridY > p.half {
		return 0, false
	}
	return (gridY+p.half)*p.size + (gridX + p.half), true
}

func (p *RenderPlane) Bind(gridX, gridY int, res Resource) {
	i, ok := p.index(gridX, gridY)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[i] = res
}

func (p *RenderPlane) Unbind(gridX, gridY int) {
	i, ok := p.index(gridX, gridY)
	if !ok {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slots[i] = nil
}

func (p *RenderPlane) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.slots {
		p.slots[i] = nil
	}
}

// Slot returns the resource bound at a grid position, if any.
func (p *RenderPlane) Slot(gridX, gridY int) (Resource, bool) {
	i, ok := p.index(gridX, gridY)
	if !ok {
		return nil, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	res := p.slots[i]
	return res, res != nil
}

// Each visits every bound slot.
func (p *RenderPlane) Each(fn func(gridX, gridY int, res Resource)) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for gy := -p.half; gy <= p.half; gy++ {
		for gx := -p.half; gx <= p.half; gx++ {
			if res := p.slots[(gy+p.half)*p.size+(gx+p.half)]; res != nil {
				fn(gx, gy, res)
			}
		}
	}
}
