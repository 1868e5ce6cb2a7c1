package sections

import "sync"

type Anchor struct {
	ID      string `json:"id"`
	Visible bool   `json:"visible"`
}

type Heading struct {
	Text string `json:"text"`
	// AnchorID is the nearest enclosing anchor of the heading.
	AnchorID string `json:"anchor_id"`
}

// Directory is the live set of navigable anchors on the rendered page.
// Anchors are returned in document order.
type Directory interface {
	Anchors() []Anchor
	Headings() []Heading
	Current() (Anchor, bool)
}

// MemoryDirectory is fed by the browser as sections mount, unmount and
// scroll in and out of view.
type MemoryDirectory struct {
	mu       sync.RWMutex
	anchors  []Anchor
	headings []Heading
}

func NewMemoryDirectory(anchors []Anchor, headings []Heading) *MemoryDirectory {
	d := &MemoryDirectory{}
	d.Replace(anchors, headings)
	return d
}

// Replace swaps the whole page; duplicate and empty ids are dropped.
func (d *MemoryDirectory) Replace(anchors []Anchor, headings []Heading) {
	seen := make(map[string]bool, len(anchors))
	as := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		if a.ID == "" || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		as = append(as, a)
	}
	hs := make([]Heading, 0, len(headings))
	for _, h := range headings {
		if h.Text == "" {
			continue
		}
		hs = append(hs, h)
	}

	d.mu.Lock()
	d.anchors = as
	d.headings = hs
	d.mu.Unlock()
}

// Register appends a newly mounted anchor, or updates it if already known.
func (d *MemoryDirectory) Register(a Anchor) {
	if a.ID == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.anchors {
		if d.anchors[i].ID == a.ID {
			d.anchors[i] = a
			return
		}
	}
	d.anchors = append(d.anchors, a)
}

func (d *MemoryDirectory) Deregister(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.anchors {
		if d.anchors[i].ID == id {
			d.anchors = append(d.anchors[:i], d.anchors[i+1:]...)
			return
		}
	}
}

// SetVisible reports whether the anchor exists.
func (d *MemoryDirectory) SetVisible(id string, visible bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.anchors {
		if d.anchors[i].ID == id {
			d.anchors[i].Visible = visible
			return true
		}
	}
	return false
}

func (d *MemoryDirectory) Anchors() []Anchor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Anchor, len(d.anchors))
	copy(out, d.anchors)
	return out
}

func (d *MemoryDirectory) Headings() []Heading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Heading, len(d.headings))
	copy(out, d.headings)
	return out
}

// Current is the first visible anchor in document order.
func (d *MemoryDirectory) Current() (Anchor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, a := range d.anchors {
		if a.Visible {
			return a, true
		}
	}
	return Anchor{}, false
}
