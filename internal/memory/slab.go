package memory

import (
	"errors"
	"sort"
	"sync"
)

const (
	MinSlotSize     = 16
	MaxSlotSize     = 64 << 10
	DefaultPageSize = 64 << 10
)

var ErrTooLarge = errors.New("memory: allocation larger than the biggest slot class")

// Ref is a handle to an object living in an arena slot. Compaction moves the
// slot and rewrites the handle, so callers must always go through the Ref.
type Ref struct {
	page   *page
	slot   int
	size   int
	pinned bool
	young  bool
}

// Size is the requested size of the allocation.
func (r *Ref) Size() int { return r.size }

// Live reports whether the object is still in the arena.
func (r *Ref) Live() bool { return r.page != nil }

type page struct {
	class int
	buf   []byte
	refs  []*Ref
	free  []int
	live  int
}

func (p *page) slots() int { return len(p.refs) }

type slabClass struct {
	size  int
	pages []*page
	// hint is the lowest page index that may still have a free slot.
	hint int
}

type ArenaConfig struct {
	PageSize int
	// GCThresholdPages starts an allocation-triggered minor collection when
	// the arena would grow past this many pages. Zero disables it.
	GCThresholdPages int
	// CompactThreshold is the fragmentation ratio above which a major
	// collection is followed by compaction when auto-compaction is on.
	CompactThreshold float64
}

// Arena is a slab allocator that owns its pages, keeps a root set and can
// collect and compact itself.
type Arena struct {
	mu          sync.RWMutex
	cfg         ArenaConfig
	classes     []slabClass
	nextGC      int
	autoCompact bool
	stats       ArenaStats
}

type ArenaStats struct {
	Pages          int64
	AvailableSlots int64
	LiveSlots      int64
	FreeSlots      int64

	MinorCollections int64
	MajorCollections int64
	Compactions      int64
	MovedSlots       int64

	TotalBytes      int64
	UsedBytes       int64
	FragmentedBytes int64

	AllocCount int64
	FreeCount  int64
}

// Fragmentation is the share of allocated slots that are free.
func (s ArenaStats) Fragmentation() float64 {
	if s.AvailableSlots == 0 {
		return 0
	}
	return float64(s.FreeSlots) / float64(s.AvailableSlots)
}

func NewArena(cfg ArenaConfig) *Arena {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	a := &Arena{
		cfg:    cfg,
		nextGC: cfg.GCThresholdPages,
	}
	a.initSlabClasses()
	return a
}

func (a *Arena) initSlabClasses() {
	for size := MinSlotSize; size <= MaxSlotSize; size *= 2 {
		a.classes = append(a.classes, slabClass{size: size})
	}
}

func (a *Arena) findSlabClass(size int) int {
	for i, c := range a.classes {
		if size <= c.size {
			return i
		}
	}
	return -1
}

// SetAutoCompact toggles compaction after major collections.
func (a *Arena) SetAutoCompact(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.autoCompact = enabled
}

// Alloc reserves a slot for size bytes, reusing the lowest free hole of the
// matching class before growing the arena.
func (a *Arena) Alloc(size int) (*Ref, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	class := a.findSlabClass(size)
	if class == -1 {
		return nil, ErrTooLarge
	}

	p := a.firstFree(class)
	if p == nil && a.cfg.GCThresholdPages > 0 && int(a.stats.Pages) >= a.nextGC {
		a.collect(false)
		p = a.firstFree(class)
	}
	if p == nil {
		p = a.grow(class)
	}

	slot := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	ref := &Ref{page: p, slot: slot, size: size, young: true}
	p.refs[slot] = ref
	p.live++

	a.stats.AllocCount++
	a.stats.LiveSlots++
	a.stats.FreeSlots--
	a.stats.UsedBytes += int64(a.classes[class].size)
	return ref, nil
}

func (a *Arena) firstFree(class int) *page {
	c := &a.classes[class]
	for ; c.hint < len(c.pages); c.hint++ {
		if p := c.pages[c.hint]; len(p.free) > 0 {
			return p
		}
	}
	return nil
}

func (a *Arena) grow(class int) *page {
	size := a.classes[class].size
	slots := max(1, a.cfg.PageSize/size)

	p := &page{
		class: class,
		buf:   make([]byte, slots*size),
		refs:  make([]*Ref, slots),
	}
	p.resetFreeList()
	a.classes[class].pages = append(a.classes[class].pages, p)

	a.stats.Pages++
	a.stats.AvailableSlots += int64(slots)
	a.stats.FreeSlots += int64(slots)
	a.stats.TotalBytes += int64(len(p.buf))
	return p
}

// resetFreeList rebuilds the free stack so the lowest slot is popped first.
func (p *page) resetFreeList() {
	p.free = p.free[:0]
	for i := len(p.refs) - 1; i >= 0; i-- {
		if p.refs[i] == nil {
			p.free = append(p.free, i)
		}
	}
}

// Bytes returns the slot contents of a live ref, nil otherwise.
func (a *Arena) Bytes(ref *Ref) []byte {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if ref.page == nil {
		return nil
	}
	size := a.classes[ref.page.class].size
	start := ref.slot * size
	return ref.page.buf[start : start+ref.size]
}

func (a *Arena) Pin(ref *Ref) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ref.pinned = true
}

// UnpinAll empties the root set. Objects stay in place until the next
// collection.
func (a *Arena) UnpinAll() {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, c := range a.classes {
		for _, p := range c.pages {
			for _, ref := range p.refs {
				if ref != nil {
					ref.pinned = false
				}
			}
		}
	}
}

// Collect runs a major collection: every unpinned object is freed and empty
// pages are returned. With auto-compaction on, a fragmented arena is
// compacted afterwards.
func (a *Arena) Collect() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.collect(true)
	if a.autoCompact && a.stats.Fragmentation() > a.cfg.CompactThreshold {
		a.compact()
	}
}

// collect frees unpinned objects. A minor collection only looks at objects
// allocated since the previous collection.
func (a *Arena) collect(major bool) {
	for ci := range a.classes {
		size := int64(a.classes[ci].size)
		for _, p := range a.classes[ci].pages {
			freed := false
			for i, ref := range p.refs {
				if ref == nil {
					continue
				}
				if ref.pinned || (!major && !ref.young) {
					ref.young = false
					continue
				}
				ref.page = nil
				p.refs[i] = nil
				p.live--
				freed = true

				a.stats.FreeCount++
				a.stats.LiveSlots--
				a.stats.FreeSlots++
				a.stats.UsedBytes -= size
			}
			if freed {
				p.resetFreeList()
			}
		}
	}
	a.releaseEmptyPages()

	if major {
		a.stats.MajorCollections++
	} else {
		a.stats.MinorCollections++
	}
	if a.cfg.GCThresholdPages > 0 {
		a.nextGC = max(a.cfg.GCThresholdPages, int(a.stats.Pages)*2)
	}
	a.updateStats()
}

func (a *Arena) releaseEmptyPages() {
	for ci := range a.classes {
		kept := a.classes[ci].pages[:0]
		for _, p := range a.classes[ci].pages {
			if p.live > 0 {
				kept = append(kept, p)
				continue
			}
			a.stats.Pages--
			a.stats.AvailableSlots -= int64(p.slots())
			a.stats.FreeSlots -= int64(p.slots())
			a.stats.TotalBytes -= int64(len(p.buf))
		}
		clear(a.classes[ci].pages[len(kept):])
		a.classes[ci].pages = kept
		a.classes[ci].hint = 0
	}
}

// Compact moves live objects out of the sparsest pages into the holes of the
// densest pages of the same class, then releases pages left empty. It
// returns the number of moved objects.
func (a *Arena) Compact() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.compact()
}

func (a *Arena) compact() int {
	moved := 0
	for ci := range a.classes {
		pages := a.classes[ci].pages
		if len(pages) < 2 {
			continue
		}
		size := a.classes[ci].size

		sort.SliceStable(pages, func(i, j int) bool {
			return pages[i].live > pages[j].live
		})

		dst, src := 0, len(pages)-1
		next := len(pages[src].refs) - 1
		for dst < src {
			to, from := pages[dst], pages[src]
			if len(to.free) == 0 {
				dst++
				continue
			}
			for next >= 0 && from.refs[next] == nil {
				next--
			}
			if next < 0 {
				src--
				next = len(pages[src].refs) - 1
				continue
			}

			ref := from.refs[next]
			slot := to.free[len(to.free)-1]
			to.free = to.free[:len(to.free)-1]

			copy(to.buf[slot*size:(slot+1)*size], from.buf[next*size:(next+1)*size])
			to.refs[slot] = ref
			to.live++
			from.refs[next] = nil
			from.live--
			ref.page = to
			ref.slot = slot
			next--
			moved++
		}

		for _, p := range pages {
			p.resetFreeList()
		}
	}

	a.releaseEmptyPages()
	a.stats.Compactions++
	a.stats.MovedSlots += int64(moved)
	a.updateStats()
	return moved
}

func (a *Arena) updateStats() {
	a.stats.FragmentedBytes = a.stats.TotalBytes - a.stats.UsedBytes
}

func (a *Arena) Stats() ArenaStats {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stats
}
