package selection

import "sync"

// MemoryClipboard is a process-local clipboard used when no system backend is available
// Deferred formats are rendered on first read
type MemoryClipboard struct {
	mu       sync.Mutex
	held     bool
	names    map[string]FormatID
	data     map[FormatID][]byte
	deferred map[FormatID]RenderFunc
	seq      uint64
}

func NewMemoryClipboard() *MemoryClipboard {
	return &MemoryClipboard{
		names:    make(map[string]FormatID),
		data:     make(map[FormatID][]byte),
		deferred: make(map[FormatID]RenderFunc),
	}
}

func (c *MemoryClipboard) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		return ErrClipboardBusy
	}
	c.held = true
	return nil
}

func (c *MemoryClipboard) Close() error {
	c.mu.Lock()
	c.held = false
	c.mu.Unlock()
	return nil
}

func (c *MemoryClipboard) RegisterFormat(name string) (FormatID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.names[name]; ok {
		return id, nil
	}
	id := FormatID(len(c.names) + 1)
	c.names[name] = id
	return id, nil
}

func (c *MemoryClipboard) Sequence() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

func (c *MemoryClipboard) Read(id FormatID) ([]byte, bool) {
	c.mu.Lock()
	render, ok := c.deferred[id]
	if ok {
		delete(c.deferred, id)
	}
	c.mu.Unlock()
	if ok {
		data := render(id)
		c.mu.Lock()
		c.data[id] = data
		c.mu.Unlock()
		return data, len(data) > 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.data[id]
	return data, ok
}

func (c *MemoryClipboard) Write(id FormatID, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[id] = data
	delete(c.deferred, id)
	c.seq++
	return nil
}

func (c *MemoryClipboard) Defer(ids []FormatID, render RenderFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.deferred[id] = render
	}
	c.seq++
	return nil
}

func (c *MemoryClipboard) Empty() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.data)
	clear(c.deferred)
	c.seq++
	return nil
}

// Text returns the plain text payload, for inspection
func (c *MemoryClipboard) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.data[c.names[string(FormatText)]])
}
