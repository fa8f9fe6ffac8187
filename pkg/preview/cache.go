package preview

import (
	"container/list"
	"encoding/hex"
	"lps/pkg/compiler"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ProgramID is the hex blake2b-256 digest of a source text and its mode.
type ProgramID string

func NewProgramID(mode, src string) ProgramID {
	sum := blake2b.Sum256([]byte(mode + "\x00" + src))
	return ProgramID(hex.EncodeToString(sum[:]))
}

type cacheEntry struct {
	id   ProgramID
	prog *compiler.Program
}

// Cache keeps the most recently used compiled programs. Programs are never
// mutated after compilation, so one entry may back many VMs at once.
type Cache struct {
	mu      sync.Mutex
	max     int
	order   *list.List
	entries map[ProgramID]*list.Element
}

func NewCache(max int) *Cache {
	return &Cache{max: max, order: list.New(), entries: make(map[ProgramID]*list.Element)}
}

func (c *Cache) Get(id ProgramID) (*compiler.Program, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).prog, true
}

func (c *Cache) Put(id ProgramID, prog *compiler.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[id]; ok {
		el.Value.(*cacheEntry).prog = prog
		c.order.MoveToFront(el)
		return
	}
	c.entries[id] = c.order.PushFront(&cacheEntry{id: id, prog: prog})
	for c.max > 0 && c.order.Len() > c.max {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.entries, last.Value.(*cacheEntry).id)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
