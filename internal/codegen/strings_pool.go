package codegen

import "fmt"

// stringEntry is one literal collected into the pool: its source bytes,
// narrow/wide flag, and (once frozen) the absolute work-region address of
// its [len:2][cap:2][bytes...] header.
type stringEntry struct {
	content string
	wide    bool
	addr    int
}

// stringPool collects every STRING/WSTRING literal reachable from the
// compilation unit in a first pass, before any code is emitted, then
// freezes them into one contiguous, append-only block of work memory.
// Two literals with identical (wide, content) share one address, so
// repeated uses of the same literal do not duplicate storage.
type stringPool struct {
	order  []string
	lookup map[string]*stringEntry
	frozen bool
}

func newStringPool() *stringPool {
	return &stringPool{lookup: make(map[string]*stringEntry)}
}

func stringPoolKey(content string, wide bool) string {
	if wide {
		return "W\x00" + content
	}
	return "N\x00" + content
}

// collect registers a literal seen during the pre-pass walk. Calling it
// again with the same (content, wide) pair after the pool is frozen is a
// caller bug: every literal must be discovered before code emission
// starts, since addresses are assigned once, in first-seen order.
func (p *stringPool) collect(content string, wide bool) {
	if p.frozen {
		panic("codegen: string literal collected after the pool was frozen")
	}
	k := stringPoolKey(content, wide)
	if _, ok := p.lookup[k]; ok {
		return
	}
	p.lookup[k] = &stringEntry{content: content, wide: wide}
	p.order = append(p.order, k)
}

// freeze assigns each collected literal an address starting at base,
// tight-fitting its storage to the literal's own length (pool entries are
// immutable, so unlike a declared STRING variable they need no spare
// capacity beyond their current content). Returns the address one past
// the last byte used.
func (p *stringPool) freeze(base int) int {
	addr := base
	for _, k := range p.order {
		e := p.lookup[k]
		e.addr = addr
		charSize := 1
		if e.wide {
			charSize = 2
		}
		addr += stringHeaderBytes + len(e.content)*charSize
	}
	p.frozen = true
	return addr
}

// intern returns the frozen address of a previously collected literal.
func (p *stringPool) intern(content string, wide bool) int {
	e, ok := p.lookup[stringPoolKey(content, wide)]
	if !ok {
		panic(fmt.Sprintf("codegen: string literal %q missing from pool; the pre-pass walk did not visit it", content))
	}
	return e.addr
}

// entries returns every collected literal in first-seen (and therefore
// address) order.
func (p *stringPool) entries() []*stringEntry {
	out := make([]*stringEntry, 0, len(p.order))
	for _, k := range p.order {
		out = append(out, p.lookup[k])
	}
	return out
}
