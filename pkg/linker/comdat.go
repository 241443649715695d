package linker

import "sync"

// ComdatGroup is one SHT_GROUP signature's worth of sections (a C++
// inline function or template instantiation compiled identically into
// every translation unit that references it). Exactly one ObjectFile's
// copy survives a link; every other file's copy of the group is killed
// outright, the same way a duplicate mergeable-string fragment is
// killed in MergedSection, but at section granularity instead of byte
// granularity (spec §4.4's "section-level dedup" sibling mechanism).
type ComdatGroup struct {
	Signature string
	Owner     *ObjectFile
	priority  uint32
}

type comdatRegistry struct {
	mu     sync.Mutex
	groups map[string]*ComdatGroup
}

// RegisterComdatGroup finds or creates the group named signature and
// lets file bid for ownership at its priority (lower wins, same rule as
// symbol rank). It returns the group as it stands after the bid, so the
// caller can tell whether its own copy won or lost.
func (c *comdatRegistry) RegisterComdatGroup(signature string, file *ObjectFile) *ComdatGroup {
	c.mu.Lock()
	defer c.mu.Unlock()

	g, ok := c.groups[signature]
	if !ok {
		g = &ComdatGroup{Signature: signature, Owner: file, priority: file.Priority}
		c.groups[signature] = g
		return g
	}

	if file.Priority < g.priority {
		g.Owner = file
		g.priority = file.Priority
	}
	return g
}

func (c *comdatRegistry) all() []*ComdatGroup {
	out := make([]*ComdatGroup, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	return out
}
