package lowpan

// MaxContexts is the number of 6LoWPAN compression contexts a node can
// hold (context ids 0..15, spec.md §4.4/§4.7).
const MaxContexts = 16

// Context is one compression context: a prefix shortcut addresses can be
// compressed against.
type Context struct {
	Prefix    [16]byte
	PrefixLen int // bits
	Compress  bool
}

// ContextTable is the fixed-size set of contexts a 6LoWPAN codec
// consults during compression and decompression.
type ContextTable struct {
	contexts [MaxContexts]*Context
}

// NewContextTable returns an empty context table.
func NewContextTable() *ContextTable {
	return &ContextTable{}
}

// Set installs or replaces the context at id.
func (t *ContextTable) Set(id uint8, prefix [16]byte, prefixLen int, compress bool) {
	if int(id) >= MaxContexts {
		return
	}
	t.contexts[id] = &Context{Prefix: prefix, PrefixLen: prefixLen, Compress: compress}
}

// Clear removes the context at id.
func (t *ContextTable) Clear(id uint8) {
	if int(id) >= MaxContexts {
		return
	}
	t.contexts[id] = nil
}

// Get returns the context at id, if any.
func (t *ContextTable) Get(id uint8) (*Context, bool) {
	if int(id) >= MaxContexts || t.contexts[id] == nil {
		return nil, false
	}
	return t.contexts[id], true
}

// matchBits reports whether the top n bits of a and b are equal.
func matchBits(a, b [16]byte, n int) bool {
	fullBytes := n / 8
	for i := 0; i < fullBytes; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if rem := n % 8; rem != 0 {
		mask := byte(0xff << (8 - rem))
		if a[fullBytes]&mask != b[fullBytes]&mask {
			return false
		}
	}
	return true
}

// FindForAddress returns the longest-matching context covering addr, if
// any. The Compress flag is not considered when choosing.
func (t *ContextTable) FindForAddress(addr [16]byte) (id uint8, ctx *Context, found bool) {
	bestLen := -1
	for i, c := range t.contexts {
		if c == nil {
			continue
		}
		if matchBits(addr, c.Prefix, c.PrefixLen) && c.PrefixLen > bestLen {
			id, ctx, found = uint8(i), c, true
			bestLen = c.PrefixLen
		}
	}
	return
}
