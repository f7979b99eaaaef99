package obfuscate

// Entry is one original to synthetic mapping.
type Entry struct {
	Original  string `json:"original"`
	Synthetic string `json:"synthetic"`
}

// ObfuscationMap is the forward map of one document, in first-seen order.
type ObfuscationMap struct {
	order []string
	names map[string]string
}

func newObfuscationMap() *ObfuscationMap {
	return &ObfuscationMap{names: make(map[string]string)}
}

func (m *ObfuscationMap) add(original, synthetic string) {
	m.order = append(m.order, original)
	m.names[original] = synthetic
}

// Lookup returns the synthetic name of an original identifier.
func (m *ObfuscationMap) Lookup(original string) (string, bool) {
	name, ok := m.names[original]
	return name, ok
}

// Len returns the number of distinct identifiers renamed.
func (m *ObfuscationMap) Len() int { return len(m.order) }

// Entries returns the mappings in first-seen order.
func (m *ObfuscationMap) Entries() []Entry {
	out := make([]Entry, len(m.order))
	for i, k := range m.order {
		out[i] = Entry{Original: k, Synthetic: m.names[k]}
	}
	return out
}
