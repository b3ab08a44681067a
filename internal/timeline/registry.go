package timeline

// StaticRegistry is a fixed map of source clips, handy for previews and
// tests. It must not be mutated after it is shared.
type StaticRegistry map[string]SourceClip

func NewStaticRegistry(clips ...SourceClip) StaticRegistry {
	r := make(StaticRegistry, len(clips))
	for _, c := range clips {
		r[c.ID] = c
	}
	return r
}

func (r StaticRegistry) Lookup(id string) (SourceClip, bool) {
	c, ok := r[id]
	return c, ok
}
