package bundle

// Session memoizes resolution work for one provider. Entries are keyed by
// bundle identity, results by root identity. A Session is not safe for
// concurrent use.
type Session struct {
	entries map[key]*Entry
	results map[key]*Classpath

	hits, misses int
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.Reset()
	return s
}

// Reset drops everything cached so far.
func (s *Session) Reset() {
	s.entries = make(map[key]*Entry)
	s.results = make(map[key]*Classpath)
	s.hits, s.misses = 0, 0
}

// Stats returns the number of result cache hits and misses since the last
// reset.
func (s *Session) Stats() (hits, misses int) { return s.hits, s.misses }

func (s *Session) result(id Identity) (*Classpath, bool) {
	cp, ok := s.results[id.key()]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	return cp, ok
}

func (s *Session) entry(b *Bundle, p Provider) *Entry {
	if e, ok := s.entries[b.key()]; ok {
		return e
	}
	e := &Entry{
		Bundle:    b.Identity,
		Project:   b.Project,
		Locations: append([]string(nil), b.Locations...),
	}
	for _, f := range p.Fragments(b.Identity) {
		e.Fragments = append(e.Fragments, f.Identity)
		e.Locations = append(e.Locations, f.Locations...)
		if f.Project != "" {
			e.FragmentProjects = append(e.FragmentProjects, f.Project)
		}
	}
	s.entries[b.key()] = e
	return e
}
