package valueobjects

import (
	"fmt"
	"strings"
)

// Path addresses a block by the chain of locations leading to it from a
// root content. The empty path addresses the root content itself.
//
// Paths are values: every method that produces a path returns a fresh slice.
type Path []LocatedBlockID

// NewPath builds a path from ids
func NewPath(ids ...LocatedBlockID) Path {
	p := make(Path, len(ids))
	copy(p, ids)
	return p
}

// ParsePath reads the comma-separated form produced by String
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Path{}, nil
	}
	parts := strings.Split(s, ",")
	p := make(Path, 0, len(parts))
	for i, part := range parts {
		id, err := NewLocatedBlockID(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("path element %d: %w", i, err)
		}
		p = append(p, id)
	}
	return p, nil
}

// IsRoot reports whether the path addresses the root content
func (p Path) IsRoot() bool { return len(p) == 0 }

// Last returns the deepest location; zero for the root path
func (p Path) Last() LocatedBlockID {
	if len(p) == 0 {
		return LocatedBlockID{}
	}
	return p[len(p)-1]
}

// Parent drops the deepest location
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return NewPath(p[:len(p)-1]...)
}

// Child extends the path by one location
func (p Path) Child(id LocatedBlockID) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, id)
}

// Sibling replaces the deepest location
func (p Path) Sibling(id LocatedBlockID) Path {
	return p.Parent().Child(id)
}

func (p Path) Equals(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !p[i].Equals(other[i]) {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, id := range p {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}
