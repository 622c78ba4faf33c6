package valueobjects

import (
	"fmt"
	"strings"
)

// Verb is the semantic tag of a block. The set of verbs is closed: the
// unexported method keeps other packages from adding variants, and every
// switch over a verb name lives in ParseVerb.
type Verb interface {
	Name() string
	DefaultChildVerb() Verb
	DefaultSiblingVerb() Verb
	// IsWorkspace reports whether blocks with this verb are rendered inline
	// and skipped by guide navigation.
	IsWorkspace() bool
	verb()
}

type doVerb struct{}
type chooseVerb struct{}
type readVerb struct{}
type viewVerb struct{}
type editVerb struct{}

var (
	VerbDo     Verb = doVerb{}
	VerbChoose Verb = chooseVerb{}
	VerbRead   Verb = readVerb{}
	VerbView   Verb = viewVerb{}
	VerbEdit   Verb = editVerb{}
)

// AllVerbs lists the verbs in display order
func AllVerbs() []Verb {
	return []Verb{VerbDo, VerbChoose, VerbRead, VerbView, VerbEdit}
}

func (doVerb) Name() string             { return "DO" }
func (doVerb) DefaultChildVerb() Verb   { return VerbDo }
func (doVerb) DefaultSiblingVerb() Verb { return VerbDo }
func (doVerb) IsWorkspace() bool        { return false }
func (doVerb) verb()                    {}

// The children of a CHOOSE block are its options, each one a step.
func (chooseVerb) Name() string             { return "CHOOSE" }
func (chooseVerb) DefaultChildVerb() Verb   { return VerbDo }
func (chooseVerb) DefaultSiblingVerb() Verb { return VerbDo }
func (chooseVerb) IsWorkspace() bool        { return false }
func (chooseVerb) verb()                    {}

func (readVerb) Name() string             { return "READ" }
func (readVerb) DefaultChildVerb() Verb   { return VerbRead }
func (readVerb) DefaultSiblingVerb() Verb { return VerbRead }
func (readVerb) IsWorkspace() bool        { return false }
func (readVerb) verb()                    {}

func (viewVerb) Name() string             { return "VIEW" }
func (viewVerb) DefaultChildVerb() Verb   { return VerbRead }
func (viewVerb) DefaultSiblingVerb() Verb { return VerbDo }
func (viewVerb) IsWorkspace() bool        { return true }
func (viewVerb) verb()                    {}

func (editVerb) Name() string             { return "EDIT" }
func (editVerb) DefaultChildVerb() Verb   { return VerbRead }
func (editVerb) DefaultSiblingVerb() Verb { return VerbDo }
func (editVerb) IsWorkspace() bool        { return true }
func (editVerb) verb()                    {}

// ParseVerb resolves a verb name, case-insensitively
func ParseVerb(name string) (Verb, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DO":
		return VerbDo, nil
	case "CHOOSE":
		return VerbChoose, nil
	case "READ":
		return VerbRead, nil
	case "VIEW":
		return VerbView, nil
	case "EDIT":
		return VerbEdit, nil
	default:
		return nil, fmt.Errorf("unknown verb %q", name)
	}
}
