package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
)

// BlockContentID identifies a BlockContent. The zero value stands for "no content",
// which is how a tree-root location records that it has no parent.
type BlockContentID struct {
	value string
}

// LocatedBlockID identifies a LocatedBlock. The zero value stands for "no location",
// used for the left pointer of a leftmost child.
type LocatedBlockID struct {
	value string
}

// NewBlockContentID wraps an id produced by an id generator
func NewBlockContentID(id string) (BlockContentID, error) {
	if strings.TrimSpace(id) == "" {
		return BlockContentID{}, errors.New("block content ID cannot be empty")
	}
	return BlockContentID{value: id}, nil
}

// MustBlockContentID is NewBlockContentID for ids known to be valid
func MustBlockContentID(id string) BlockContentID {
	cid, err := NewBlockContentID(id)
	if err != nil {
		panic(err)
	}
	return cid
}

// NewLocatedBlockID wraps an id produced by an id generator
func NewLocatedBlockID(id string) (LocatedBlockID, error) {
	if strings.TrimSpace(id) == "" {
		return LocatedBlockID{}, errors.New("located block ID cannot be empty")
	}
	return LocatedBlockID{value: id}, nil
}

// MustLocatedBlockID is NewLocatedBlockID for ids known to be valid
func MustLocatedBlockID(id string) LocatedBlockID {
	lid, err := NewLocatedBlockID(id)
	if err != nil {
		panic(err)
	}
	return lid
}

func (id BlockContentID) String() string { return id.value }

// IsZero reports whether the id is the null id
func (id BlockContentID) IsZero() bool { return id.value == "" }

func (id BlockContentID) Equals(other BlockContentID) bool { return id.value == other.value }

func (id LocatedBlockID) String() string { return id.value }

// IsZero reports whether the id is the null id
func (id LocatedBlockID) IsZero() bool { return id.value == "" }

func (id LocatedBlockID) Equals(other LocatedBlockID) bool { return id.value == other.value }

// MarshalJSON encodes the null id as JSON null
func (id BlockContentID) MarshalJSON() ([]byte, error) {
	return marshalID(id.value)
}

// UnmarshalJSON accepts a string or null
func (id *BlockContentID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, &id.value)
}

// MarshalJSON encodes the null id as JSON null
func (id LocatedBlockID) MarshalJSON() ([]byte, error) {
	return marshalID(id.value)
}

// UnmarshalJSON accepts a string or null
func (id *LocatedBlockID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, &id.value)
}

func marshalID(value string) ([]byte, error) {
	if value == "" {
		return []byte("null"), nil
	}
	return json.Marshal(value)
}

func unmarshalID(data []byte, dst *string) error {
	if string(data) == "null" {
		*dst = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("ID must be a string or null")
	}
	*dst = s
	return nil
}
