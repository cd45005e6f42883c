package ir

import (
	"fmt"
	"strings"
)

// AccessMode is the claim a system places on a storage.
type AccessMode int

const (
	// Shared is a read claim. Any number of shared claims may coexist.
	Shared AccessMode = iota
	// Exclusive is a write claim. It coexists with no other claim on the
	// same storage.
	Exclusive
)

// String returns "shared" or "exclusive".
func (m AccessMode) String() string {
	switch m {
	case Shared:
		return "shared"
	case Exclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("AccessMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m AccessMode) MarshalText() ([]byte, error) {
	switch m {
	case Shared, Exclusive:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("invalid access mode %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *AccessMode) UnmarshalText(text []byte) error {
	mode, err := ParseAccessMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseAccessMode parses an access mode name. Accepted spellings are
// "shared"/"read" and "exclusive"/"write", case-insensitive.
func ParseAccessMode(s string) (AccessMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared", "read":
		return Shared, nil
	case "exclusive", "write":
		return Exclusive, nil
	default:
		return Shared, fmt.Errorf("unknown access mode %q: must be shared or exclusive", s)
	}
}

// StorageID is the stable identity of a data store.
type StorageID string

// AllStorages is the reserved storage identity for a whole-world claim.
// It overlaps every other storage identity.
const AllStorages StorageID = "*"

// Overlaps reports whether two storage identities refer to at least one
// common store.
func (s StorageID) Overlaps(other StorageID) bool {
	return s == other || s == AllStorages || other == AllStorages
}

// TypeID is the opaque identity of a system.
type TypeID string

// DefaultTypeID is the TypeID given to a declared system without one.
func DefaultTypeID(workload, system string) TypeID {
	return TypeID(workload + "." + system)
}

// TypeInfo describes one storage access made by a system.
//
// Equality and ordering are defined over (StorageID, Mode) only. Two
// descriptors for the same store with the same mode are the same
// requirement regardless of Name or ThreadMobile. Use Equal and Compare,
// never ==.
type TypeInfo struct {
	Name         string     `json:"name"`
	Mode         AccessMode `json:"mode"`
	StorageID    StorageID  `json:"storage_id"`
	ThreadMobile bool       `json:"thread_mobile"`
}

// Equal reports whether t and o identify the same requirement.
func (t TypeInfo) Equal(o TypeInfo) bool {
	return t.StorageID == o.StorageID && t.Mode == o.Mode
}

// Matches reports whether t is the requirement (storage, mode).
func (t TypeInfo) Matches(storage StorageID, mode AccessMode) bool {
	return t.StorageID == storage && t.Mode == mode
}

// Compare orders by StorageID then Mode (Shared before Exclusive).
func (t TypeInfo) Compare(o TypeInfo) int {
	if c := strings.Compare(string(t.StorageID), string(o.StorageID)); c != 0 {
		return c
	}
	switch {
	case t.Mode < o.Mode:
		return -1
	case t.Mode > o.Mode:
		return 1
	default:
		return 0
	}
}

// Key returns the identifying pair, usable as a map key.
func (t TypeInfo) Key() TypeKey {
	return TypeKey{StorageID: t.StorageID, Mode: t.Mode}
}

// ConflictsWith reports whether t and o may not be held at the same time:
// the storages overlap and at least one side is Exclusive.
func (t TypeInfo) ConflictsWith(o TypeInfo) bool {
	return t.StorageID.Overlaps(o.StorageID) && (t.Mode == Exclusive || o.Mode == Exclusive)
}

func (t TypeInfo) String() string {
	name := t.Name
	if name == "" {
		name = string(t.StorageID)
	}
	if !t.ThreadMobile {
		return fmt.Sprintf("%s (%s, not thread-mobile)", name, t.Mode)
	}
	return fmt.Sprintf("%s (%s)", name, t.Mode)
}

// TypeKey is the identifying part of a TypeInfo.
type TypeKey struct {
	StorageID StorageID
	Mode      AccessMode
}

// SystemID identifies a system.
//
// Equality is by TypeID alone; Name is display-only, so two ids with
// different names but the same TypeID are the same system.
type SystemID struct {
	Name   string `json:"name"`
	TypeID TypeID `json:"type_id"`
}

// Equal reports whether s and o identify the same system.
func (s SystemID) Equal(o SystemID) bool {
	return s.TypeID == o.TypeID
}

func (s SystemID) String() string {
	return s.Name
}
