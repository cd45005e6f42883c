package ir

import (
	"encoding/json"
	"fmt"
)

// ConflictKind names a Conflict variant.
type ConflictKind string

const (
	ConflictBorrow               ConflictKind = "borrow"
	ConflictNotThreadMobile      ConflictKind = "not_thread_mobile"
	ConflictOtherNotThreadMobile ConflictKind = "other_not_thread_mobile"
)

// Conflict pinpoints the storage and system that kept a system out of a
// batch. It is a sealed interface: only BorrowConflict,
// NotThreadMobileConflict and OtherNotThreadMobileConflict implement it.
//
// A Conflict is also an error so the conflict analyzer can return it
// directly, but it is an expected planning outcome, not a failure.
type Conflict interface {
	error
	Kind() ConflictKind
	conflict()
}

// BorrowConflict: the access On is incompatible with OtherSystem's access
// OtherOn (overlapping storages, at least one side exclusive).
//
// On is optional in the report format. The analyzer in this module always
// sets it; reports decoded from other producers may omit it.
type BorrowConflict struct {
	On          *TypeInfo `json:"on,omitempty"`
	OtherSystem SystemID  `json:"other_system"`
	OtherOn     TypeInfo  `json:"other_on"`
}

func (*BorrowConflict) conflict() {}

// Kind implements Conflict.
func (*BorrowConflict) Kind() ConflictKind { return ConflictBorrow }

func (c *BorrowConflict) Error() string {
	if c.On == nil {
		return fmt.Sprintf("%s holds %s for the whole batch", c.OtherSystem, c.OtherOn)
	}
	return fmt.Sprintf("%s conflicts with %s held by %s", c.On, c.OtherOn, c.OtherSystem)
}

// NotThreadMobileConflict: the system itself accesses a storage that cannot
// be shared across threads, so it must run alone.
type NotThreadMobileConflict struct {
	TypeInfo TypeInfo `json:"type_info"`
}

func (*NotThreadMobileConflict) conflict() {}

// Kind implements Conflict.
func (*NotThreadMobileConflict) Kind() ConflictKind { return ConflictNotThreadMobile }

func (c *NotThreadMobileConflict) Error() string {
	return fmt.Sprintf("%s is not thread-mobile", c.TypeInfo)
}

// OtherNotThreadMobileConflict: a system already in the batch holds a
// storage that cannot be shared across threads, so the batch admits no
// further members.
type OtherNotThreadMobileConflict struct {
	System   SystemID `json:"system"`
	TypeInfo TypeInfo `json:"type_info"`
}

func (*OtherNotThreadMobileConflict) conflict() {}

// Kind implements Conflict.
func (*OtherNotThreadMobileConflict) Kind() ConflictKind { return ConflictOtherNotThreadMobile }

func (c *OtherNotThreadMobileConflict) Error() string {
	return fmt.Sprintf("%s holds %s which is not thread-mobile", c.System, c.TypeInfo)
}

// ConflictsEqual compares two conflicts structurally, using the custom
// equality of TypeInfo and SystemID. Two nil conflicts are equal.
func ConflictsEqual(a, b Conflict) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *BorrowConflict:
		y, ok := b.(*BorrowConflict)
		if !ok {
			return false
		}
		if (x.On == nil) != (y.On == nil) {
			return false
		}
		if x.On != nil && !x.On.Equal(*y.On) {
			return false
		}
		return x.OtherSystem.Equal(y.OtherSystem) && x.OtherOn.Equal(y.OtherOn)
	case *NotThreadMobileConflict:
		y, ok := b.(*NotThreadMobileConflict)
		return ok && x.TypeInfo.Equal(y.TypeInfo)
	case *OtherNotThreadMobileConflict:
		y, ok := b.(*OtherNotThreadMobileConflict)
		return ok && x.System.Equal(y.System) && x.TypeInfo.Equal(y.TypeInfo)
	default:
		return false
	}
}

// MarshalJSON writes the variant's fields plus a "kind" discriminator.
func (c *BorrowConflict) MarshalJSON() ([]byte, error) {
	type plain BorrowConflict
	return json.Marshal(struct {
		Kind ConflictKind `json:"kind"`
		*plain
	}{ConflictBorrow, (*plain)(c)})
}

// MarshalJSON writes the variant's fields plus a "kind" discriminator.
func (c *NotThreadMobileConflict) MarshalJSON() ([]byte, error) {
	type plain NotThreadMobileConflict
	return json.Marshal(struct {
		Kind ConflictKind `json:"kind"`
		*plain
	}{ConflictNotThreadMobile, (*plain)(c)})
}

// MarshalJSON writes the variant's fields plus a "kind" discriminator.
func (c *OtherNotThreadMobileConflict) MarshalJSON() ([]byte, error) {
	type plain OtherNotThreadMobileConflict
	return json.Marshal(struct {
		Kind ConflictKind `json:"kind"`
		*plain
	}{ConflictOtherNotThreadMobile, (*plain)(c)})
}

// UnmarshalConflict decodes a conflict written by MarshalJSON, dispatching on
// its "kind" field.
func UnmarshalConflict(data []byte) (Conflict, error) {
	var head struct {
		Kind ConflictKind `json:"kind"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("conflict: %w", err)
	}
	var c Conflict
	switch head.Kind {
	case ConflictBorrow:
		c = &BorrowConflict{}
	case ConflictNotThreadMobile:
		c = &NotThreadMobileConflict{}
	case ConflictOtherNotThreadMobile:
		c = &OtherNotThreadMobileConflict{}
	default:
		return nil, fmt.Errorf("conflict: unknown kind %q", head.Kind)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("conflict %s: %w", head.Kind, err)
	}
	return c, nil
}
