package scheduler

import "github.com/roach88/workplan/internal/ir"

// Check decides whether candidate may join batch, a set of systems that run
// concurrently. It returns nil if candidate may join, otherwise the first
// conflict found:
//
//  1. candidate accesses a storage that is not thread-mobile
//  2. a member of a non-empty batch accesses such a storage
//  3. an access of candidate and an access of a member overlap on storage
//     and at least one is exclusive, scanning members in batch order and
//     candidate accesses in declared order
//
// Check is pure: the same inputs always yield the same conflict.
func Check(candidate ir.SystemInfo, batch []ir.SystemInfo) ir.Conflict {
	if t, ok := candidate.ThreadImmobile(); ok {
		return &ir.NotThreadMobileConflict{TypeInfo: t}
	}

	for _, member := range batch {
		if t, ok := member.ThreadImmobile(); ok {
			return &ir.OtherNotThreadMobileConflict{System: member.ID(), TypeInfo: t}
		}
	}

	for _, member := range batch {
		for i := range candidate.Borrow {
			on := candidate.Borrow[i]
			for _, other := range member.Borrow {
				if on.ConflictsWith(other) {
					return &ir.BorrowConflict{On: &on, OtherSystem: member.ID(), OtherOn: other}
				}
			}
		}
	}

	return nil
}
