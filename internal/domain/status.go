package domain

// Progress is the settlement position of an entity relative to its total:
// nothing allocated, some allocated, or everything allocated.
type Progress int

const (
	ProgressNone Progress = iota
	ProgressPartial
	ProgressFull
)

// DeriveProgress recomputes settlement progress from the live allocation sum.
// It is the single source of truth for every status mutation; callers must
// never patch a status incrementally. Amounts are integer cents, so "full"
// means the remainder is exactly zero (a sub-cent tolerance collapses to
// equality).
func DeriveProgress(total, allocated Cents) Progress {
	switch {
	case total-allocated <= 0:
		return ProgressFull
	case allocated > 0:
		return ProgressPartial
	default:
		return ProgressNone
	}
}
