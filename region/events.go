package region

import (
	"slices"

	"github.com/ciltools/ciltools/bytecode"
)

// Events lists the region boundaries that fall inside one instruction's
// span [start, end).
type Events struct {
	// TryStarts holds one region per distinct protected range starting
	// here, outermost (longest) first.
	TryStarts []bytecode.ExceptionRegion
	// TryEnds holds one region per distinct protected range ending here.
	TryEnds []bytecode.ExceptionRegion
	// HandlerEnds holds every region whose handler ends here.
	HandlerEnds []bytecode.ExceptionRegion
	// FilterStarts holds every filter region whose filter block starts here.
	FilterStarts []bytecode.ExceptionRegion
	// HandlerStarts holds every region whose handler starts here.
	HandlerStarts []bytecode.ExceptionRegion
}

// Closes returns the number of blocks closed at this position.
func (e Events) Closes() int {
	return len(e.TryEnds) + len(e.HandlerEnds)
}

// Empty reports whether no boundary falls in the span.
func (e Events) Empty() bool {
	return len(e.TryStarts)+len(e.TryEnds)+len(e.HandlerEnds)+len(e.FilterStarts)+len(e.HandlerStarts) == 0
}

// At returns the region boundaries inside [start, end). Regions sharing a
// protected range contribute a single try start and try end.
func At(regions []bytecode.ExceptionRegion, start, end int) Events {
	in := func(off int) bool { return off >= start && off < end }
	var ev Events
	for _, r := range regions {
		if in(r.TryOffset) && !hasKey(ev.TryStarts, r.TryKey()) {
			ev.TryStarts = append(ev.TryStarts, r)
		}
		if in(r.TryEnd()) && !hasKey(ev.TryEnds, r.TryKey()) {
			ev.TryEnds = append(ev.TryEnds, r)
		}
		if in(r.HandlerEnd()) {
			ev.HandlerEnds = append(ev.HandlerEnds, r)
		}
		if r.Kind == bytecode.RegionFilter && in(r.FilterOffset) {
			ev.FilterStarts = append(ev.FilterStarts, r)
		}
		if in(r.HandlerOffset) {
			ev.HandlerStarts = append(ev.HandlerStarts, r)
		}
	}
	slices.SortStableFunc(ev.TryStarts, func(a, b bytecode.ExceptionRegion) int {
		return b.TryLength - a.TryLength
	})
	return ev
}

func hasKey(regions []bytecode.ExceptionRegion, key bytecode.TryKey) bool {
	for _, r := range regions {
		if r.TryKey() == key {
			return true
		}
	}
	return false
}
