package displaywatch

// Diff returns the events that turn prev into next.
//
// Displays are visited in ascending id-key order over the union of both
// snapshots, so the result does not depend on the order a provider reported
// its records in. For a display present in both snapshots the events come
// in a fixed order: SizeChanged, OriginChanged, then Mirrored or UnMirrored.
// Changes to the primary flag or scale factor alone produce no event.
//
// Diff(s, s) is empty. Swapping the arguments swaps Added with Removed,
// Mirrored with UnMirrored, and Before with After.
func Diff(prev, next Snapshot) []Event {
	ids := unionIDs(prev, next)

	var events []Event
	for _, id := range ids {
		before, inOld := prev.Get(id)
		after, inNew := next.Get(id)

		switch {
		case inOld && !inNew:
			events = append(events, Removed{ID: id})
		case !inOld && inNew:
			events = append(events, Added{ID: id})
		case inOld && inNew:
			events = appendAttributeEvents(events, id, before, after)
		}
	}
	return events
}

func appendAttributeEvents(events []Event, id DisplayID, before, after DisplayState) []Event {
	if before.Size != after.Size {
		events = append(events, SizeChanged{ID: id, Before: before.Size, After: after.Size})
	}
	if before.Origin != after.Origin {
		events = append(events, OriginChanged{ID: id, Before: before.Origin, After: after.Origin})
	}
	switch {
	case !before.Mirrored && after.Mirrored:
		events = append(events, Mirrored{ID: id})
	case before.Mirrored && !after.Mirrored:
		events = append(events, UnMirrored{ID: id})
	}
	return events
}

func unionIDs(a, b Snapshot) []DisplayID {
	seen := make(map[DisplayID]struct{}, a.Len()+b.Len())
	ids := make([]DisplayID, 0, a.Len()+b.Len())
	for _, s := range []Snapshot{a, b} {
		for id := range s.states {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	sortIDs(ids)
	return ids
}
