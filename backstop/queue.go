package backstop

import "container/list"

// toDeque and fromDeque bridge the persisted []Q4WEntry slice (RLP-friendly)
// and the in-memory container/list.List used while mutating the queue: the
// head entry is frequently partially consumed in place, which a slice would
// require shifting on every partial dequeue, whereas a list lets the engine
// shrink the head entry's Amount and splice it out only once fully drained.
func toDeque(entries []Q4WEntry) *list.List {
	l := list.New()
	for _, e := range entries {
		v := e
		l.PushBack(&v)
	}
	return l
}

func fromDeque(l *list.List) []Q4WEntry {
	out := make([]Q4WEntry, 0, l.Len())
	for e := l.Front(); e != nil; e = e.Next() {
		out = append(out, *e.Value.(*Q4WEntry))
	}
	return out
}
