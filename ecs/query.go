package ecs

// IntersectEntities returns the slot ids present in every set, in the order of the
// smallest set.
func IntersectEntities(sets ...*SparseSet) []entityID {
	if len(sets) == 0 {
		return nil
	}
	smallest := 0
	for i, s := range sets {
		if s == nil {
			return nil
		}
		if s.Len() < sets[smallest].Len() {
			smallest = i
		}
	}
	out := make([]entityID, 0, sets[smallest].Len())
outer:
	for _, id := range sets[smallest].ids() {
		for i, s := range sets {
			if i != smallest && !s.Has(id) {
				continue outer
			}
		}
		out = append(out, id)
	}
	return out
}
