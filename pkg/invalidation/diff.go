package invalidation

// Diff computes the set differences of two ordered lists:
// removed = old - new and added = new - old. Membership is by equality;
// each result keeps the order of the list it was taken from, duplicates
// included.
func Diff[T comparable](old, new []T) (removed, added []T) {
	inOld := make(map[T]struct{}, len(old))
	for _, v := range old {
		inOld[v] = struct{}{}
	}
	inNew := make(map[T]struct{}, len(new))
	for _, v := range new {
		inNew[v] = struct{}{}
	}

	for _, v := range old {
		if _, ok := inNew[v]; !ok {
			removed = append(removed, v)
		}
	}
	for _, v := range new {
		if _, ok := inOld[v]; !ok {
			added = append(added, v)
		}
	}
	return removed, added
}
