package evaluation

// RecallAtK is the share of expected article ids that appear in the first k
// retrieved ids. An article retrieved twice counts once. No expected ids
// gives 0.
func RecallAtK(expected, retrieved []string, k int) float64 {
	want := idSet(expected)
	total := len(want)
	if total == 0 {
		return 0
	}
	found := 0
	for _, id := range topK(retrieved, k) {
		if _, ok := want[id]; ok {
			found++
			delete(want, id)
		}
	}
	return float64(found) / float64(total)
}

// MRRAtK is the reciprocal rank of the first expected article within the
// first k retrieved ids, or 0 when none is there.
func MRRAtK(expected, retrieved []string, k int) float64 {
	want := idSet(expected)
	for i, id := range topK(retrieved, k) {
		if _, ok := want[id]; ok {
			return 1 / float64(i+1)
		}
	}
	return 0
}

func topK(ids []string, k int) []string {
	if k >= 0 && k < len(ids) {
		return ids[:k]
	}
	return ids
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
