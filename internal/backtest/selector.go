package backtest

import "sort"

// SelectTopN returns the identifiers of the n highest-valued instruments in
// the snapshot, ordered by descending value. Ties break by ascending
// identifier so the result is independent of map iteration order. When the
// snapshot holds fewer than n instruments all of them are selected and
// underCapacity is true; that is a signal for the caller, not an error.
func SelectTopN(snapshot Snapshot, n int) (selected []string, underCapacity bool, err error) {
	if n <= 0 {
		return nil, false, NewConfigurationError("n must be positive, got %d", n)
	}

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		vi, vj := snapshot[ids[i]], snapshot[ids[j]]
		if vi != vj {
			return vi > vj
		}
		return ids[i] < ids[j]
	})

	if len(ids) < n {
		return ids, true, nil
	}
	return ids[:n], false, nil
}
