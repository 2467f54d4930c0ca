package watchlist

// SeasonRecord is one tracked series.
type SeasonRecord struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	TotalSeasonCount int    `json:"totalSeasonCount"`
	IsWatched        bool   `json:"isWatched"`
}

// WatchList is the insertion-ordered collection of records.
type WatchList []SeasonRecord

// Clone returns a copy that shares no storage with l.
func (l WatchList) Clone() WatchList {
	out := make(WatchList, len(l))
	copy(out, l)
	return out
}

// IndexOf returns the position of the record with id, or -1.
func (l WatchList) IndexOf(id string) int {
	for i := range l {
		if l[i].ID == id {
			return i
		}
	}
	return -1
}

// WatchedCount returns how many records are marked watched.
func (l WatchList) WatchedCount() int {
	n := 0
	for i := range l {
		if l[i].IsWatched {
			n++
		}
	}
	return n
}
