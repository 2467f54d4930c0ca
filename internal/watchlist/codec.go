package watchlist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// wireRecord is the persisted shape of a record. Older writers stored the
// season count as the raw text the user typed, under either field name, so
// both are read and normalized.
type wireRecord struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	TotalNoSeason    json.RawMessage `json:"totalNoSeason,omitempty"`
	TotalSeasonCount json.RawMessage `json:"totalSeasonCount,omitempty"`
	IsWatched        bool            `json:"isWatched"`
}

type encodedRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalNoSeason int    `json:"totalNoSeason"`
	IsWatched     bool   `json:"isWatched"`
}

// Encode serializes list as the persisted JSON array. An empty list encodes
// as [].
func Encode(list WatchList) ([]byte, error) {
	out := make([]encodedRecord, 0, len(list))
	for _, rec := range list {
		out = append(out, encodedRecord{
			ID:            rec.ID,
			Name:          rec.Name,
			TotalNoSeason: rec.TotalSeasonCount,
			IsWatched:     rec.IsWatched,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal watch list: %w", err)
	}
	return data, nil
}

// Decode parses a persisted JSON array. It rejects values that break the list
// invariants: missing ids, duplicate ids, empty names, or season counts that
// are not positive whole numbers. A JSON null decodes as an empty list.
func Decode(data []byte) (WatchList, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty value")
	}
	var wire []wireRecord
	if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("decode watch list: %w", err)
	}

	list := make(WatchList, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		id := strings.TrimSpace(w.ID)
		if id == "" {
			return nil, fmt.Errorf("record %d: missing id", i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("record %d: duplicate id %q", i, id)
		}
		seen[id] = struct{}{}

		if strings.TrimSpace(w.Name) == "" {
			return nil, fmt.Errorf("record %d: missing name", i)
		}

		raw := w.TotalNoSeason
		if len(raw) == 0 {
			raw = w.TotalSeasonCount
		}
		count, err := decodeSeasonCount(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}

		list = append(list, SeasonRecord{
			ID:               id,
			Name:             w.Name,
			TotalSeasonCount: count,
			IsWatched:        w.IsWatched,
		})
	}
	return list, nil
}

func decodeSeasonCount(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing season count")
	}
	var text string
	switch raw[0] {
	case '"':
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("season count: %w", err)
		}
	default:
		text = string(raw)
	}
	count, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("season count %s is not a whole number", raw)
	}
	if err := checkSeasonCount(count); err != nil {
		return 0, fmt.Errorf("season count %d: %w", count, err)
	}
	return count, nil
}
