package ingest

import "github.com/JonMunkholm/checkin/internal/participant"

// Dedup drops records whose DedupKey was already seen, keeping the first
// occurrence and the input order. Keys compare exactly, so rows differing
// only in case or whitespace are kept as distinct records.
func Dedup(records []participant.Participant) []participant.Participant {
	seen := make(map[string]struct{}, len(records))
	out := make([]participant.Participant, 0, len(records))
	for _, p := range records {
		key := p.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}
