package extractor

import "strings"

// The awarding-body path was rendered with two different delimiter tokens
// over the data's time range, one per CMS generation.
const (
	legacyEntityDelimiter = "··>"
	arrowEntityDelimiter  = "→"
)

// splitEntityPath splits a raw awarding-entity string into the two-level body
// path and the optional sub-body. "A··>B··>C" and "A→B→C" both yield
// ("A > B", "C").
func splitEntityPath(raw string) (body, subBody string) {
	delimiter := legacyEntityDelimiter
	if strings.Contains(raw, arrowEntityDelimiter) {
		delimiter = arrowEntityDelimiter
	}

	segments := strings.Split(raw, delimiter)
	for i, s := range segments {
		segments[i] = strings.TrimSpace(s)
	}

	head := segments
	if len(head) > 2 {
		head = head[:2]
	}

	body = strings.Join(head, " > ")
	if len(segments) > 2 {
		subBody = segments[2]
	}

	return body, subBody
}
