package corpus

import "strings"

// DefaultChunkSize is the fragment threshold in characters.
const DefaultChunkSize = 300

// Chunk splits raw document text into provenance-tagged fragments. Lines are
// accumulated into a buffer which is flushed whenever the next line would
// push it past the threshold. The check happens before the line is added, so
// a fragment may modestly exceed the threshold when a single line is long.
// Empty input produces no fragments.
func Chunk(text, source string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks []string
	current := ""

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if len(current)+len(line) > size {
			chunks = append(chunks, "["+source+"] "+strings.TrimSpace(current))
			current = ""
		}
		current += line + " "
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, "["+source+"] "+strings.TrimSpace(current))
	}

	return chunks
}
