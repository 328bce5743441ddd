package ingest

// SplitText slices text into fixed-size windows with the given overlap.
// Consecutive chunks start size−overlap characters apart, the final chunk
// may be shorter than size, and empty text yields no chunks. Boundaries
// are counted in runes so multi-byte text never splits mid-character.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	stride := size - overlap
	var chunks []string
	for start := 0; start < len(runes); start += stride {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
