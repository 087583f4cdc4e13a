package dialog

// ExtractFirst returns the first span recorded for slot. Absence is not an error.
func ExtractFirst(entities map[string][]string, slot string) (string, bool) {
	spans := entities[slot]
	if len(spans) == 0 || spans[0] == "" {
		return "", false
	}
	return spans[0], true
}
