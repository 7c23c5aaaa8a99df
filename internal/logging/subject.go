package logging

import "strings"

// FormatSubject builds the stage/item subject string used in console output.
func FormatSubject(stage, itemIndex string) string {
	stage = strings.TrimSpace(stage)
	itemIndex = strings.TrimSpace(itemIndex)
	var label string
	if stage != "" {
		label = strings.ToUpper(stage[:1]) + strings.ToLower(stage[1:])
	}
	switch {
	case itemIndex != "" && label != "":
		return label + " #" + itemIndex
	case itemIndex != "":
		return "Item #" + itemIndex
	default:
		return label
	}
}
