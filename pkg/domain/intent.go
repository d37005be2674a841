package domain

import "strings"

// Intent is the coarse category that decides which branch handles a query.
type Intent string

const (
	IntentText  Intent = "text"
	IntentImage Intent = "image"
	Intent3D    Intent = "3d"
	IntentVideo Intent = "video"
)

// Intents lists every valid intent in routing order.
var Intents = []Intent{IntentText, IntentImage, Intent3D, IntentVideo}

// Valid reports whether i is one of the four known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentText, IntentImage, Intent3D, IntentVideo:
		return true
	}
	return false
}

// ParseIntent converts a label (as returned by a classifier model) into an Intent.
// Surrounding whitespace, quotes and a trailing period are ignored.
func ParseIntent(s string) (Intent, bool) {
	label := strings.ToLower(strings.TrimSpace(s))
	label = strings.Trim(label, "'\".")
	i := Intent(label)
	if !i.Valid() {
		return "", false
	}
	return i, true
}
