// Package gesture maps client-sent gesture names to simulated keyboard
// and mouse input on the host, scoped by the document type the session
// is currently viewing.
package gesture

import "errors"

// Dispatch errors
var (
	// ErrMissingContext is returned when no document type is recorded
	// on the session (no display has happened yet)
	ErrMissingContext = errors.New("no active document type")
	// ErrUnsupportedGesture is returned when the (document type, gesture)
	// pair has no action
	ErrUnsupportedGesture = errors.New("gesture not supported for this file type")
)

// Action is a host input action variant
type Action int

// Action variants
const (
	ZoomIn Action = iota
	ZoomOut
	ScrollUp
	ScrollDown
	PrevPage
	NextPage
)

// Gesture names accepted on the wire
const (
	GestureZoomIn       = "zoom_in"
	GestureZoomOut      = "zoom_out"
	GestureScrollUp     = "scroll_up"
	GestureScrollDown   = "scroll_down"
	GesturePreviousPage = "previous_page"
	GestureNextPage     = "next_page"
)

// actions maps document type to gesture name to action. Presentations
// have no scroll gestures. Lookups are exact: only the types listed here
// support gestures at all.
var actions = map[string]map[string]Action{
	"pdf": {
		GestureZoomIn:       ZoomIn,
		GestureZoomOut:      ZoomOut,
		GestureScrollUp:     ScrollUp,
		GestureScrollDown:   ScrollDown,
		GesturePreviousPage: PrevPage,
		GestureNextPage:     NextPage,
	},
	"doc": {
		GestureZoomIn:       ZoomIn,
		GestureZoomOut:      ZoomOut,
		GestureScrollUp:     ScrollUp,
		GestureScrollDown:   ScrollDown,
		GesturePreviousPage: PrevPage,
		GestureNextPage:     NextPage,
	},
	"ppt": {
		GestureZoomIn:       ZoomIn,
		GestureZoomOut:      ZoomOut,
		GesturePreviousPage: PrevPage,
		GestureNextPage:     NextPage,
	},
}

// Lookup resolves a (document type, gesture name) pair to an action
func Lookup(documentType, gestureName string) (Action, bool) {
	table, ok := actions[documentType]
	if !ok {
		return 0, false
	}
	action, ok := table[gestureName]
	return action, ok
}
