package models

import "errors"

// Operation kinds. Freehand segments carry no type tag on the wire; the
// canvas client treats any untagged operation as a brush/eraser segment.
const (
	OpFreehand = ""
	OpRect     = "rect"
	OpText     = "text"
)

// Draw modes for freehand segments.
const (
	ModeBrush  = "brush"
	ModeEraser = "eraser"
)

var (
	ErrUnknownKind  = errors.New("unknown operation kind")
	ErrMissingPoint = errors.New("missing segment endpoint")
	ErrBadWidth     = errors.New("stroke width must be positive")
	ErrBadMode      = errors.New("mode must be brush or eraser")
	ErrMissingColor = errors.New("missing color")
	ErrEmptyText    = errors.New("empty text content")
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Operation is one atomic drawing action appended to a room's history.
// It is a tagged variant flattened into a single struct:
//   - freehand (Type empty): From, To, Color, Width, Mode
//   - rect: X, Y, W, H (signed extents), Color, Width
//   - text: Text, X, Y, Color
type Operation struct {
	Type  string  `json:"type,omitempty"`
	From  *Point  `json:"from,omitempty"`
	To    *Point  `json:"to,omitempty"`
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width,omitempty"`
	Mode  string  `json:"mode,omitempty"`
	Text  string  `json:"text,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w,omitempty"`
	H     float64 `json:"h,omitempty"`
}

// Validate checks the operation against its variant schema. Operations that
// fail validation are dropped by the coordinator: never stored, never
// broadcast.
func (op Operation) Validate() error {
	switch op.Type {
	case OpFreehand:
		if op.From == nil || op.To == nil {
			return ErrMissingPoint
		}
		if op.Width <= 0 {
			return ErrBadWidth
		}
		switch op.Mode {
		case ModeBrush, ModeEraser:
		case "":
			// segments without a mode render as brush
		default:
			return ErrBadMode
		}
		// color is ignored while erasing
		if op.Mode != ModeEraser && op.Color == "" {
			return ErrMissingColor
		}
		return nil
	case OpRect:
		if op.Width <= 0 {
			return ErrBadWidth
		}
		if op.Color == "" {
			return ErrMissingColor
		}
		return nil
	case OpText:
		if op.Text == "" {
			return ErrEmptyText
		}
		if op.Color == "" {
			return ErrMissingColor
		}
		return nil
	default:
		return ErrUnknownKind
	}
}

// Kind reports a stable label for the operation variant, used for metrics.
func (op Operation) Kind() string {
	switch op.Type {
	case OpRect:
		return "rect"
	case OpText:
		return "text"
	default:
		return "freehand"
	}
}

// WSFrame is the wire envelope for every WebSocket message.
// Inbound types: "draw", "undo", "redo", "cursor".
// Outbound types: "draw", "redraw", "users", "cursor".
type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// CursorIn is the client->server cursor payload.
type CursorIn struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CursorOut is the server->client cursor payload, augmented with the
// sender's connection id and display color.
type CursorOut struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

// RoomStatus is the REST snapshot of a room: who is connected and how much
// history the board holds.
type RoomStatus struct {
	Room         string            `json:"room"`
	Participants int               `json:"participants"`
	Users        map[string]string `json:"users"`
	Operations   int               `json:"operations"`
}
