package protocol

import (
	"bytes"
	"encoding/json"

	"dropsense/internal/errors"
	"dropsense/internal/gate"
	"dropsense/pkg/types"
)

// Gesture command tags, sent by the windowing shim to the helper's stdin
const (
	CommandPointerDown = "pointer_down"
	CommandPointerUp   = "pointer_up"
	CommandDrop        = "drop"
	CommandDragEntered = "drag_entered"
	CommandClassify    = "classify"
)

// Command is one gesture notification for the helper
type Command struct {
	Type      string   `json:"type"`
	X         float64  `json:"x,omitempty"`
	Y         float64  `json:"y,omitempty"`
	URLs      []string `json:"urls,omitempty"`
	FileURL   string   `json:"fileURL,omitempty"`
	Filenames []string `json:"filenames,omitempty"`
	Path      string   `json:"path,omitempty"`

	// Windowing state sampled by the shim with pointer_down
	Frontmost string            `json:"frontmost,omitempty"`
	Windows   []gate.WindowInfo `json:"windows,omitempty"`
}

// Point returns the pointer position of the command
func (c Command) Point() types.Point {
	return types.Point{X: c.X, Y: c.Y}
}

// Payload converts the drop fields into a gate payload
func (c Command) Payload() gate.Payload {
	p := gate.Payload{URLs: c.URLs, Filenames: c.Filenames}
	if c.FileURL != "" {
		p.FileURL = []byte(c.FileURL)
	}
	return p
}

// DecodeCommand parses one command line
func DecodeCommand(line []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(bytes.TrimSpace(line), &cmd); err != nil {
		return Command{}, errors.NewProtocolError("malformed command line", string(line), errors.MalformedEvent, err)
	}
	if cmd.Type == "" {
		return Command{}, errors.NewProtocolError("command without type", string(line), errors.MalformedEvent, nil)
	}
	return cmd, nil
}

// EncodeCommand renders a command as a single JSON object
func EncodeCommand(cmd Command) ([]byte, error) {
	return json.Marshal(cmd)
}
