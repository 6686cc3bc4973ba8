package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"mad-liquid/internal/liquid"
)

// Command types accepted from clients.
const (
	TypeSetCell   = "set_cell"
	TypeAddLiquid = "add_liquid"
	TypeReset     = "reset"
	TypePause     = "pause"
	TypeResume    = "resume"
	TypeStep      = "step"
)

// Message types sent to clients.
const (
	TypeFrame = "frame"
	TypeError = "error"
)

// ErrInvalidCommand is returned for messages that fail schema validation.
var ErrInvalidCommand = errors.New("invalid command")

const commandSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["type"],
  "additionalProperties": false,
  "properties": {
    "type": {"enum": ["set_cell", "add_liquid", "reset", "pause", "resume", "step"]},
    "x": {"type": "integer", "minimum": 0},
    "y": {"type": "integer", "minimum": 0},
    "solid": {"type": "boolean"},
    "amount": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
    "seed": {"type": "integer"}
  },
  "allOf": [
    {
      "if": {"properties": {"type": {"const": "set_cell"}}},
      "then": {"required": ["x", "y", "solid"]}
    },
    {
      "if": {"properties": {"type": {"const": "add_liquid"}}},
      "then": {"required": ["x", "y", "amount"]}
    }
  ]
}`

var compiledCommandSchema = mustCompile("command.schema.json", commandSchema)

func mustCompile(name, src string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, strings.NewReader(src)); err != nil {
		panic(fmt.Sprintf("ws: add schema %s: %v", name, err))
	}
	s, err := c.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("ws: compile schema %s: %v", name, err))
	}
	return s
}

// Command is an edit or control request from a client.
type Command struct {
	Type   string  `json:"type"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Solid  bool    `json:"solid"`
	Amount float64 `json:"amount,omitempty"`
	Seed   int64   `json:"seed,omitempty"`
}

// DecodeCommand validates and decodes a client message.
func DecodeCommand(data []byte) (Command, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	if err := compiledCommandSchema.Validate(raw); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("%w: %v", ErrInvalidCommand, err)
	}
	return cmd, nil
}

// Frame is a full snapshot of the display. Cells and Flow travel as base64.
type Frame struct {
	Type   string       `json:"type"`
	Tick   int          `json:"tick"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Paused bool         `json:"paused"`
	Cells  []byte       `json:"cells"`
	Flow   []byte       `json:"flow,omitempty"`
	Stats  liquid.Stats `json:"stats"`
}

// ErrorMsg reports a rejected command.
type ErrorMsg struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
