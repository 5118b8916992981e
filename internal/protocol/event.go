// Package protocol is the line-delimited JSON wire format between the host
// and the helper process. Each line is one JSON object with a "type" field.
// Events are decoded once at the boundary into concrete Go types.
package protocol

import (
	"bytes"
	"encoding/json"

	"dropsense/internal/classify"
	"dropsense/internal/errors"
	"dropsense/pkg/types"
)

// Event type tags as they appear on the wire
const (
	TypeReady     = "ready"
	TypeFile      = "file"
	TypeSwiftLog  = "swift_log"
	TypeTestLog   = "test_log"
	TypeHelperLog = "helper_log"
	TypeExit      = "swift-exit"
	TypeTest      = "test"

	// SourceRaw marks a stdout line that was not JSON
	SourceRaw = "raw"
)

// Event is one decoded protocol message
type Event interface {
	Type() string
}

// Ready is sent once the helper has finished initializing
type Ready struct{}

// FileDetected carries a classification result
type FileDetected struct {
	Result types.ClassificationResult
}

// Log is a diagnostic message. It never affects control flow.
type Log struct {
	Source  string
	Message string
}

// Exit reports that the helper process terminated. Code is -1 when the
// process was killed by a signal.
type Exit struct {
	Code   int
	Signal string
}

// Test is used by the host's own diagnostics
type Test struct {
	Message string
}

// Unknown is any event with an unrecognized type tag
type Unknown struct {
	Kind string
	Raw  json.RawMessage
}

func (Ready) Type() string        { return TypeReady }
func (FileDetected) Type() string { return TypeFile }
func (e Log) Type() string        { return e.Source }
func (Exit) Type() string         { return TypeExit }
func (Test) Type() string         { return TypeTest }
func (e Unknown) Type() string    { return e.Kind }

// envelope holds every field a protocol line may carry
type envelope struct {
	Type    string  `json:"type"`
	Message string  `json:"message,omitempty"`
	Code    *int    `json:"code,omitempty"`
	Signal  *string `json:"signal,omitempty"`
}

type fileLine struct {
	Type string `json:"type"`
	types.ClassificationResult
}

// Decode parses one line into an Event. Input that is not a JSON object
// yields a MalformedEvent error; an unknown type tag is not an error.
func Decode(line []byte) (Event, error) {
	line = bytes.TrimSpace(line)

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, errors.NewProtocolError("malformed event line", string(line), errors.MalformedEvent, err)
	}

	switch env.Type {
	case TypeReady:
		return Ready{}, nil
	case TypeFile:
		var fl fileLine
		if err := json.Unmarshal(line, &fl); err != nil {
			return nil, errors.NewProtocolError("malformed file event", string(line), errors.MalformedEvent, err)
		}
		fl.ClassificationResult.Kind = inferKind(fl.ClassificationResult)
		return FileDetected{Result: fl.ClassificationResult}, nil
	case TypeSwiftLog, TypeTestLog, TypeHelperLog:
		return Log{Source: env.Type, Message: env.Message}, nil
	case TypeExit:
		exit := Exit{Code: -1}
		if env.Code != nil {
			exit.Code = *env.Code
		}
		if env.Signal != nil {
			exit.Signal = *env.Signal
		}
		return exit, nil
	case TypeTest:
		return Test{Message: env.Message}, nil
	default:
		raw := make(json.RawMessage, len(line))
		copy(raw, line)
		return Unknown{Kind: env.Type, Raw: raw}, nil
	}
}

// Encode renders an Event as a single JSON object without a newline
func Encode(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case Ready:
		return json.Marshal(envelope{Type: TypeReady})
	case FileDetected:
		return json.Marshal(fileLine{Type: TypeFile, ClassificationResult: e.Result})
	case Log:
		return json.Marshal(envelope{Type: e.Source, Message: e.Message})
	case Exit:
		out := struct {
			Type   string  `json:"type"`
			Code   *int    `json:"code"`
			Signal *string `json:"signal"`
		}{Type: TypeExit}
		if e.Code >= 0 {
			out.Code = &e.Code
		}
		if e.Signal != "" {
			out.Signal = &e.Signal
		}
		return json.Marshal(out)
	case Test:
		return json.Marshal(envelope{Type: TypeTest, Message: e.Message})
	case Unknown:
		if len(e.Raw) > 0 {
			return e.Raw, nil
		}
		return json.Marshal(envelope{Type: e.Kind})
	default:
		return nil, errors.Newf("cannot encode event of type %T", ev)
	}
}

// inferKind recovers the classification rule from wire fields, which do
// not carry it explicitly.
func inferKind(r types.ClassificationResult) types.Kind {
	switch {
	case r.IsFileType:
		return types.KindFile
	case r.FileExtension == classify.BundleExtension:
		return types.KindApplication
	case r.FileExtension == "" && r.Description != classify.DescriptionNotFound:
		// folder descriptions vary between helper builds
		return types.KindFolder
	default:
		return types.KindNotFound
	}
}
