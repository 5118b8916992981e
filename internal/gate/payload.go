package gate

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"dropsense/internal/errors"
)

// Payload is what a drop delivers. Different sources fill different
// fields; the parser chain decides which one wins.
type Payload struct {
	// URLs is the structured URL list, as file:// URLs or plain paths
	URLs []string
	// FileURL is the raw bytes of a single encoded file URL
	FileURL []byte
	// Filenames is the legacy filename list
	Filenames []string
}

// Empty reports whether the payload carries nothing at all
func (p Payload) Empty() bool {
	return len(p.URLs) == 0 && len(p.FileURL) == 0 && len(p.Filenames) == 0
}

// PayloadParser extracts a file-system path from one payload format
type PayloadParser func(Payload) (string, bool)

// DefaultParsers is the fallback order used by the gate
var DefaultParsers = []PayloadParser{
	ParseURLList,
	ParseFileURLData,
	ParseFilenameList,
}

// Resolve runs parsers in order and returns the first resolved path
func Resolve(p Payload, parsers []PayloadParser) (string, bool) {
	for _, parse := range parsers {
		if path, ok := parse(p); ok {
			return path, true
		}
	}
	return "", false
}

// ResolvePath is Resolve reporting why nothing resolved. The error is
// errors.ErrUnresolvablePayload, wrapped with detail for an empty payload.
func ResolvePath(p Payload, parsers []PayloadParser) (string, error) {
	if p.Empty() {
		return "", errors.Wrap(errors.ErrUnresolvablePayload, "empty payload")
	}
	if path, ok := Resolve(p, parsers); ok {
		return path, nil
	}
	return "", errors.ErrUnresolvablePayload
}

// ParseURLList takes the first entry of the URL list
func ParseURLList(p Payload) (string, bool) {
	if len(p.URLs) == 0 {
		return "", false
	}
	return PathFromURL(p.URLs[0])
}

// ParseFileURLData decodes the raw file URL bytes
func ParseFileURLData(p Payload) (string, bool) {
	if len(p.FileURL) == 0 || !utf8.Valid(p.FileURL) {
		return "", false
	}
	return PathFromURL(string(p.FileURL))
}

// ParseFilenameList takes the first legacy filename. Relative names are
// made absolute the same way a file URL built from a path would be.
func ParseFilenameList(p Payload) (string, bool) {
	if len(p.Filenames) == 0 || p.Filenames[0] == "" {
		return "", false
	}
	name := p.Filenames[0]
	if filepath.IsAbs(name) {
		return name, true
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", false
	}
	return abs, true
}

// PathFromURL converts a file URL or an absolute path into a path.
// Other URL schemes do not resolve.
func PathFromURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.HasPrefix(raw, "/") {
		return raw, true
	}

	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", false
	}
	if u.Path == "" {
		return "", false
	}
	// Directory URLs carry a trailing slash that the path form does not.
	path := u.Path
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path, true
}
