package gate

import (
	"path/filepath"
	"testing"

	"dropsense/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFallbackOrder(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    string
		ok      bool
	}{
		{
			name: "url list wins",
			payload: Payload{
				URLs:      []string{"file:///Users/x/a.pdf", "file:///Users/x/b.pdf"},
				FileURL:   []byte("file:///Users/x/c.pdf"),
				Filenames: []string{"/Users/x/d.pdf"},
			},
			want: "/Users/x/a.pdf",
			ok:   true,
		},
		{
			name: "raw url bytes next",
			payload: Payload{
				FileURL:   []byte("file:///Users/x/My%20Report.pdf"),
				Filenames: []string{"/Users/x/d.pdf"},
			},
			want: "/Users/x/My Report.pdf",
			ok:   true,
		},
		{
			name:    "legacy filenames last",
			payload: Payload{Filenames: []string{"/Users/x/d.pdf", "/Users/x/e.pdf"}},
			want:    "/Users/x/d.pdf",
			ok:      true,
		},
		{
			name:    "unusable url falls through",
			payload: Payload{URLs: []string{"https://example.com/x"}, Filenames: []string{"/tmp/y"}},
			want:    "/tmp/y",
			ok:      true,
		},
		{
			name:    "invalid utf8 bytes are skipped",
			payload: Payload{FileURL: []byte{0xff, 0xfe}},
			ok:      false,
		},
		{
			name:    "empty payload",
			payload: Payload{},
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Resolve(tt.payload, DefaultParsers)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathFromURL(t *testing.T) {
	tests := map[string]struct {
		want string
		ok   bool
	}{
		"/Users/x/report.pdf":                {"/Users/x/report.pdf", true},
		"file:///Users/x/report.pdf":         {"/Users/x/report.pdf", true},
		"file://localhost/tmp/a.txt":         {"/tmp/a.txt", true},
		"file:///Applications/Finder.app/":   {"/Applications/Finder.app", true},
		"file:///":                           {"/", true},
		"  file:///tmp/padded.txt  ":         {"/tmp/padded.txt", true},
		"file://otherhost/tmp/a.txt":         {"", false},
		"https://example.com/report.pdf":     {"", false},
		"relative/report.pdf":                {"", false},
		"":                                   {"", false},
		"file:":                              {"", false},
	}

	for raw, tt := range tests {
		got, ok := PathFromURL(raw)
		assert.Equal(t, tt.ok, ok, raw)
		assert.Equal(t, tt.want, got, raw)
	}
}

func TestParseFilenameListMakesRelativeAbsolute(t *testing.T) {
	got, ok := ParseFilenameList(Payload{Filenames: []string{"notes.txt"}})
	assert.True(t, ok)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, "notes.txt", filepath.Base(got))

	_, ok = ParseFilenameList(Payload{Filenames: []string{""}})
	assert.False(t, ok)
}

func TestPayloadEmpty(t *testing.T) {
	assert.True(t, Payload{}.Empty())
	assert.False(t, Payload{Filenames: []string{"x"}}.Empty())
}

func TestResolvePath(t *testing.T) {
	path, err := ResolvePath(Payload{URLs: []string{"file:///tmp/a.txt"}}, DefaultParsers)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.txt", path)

	_, err = ResolvePath(Payload{}, DefaultParsers)
	assert.ErrorIs(t, err, errors.ErrUnresolvablePayload)
	assert.Contains(t, err.Error(), "empty payload")

	_, err = ResolvePath(Payload{URLs: []string{"https://example.com/a.txt"}}, []PayloadParser{ParseURLList})
	assert.ErrorIs(t, err, errors.ErrUnresolvablePayload)
	assert.Equal(t, errors.UnresolvablePayload, errors.KindOf(err))
}
