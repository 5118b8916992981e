// Package classify maps file-system paths to a human-facing type category.
//
// Classification never fails: missing paths, bundles, folders, and files of
// unknown type all come back as a normal ClassificationResult. The only I/O
// is a single Stat call.
package classify

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"dropsense/pkg/types"
)

// Descriptions for the non-file outcomes
const (
	DescriptionNotFound    = "❌ does not exist"
	DescriptionApplication = "🚀 application"
	DescriptionFolder      = "📁 folder"
)

// BundleExtension is reported for every application bundle. Paths ending
// in ".bundle" also get "app": existing consumers key on this value, so it
// is kept as is.
const BundleExtension = "app"

// StatFunc reports existence and type of a path
type StatFunc func(path string) (fs.FileInfo, error)

// Classifier classifies paths. The zero value is not usable; use New.
type Classifier struct {
	stat    StatFunc
	bundles glob.Glob
}

// Option configures a Classifier
type Option func(*Classifier)

// WithStat replaces os.Stat, mostly for tests
func WithStat(stat StatFunc) Option {
	return func(c *Classifier) {
		c.stat = stat
	}
}

// New creates a Classifier backed by os.Stat
func New(opts ...Option) *Classifier {
	c := &Classifier{
		stat:    os.Stat,
		bundles: glob.MustCompile("{*.app,*.bundle}"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = New()

// Classify classifies path with the default classifier
func Classify(path string) types.ClassificationResult {
	return defaultClassifier.Classify(path)
}

// Classify applies the rules in priority order: missing, bundle suffix,
// directory, then extension lookup for regular files.
func (c *Classifier) Classify(path string) types.ClassificationResult {
	result := types.ClassificationResult{
		FileName: fileName(path),
		FilePath: path,
	}

	info, err := c.stat(path)
	if err != nil {
		result.Kind = types.KindNotFound
		result.Description = DescriptionNotFound
		return result
	}

	// Textual check: a ".app" path counts even if it is a plain file.
	if c.bundles.Match(path) {
		result.Kind = types.KindApplication
		result.Description = DescriptionApplication
		result.FileExtension = BundleExtension
		return result
	}

	if info.IsDir() {
		result.Kind = types.KindFolder
		result.Description = DescriptionFolder
		return result
	}

	ext := Extension(result.FileName)
	result.Kind = types.KindFile
	result.IsFileType = true
	result.FileExtension = ext
	result.Description = "📄 file (" + label(ext) + ")"
	return result
}

// Extension returns the lowercased text after the last dot of name, or ""
// when there is no dot or the name ends with one.
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func fileName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
