package classify

import (
	"context"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"

	"dropsense/internal/errors"
	"dropsense/internal/log"
	"dropsense/pkg/types"
)

// ClassifyTree classifies every entry below root, sorted by path. Bundles
// are reported once and not descended into. The root itself is not part of
// the result.
func (c *Classifier) ClassifyTree(ctx context.Context, root string) ([]types.ClassificationResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.NewFileError("cannot read directory", root, errors.FileNotFound, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("not a directory", root, errors.InvalidPath, nil)
	}

	var (
		mu      sync.Mutex
		results []types.ClassificationResult
	)
	logger := log.LogWithFields(log.F("root", root))

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.With(log.F("path", path), log.F("error", err.Error())).Debug("skipping unreadable entry")
			return nil
		}
		if path == root {
			return nil
		}

		result := c.Classify(path)

		mu.Lock()
		results = append(results, result)
		mu.Unlock()

		if d.IsDir() && result.Kind == types.KindApplication {
			return fastwalk.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrapf(walkErr, "classifying %s", root)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].FilePath < results[j].FilePath
	})
	return results, nil
}
