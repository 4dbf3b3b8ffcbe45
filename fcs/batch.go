package fcs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// DefaultUploadConcurrency is the number of files UploadAssets transfers at the same time.
const DefaultUploadConcurrency = 2

// ErrNoMatchingFiles is returned by UploadAssets when the pattern matches no file.
var ErrNoMatchingFiles = errors.New("no files match the pattern")

// UploadAssets uploads every file matching pattern (for example "books/**/*.epub") as an
// asset of product. Each file is an independent transfer; at most concurrency transfers
// run at the same time. The first failure cancels the transfers not yet finished. The
// registered assets are returned in the order of the sorted file paths.
func (c *Client) UploadAssets(ctx context.Context, product markup.Value, pattern string, assetType AssetType, concurrency int) ([]markup.Value, error) {
	paths, err := expandPattern(pattern)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = DefaultUploadConcurrency
	}

	c.logger.Infof("Uploading %d files matching %s", len(paths), pattern)

	assets := make([]markup.Value, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, pth := range paths {
		i, pth := i, pth
		g.Go(func() error {
			asset, err := c.UploadAsset(gctx, product, pth, assetType)
			if err != nil {
				return fmt.Errorf("upload %s: %w", pth, err)
			}
			assets[i] = asset
			c.logger.Donef("Uploaded %s as asset %s", pth, asset.String("id"))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assets, nil
}

// expandPattern returns the regular files matching a doublestar pattern, sorted.
func expandPattern(pattern string) ([]string, error) {
	base, pat := doublestar.SplitPattern(filepath.ToSlash(pattern))

	matches, err := doublestar.Glob(os.DirFS(base), pat, doublestar.WithNoFollow())
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", pattern, err)
	}

	var paths []string
	for _, match := range matches {
		pth := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(match))
		info, err := os.Stat(pth)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", pth, err)
		}
		if info.Mode().IsRegular() {
			paths = append(paths, pth)
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", pattern, ErrNoMatchingFiles)
	}

	sort.Strings(paths)
	return paths, nil
}
