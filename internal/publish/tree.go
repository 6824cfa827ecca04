package publish

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// uploadConcurrency bounds parallel Put calls in Tree.
const uploadConcurrency = 8

// Tree uploads every regular file under root to store beneath prefix, using
// slash-separated paths relative to root as object names. Hidden temp files
// left by an interrupted write are skipped. It returns the uploaded names in
// sorted order.
func Tree(ctx context.Context, store Store, prefix, root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && strings.HasSuffix(d.Name(), ".tmp") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(names)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, name := range names {
		g.Go(func() error {
			data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
			if err != nil {
				return err
			}
			return store.Put(gctx, prefix, name, data)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("publishing %s: %w", root, err)
	}
	return names, nil
}
