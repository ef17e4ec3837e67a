package pipeline

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
)

// scan walks root depth-first and emits every visible regular file.
// Directories and files whose name begins with '.' are pruned. A
// traversal error on the root itself is fatal to the run; cancellation
// stops the walk promptly without treating it as a scanner failure.
func (p *Pipeline) scan(ctx context.Context, root string, out chan<- string) error {
	p.logger.Info("scanner started", "root", root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree: log and keep walking.
			p.logger.Error("failed to read directory entry", "path", path, "error", err)
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		// Cancellation wins over an available channel slot.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		select {
		case out <- path:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	p.logger.Info("scanner finished")
	return err
}
