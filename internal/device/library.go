package device

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"
)

// DirLibrary picks images from a directory. With a name set it picks that
// file; otherwise the most recently modified image. An empty directory or a
// missing named file is a cancelled pick, not an error.
type DirLibrary struct {
	Dir  string
	Name string
}

// Pick selects an image from the directory.
func (l DirLibrary) Pick(ctx context.Context) (ImageRef, bool, error) {
	if err := ctx.Err(); err != nil {
		return ImageRef{}, false, err
	}

	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return ImageRef{}, false, eris.Wrapf(err, "device: read library %s", l.Dir)
	}

	type candidate struct {
		name    string
		modUnix int64
	}
	var images []candidate
	for _, e := range entries {
		if e.IsDir() || !isImage(e.Name()) {
			continue
		}
		if l.Name != "" {
			if e.Name() == l.Name {
				return ImageRef{Path: filepath.Join(l.Dir, e.Name())}, true, nil
			}
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, candidate{name: e.Name(), modUnix: info.ModTime().UnixNano()})
	}

	if len(images) == 0 {
		return ImageRef{}, false, nil
	}

	sort.SliceStable(images, func(i, j int) bool {
		if images[i].modUnix != images[j].modUnix {
			return images[i].modUnix > images[j].modUnix
		}
		return images[i].name < images[j].name
	})
	return ImageRef{Path: filepath.Join(l.Dir, images[0].name)}, true, nil
}
