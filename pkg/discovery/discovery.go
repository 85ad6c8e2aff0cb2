// Package discovery finds camera streams under an input directory.
//
// A stream is a video file whose extension is in the configured list, or,
// when enabled, a cam_<n> directory holding still images. The stream ID comes
// from a parent directory named cam_<n>; otherwise it is the file's position
// in walk order. IDs are unique and the result is sorted by ID.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/user/camsync/pkg/pipeline"
)

// ErrSourceUnavailable is returned when the input root is missing or holds no
// streams.
var ErrSourceUnavailable = errors.New("discovery: no input streams")

// ImageExtensions lists the still-image formats accepted for image sequences.
var ImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp"}

const camPrefix = "cam_"

// Dir discovers streams under in.Root on the local filesystem.
func Dir(in pipeline.DiscoverInput) (pipeline.DiscoverResult, error) {
	info, err := os.Stat(in.Root)
	if err != nil {
		return pipeline.DiscoverResult{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if !info.IsDir() {
		return pipeline.DiscoverResult{}, fmt.Errorf("%w: %s is not a directory", ErrSourceUnavailable, in.Root)
	}
	return Discover(os.DirFS(in.Root), in)
}

// Discover walks fsys, which is rooted at in.Root. Locators are in.Root joined
// with the slash path inside fsys.
func Discover(fsys fs.FS, in pipeline.DiscoverInput) (pipeline.DiscoverResult, error) {
	exts := normalize(in.Extensions)
	var found []candidate
	position := 0

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == "." {
				return err
			}
			// Unreadable subtrees are skipped.
			return nil
		}

		if d.IsDir() {
			if !in.ImageSequences || p == "." {
				return nil
			}
			id, ok := ParseCamID(path.Base(p))
			if !ok {
				return nil
			}
			hasImages, err := containsImages(fsys, p)
			if err != nil || !hasImages {
				return nil
			}
			found = append(found, candidate{
				id:       id,
				explicit: true,
				fallback: position,
				path:     p,
				kind:     pipeline.KindImageSequence,
			})
			position++
			// Videos inside an image-sequence directory are not separate streams.
			return fs.SkipDir
		}

		if !d.Type().IsRegular() || !exts[strings.ToLower(path.Ext(p))] {
			return nil
		}
		id, explicit := ParseCamID(path.Base(path.Dir(p)))
		found = append(found, candidate{
			id:       id,
			explicit: explicit,
			fallback: position,
			path:     p,
			kind:     pipeline.KindVideo,
		})
		position++
		return nil
	})
	if err != nil {
		return pipeline.DiscoverResult{}, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if len(found) == 0 {
		return pipeline.DiscoverResult{}, fmt.Errorf("%w: nothing matched under %s", ErrSourceUnavailable, displayRoot(in.Root))
	}

	streams := assignIDs(found)
	for i := range streams {
		streams[i].Locator = filepath.Join(in.Root, filepath.FromSlash(streams[i].Locator))
	}
	return pipeline.DiscoverResult{Streams: streams}, nil
}

// ParseCamID extracts n from a directory named cam_<n>.
func ParseCamID(name string) (int, bool) {
	if !strings.HasPrefix(name, camPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(name[len(camPrefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

type candidate struct {
	id       int
	explicit bool
	fallback int
	path     string
	kind     pipeline.SourceKind
}

// assignIDs keeps explicit cam_<n> IDs where they are unique, gives the rest
// their walk position, and moves any collision to the next free ID.
func assignIDs(found []candidate) []pipeline.StreamDescriptor {
	taken := make(map[int]bool, len(found))
	ids := make([]int, len(found))
	for i := range ids {
		ids[i] = -1
	}

	for i, c := range found {
		if c.explicit && !taken[c.id] {
			ids[i] = c.id
			taken[c.id] = true
		}
	}
	for i, c := range found {
		if ids[i] >= 0 || c.explicit {
			continue
		}
		if !taken[c.fallback] {
			ids[i] = c.fallback
			taken[c.fallback] = true
		}
	}

	next := 0
	streams := make([]pipeline.StreamDescriptor, len(found))
	for i, c := range found {
		id := ids[i]
		if id < 0 {
			for taken[next] {
				next++
			}
			id = next
			taken[id] = true
		}
		streams[i] = pipeline.StreamDescriptor{ID: id, Locator: c.path, Kind: c.kind}
	}

	sort.SliceStable(streams, func(i, j int) bool {
		return streams[i].ID < streams[j].ID
	})
	return streams
}

func containsImages(fsys fs.FS, dir string) (bool, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.Type().IsRegular() && IsImage(e.Name()) {
			return true, nil
		}
	}
	return false, nil
}

// IsImage reports whether name has one of ImageExtensions.
func IsImage(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func normalize(exts []string) map[string]bool {
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		m[e] = true
	}
	return m
}

func displayRoot(root string) string {
	if root == "" {
		return "."
	}
	return root
}
