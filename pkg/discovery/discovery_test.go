package discovery

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/camsync/pkg/pipeline"
)

func input(root string) pipeline.DiscoverInput {
	in := pipeline.DefaultDiscoverInput()
	in.Root = root
	return in
}

func TestDiscover_CamDirectories(t *testing.T) {
	fsys := fstest.MapFS{
		"cam_2/clip.mp4":  {},
		"cam_0/clip.MOV":  {},
		"cam_1/clip.avi":  {},
		"cam_1/notes.txt": {},
		"readme.md":       {},
	}

	res, err := Discover(fsys, input("videos"))
	require.NoError(t, err)
	require.Len(t, res.Streams, 3)

	assert.Equal(t, pipeline.StreamDescriptor{ID: 0, Locator: filepath.Join("videos", "cam_0", "clip.MOV"), Kind: pipeline.KindVideo}, res.Streams[0])
	assert.Equal(t, 1, res.Streams[1].ID)
	assert.Equal(t, filepath.Join("videos", "cam_1", "clip.avi"), res.Streams[1].Locator)
	assert.Equal(t, 2, res.Streams[2].ID)
}

func TestDiscover_FallbackIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"a/front.mp4": {},
		"b/back.mp4":  {},
		"cam_0/x.mp4": {},
	}

	res, err := Discover(fsys, input("in"))
	require.NoError(t, err)
	require.Len(t, res.Streams, 3)

	// a/front.mp4 is at walk position 0, but cam_0 claims that ID first.
	byID := map[int]string{}
	for _, s := range res.Streams {
		byID[s.ID] = s.Locator
	}
	assert.Equal(t, filepath.Join("in", "cam_0", "x.mp4"), byID[0])
	assert.Equal(t, filepath.Join("in", "b", "back.mp4"), byID[1])
	assert.Equal(t, filepath.Join("in", "a", "front.mp4"), byID[2])
}

func TestDiscover_DuplicateCamIDs(t *testing.T) {
	fsys := fstest.MapFS{
		"cam_0/one.mp4": {},
		"cam_0/two.mp4": {},
		"cam_1/x.mp4":   {},
	}

	res, err := Discover(fsys, input("in"))
	require.NoError(t, err)
	require.Len(t, res.Streams, 3)

	ids := []int{res.Streams[0].ID, res.Streams[1].ID, res.Streams[2].ID}
	assert.Equal(t, []int{0, 1, 2}, ids)
	assert.Equal(t, filepath.Join("in", "cam_0", "two.mp4"), res.Streams[2].Locator)
}

func TestDiscover_CustomExtensions(t *testing.T) {
	fsys := fstest.MapFS{
		"cam_0/a.mkv": {},
		"cam_1/b.mp4": {},
	}
	in := input("in")
	in.Extensions = []string{"MKV"}

	res, err := Discover(fsys, in)
	require.NoError(t, err)
	require.Len(t, res.Streams, 1)
	assert.Equal(t, 0, res.Streams[0].ID)
}

func TestDiscover_ImageSequences(t *testing.T) {
	fsys := fstest.MapFS{
		"cam_0/000001.png": {},
		"cam_0/000002.png": {},
		"cam_1/clip.mp4":   {},
		"cam_2/empty.txt":  {},
	}
	in := input("in")
	in.ImageSequences = true

	res, err := Discover(fsys, in)
	require.NoError(t, err)
	require.Len(t, res.Streams, 2)

	assert.Equal(t, pipeline.StreamDescriptor{ID: 0, Locator: filepath.Join("in", "cam_0"), Kind: pipeline.KindImageSequence}, res.Streams[0])
	assert.Equal(t, pipeline.KindVideo, res.Streams[1].Kind)

	in.ImageSequences = false
	res, err = Discover(fsys, in)
	require.NoError(t, err)
	require.Len(t, res.Streams, 1)
}

func TestDiscover_NothingFound(t *testing.T) {
	_, err := Discover(fstest.MapFS{"cam_0/a.txt": {}}, input("in"))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDir_MissingRoot(t *testing.T) {
	_, err := Dir(input(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestDir_RealDirectory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "cam_3"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cam_3", "v.mp4"), nil, 0o644))

	res, err := Dir(input(root))
	require.NoError(t, err)
	require.Len(t, res.Streams, 1)
	assert.Equal(t, 3, res.Streams[0].ID)
	assert.Equal(t, filepath.Join(root, "cam_3", "v.mp4"), res.Streams[0].Locator)
}

func TestParseCamID(t *testing.T) {
	tests := []struct {
		name string
		id   int
		ok   bool
	}{
		{"cam_0", 0, true},
		{"cam_12", 12, true},
		{"cam_", 0, false},
		{"cam_x", 0, false},
		{"cam_-1", 0, false},
		{"camera_1", 0, false},
	}
	for _, tt := range tests {
		id, ok := ParseCamID(tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.id, id, tt.name)
	}
}
