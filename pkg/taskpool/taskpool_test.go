package taskpool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/camsync/pkg/adapters/logger"
	"github.com/user/camsync/pkg/adapters/osfilesystem"
	"github.com/user/camsync/pkg/mocks"
)

func TestManager_NextBlocksUntilExit(t *testing.T) {
	m := NewManager(nil)

	got := make(chan bool)
	go func() {
		_, ok := m.Next()
		got <- ok
	}()

	select {
	case <-got:
		t.Fatal("Next returned before Exit")
	case <-time.After(20 * time.Millisecond):
	}

	m.Exit()
	m.Exit()
	assert.False(t, <-got)
}

func TestManager_DrainsQueueAfterExit(t *testing.T) {
	m := NewManager([]Task{{StreamID: 0}, {StreamID: 1}})
	m.Exit()

	t0, ok := m.Next()
	require.True(t, ok)
	t1, ok := m.Next()
	require.True(t, ok)
	_, ok = m.Next()
	assert.False(t, ok)
	assert.Equal(t, []int{0, 1}, []int{t0.StreamID, t1.StreamID})
}

func TestManager_Completion(t *testing.T) {
	m := NewManager([]Task{{StreamID: 3}, {StreamID: 5}})
	assert.False(t, m.AllCompleted())

	m.Finish(Task{StreamID: 3, Completed: true})
	assert.False(t, m.AllCompleted())
	m.Finish(Task{StreamID: 5, Failed: true})
	assert.True(t, m.AllCompleted())

	done := m.Completed()
	assert.True(t, done[3].Completed)
	assert.True(t, done[5].Failed)

	done[3] = Task{}
	assert.True(t, m.Completed()[3].Completed, "snapshot must not alias manager state")
}

func TestManager_ConcurrentWorkers(t *testing.T) {
	tasks := make([]Task, 50)
	for i := range tasks {
		tasks[i] = Task{StreamID: i}
	}
	m := NewManager(tasks)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := m.Next()
				if !ok {
					return
				}
				task.Completed = true
				m.Finish(task)
				if m.AllCompleted() {
					m.Exit()
				}
			}
		}()
	}
	wg.Wait()

	assert.Len(t, m.Completed(), 50)
}

func TestPool_Run(t *testing.T) {
	fs := mocks.NewFileSystem()
	var tasks []Task
	for i := 0; i < 5; i++ {
		src := fmt.Sprintf("in/cam_%d/video.mp4", i)
		require.NoError(t, fs.WriteFile(src, []byte(src)))
		tasks = append(tasks, Task{Src: src, Dest: fmt.Sprintf("out/cam_%d/video.mp4", i), StreamID: i})
	}

	result, err := NewPool(fs, 3, logger.NewNoop()).Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Completed)
	assert.Equal(t, 0, result.Failed)

	for _, task := range tasks {
		data, ok := fs.GetFile(task.Dest)
		require.True(t, ok, "missing %s", task.Dest)
		assert.Equal(t, task.Src, string(data))
	}
}

func TestPool_FailedCopy(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("in/a.mp4", []byte("a")))

	tasks := []Task{
		{Src: "in/a.mp4", Dest: "out/a.mp4", StreamID: 0},
		{Src: "in/missing.mp4", Dest: "out/missing.mp4", StreamID: 1},
	}
	result, err := NewPool(fs, 2, logger.NewNoop()).Run(context.Background(), tasks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream 1")
	assert.Equal(t, 1, result.Completed)
	assert.Equal(t, 1, result.Failed)
	assert.True(t, result.Tasks[1].Failed)
	assert.True(t, result.Tasks[0].Completed)
}

func TestPool_Cancelled(t *testing.T) {
	fs := mocks.NewFileSystem()
	require.NoError(t, fs.WriteFile("in/a.mp4", []byte("a")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewPool(fs, 1, logger.NewNoop()).Run(ctx, []Task{{Src: "in/a.mp4", Dest: "out/a.mp4"}})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Failed)
}

func TestManager_CompletionWithSharedIDs(t *testing.T) {
	m := NewManager([]Task{{}, {}})

	m.Finish(Task{Completed: true})
	assert.False(t, m.AllCompleted())
	m.Finish(Task{Completed: true})
	assert.True(t, m.AllCompleted())
	assert.Len(t, m.Completed(), 1)
}

func TestPool_TasksWithSharedStreamID(t *testing.T) {
	root := t.TempDir()
	var tasks []Task
	for _, name := range []string{"a.mp4", "b.mp4"} {
		src := filepath.Join(root, name)
		require.NoError(t, os.WriteFile(src, []byte(name), 0644))
		tasks = append(tasks, Task{Src: src, Dest: filepath.Join(root, "out", name)})
	}

	type outcome struct {
		result Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := NewPool(osfilesystem.New(), 2, logger.NewNoop()).Run(context.Background(), tasks)
		done <- outcome{result, err}
	}()

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, 2, got.result.Completed)
		assert.Equal(t, 0, got.result.Failed)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	for _, task := range tasks {
		data, err := os.ReadFile(task.Dest)
		require.NoError(t, err)
		assert.Equal(t, filepath.Base(task.Src), string(data))
	}
}

func TestPool_NoTasks(t *testing.T) {
	result, err := NewPool(mocks.NewFileSystem(), 0, logger.NewNoop()).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Tasks)
}

func TestCollectTasks(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "mirror")
	for _, rel := range []string{"cam_1/a.MP4", "cam_0/b.mov", "notes.txt"} {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(rel), 0644))
	}

	tasks, err := CollectTasks(root, out, []string{".mp4", ".mov"})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, 0, tasks[0].StreamID)
	assert.Equal(t, filepath.Join(out, "cam_0", "b.mov"), tasks[0].Dest)
	assert.Equal(t, 1, tasks[1].StreamID)
	assert.Equal(t, filepath.Join(out, "cam_1", "a.MP4"), tasks[1].Dest)

	result, err := NewPool(osfilesystem.New(), 2, logger.NewNoop()).Run(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Completed)
	data, err := os.ReadFile(tasks[1].Dest)
	require.NoError(t, err)
	assert.Equal(t, "cam_1/a.MP4", string(data))
}
