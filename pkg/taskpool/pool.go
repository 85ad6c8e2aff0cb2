package taskpool

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/user/camsync/pkg/discovery"
	"github.com/user/camsync/pkg/metrics"
	"github.com/user/camsync/pkg/pipeline"
	"github.com/user/camsync/pkg/ports"
)

// CollectTasks lists every video under root and maps it to the same relative
// path under out.
func CollectTasks(root, out string, exts []string) ([]Task, error) {
	found, err := discovery.Dir(pipeline.DiscoverInput{Root: root, Extensions: exts})
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(found.Streams))
	for _, s := range found.Streams {
		rel, err := filepath.Rel(root, s.Locator)
		if err != nil {
			return nil, fmt.Errorf("relative path of %s: %w", s.Locator, err)
		}
		tasks = append(tasks, Task{
			Src:      s.Locator,
			Dest:     filepath.Join(out, rel),
			StreamID: s.ID,
		})
	}
	return tasks, nil
}

// Result summarizes a pool run. Completed and Failed count every task; Tasks
// holds the last finished task per stream ID.
type Result struct {
	Completed int
	Failed    int
	Tasks     map[int]Task
}

// Pool copies tasks with a fixed number of workers.
type Pool struct {
	fs      ports.FileSystem
	workers int
	logger  ports.Logger
}

// NewPool creates a pool. workers below 1 means one worker.
func NewPool(fs ports.FileSystem, workers int, logger ports.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		fs:      fs,
		workers: workers,
		logger:  logger.WithComponent("copy"),
	}
}

// Run copies every task. A failed copy marks its task failed and the others
// continue; all failures are returned together. Once ctx is done the
// remaining tasks are marked failed without being copied.
func (p *Pool) Run(ctx context.Context, tasks []Task) (Result, error) {
	m := NewManager(tasks)
	if len(tasks) == 0 {
		return Result{Tasks: m.Completed()}, nil
	}
	// Every task is queued up front, so workers drain the queue and stop.
	m.Exit()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		errs   *multierror.Error
		result Result
	)
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				task, ok := m.Next()
				if !ok {
					return
				}

				err := ctx.Err()
				if err == nil {
					started := time.Now()
					err = p.copy(task)
					metrics.ObserveCopy(time.Since(started), err)
				}
				mu.Lock()
				if err != nil {
					task.Failed = true
					result.Failed++
					errs = multierror.Append(errs, fmt.Errorf("stream %d: %w", task.StreamID, err))
				} else {
					task.Completed = true
					result.Completed++
				}
				mu.Unlock()

				if task.Failed {
					p.logger.Warn("Copy of %s failed: %v", task.Src, err)
				} else {
					p.logger.Debug("Copied %s", task.Dest)
				}
				m.Finish(task)
			}
		}()
	}
	wg.Wait()

	result.Tasks = m.Completed()
	return result, errs.ErrorOrNil()
}

func (p *Pool) copy(task Task) (err error) {
	src, err := p.fs.Open(task.Src)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := p.fs.Create(task.Dest)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(dst, src)
	return err
}
