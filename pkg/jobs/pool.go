package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Task is a unit of work owning its input.
type Task[T any] struct {
	Key   string
	Input T
}

type outcome[R any] struct {
	key   string
	value R
	err   error
}

// TaskError ties a failure to the task that produced it.
type TaskError struct {
	Key string
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// Pool fans tasks out to a fixed number of workers.
type Pool struct {
	Workers  int
	Manager  *Manager  // optional status tracking
	Progress io.Writer // progress bar destination, nil disables it
	Label    string
}

// Run executes fn for every task and collects results keyed by task key.
// Workers send results over a channel and only this goroutine writes the map,
// so each key has a single writer. Every failed task is reported; the map
// then holds the successful ones only.
func Run[T, R any](ctx context.Context, p *Pool, tasks []Task[T], fn func(context.Context, T) (R, error)) (map[string]R, error) {
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.Key]; dup {
			return nil, fmt.Errorf("duplicate task key %q", t.Key)
		}
		seen[t.Key] = struct{}{}
		if p.Manager != nil {
			p.Manager.Enqueue(t.Key)
		}
	}

	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(tasks) && len(tasks) > 0 {
		workers = len(tasks)
	}

	var progress *mpb.Progress
	var bar *mpb.Bar
	if p.Progress != nil && len(tasks) > 0 {
		label := p.Label
		if label == "" {
			label = "tasks: "
		}
		progress = mpb.New(mpb.WithWidth(40), mpb.WithOutput(p.Progress))
		bar = progress.AddBar(int64(len(tasks)),
			mpb.PrependDecorators(
				decor.Name(label, decor.WC{W: len(label), C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
				decor.AverageETA(decor.ET_STYLE_GO),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
	}

	queue := make(chan Task[T])
	results := make(chan outcome[R], workers)

	for i := 0; i < workers; i++ {
		go func() {
			for t := range queue {
				if err := ctx.Err(); err != nil {
					results <- outcome[R]{key: t.Key, err: err}
					continue
				}
				if p.Manager != nil {
					p.Manager.SetRunning(t.Key)
				}
				v, err := fn(ctx, t.Input)
				results <- outcome[R]{key: t.Key, value: v, err: err}
			}
		}()
	}

	go func() {
		defer close(queue)
		for _, t := range tasks {
			queue <- t
		}
	}()

	collected := make(map[string]R, len(tasks))
	var errs []error
	for range tasks {
		o := <-results
		if o.err != nil {
			errs = append(errs, &TaskError{Key: o.key, Err: o.err})
			if p.Manager != nil {
				p.Manager.Fail(o.key, o.err)
			}
		} else {
			collected[o.key] = o.value
			if p.Manager != nil {
				p.Manager.Complete(o.key)
			}
		}
		if bar != nil {
			bar.Increment()
		}
	}

	if progress != nil {
		progress.Wait()
	}

	return collected, errors.Join(errs...)
}
