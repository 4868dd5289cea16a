package main

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/hpcloud/tail"
	"github.com/hyp3rd/ewrap"
	"github.com/rs/zerolog"
)

// maxLineSize bounds a single input line.
const maxLineSize = 1 << 20

// readLines calls emit for every line of r until EOF or ctx is done.
func readLines(ctx context.Context, r io.Reader, emit func(string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errc:
					if err != nil {
						return ewrap.Wrap(err, "read input")
					}
				default:
				}
				return nil
			}
			emit(line)
		}
	}
}

// tailOptions controls how files are read.
type tailOptions struct {
	Follow    bool
	FromStart bool
	Poll      bool
}

// tailFile calls emit for every line of path. Without Follow it returns at
// EOF; with Follow it keeps reading, across rotations, until ctx is done.
func tailFile(ctx context.Context, path string, opts tailOptions, emit func(string), logger zerolog.Logger) error {
	cfg := tail.Config{
		Follow:    opts.Follow,
		ReOpen:    opts.Follow,
		MustExist: true,
		Poll:      opts.Poll,
		Logger:    tail.DiscardingLogger,
	}
	if opts.Follow && !opts.FromStart {
		cfg.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	t, err := tail.TailFile(path, cfg)
	if err != nil {
		return ewrap.Wrap(err, "open input file").WithMetadata("path", path)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				if err := t.Wait(); err != nil {
					return ewrap.Wrap(err, "read input file").WithMetadata("path", path)
				}
				return nil
			}
			if line == nil {
				continue
			}
			if line.Err != nil {
				logger.Warn().Err(line.Err).Str("path", path).Msg("skipping unreadable line")
				continue
			}
			emit(line.Text)
		}
	}
}

// tailFiles reads every path concurrently and returns once all are done.
func tailFiles(ctx context.Context, paths []string, opts tailOptions, emit func(string), logger zerolog.Logger) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, p := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tailFile(ctx, p, opts, emit, logger); err != nil {
				logger.Error().Err(err).Str("path", p).Msg("input failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return firstErr
}
