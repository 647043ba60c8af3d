package stream

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"
)

// Slice, et al., taken from:
// https://betterprogramming.pub/writing-a-stream-api-in-go-afbc3c4350e2

func Slice[T any](ctx context.Context, in []T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for _, element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Filter[T any](ctx context.Context, predicate func(T) bool, in <-chan T) <-chan T {
	out := make(chan T)
	go func() {
		defer close(out)
		for element := range in {
			if !predicate(element) {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- element:
			}
		}
	}()
	return out
}

func Transform[I any, O any](ctx context.Context, transformer func(I) O, in <-chan I) <-chan O {
	out := make(chan O)
	go func() {
		defer close(out)
		for element := range in {
			select {
			case <-ctx.Done():
				return
			case out <- transformer(element):
			}
		}
	}()
	return out
}

// Work runs fn over in on n concurrent workers. Output order is not input order.
// Workers are numbered from 1.
func Work[I any, O any](ctx context.Context, n int, fn func(worker int, element I) O, in <-chan I) <-chan O {
	if n < 1 {
		n = 1
	}
	out := make(chan O)
	wg := new(sync.WaitGroup)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for element := range in {
				select {
				case <-ctx.Done():
					return
				case out <- fn(worker, element):
				}
			}
		}(i + 1)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func Collect[T any](ctx context.Context, in <-chan T) []T {
	out := make([]T, 0)
	for element := range in {
		select {
		case <-ctx.Done():
			return out
		default:
			out = append(out, element)
		}
	}
	return out
}

// Lines sends each non-blank line of r, without its line ending.
// The error channel receives the scanner's error, or nil at EOF, and is then closed.
func Lines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	out := make(chan []byte)
	errs := make(chan error, 1)
	go func() {
		defer close(errs)
		defer close(out)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			select {
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			case out <- bytes.Clone(line):
			}
		}
		errs <- scanner.Err()
	}()
	return out, errs
}
