package stream

import (
	"context"
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

// Tee sends every element of in to both outputs.
// Each element is delivered to both before the next is read, so the slower reader paces the faster.
func Tee[T any](ctx context.Context, in <-chan T) (<-chan T, <-chan T) {
	out1, out2 := make(chan T), make(chan T)
	go func() {
		defer close(out1)
		defer close(out2)
		for element := range in {
			wg := sync.WaitGroup{}
			wg.Add(2)
			for _, o := range []chan T{out1, out2} {
				go func(o chan T) {
					defer wg.Done()
					select {
					case <-ctx.Done():
					case o <- element:
					}
				}(o)
			}
			wg.Wait()
			if ctx.Err() != nil {
				return
			}
		}
	}()
	return out1, out2
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
