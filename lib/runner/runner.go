//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package runner

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type result struct {
	seq int
	buf []byte
}

// Run processes n indexed jobs on a bounded worker pool and hands each
// result to write in job order, whatever order the workers finish in. The
// first error cancels the whole group and is returned.
func Run(ctx context.Context, n, nWorker int, process func(ctx context.Context, seq int) ([]byte, error), write func(buf []byte) error) error {
	if nWorker < 1 {
		nWorker = 1
	}

	g, gctx := errgroup.WithContext(ctx)

	chJob := make(chan int, nWorker*10)
	chOut := make(chan result, nWorker*10)

	g.Go(func() error {
		defer close(chJob)
		for i := 0; i < n; i++ {
			select {
			case chJob <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	// Spawn worker goroutine(s)
	g.Go(func() error {
		defer close(chOut)
		wg, wgctx := errgroup.WithContext(gctx)
		for i := 0; i < nWorker; i++ {
			wg.Go(func() error {
				for seq := range chJob {
					buf, err := process(wgctx, seq)
					if err != nil {
						return err
					}
					select {
					case chOut <- result{seq: seq, buf: buf}:
					case <-wgctx.Done():
						return wgctx.Err()
					}
				}
				return nil
			})
		}
		return wg.Wait()
	})

	// Single writer, reordering results back to job order
	g.Go(func() error {
		pending := make(map[int][]byte)
		next := 0
		for r := range chOut {
			pending[r.seq] = r.buf
			for {
				buf, ok := pending[next]
				if !ok {
					break
				}
				delete(pending, next)
				next++
				if err := write(buf); err != nil {
					return err
				}
			}
		}
		return nil
	})

	return g.Wait()
}
