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
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunOrder(t *testing.T) {
	var out strings.Builder
	err := Run(context.Background(), 100, 8,
		func(ctx context.Context, seq int) ([]byte, error) {
			// Uneven runtimes so results arrive out of order
			time.Sleep(time.Duration(seq%7) * time.Millisecond)
			return []byte(fmt.Sprintf("%d\n", seq)), nil
		},
		func(buf []byte) error {
			out.Write(buf)
			return nil
		})
	require.NoError(t, err)

	var want strings.Builder
	for i := 0; i < 100; i++ {
		fmt.Fprintf(&want, "%d\n", i)
	}
	assert.Equal(t, want.String(), out.String())
}

func TestRunProcessError(t *testing.T) {
	boom := errors.New("boom")
	err := Run(context.Background(), 50, 4,
		func(ctx context.Context, seq int) ([]byte, error) {
			if seq == 42 {
				return nil, boom
			}
			return []byte("x"), nil
		},
		func(buf []byte) error { return nil })
	assert.ErrorIs(t, err, boom)
}

func TestRunWriteError(t *testing.T) {
	broken := errors.New("disk full")
	calls := 0
	err := Run(context.Background(), 50, 4,
		func(ctx context.Context, seq int) ([]byte, error) { return []byte("x"), nil },
		func(buf []byte) error {
			calls++
			if calls == 3 {
				return broken
			}
			return nil
		})
	assert.ErrorIs(t, err, broken)
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, 1000, 4,
		func(ctx context.Context, seq int) ([]byte, error) { return []byte("x"), nil },
		func(buf []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunEmpty(t *testing.T) {
	var processed, written int32
	err := Run(context.Background(), 0, 0,
		func(ctx context.Context, seq int) ([]byte, error) {
			atomic.AddInt32(&processed, 1)
			return nil, nil
		},
		func(buf []byte) error {
			atomic.AddInt32(&written, 1)
			return nil
		})
	require.NoError(t, err)
	assert.Zero(t, atomic.LoadInt32(&processed))
	assert.Zero(t, atomic.LoadInt32(&written))
}
