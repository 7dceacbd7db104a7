//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package metagene

import "fmt"

// Window is the summed abundance of one fixed-width slice of a profile.
// Start and End are inclusive indices into the profile.
type Window struct {
	Index int
	Start int
	End   int
	Sum   float64
}

// SlidingWindows sums values over width-sized windows advancing by step.
// Trailing positions that do not fill a whole window are dropped.
func SlidingWindows(values []float64, width, step int) ([]Window, error) {
	if width < 1 {
		return nil, fmt.Errorf("window size must be at least 1, got %d", width)
	}
	if step < 1 {
		return nil, fmt.Errorf("step size must be at least 1, got %d", step)
	}
	var windows []Window
	for end := width; end <= len(values); end += step {
		start := end - width
		sum := 0.0
		for i := start; i < end; i++ {
			sum += values[i]
		}
		windows = append(windows, Window{
			Index: len(windows),
			Start: start,
			End:   end - 1,
			Sum:   sum,
		})
	}
	return windows, nil
}
