//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package metagene

import (
	"fmt"
	"strconv"
)

// Shape defines the metagene coordinate system: a fixed-length interval
// flanked by untransformed padding windows.
type Shape struct {
	Interval   int
	Upstream   int
	Downstream int
}

// NewShape validates interval and padding sizes and returns a Shape.
func NewShape(interval, upstream, downstream int) (Shape, error) {
	if interval < 1 {
		return Shape{}, fmt.Errorf("interval must be at least 1, got %d", interval)
	}
	if upstream < 0 {
		return Shape{}, fmt.Errorf("upstream padding must be at least 0, got %d", upstream)
	}
	if downstream < 0 {
		return Shape{}, fmt.Errorf("downstream padding must be at least 0, got %d", downstream)
	}
	return Shape{Interval: interval, Upstream: upstream, Downstream: downstream}, nil
}

// Total returns the full profile length, paddings included.
func (s Shape) Total() int {
	return s.Upstream + s.Interval + s.Downstream
}

func (s Shape) String() string {
	return fmt.Sprintf("Upstream:%d -- Interval:%d -- Downstream:%d\tLength:%d", s.Upstream, s.Interval, s.Downstream, s.Total())
}

// Labels returns the profile position labels relative to the interval
// start: negative over the upstream padding, then 0 to Interval-1, then
// increasing over the downstream padding.
func (s Shape) Labels() []string {
	labels := make([]string, 0, s.Total())
	for i := s.Upstream; i > 0; i-- {
		labels = append(labels, strconv.Itoa(-i))
	}
	for i := 0; i < s.Interval+s.Downstream; i++ {
		labels = append(labels, strconv.Itoa(i))
	}
	return labels
}
