//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package metagene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewShape(t *testing.T) {
	s, err := NewShape(10, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 16, s.Total())
	assert.Equal(t, "Upstream:4 -- Interval:10 -- Downstream:2\tLength:16", s.String())

	s, err = NewShape(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Total())
}

func TestNewShapeInvalid(t *testing.T) {
	tests := []struct {
		name                           string
		interval, upstream, downstream int
	}{
		{"zero interval", 0, 4, 2},
		{"negative interval", -10, 4, 2},
		{"negative upstream", 10, -1, 2},
		{"negative downstream", 10, 4, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShape(tt.interval, tt.upstream, tt.downstream)
			assert.Error(t, err)
		})
	}
}

func TestShapeLabels(t *testing.T) {
	s, err := NewShape(10, 4, 2)
	require.NoError(t, err)
	labels := s.Labels()
	require.Len(t, labels, 16)
	assert.Equal(t, []string{"-4", "-3", "-2", "-1"}, labels[:4])
	assert.Equal(t, "0", labels[4])
	assert.Equal(t, "9", labels[13])
	assert.Equal(t, []string{"10", "11"}, labels[14:])

	s, err = NewShape(1, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, s.Labels())
}
