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

func TestResampleExpansion(t *testing.T) {
	out := Resample([]float64{16, 8, 24, 4}, 8)
	require.Len(t, out, 8)
	assert.InDeltaSlice(t, []float64{8, 8, 4, 4, 12, 12, 2, 2}, out, 1e-9)
}

func TestResampleContraction(t *testing.T) {
	out := Resample([]float64{6, 8, 6, 2, 4, 4, 2, 4, 24, 8}, 4)
	require.Len(t, out, 4)
	assert.InDeltaSlice(t, []float64{17, 9, 8, 34}, out, 1e-9)
}

func TestResampleIdentity(t *testing.T) {
	values := []float64{3, 0, 1.5, 7, 0.25}
	out := Resample(values, len(values))
	assert.InDeltaSlice(t, values, out, 1e-9)
}

func TestResampleSingleBin(t *testing.T) {
	out := Resample([]float64{1, 2, 3}, 1)
	require.Len(t, out, 1)
	assert.InDelta(t, 6, out[0], 1e-9)
}

func TestResampleSpreadSingleValue(t *testing.T) {
	out := Resample([]float64{5}, 4)
	require.Len(t, out, 4)
	assert.InDeltaSlice(t, []float64{1.25, 1.25, 1.25, 1.25}, out, 1e-9)
}

func TestResampleFractionalWidth(t *testing.T) {
	values := []float64{2.5, 4, 10.0 / 3.0, 10, 11, 7.3, 4}

	out := Resample(values, 4)
	require.Len(t, out, 4)
	assert.InDeltaSlice(t, []float64{5.5, 9.333333, 17.825, 9.475}, out, 1e-6)

	out = Resample(values, 3)
	require.Len(t, out, 3)
	assert.InDeltaSlice(t, []float64{7.611111, 19.555556, 14.966667}, out, 1e-6)
}

func TestResampleConservesSum(t *testing.T) {
	values := []float64{2.5, 4, 10.0 / 3.0, 10, 11, 7.3, 4}
	want := 0.0
	for _, v := range values {
		want += v
	}
	for target := 1; target <= 20; target++ {
		out := Resample(values, target)
		require.Len(t, out, target, "target %d", target)
		got := 0.0
		for _, v := range out {
			got += v
		}
		assert.InDelta(t, want, got, 1e-6, "target %d", target)
	}
}
