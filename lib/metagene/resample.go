//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package metagene

import "math"

// Resample redistributes values onto exactly target bins while conserving
// the total signal. Each source bin is one unit of mass poured into output
// bins of width len(values)/target source units, so the same pass handles
// both expansion (target > len(values)) and contraction (target <
// len(values)). values must be non-empty and target at least 1.
func Resample(values []float64, target int) []float64 {
	shrink := float64(len(values)) / float64(target)
	out := make([]float64, 0, target)
	carried := 0.0
	capacity := shrink
	for _, v := range values {
		mass := 1.0
		for mass > 0 {
			take := math.Min(mass, capacity)
			carried += v * take
			mass -= take
			capacity -= take
			if capacity == 0 {
				out = append(out, carried)
				carried = 0.0
				capacity = shrink
			}
		}
	}
	// Float drift on a non-representable bin width can strand the tail of
	// the last bin in carried.
	if len(out) < target {
		out = append(out, carried)
	} else if carried != 0 {
		out[len(out)-1] += carried
	}
	return out
}
