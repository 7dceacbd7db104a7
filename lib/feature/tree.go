//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"github.com/biogo/store/interval"

	"github.com/HollickLab/metagene-analysis/lib/esam"
)

// BuildTrees builds a tree per chromosome holding the padded window of each
// feature. Stream mode queries the trees to route reads to candidate
// features; orientation and containment stay with CountRead.
func BuildTrees(features []*Feature) (map[string]*interval.IntTree, error) {
	trees := make(map[string]*interval.IntTree)
	for i, feat := range features {
		// New tree for unseen chromosome
		tree, ok := trees[feat.Chrom]
		if !ok {
			tree = &interval.IntTree{}
			trees[feat.Chrom] = tree
		}
		first := feat.Positions[0]
		last := feat.Positions[len(feat.Positions)-1]
		if first > last {
			first, last = last, first
		}
		// Feature IDs are the tree identity, stable across sorting.
		iv := IntInterval{Start: first, End: last + 1, UID: uintptr(feat.ID), Index: i}
		if err := tree.Insert(iv, false); err != nil {
			return nil, err
		}
	}
	for k := range trees {
		trees[k].AdjustRanges()
	}
	return trees, nil
}

// OverlapRead returns the indexes of the features whose padded window
// overlaps the genomic span of a read.
func OverlapRead(read *esam.AlignedRead, trees map[string]*interval.IntTree) []int {
	tree, ok := trees[read.Chrom]
	if !ok {
		return nil
	}
	first := read.Positions[0]
	last := read.Positions[len(read.Positions)-1]
	if first > last {
		first, last = last, first
	}
	var idxs []int
	for _, iv := range tree.Get(IntInterval{Start: first, End: last + 1}) {
		idxs = append(idxs, iv.(IntInterval).Index)
	}
	return idxs
}
