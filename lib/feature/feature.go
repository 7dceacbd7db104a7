//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"errors"
	"fmt"

	"github.com/HollickLab/metagene-analysis/lib/chrom"
	"github.com/HollickLab/metagene-analysis/lib/esam"
	"github.com/HollickLab/metagene-analysis/lib/metagene"
)

// ErrUnstrandedRead signals an unstranded read counted on a stranded
// feature, which only a broken upstream filter can produce.
var ErrUnstrandedRead = errors.New("cannot count unstranded reads on stranded features")

// CountMethod selects the part of a feature or read that is counted.
type CountMethod uint8

const (
	CountAll CountMethod = iota
	CountStart
	CountEnd
)

func ParseCountMethod(method string) (CountMethod, error) {
	switch method {
	case "all":
		return CountAll, nil
	case "start":
		return CountStart, nil
	case "end":
		return CountEnd, nil
	}
	return CountAll, fmt.Errorf("unknown count method %q, expected start, end or all", method)
}

func (m CountMethod) String() string {
	switch m {
	case CountStart:
		return "start"
	case CountEnd:
		return "end"
	}
	return "all"
}

// Orientation of a read relative to its feature.
type Orientation uint8

const (
	Unstranded Orientation = iota
	Sense
	Antisense
)

func (o Orientation) String() string {
	switch o {
	case Sense:
		return "sense"
	case Antisense:
		return "antisense"
	}
	return "unstranded"
}

// GapStatus classifies a read by the presence of alignment gaps.
type GapStatus uint8

const (
	AllReads GapStatus = iota
	Ungapped
	Gapped
)

func (g GapStatus) String() string {
	switch g {
	case Ungapped:
		return "ungapped"
	case Gapped:
		return "gapped"
	}
	return "allreads"
}

// Bucket keys one counts array of a feature.
type Bucket struct {
	Orientation Orientation
	Gap         GapStatus
}

func (b Bucket) String() string {
	return b.Orientation.String() + ":" + b.Gap.String()
}

// Options configures feature construction, fixed once per run.
type Options struct {
	// Shape is the run-level metagene shape; its interval length is the
	// resampling target.
	Shape metagene.Shape
	// FeatureCount collapses each feature to its biological start or end
	// base before padding.
	FeatureCount CountMethod
	// GapCounting tallies gapped and ungapped reads separately.
	GapCounting bool
	// VariableSize keeps each feature's own interval length instead of
	// resampling to the shape's interval.
	VariableSize bool
	// IgnoreStrand counts every feature as unstranded.
	IgnoreStrand bool
}

// Feature is one padded genomic window with its per-subset counts.
// Positions holds the 0-based genomic position of every window index
// ordered 5' to 3', so index 0 is the biological upstream edge and
// minus-strand positions decrease.
type Feature struct {
	ID        uint32
	Name      string
	Chrom     string
	Strand    int8
	Shape     metagene.Shape
	Target    int
	Positions []int
	Counts    map[Bucket][]float64

	buckets []Bucket
	index   map[int]int
}

// New builds the padded window of a feature from its 0-based half-open
// genomic interval. Callers resolve reversed source coordinates first, so
// start must be below end whatever the strand.
func New(id uint32, name, chromName string, strand int8, start, end int, opts Options) (*Feature, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("feature %s has invalid interval [%d,%d)", name, start, end)
	}
	if strand != 1 && strand != -1 || opts.IgnoreStrand {
		strand = 0
	}

	// Collapse to the biological start or end base. On the minus strand
	// the genomic roles of start and end swap.
	switch opts.FeatureCount {
	case CountStart:
		if strand == -1 {
			start = end - 1
		} else {
			end = start + 1
		}
	case CountEnd:
		if strand == -1 {
			end = start + 1
		} else {
			start = end - 1
		}
	}

	shape := metagene.Shape{
		Interval:   end - start,
		Upstream:   opts.Shape.Upstream,
		Downstream: opts.Shape.Downstream,
	}
	target := opts.Shape.Interval
	if opts.VariableSize {
		target = shape.Interval
	}

	// Genomic extent of the padded window. Upstream padding precedes the
	// biological start, which is the genomic end on the minus strand.
	var winStart, winEnd int
	if strand == -1 {
		winStart = start - shape.Downstream
		winEnd = end + shape.Upstream
	} else {
		winStart = start - shape.Upstream
		winEnd = end + shape.Downstream
	}

	total := shape.Total()
	feat := &Feature{
		ID:        id,
		Name:      name,
		Chrom:     chromName,
		Strand:    strand,
		Shape:     shape,
		Target:    target,
		Positions: make([]int, total),
		index:     make(map[int]int, total),
	}
	for i := 0; i < total; i++ {
		p := winStart + i
		if strand == -1 {
			p = winEnd - 1 - i
		}
		feat.Positions[i] = p
		feat.index[p] = i
	}

	orientations := []Orientation{Sense, Antisense}
	if strand == 0 {
		orientations = []Orientation{Unstranded}
	}
	gaps := []GapStatus{AllReads}
	if opts.GapCounting {
		gaps = []GapStatus{Ungapped, Gapped}
	}
	feat.Counts = make(map[Bucket][]float64, len(orientations)*len(gaps))
	for _, o := range orientations {
		for _, g := range gaps {
			b := Bucket{Orientation: o, Gap: g}
			feat.buckets = append(feat.buckets, b)
			feat.Counts[b] = make([]float64, total)
		}
	}
	return feat, nil
}

// Buckets returns the count subsets in output order: sense before
// antisense, ungapped before gapped.
func (feat *Feature) Buckets() []Bucket {
	return feat.buckets
}

// CountRead accumulates a read onto the feature window, weighted by
// abundance over alignment multiplicity, and reports whether any position
// counted. Reads on another chromosome, and reads whose ends leave the
// window when countPartial is off, contribute nothing.
func (feat *Feature) CountRead(read *esam.AlignedRead, method CountMethod, countPartial bool) (bool, error) {
	var o Orientation
	switch {
	case feat.Strand == 0:
		o = Unstranded
	case read.Strand == 0:
		return false, fmt.Errorf("%w: feature %s", ErrUnstrandedRead, feat.Name)
	case feat.Strand == read.Strand:
		o = Sense
	default:
		o = Antisense
	}

	b := Bucket{Orientation: o, Gap: AllReads}
	if _, ok := feat.Counts[b]; !ok {
		if read.Gapped() {
			b.Gap = Gapped
		} else {
			b.Gap = Ungapped
		}
	}

	if !countPartial {
		if _, ok := feat.index[read.Positions[0]]; !ok {
			return false, nil
		}
		if _, ok := feat.index[read.Positions[len(read.Positions)-1]]; !ok {
			return false, nil
		}
	}
	if feat.Chrom != read.Chrom {
		return false, nil
	}

	counts := feat.Counts[b]
	weight := read.Weight()
	counted := false
	switch method {
	case CountStart:
		if i, ok := feat.index[read.Positions[0]]; ok {
			counts[i] += weight
			counted = true
		}
	case CountEnd:
		if i, ok := feat.index[read.Positions[len(read.Positions)-1]]; ok {
			counts[i] += weight
			counted = true
		}
	default:
		for _, p := range read.Positions {
			if i, ok := feat.index[p]; ok {
				counts[i] += weight
				counted = true
			}
		}
	}
	return counted, nil
}

// MetageneProfile resamples a bucket's interval counts onto the target
// length. Padding counts pass through unchanged around the resampled
// interval.
func (feat *Feature) MetageneProfile(b Bucket) []float64 {
	counts := feat.Counts[b]
	up := counts[:feat.Shape.Upstream]
	interval := counts[feat.Shape.Upstream : feat.Shape.Upstream+feat.Shape.Interval]
	down := counts[feat.Shape.Upstream+feat.Shape.Interval:]

	profile := make([]float64, 0, feat.Shape.Upstream+feat.Target+feat.Shape.Downstream)
	profile = append(profile, up...)
	if feat.Shape.Interval == feat.Target {
		profile = append(profile, interval...)
	} else {
		profile = append(profile, metagene.Resample(interval, feat.Target)...)
	}
	return append(profile, down...)
}

// Region returns the feature window as a 1-based "chrom:start-end" query
// string, clamped to the chromosome bounds.
func (feat *Feature) Region(lengths chrom.Lengths) (string, error) {
	length, ok := lengths[feat.Chrom]
	if !ok {
		return "", fmt.Errorf("chromosome %q of feature %s is not in the alignment file", feat.Chrom, feat.Name)
	}
	first := feat.Positions[0]
	last := feat.Positions[len(feat.Positions)-1]
	if first > last {
		first, last = last, first
	}
	start, end := first+1, last+1
	if start < 1 {
		start = 1
	}
	if end > length {
		end = length
	}
	return fmt.Sprintf("%s:%d-%d", feat.Chrom, start, end), nil
}

// Sorting functions: By Name
// Use it with: sort.Sort(feature.ByName(features))
type ByName []*Feature

func (f ByName) Len() int           { return len(f) }
func (f ByName) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f ByName) Less(i, j int) bool { return f[i].Name < f[j].Name }

// Sorting functions: By Chrom
type ByChrom []*Feature

func (f ByChrom) Len() int           { return len(f) }
func (f ByChrom) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f ByChrom) Less(i, j int) bool { return f[i].Chrom < f[j].Chrom }
