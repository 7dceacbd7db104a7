//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/biogo/hts/sam"
)

// AlignedRead is an alignment reduced to the 0-based genomic positions it
// covers, ordered 5' to 3' along the read: numerically decreasing for
// minus-strand alignments. Skipped reference bases (introns, deletions)
// are absent from Positions, never zero-filled.
type AlignedRead struct {
	Name      string
	Chrom     string
	Strand    int8
	Abundance int
	Mappings  int
	Positions []int
}

// Weight returns the read count normalized by alignment multiplicity.
func (r *AlignedRead) Weight() float64 {
	return float64(r.Abundance) / float64(r.Mappings)
}

// Gapped reports whether the alignment spans more reference bases than it
// covers.
func (r *AlignedRead) Gapped() bool {
	span := r.Positions[len(r.Positions)-1] - r.Positions[0]
	if span < 0 {
		span = -span
	}
	return span+1 > len(r.Positions)
}

// Decode controls the optional parts of alignment decoding. The zero value
// counts every primary alignment once, ignoring tags.
type Decode struct {
	Policy           Policy
	ExtractAbundance bool // from the NA tag, 1 when disabled
	ExtractMappings  bool // from the NH tag, 1 when disabled or absent
	IgnoreStrand     bool // decode every alignment as unstranded
}

// Number of mandatory tab-delimited alignment fields.
const numSAMFields = 11

// ParseLine decodes one tab-delimited alignment line. Alignments excluded
// by the decoding policy return ok=false and no error.
func ParseLine(line string, opts Decode) (read *AlignedRead, ok bool, err error) {
	fields := strings.Split(line, "\t")
	if len(fields) < numSAMFields {
		return nil, false, fmt.Errorf("alignment has %d of %d mandatory fields", len(fields), numSAMFields)
	}
	flags, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return nil, false, fmt.Errorf("invalid flags %q", fields[1])
	}
	countable, reverse := opts.Policy.Classify(sam.Flags(flags))
	if !countable {
		return nil, false, nil
	}
	pos, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, false, fmt.Errorf("invalid position %q", fields[3])
	}
	// Text positions are 1-based.
	positions, err := buildPositions(pos-1, fields[5], fields[9])
	if err != nil {
		return nil, false, err
	}
	abundance, mappings := 1, 1
	if opts.ExtractAbundance {
		v, found, err := tagInt(fields[numSAMFields:], "NA")
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, errors.New("missing NA tag")
		}
		if v < 0 {
			return nil, false, fmt.Errorf("negative abundance %d in NA tag", v)
		}
		abundance = v
	}
	if opts.ExtractMappings {
		v, found, err := tagInt(fields[numSAMFields:], "NH")
		if err != nil {
			return nil, false, err
		}
		if found {
			if v < 1 {
				return nil, false, fmt.Errorf("alignment multiplicity %d in NH tag is not positive", v)
			}
			mappings = v
		}
	}
	return newRead(fields[0], fields[2], reverse, abundance, mappings, positions, opts.IgnoreStrand), true, nil
}

// FromRecord decodes a parsed SAM/BAM record. Alignments excluded by the
// decoding policy return ok=false and no error.
func FromRecord(rec *sam.Record, opts Decode) (read *AlignedRead, ok bool, err error) {
	countable, reverse := opts.Policy.Classify(rec.Flags)
	if !countable {
		return nil, false, nil
	}
	var positions []int
	if len(rec.Cigar) == 0 {
		// No alignment detail: a perfect match over the sequence.
		if rec.Seq.Length == 0 {
			return nil, false, ErrUnknownAlignmentLength
		}
		positions = make([]int, rec.Seq.Length)
		for i := range positions {
			positions[i] = rec.Pos + i
		}
	} else {
		positions, err = expandCigar(rec.Pos, rec.Cigar)
		if err != nil {
			return nil, false, err
		}
		if len(positions) == 0 {
			return nil, false, fmt.Errorf("alignment %s covers no reference base", rec.Name)
		}
	}
	abundance, mappings := 1, 1
	if opts.ExtractAbundance {
		aux, found := rec.Tag([]byte{'N', 'A'})
		if !found {
			return nil, false, fmt.Errorf("alignment %s is missing the NA tag", rec.Name)
		}
		v, ok := auxInt(aux)
		if !ok || v < 0 {
			return nil, false, fmt.Errorf("alignment %s has invalid NA tag %v", rec.Name, aux)
		}
		abundance = v
	}
	if opts.ExtractMappings {
		if aux, found := rec.Tag([]byte{'N', 'H'}); found {
			v, ok := auxInt(aux)
			if !ok || v < 1 {
				return nil, false, fmt.Errorf("alignment %s has invalid NH tag %v", rec.Name, aux)
			}
			mappings = v
		}
	}
	chrom := "*"
	if rec.Ref != nil {
		chrom = rec.Ref.Name()
	}
	return newRead(rec.Name, chrom, reverse, abundance, mappings, positions, opts.IgnoreStrand), true, nil
}

func newRead(name, chrom string, reverse bool, abundance, mappings int, positions []int, ignoreStrand bool) *AlignedRead {
	var strand int8
	switch {
	case ignoreStrand:
		strand = 0
	case reverse:
		strand = -1
		// Index 0 holds the 5' end of the read.
		for i, j := 0, len(positions)-1; i < j; i, j = i+1, j-1 {
			positions[i], positions[j] = positions[j], positions[i]
		}
	default:
		strand = 1
	}
	return &AlignedRead{
		Name:      name,
		Chrom:     chrom,
		Strand:    strand,
		Abundance: abundance,
		Mappings:  mappings,
		Positions: positions,
	}
}

// buildPositions expands a CIGAR string into the reference positions the
// alignment covers, walking forward from the 0-based start. A "*" CIGAR is
// a perfect match over the sequence, or unresolvable when the sequence is
// "*" too.
func buildPositions(start int, cigar, seq string) ([]int, error) {
	if cigar == "*" {
		if seq == "*" || seq == "" {
			return nil, ErrUnknownAlignmentLength
		}
		positions := make([]int, len(seq))
		for i := range positions {
			positions[i] = start + i
		}
		return positions, nil
	}
	c, err := sam.ParseCigar([]byte(cigar))
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCigar, cigar, err)
	}
	positions, err := expandCigar(start, c)
	if err != nil {
		return nil, err
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("%w %q: alignment covers no reference base", ErrInvalidCigar, cigar)
	}
	return positions, nil
}

// expandCigar emits one position per covered reference base: M, = and X
// cover; D, N and P advance the reference uncovered; I, S and H touch no
// reference at all.
func expandCigar(start int, cigar sam.Cigar) ([]int, error) {
	size := 0
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			size += co.Len()
		case sam.CigarInsertion, sam.CigarSoftClipped, sam.CigarHardClipped,
			sam.CigarDeletion, sam.CigarSkipped, sam.CigarPadded:
		default:
			return nil, fmt.Errorf("%w: operation %v", ErrInvalidCigar, co.Type())
		}
	}
	positions := make([]int, 0, size)
	pos := start
	for _, co := range cigar {
		switch co.Type() {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			for i := 0; i < co.Len(); i++ {
				positions = append(positions, pos)
				pos++
			}
		case sam.CigarDeletion, sam.CigarSkipped, sam.CigarPadded:
			pos += co.Len()
		}
	}
	return positions, nil
}

// tagInt scans optional SAM text fields for an integer tag.
func tagInt(fields []string, tag string) (int, bool, error) {
	prefix := tag + ":i:"
	for _, f := range fields {
		if strings.HasPrefix(f, prefix) {
			v, err := strconv.Atoi(f[len(prefix):])
			if err != nil {
				return 0, true, fmt.Errorf("invalid %s tag %q", tag, f)
			}
			return v, true, nil
		}
	}
	return 0, false, nil
}

// auxInt unpacks the integer widths a BAM auxiliary field can carry.
func auxInt(aux sam.Aux) (int, bool) {
	switch v := aux.Value().(type) {
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}
