//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samLine(flags int, chrom string, pos int, cigar, seq string, tags ...string) string {
	fields := []string{"read1", strconv.Itoa(flags), chrom, strconv.Itoa(pos), "255", cigar, "*", "0", "0", seq, "*"}
	fields = append(fields, tags...)
	return strings.Join(fields, "\t")
}

func TestParseLinePositions(t *testing.T) {
	tests := []struct {
		name   string
		pos    int
		cigar  string
		seq    string
		want   []int
		gapped bool
	}{
		{"perfect match", 1, "10M", "AAAAAAAAAA", []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, false},
		{"skipped region", 1, "5M3N5M", "AAAAAAAAAA", []int{0, 1, 2, 3, 4, 8, 9, 10, 11, 12}, true},
		{"clips mismatches and skips", 200, "3S2M4N3M2X3M", "AAAAAAAAAAAAA",
			[]int{199, 200, 205, 206, 207, 208, 209, 210, 211, 212}, true},
		{"deletion", 100, "4M2D4M", "AAAAAAAA", []int{99, 100, 101, 102, 105, 106, 107, 108}, true},
		{"insertion", 100, "4M2I4M", "AAAAAAAAAA", []int{99, 100, 101, 102, 103, 104, 105, 106}, false},
		{"pad advances reference", 100, "4M2P4M", "AAAAAAAA", []int{99, 100, 101, 102, 105, 106, 107, 108}, true},
		{"no cigar with sequence", 100, "*", "ACGT", []int{99, 100, 101, 102}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			read, ok, err := ParseLine(samLine(0, "chr1", tt.pos, tt.cigar, tt.seq), Decode{})
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, tt.want, read.Positions)
			assert.Equal(t, tt.gapped, read.Gapped())
			assert.Equal(t, int8(1), read.Strand)
			assert.Equal(t, "chr1", read.Chrom)
			assert.Equal(t, "read1", read.Name)
		})
	}
}

func TestParseLineInvalid(t *testing.T) {
	_, _, err := ParseLine(samLine(0, "chr1", 1, "*", "*"), Decode{})
	assert.ErrorIs(t, err, ErrUnknownAlignmentLength)

	_, _, err = ParseLine(samLine(0, "chr1", 1, "10Q", "AAAAAAAAAA"), Decode{})
	assert.ErrorIs(t, err, ErrInvalidCigar)

	// B is a valid SAM operation with no place on a linear reference.
	_, _, err = ParseLine(samLine(0, "chr1", 1, "5M1B5M", "AAAAAAAAAA"), Decode{})
	assert.ErrorIs(t, err, ErrInvalidCigar)

	// All clipped away, nothing aligned.
	_, _, err = ParseLine(samLine(0, "chr1", 1, "10S", "AAAAAAAAAA"), Decode{})
	assert.ErrorIs(t, err, ErrInvalidCigar)

	_, _, err = ParseLine("read1\t0\tchr1", Decode{})
	assert.Error(t, err)

	_, _, err = ParseLine(strings.Replace(samLine(0, "chr1", 1, "10M", "AAAAAAAAAA"), "\t0\t", "\tzero\t", 1), Decode{})
	assert.Error(t, err)
}

func TestParseLineStrand(t *testing.T) {
	read, ok, err := ParseLine(samLine(16, "chr1", 10, "3M", "ACG"), Decode{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(-1), read.Strand)
	assert.Equal(t, []int{11, 10, 9}, read.Positions, "minus strand positions run 5' to 3'")

	read, ok, err = ParseLine(samLine(16, "chr1", 10, "3M", "ACG"), Decode{IgnoreStrand: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(0), read.Strand)
	assert.Equal(t, []int{9, 10, 11}, read.Positions)
}

func TestParseLineFlagPolicy(t *testing.T) {
	tests := []struct {
		name   string
		flags  int
		policy Policy
		want   bool
	}{
		{"unmapped", 0x4, Policy{}, false},
		{"unmapped with permissive policy", 0x4, Policy{Secondary: true, FailedQC: true, Duplicate: true, Supplementary: true}, false},
		{"secondary excluded", 0x100, Policy{}, false},
		{"secondary included", 0x100, Policy{Secondary: true}, true},
		{"failed QC excluded", 0x200, Policy{}, false},
		{"failed QC included", 0x200, Policy{FailedQC: true}, true},
		{"duplicate excluded", 0x400, Policy{}, false},
		{"duplicate included", 0x400, Policy{Duplicate: true}, true},
		{"supplementary excluded", 0x800, Policy{}, false},
		{"supplementary included", 0x800, Policy{Supplementary: true}, true},
		{"first segment under only-start", 0x1 | 0x40, Policy{OnlyStart: true}, true},
		{"last segment under only-start", 0x1 | 0x80, Policy{OnlyStart: true}, false},
		{"last segment under only-end", 0x1 | 0x80, Policy{OnlyEnd: true}, true},
		{"first segment under only-end", 0x1 | 0x40, Policy{OnlyEnd: true}, false},
		{"unpaired under only-start", 0, Policy{OnlyStart: true}, true},
		{"unpaired under only-end", 0, Policy{OnlyEnd: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			read, ok, err := ParseLine(samLine(tt.flags, "chr1", 1, "5M", "ACGTA"), Decode{Policy: tt.policy})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.want, read != nil)
		})
	}
}

func TestPolicyValidate(t *testing.T) {
	assert.NoError(t, Policy{OnlyStart: true}.Validate())
	assert.NoError(t, Policy{OnlyEnd: true}.Validate())
	assert.Error(t, Policy{OnlyStart: true, OnlyEnd: true}.Validate())
}

func TestParseLineTags(t *testing.T) {
	line := samLine(0, "chr1", 1, "5M", "ACGTA", "NA:i:10", "NH:i:50")

	read, ok, err := ParseLine(line, Decode{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, read.Abundance, "tags ignored unless enabled")
	assert.Equal(t, 1, read.Mappings)
	assert.Equal(t, 1.0, read.Weight())

	read, ok, err = ParseLine(line, Decode{ExtractAbundance: true, ExtractMappings: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10, read.Abundance)
	assert.Equal(t, 50, read.Mappings)
	assert.InDelta(t, 0.2, read.Weight(), 1e-12)

	// Multiplicity defaults to 1 when the NH tag is absent.
	read, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA"), Decode{ExtractMappings: true})
	require.NoError(t, err)
	assert.Equal(t, 1, read.Mappings)

	// Abundance extraction requires the NA tag.
	_, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA"), Decode{ExtractAbundance: true})
	assert.Error(t, err)

	// A collapsed count of zero is valid and weights the read to nothing.
	read, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA", "NA:i:0"), Decode{ExtractAbundance: true})
	require.NoError(t, err)
	assert.Equal(t, 0, read.Abundance)
	assert.Equal(t, 0.0, read.Weight())

	_, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA", "NA:i:-2"), Decode{ExtractAbundance: true})
	assert.Error(t, err)

	_, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA", "NH:i:0"), Decode{ExtractMappings: true})
	assert.Error(t, err)

	_, _, err = ParseLine(samLine(0, "chr1", 1, "5M", "ACGTA", "NH:i:x"), Decode{ExtractMappings: true})
	assert.Error(t, err)
}

func TestFromRecord(t *testing.T) {
	const src = "@HD\tVN:1.6\n" +
		"@SQ\tSN:chr1\tLN:1000\n" +
		"r1\t0\tchr1\t10\t255\t5M\t*\t0\t0\tACGTA\t*\tNH:i:2\n" +
		"r2\t16\tchr1\t20\t255\t3M2N3M\t*\t0\t0\tACGTAC\t*\n" +
		"r3\t4\t*\t0\t0\t*\t*\t0\t0\t*\t*\n"
	sr, err := sam.NewReader(strings.NewReader(src))
	require.NoError(t, err)

	rec, err := sr.Read()
	require.NoError(t, err)
	read, ok, err := FromRecord(rec, Decode{ExtractMappings: true})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "chr1", read.Chrom)
	assert.Equal(t, []int{9, 10, 11, 12, 13}, read.Positions)
	assert.Equal(t, 2, read.Mappings)
	assert.InDelta(t, 0.5, read.Weight(), 1e-12)

	rec, err = sr.Read()
	require.NoError(t, err)
	read, ok, err = FromRecord(rec, Decode{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int8(-1), read.Strand)
	assert.Equal(t, []int{26, 25, 24, 21, 20, 19}, read.Positions)
	assert.True(t, read.Gapped())

	rec, err = sr.Read()
	require.NoError(t, err)
	read, ok, err = FromRecord(rec, Decode{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, read)

	_, err = sr.Read()
	assert.Equal(t, io.EOF, err)
}
