//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package feature

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/HollickLab/metagene-analysis/lib/chrom"
	"github.com/HollickLab/metagene-analysis/lib/esam"
)

// Format of a feature annotation file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatBED
	FormatBEDShort
	FormatGFF
)

// detectSampleSize caps the number of data lines read by DetectFormat.
const detectSampleSize = 100

func ParseFormat(format string) (Format, error) {
	switch format {
	case "auto", "":
		return FormatUnknown, nil
	case "bed":
		return FormatBED, nil
	case "bed_short":
		return FormatBEDShort, nil
	case "gff":
		return FormatGFF, nil
	}
	return FormatUnknown, fmt.Errorf("unknown feature format %q, expected auto, bed, bed_short or gff", format)
}

func (f Format) String() string {
	switch f {
	case FormatBED:
		return "bed"
	case FormatBEDShort:
		return "bed_short"
	case FormatGFF:
		return "gff"
	}
	return "unknown"
}

// openFeatures opens a feature file, decompressing gzip detected from the
// magic bytes.
func openFeatures(fpath string) (*os.File, *bufio.Reader, error) {
	f, err := os.Open(fpath)
	if err != nil {
		return nil, nil, err
	}
	magic := make([]byte, 2)
	n, err := f.Read(magic)
	if err != nil && err != io.EOF {
		f.Close()
		return nil, nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, nil, err
	}
	if n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return f, bufio.NewReader(gz), nil
	}
	return f, bufio.NewReader(f), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isStrandField(s string) bool {
	return s == "+" || s == "-" || s == "."
}

// classifyLine assigns one feature line to a format. BED wins over GFF for
// the rare lines satisfying both.
func classifyLine(line string) Format {
	fields := strings.Split(line, "\t")
	switch {
	case len(fields) >= 6 && fields[0] != "" && isDigits(fields[1]) && isDigits(fields[2]) &&
		fields[3] != "" && fields[4] != "" && isStrandField(fields[5]):
		return FormatBED
	case len(fields) >= 9 && fields[0] != "" && fields[1] != "" && fields[2] != "" &&
		isDigits(fields[3]) && isDigits(fields[4]) && fields[5] != "" && isStrandField(fields[6]) &&
		fields[7] != "" && fields[8] != "":
		return FormatGFF
	case len(fields) >= 3 && fields[0] != "" && isDigits(fields[1]) && isDigits(fields[2]):
		return FormatBEDShort
	}
	return FormatUnknown
}

// DetectFormat samples the leading data lines of a feature file and returns
// the format at least 80% of them agree on.
func DetectFormat(fpath string) (Format, error) {
	f, r, err := openFeatures(fpath)
	if err != nil {
		return FormatUnknown, err
	}
	defer f.Close()

	counts := make(map[Format]int)
	total := 0
	scanner := bufio.NewScanner(r)
	for total < detectSampleSize && scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		counts[classifyLine(line)]++
		total++
	}
	if err := scanner.Err(); err != nil {
		return FormatUnknown, err
	}

	best := FormatUnknown
	nbest := 0
	for _, format := range []Format{FormatBED, FormatGFF, FormatBEDShort} {
		if counts[format] > nbest {
			best, nbest = format, counts[format]
		}
	}
	if total == 0 || nbest*5 < total*4 {
		return FormatUnknown, fmt.Errorf("could not determine the format of feature file %s", fpath)
	}
	return best, nil
}

// record is one parsed feature line, coordinates 0-based half-open.
type record struct {
	name   string
	chrom  string
	strand int8
	start  int
	end    int
}

func parseStrand(s string) int8 {
	switch s {
	case "+":
		return 1
	case "-":
		return -1
	}
	return 0
}

// parseBED converts a BED line to 0-based half-open coordinates. A start
// column larger than the end column is accepted on the minus strand,
// assuming swapped columns with the start still 0-based.
func parseBED(fields []string, short bool) (rec record, err error) {
	minFields := 6
	if short {
		minFields = 3
	}
	if len(fields) < minFields {
		return rec, fmt.Errorf("expected at least %d tab-separated fields, got %d", minFields, len(fields))
	}
	a, err := strconv.Atoi(fields[1])
	if err != nil {
		return rec, fmt.Errorf("invalid start %q", fields[1])
	}
	b, err := strconv.Atoi(fields[2])
	if err != nil {
		return rec, fmt.Errorf("invalid end %q", fields[2])
	}

	rec.chrom = fields[0]
	if short {
		rec.name = "Unknown_name"
		if len(fields) >= 4 {
			rec.name = fields[3]
		}
	} else {
		rec.name = fields[3]
		rec.strand = parseStrand(fields[5])
	}

	if a > b {
		if short || rec.strand != -1 {
			return rec, fmt.Errorf("start value %d is larger than end value %d", a, b)
		}
		rec.start, rec.end = b-1, a+1
	} else {
		rec.start, rec.end = a, b
	}
	return rec, nil
}

// parseGFF converts a GFF line to 0-based half-open coordinates with the
// same swapped-column tolerance as parseBED. Commas in the attribute column
// become semicolons to keep the name CSV-safe.
func parseGFF(fields []string) (rec record, err error) {
	if len(fields) < 9 {
		return rec, fmt.Errorf("expected at least 9 tab-separated fields, got %d", len(fields))
	}
	a, err := strconv.Atoi(fields[3])
	if err != nil {
		return rec, fmt.Errorf("invalid start %q", fields[3])
	}
	b, err := strconv.Atoi(fields[4])
	if err != nil {
		return rec, fmt.Errorf("invalid end %q", fields[4])
	}

	rec.chrom = fields[0]
	rec.name = strings.ReplaceAll(fields[8], ",", ";")
	rec.strand = parseStrand(fields[6])

	if a > b {
		if rec.strand != -1 {
			return rec, fmt.Errorf("start value %d is larger than end value %d", a, b)
		}
		rec.start, rec.end = b-1, a
	} else {
		rec.start, rec.end = a-1, b
	}
	return rec, nil
}

func parseRecord(format Format, line string) (record, error) {
	fields := strings.Split(line, "\t")
	switch format {
	case FormatBED:
		return parseBED(fields, false)
	case FormatBEDShort:
		return parseBED(fields, true)
	case FormatGFF:
		return parseGFF(fields)
	}
	return record{}, fmt.Errorf("unknown feature format")
}

// LoadFeatures reads an annotation file into features, detecting the format
// from the content when it is FormatUnknown. Chromosome names convert to
// the alignment namespace and coordinates must fit their chromosome.
func LoadFeatures(fpath string, format Format, table chrom.Table, lengths chrom.Lengths, opts Options) ([]*Feature, error) {
	if format == FormatUnknown {
		var err error
		if format, err = DetectFormat(fpath); err != nil {
			return nil, err
		}
	}

	f, r, err := openFeatures(fpath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var features []*Feature
	iline := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		iline++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseRecord(format, line)
		if err != nil {
			return nil, &esam.ParseError{File: fpath, Line: iline, Err: err}
		}
		chromName, err := table.Convert(rec.chrom)
		if err != nil {
			return nil, &esam.ParseError{File: fpath, Line: iline, Err: err}
		}
		length, ok := lengths[chromName]
		if !ok {
			return nil, &esam.ParseError{File: fpath, Line: iline, Err: fmt.Errorf("chromosome %q is not in the alignment file", chromName)}
		}
		if rec.start < 0 || rec.end > length {
			return nil, &esam.ParseError{File: fpath, Line: iline, Err: fmt.Errorf("feature %s is outside chromosome %s of length %d", rec.name, chromName, length)}
		}
		feat, err := New(uint32(len(features)), rec.name, chromName, rec.strand, rec.start, rec.end, opts)
		if err != nil {
			return nil, &esam.ParseError{File: fpath, Line: iline, Err: err}
		}
		features = append(features, feat)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return features, nil
}
