//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package chrom

import (
	"io"
	"strings"

	"github.com/biogo/hts/sam"
	"github.com/shenwei356/bio/seq"
	"github.com/shenwei356/bio/seqio/fastx"
)

// Lengths holds chromosome sizes keyed by alignment-file name.
type Lengths map[string]int

// LengthsFromHeader collects reference lengths from the alignment header.
func LengthsFromHeader(h *sam.Header) Lengths {
	lengths := make(Lengths, len(h.Refs()))
	for _, ref := range h.Refs() {
		lengths[ref.Name()] = ref.Len()
	}
	return lengths
}

// LengthsFromFasta collects sequence lengths from a FASTA file, for
// alignments whose header carries no reference dictionary.
func LengthsFromFasta(fpath string) (Lengths, error) {
	reader, err := fastx.NewDefaultReader(fpath)
	if err != nil {
		return nil, err
	}
	seq.ValidateSeq = false // This flag makes parsing FASTA much faster

	lengths := make(Lengths)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		// Keep the sequence name up to the first space
		name := strings.Fields(string(rec.Name))[0]
		lengths[name] = rec.Seq.Length()
	}
	return lengths, nil
}
