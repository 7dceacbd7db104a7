//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package chrom

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Table converts feature-file chromosome names to the alignment file's
// naming. A nil Table converts every name to itself.
type Table map[string]string

// OpenTable parses a two column tabulated file with the feature-file name
// and the alignment-file name of each chromosome.
func OpenTable(tpath string) (Table, error) {
	t := make(Table)

	tfos, err := os.Open(tpath)
	if err != nil {
		return t, err
	}
	defer tfos.Close()

	tscanner := bufio.NewScanner(tfos)
	iline := 0
	for tscanner.Scan() {
		iline++
		line := strings.TrimSpace(tscanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return t, fmt.Errorf("%s: line %d: expected 2 tab-separated names, got %d fields", tpath, iline, len(fields))
		}
		t[fields[0]] = fields[1]
	}
	if err := tscanner.Err(); err != nil {
		return t, err
	}
	return t, nil
}

// Convert maps a feature chromosome name to the alignment naming. Names
// absent from a non-nil table are an error, not an identity.
func (t Table) Convert(name string) (string, error) {
	if len(t) == 0 {
		return name, nil
	}
	if nn, ok := t[name]; ok {
		return nn, nil
	}
	return "", fmt.Errorf("chromosome %q is not in the conversion table", name)
}

// Validate checks that every name the table produces exists in the
// alignment file.
func (t Table) Validate(lengths Lengths) error {
	for from, to := range t {
		if _, ok := lengths[to]; !ok {
			return fmt.Errorf("chromosome %q (for %q) is not in the alignment file", to, from)
		}
	}
	return nil
}
