//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package chrom

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chroms.tab")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenTable(t *testing.T) {
	path := writeTable(t, "# feature\talignment\n1\tchr1\n2\tchr2\n\nMT\tchrM\n")
	table, err := OpenTable(path)
	require.NoError(t, err)
	assert.Len(t, table, 3)

	name, err := table.Convert("1")
	require.NoError(t, err)
	assert.Equal(t, "chr1", name)
	name, err = table.Convert("MT")
	require.NoError(t, err)
	assert.Equal(t, "chrM", name)

	_, err = table.Convert("chr9")
	assert.Error(t, err, "names missing from a provided table do not convert")

	name, err = Table(nil).Convert("chr9")
	require.NoError(t, err)
	assert.Equal(t, "chr9", name, "without a table names convert to themselves")
}

func TestOpenTableMalformed(t *testing.T) {
	path := writeTable(t, "1\tchr1\nchr2\n")
	_, err := OpenTable(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestTableValidate(t *testing.T) {
	lengths := Lengths{"chr1": 1000, "chr2": 500}
	assert.NoError(t, Table{"1": "chr1", "2": "chr2"}.Validate(lengths))
	assert.Error(t, Table{"x": "chrX"}.Validate(lengths))
}

func TestLengthsFromHeader(t *testing.T) {
	sr, err := sam.NewReader(strings.NewReader("@SQ\tSN:chr1\tLN:1000\n@SQ\tSN:chr2\tLN:500\n"))
	require.NoError(t, err)
	lengths := LengthsFromHeader(sr.Header())
	assert.Equal(t, Lengths{"chr1": 1000, "chr2": 500}, lengths)
}

func TestLengthsFromFasta(t *testing.T) {
	for _, path := range []string{"testdata/genome.fa", "testdata/genome.fa.gz"} {
		lengths, err := LengthsFromFasta(path)
		require.NoError(t, err, path)
		assert.Equal(t, Lengths{"chr1": 60, "chr2": 25}, lengths, path)
	}
}
