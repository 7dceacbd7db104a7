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
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"

	"github.com/HollickLab/metagene-analysis/lib/metagene"
)

type GenericWriter interface {
	Write(buf []byte) (n int, err error)
	Close() error
}

// CountsWriter writes the metagene counts CSV, optionally compressed.
type CountsWriter struct {
	f *os.File
	z GenericWriter
}

// OpenCounts opens the counts CSV for writing. Compression is one of
// "none", "gzip", "lz4", "lz4hc" or "zstd".
func OpenCounts(countPath string, compress string, appendOutput bool) (*CountsWriter, error) {
	// Append or Create flag
	var fg int
	if appendOutput {
		fg = os.O_APPEND | os.O_CREATE | os.O_WRONLY
	} else {
		fg = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(countPath, fg, 0666)
	if err != nil {
		return nil, err
	}

	w := &CountsWriter{f: f}
	switch compress {
	case "", "none":
	case "gzip":
		w.z = gzip.NewWriter(f)
	case "lz4":
		w.z = lz4.NewWriter(f)
	case "lz4hc":
		lzWriter := lz4.NewWriter(f)
		lzWriter.Header = lz4.Header{CompressionLevel: 9}
		w.z = lzWriter
	case "zstd":
		zWriter, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		w.z = zWriter
	default:
		f.Close()
		return nil, fmt.Errorf("unknown compression %q, expected gzip, lz4, lz4hc, zstd or none", compress)
	}
	return w, nil
}

func (w *CountsWriter) Write(buf []byte) (int, error) {
	if w.z != nil {
		return w.z.Write(buf)
	}
	return w.f.Write(buf)
}

// WriteHeader writes the metagene definition comment and the column label
// line. Variable-size runs have no common shape, so callers skip it.
func (w *CountsWriter) WriteHeader(shape metagene.Shape) error {
	if _, err := fmt.Fprintf(w, "# Metagene:\t%s\n", shape); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Feature,Orientation:Gap,%s\n", strings.Join(shape.Labels(), ","))
	return err
}

// Close flushes the compressor before closing the file.
func (w *CountsWriter) Close() error {
	if w.z != nil {
		if err := w.z.Close(); err != nil {
			w.f.Close()
			return err
		}
	}
	return w.f.Close()
}

type countsFile struct {
	f *os.File
	r *bufio.Reader
}

func (c *countsFile) Read(p []byte) (int, error) { return c.r.Read(p) }
func (c *countsFile) Close() error               { return c.f.Close() }

// OpenCountsFile opens a counts CSV for reading, decompressing gzip
// detected from the magic bytes.
func OpenCountsFile(fpath string) (io.ReadCloser, error) {
	f, r, err := openFeatures(fpath)
	if err != nil {
		return nil, err
	}
	return &countsFile{f: f, r: r}, nil
}

// CountsCSV renders every bucket of the feature as metagene counts CSV
// lines, in bucket output order.
func (feat *Feature) CountsCSV() []byte {
	var buf bytes.Buffer
	for _, b := range feat.buckets {
		buf.WriteString(feat.Name)
		buf.WriteByte(',')
		buf.WriteString(b.String())
		for _, v := range feat.MetageneProfile(b) {
			buf.WriteByte(',')
			buf.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
