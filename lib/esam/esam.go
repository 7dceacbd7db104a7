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
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// PathSAM stores Path to SAM (Binary=false) or BAM (Binary=true) file.
type PathSAM struct {
	Path   string
	Binary bool
}

// Open returns a reader over the alignment records. BAM decompression uses
// nWorker goroutines; SAM text decompresses gzip detected from the magic
// bytes. The file is returned for closing.
func (p PathSAM) Open(nWorker int) (f *os.File, rr sam.RecordReader, err error) {
	f, err = os.Open(p.Path)
	if err != nil {
		return f, rr, err
	}
	if p.Binary {
		rr, err = bam.NewReader(f, nWorker)
	} else {
		var r io.Reader
		r, err = sniffGzip(f)
		if err != nil {
			return f, rr, err
		}
		rr, err = sam.NewReader(r)
	}
	return f, rr, err
}

// sniffGzip reads SAM text from gzip-compressed files, detected from the
// magic bytes.
func sniffGzip(f *os.File) (io.Reader, error) {
	magic := make([]byte, 2)
	n, err := f.Read(magic)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	if n == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		return gzip.NewReader(f)
	}
	return f, nil
}

// ReadHeader opens the file just long enough to read its header.
func (p PathSAM) ReadHeader() (*sam.Header, error) {
	f, rr, err := p.Open(1)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	switch r := rr.(type) {
	case *bam.Reader:
		defer r.Close()
		return r.Header(), nil
	case *sam.Reader:
		return r.Header(), nil
	}
	return nil, nil
}
