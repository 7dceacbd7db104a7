//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/HollickLab/metagene-analysis/lib/esam"
	"github.com/HollickLab/metagene-analysis/lib/feature"
	"github.com/HollickLab/metagene-analysis/lib/metagene"
)

const windowHeader = "Gene,Orientation,Gapped,Window,Inclusive_Start,Inclusive_End,Abundance\n"

func runWindow(args []string) error {
	fs := flag.NewFlagSet("window", flag.ExitOnError)
	var pathCountsRaw, pathWindows, compress string
	var windowSize, stepSize int
	var verbose bool
	fs.StringVar(&pathCountsRaw, "path_counts", "", "Counts file(s) from 'metagene count' (comma separated)")
	fs.StringVar(&pathWindows, "path_windows", "metagene_windows.csv", "Path to windows output")
	fs.StringVar(&compress, "compress", "none", "Compress windows output: 'none', 'gzip', 'lz4', 'lz4hc' or 'zstd'")
	fs.IntVar(&windowSize, "window_size", 10, "Size of windows for binning")
	fs.IntVar(&stepSize, "step_size", 10, "Step size for binning")
	fs.BoolVar(&verbose, "verbose", false, "Verbose")
	fs.Parse(args)

	setupLogging(verbose)

	if pathCountsRaw == "" {
		return errors.New("no counts input (see -path_counts)")
	}

	w, err := feature.OpenCounts(pathWindows, compress, false)
	if err != nil {
		return err
	}
	if _, err = w.Write([]byte(windowHeader)); err != nil {
		w.Close()
		return err
	}
	for _, p := range strings.Split(pathCountsRaw, ",") {
		log.Noticef("Processing file:\t%s", p)
		if err = windowFile(p, windowSize, stepSize, w); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}

// windowFile slides fixed-size windows over every profile of one counts
// file. Window bounds are reported with the position labels of the counts
// header.
func windowFile(fpath string, windowSize, stepSize int, w *feature.CountsWriter) error {
	f, err := feature.OpenCountsFile(fpath)
	if err != nil {
		return err
	}
	defer f.Close()

	var labels []string
	iline := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		iline++
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if labels == nil {
			if fields[0] != "Feature" {
				return &esam.ParseError{File: fpath, Line: iline, Err: errors.New("missing counts header")}
			}
			labels = fields[2:]
			continue
		}
		if len(fields) < 2 {
			return &esam.ParseError{File: fpath, Line: iline, Err: errors.New("missing profile values")}
		}
		orientation, gap, ok := strings.Cut(fields[1], ":")
		if !ok {
			return &esam.ParseError{File: fpath, Line: iline, Err: fmt.Errorf("invalid subset %q", fields[1])}
		}
		values := make([]float64, len(fields)-2)
		for i, raw := range fields[2:] {
			if values[i], err = strconv.ParseFloat(raw, 64); err != nil {
				return &esam.ParseError{File: fpath, Line: iline, Err: fmt.Errorf("invalid value %q", raw)}
			}
		}
		if len(values) > len(labels) {
			return &esam.ParseError{File: fpath, Line: iline, Err: fmt.Errorf("profile of %d values exceeds the %d header positions", len(values), len(labels))}
		}

		windows, err := metagene.SlidingWindows(values, windowSize, stepSize)
		if err != nil {
			return err
		}
		var buf strings.Builder
		for _, win := range windows {
			fmt.Fprintf(&buf, "%s,%s,%s,%d,%s,%s,%s\n",
				fields[0], orientation, gap, win.Index,
				labels[win.Start], labels[win.End],
				strconv.FormatFloat(win.Sum, 'f', 3, 64))
		}
		if _, err = w.Write([]byte(buf.String())); err != nil {
			return err
		}
	}
	return scanner.Err()
}
