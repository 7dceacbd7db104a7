//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/fatih/set.v0"
)

// Stats tallies alignments across the counting workers.
type Stats struct {
	alignments uint64
	counted    uint64
	skipped    uint64
	names      set.Interface
}

func NewStats() *Stats {
	return &Stats{names: set.New(set.ThreadSafe)}
}

func (s *Stats) AddAlignment() { atomic.AddUint64(&s.alignments, 1) }

func (s *Stats) AddSkipped() { atomic.AddUint64(&s.skipped, 1) }

func (s *Stats) AddCounted(name string) {
	atomic.AddUint64(&s.counted, 1)
	s.names.Add(name)
}

func (s *Stats) Alignments() uint64 { return atomic.LoadUint64(&s.alignments) }

// WriteReport writes the run statistics as indented JSON to pathReport, or
// to stdout with "-".
func WriteReport(pathReport string, stats *Stats, nFeature int) error {
	report, err := json.MarshalIndent(map[string]uint64{
		"alignments":     stats.Alignments(),
		"reads_counted":  atomic.LoadUint64(&stats.counted),
		"reads_skipped":  atomic.LoadUint64(&stats.skipped),
		"distinct_reads": uint64(stats.names.Size()),
		"features":       uint64(nFeature),
	}, "", "  ")
	if err != nil {
		return err
	}
	report = append(report, '\n')
	if pathReport == "-" {
		fmt.Print(string(report))
		return nil
	}
	return os.WriteFile(pathReport, report, 0666)
}
