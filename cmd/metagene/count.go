//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/biogo/hts/bam"
	"github.com/biogo/store/interval"

	"github.com/HollickLab/metagene-analysis/lib/chrom"
	"github.com/HollickLab/metagene-analysis/lib/esam"
	"github.com/HollickLab/metagene-analysis/lib/feature"
	"github.com/HollickLab/metagene-analysis/lib/metagene"
	"github.com/HollickLab/metagene-analysis/lib/runner"
)

// countConfig is the resolved, immutable configuration of one count run.
// Nothing in it changes after the first worker starts.
type countConfig struct {
	pathSAMs     []esam.PathSAM
	samCmdIn     []string
	lengths      chrom.Lengths
	features     []*feature.Feature
	decode       esam.Decode
	countMethod  feature.CountMethod
	countPartial bool
	nWorker      int
}

func runCount(args []string) error {
	fs := flag.NewFlagSet("count", flag.ExitOnError)
	// Arguments: General
	var pathReport string
	var nWorker int
	var appendOutput, verbose bool
	fs.StringVar(&pathReport, "path_report", "", "Write JSON report to path (stdout with -)")
	fs.IntVar(&nWorker, "num_worker", 1, "Number of worker(s)")
	fs.BoolVar(&appendOutput, "append", false, "Append to output counts (default create)")
	fs.BoolVar(&verbose, "verbose", false, "Verbose")
	// Arguments: Input
	var pathSAMsRaw, pathBAMsRaw, rawSAMCmdIn, pathFeatures, formatFeaturesRaw, pathChromNames, pathFasta string
	fs.StringVar(&pathSAMsRaw, "path_sam", "", "Path to SAM file(s) (comma separated)")
	fs.StringVar(&pathBAMsRaw, "path_bam", "", "Path to BAM file(s) (comma separated)")
	fs.StringVar(&rawSAMCmdIn, "sam_command_in", "", "Command querying one region of the alignment file, e.g. 'samtools,view' (comma separated). Region mode: one query per feature.")
	fs.StringVar(&pathFeatures, "path_features", "", "Path to features file")
	fs.StringVar(&formatFeaturesRaw, "format_features", "auto", "Format of features file: 'auto', 'bed', 'bed_short' or 'gff'")
	fs.StringVar(&pathChromNames, "path_chrom_names", "", "Chromosome conversion file (feature_chromosome {tab} alignment_chromosome)")
	fs.StringVar(&pathFasta, "path_fasta", "", "Path to FASTA file for chromosome lengths (default alignment header)")
	// Arguments: Metagene
	var intervalSize, paddingUpstream, paddingDownstream int
	var intervalVariable bool
	fs.IntVar(&intervalSize, "interval_size", 1000, "Normalized size of the feature interval")
	fs.IntVar(&paddingUpstream, "padding_upstream", 1000, "Padding in nt added upstream of the feature")
	fs.IntVar(&paddingDownstream, "padding_downstream", 1000, "Padding in nt added downstream of the feature")
	fs.BoolVar(&intervalVariable, "interval_variable", false, "Allow variable interval size; will prevent true metagene analysis")
	// Arguments: Counting
	var pathCounts, compress, featureCountRaw, countMethodRaw, sortFeaturesRaw string
	var countPartialReads, countSplicing, ignoreStrand bool
	fs.StringVar(&sortFeaturesRaw, "sort_features", "", "Sort output by feature 'name' or 'chrom' (default feature file order)")
	fs.StringVar(&pathCounts, "path_counts", "metagene_counts.csv", "Path to counts output")
	fs.StringVar(&compress, "compress", "none", "Compress counts output: 'none', 'gzip', 'lz4', 'lz4hc' or 'zstd'")
	fs.StringVar(&featureCountRaw, "feature_count", "all", "Examine only the 'start', 'end' or 'all' of a feature")
	fs.StringVar(&countMethodRaw, "count_method", "all", "Count the 'start', 'end' or 'all' of a read")
	fs.BoolVar(&countPartialReads, "count_partial_reads", false, "Include reads that only partially overlap with the feature window")
	fs.BoolVar(&countSplicing, "count_splicing", false, "Count reads as gapped or ungapped")
	fs.BoolVar(&ignoreStrand, "ignore_strand", false, "Do not count reads by strand")
	// Arguments: Read selection
	var extractAbundance, extractMappings, uniquelyMapping bool
	var includeSecondary, includeFailedQC, includeDuplicate, includeSupplementary bool
	fs.BoolVar(&extractAbundance, "extract_abundance", false, "Extract abundance from the NA:i: tag (default 1 per alignment)")
	fs.BoolVar(&extractMappings, "extract_mappings", false, "Extract alignment multiplicity from the NH:i: tag for hits normalization")
	fs.BoolVar(&uniquelyMapping, "uniquely_mapping", false, "Reads are all uniquely mapping; skip hits normalization")
	fs.BoolVar(&includeSecondary, "include_secondary", false, "Count secondary alignments")
	fs.BoolVar(&includeFailedQC, "include_failed_qc", false, "Count alignments that failed quality control")
	fs.BoolVar(&includeDuplicate, "include_duplicate", false, "Count PCR or optical duplicates")
	fs.BoolVar(&includeSupplementary, "include_supplementary", false, "Count supplementary alignments")
	fs.Parse(args)

	setupLogging(verbose)

	// Check arguments
	if pathFeatures == "" {
		return errors.New("no feature input (see -path_features)")
	}
	if _, err := os.Stat(pathFeatures); os.IsNotExist(err) {
		return fmt.Errorf("%s not found", pathFeatures)
	}
	formatFeatures, err := feature.ParseFormat(formatFeaturesRaw)
	if err != nil {
		return err
	}
	featureCount, err := feature.ParseCountMethod(featureCountRaw)
	if err != nil {
		return err
	}
	countMethod, err := feature.ParseCountMethod(countMethodRaw)
	if err != nil {
		return err
	}

	// A collapsed feature is one base, so its metagene interval is too.
	if featureCount != feature.CountAll {
		intervalSize = 1
	}
	shape, err := metagene.NewShape(intervalSize, paddingUpstream, paddingDownstream)
	if err != nil {
		return err
	}

	// Template-segment restriction follows the read count method: counting
	// template starts or ends keeps one segment per paired template.
	policy := esam.Policy{
		Secondary:     includeSecondary,
		FailedQC:      includeFailedQC,
		Duplicate:     includeDuplicate,
		Supplementary: includeSupplementary,
		OnlyStart:     countMethod == feature.CountStart,
		OnlyEnd:       countMethod == feature.CountEnd,
	}
	if err = policy.Validate(); err != nil {
		return err
	}

	cfg := countConfig{
		decode: esam.Decode{
			Policy:           policy,
			ExtractAbundance: extractAbundance,
			ExtractMappings:  extractMappings && !uniquelyMapping,
			IgnoreStrand:     ignoreStrand,
		},
		countMethod:  countMethod,
		countPartial: countPartialReads,
		nWorker:      nWorker,
	}

	// pathSAMs
	for _, p := range strings.Split(pathSAMsRaw, ",") {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("%s not found", p)
		}
		cfg.pathSAMs = append(cfg.pathSAMs, esam.PathSAM{Path: p, Binary: false})
	}
	for _, p := range strings.Split(pathBAMsRaw, ",") {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("%s not found", p)
		}
		cfg.pathSAMs = append(cfg.pathSAMs, esam.PathSAM{Path: p, Binary: true})
	}
	if len(cfg.pathSAMs) == 0 {
		return errors.New("no SAM/BAM input (see -path_sam and -path_bam)")
	}
	if rawSAMCmdIn != "" {
		cfg.samCmdIn = strings.Split(rawSAMCmdIn, ",")
		if len(cfg.pathSAMs) > 1 {
			return errors.New("region mode takes one alignment file per run")
		}
	}

	// Max CPU
	runtime.GOMAXPROCS(nWorker * 2)
	timeStart := time.Now()

	// Chromosome lengths, for region clamping and feature validation
	if pathFasta != "" {
		cfg.lengths, err = chrom.LengthsFromFasta(pathFasta)
		if err != nil {
			return err
		}
	} else {
		cfg.lengths = make(chrom.Lengths)
		for _, p := range cfg.pathSAMs {
			h, err := p.ReadHeader()
			if err != nil {
				return fmt.Errorf("%s: %w", p.Path, err)
			}
			for name, length := range chrom.LengthsFromHeader(h) {
				cfg.lengths[name] = length
			}
		}
	}
	if len(cfg.lengths) == 0 {
		return errors.New("no chromosome lengths in the alignment header, provide a FASTA file (see -path_fasta)")
	}

	// Chromosome name conversion
	var table chrom.Table
	if pathChromNames != "" {
		if table, err = chrom.OpenTable(pathChromNames); err != nil {
			return err
		}
		if err = table.Validate(cfg.lengths); err != nil {
			return err
		}
	}

	// Open features
	if formatFeatures == feature.FormatUnknown {
		if formatFeatures, err = feature.DetectFormat(pathFeatures); err != nil {
			return err
		}
		log.Noticef("Reading feature file as %s format", formatFeatures)
	}
	opts := feature.Options{
		Shape:        shape,
		FeatureCount: featureCount,
		GapCounting:  countSplicing,
		VariableSize: intervalVariable,
		IgnoreStrand: ignoreStrand,
	}
	cfg.features, err = feature.LoadFeatures(pathFeatures, formatFeatures, table, cfg.lengths, opts)
	if err != nil {
		return err
	}
	log.Noticef("Metagene definition:\t%s", shape)
	log.Noticef("%d features loaded from %s", len(cfg.features), pathFeatures)
	switch sortFeaturesRaw {
	case "":
	case "name":
		sort.Sort(feature.ByName(cfg.features))
	case "chrom":
		sort.Sort(feature.ByChrom(cfg.features))
	default:
		return fmt.Errorf("unknown feature sort %q, expected name or chrom", sortFeaturesRaw)
	}

	// Open counts output
	w, err := feature.OpenCounts(pathCounts, compress, appendOutput)
	if err != nil {
		return err
	}
	if !intervalVariable && !appendOutput {
		if err = w.WriteHeader(shape); err != nil {
			w.Close()
			return err
		}
	}

	stats := NewStats()
	if len(cfg.samCmdIn) > 0 {
		err = countRegions(context.Background(), cfg, stats, w)
	} else {
		err = countStream(context.Background(), cfg, stats, w)
	}
	if err != nil {
		w.Close()
		return err
	}
	if err = w.Close(); err != nil {
		return err
	}

	if pathReport != "" {
		if err = WriteReport(pathReport, stats, len(cfg.features)); err != nil {
			return err
		}
	}
	log.Noticef("Done %d align. in %.1fmin", stats.Alignments(), time.Since(timeStart).Minutes())
	return nil
}

// countRegions queries the external tool once per feature, counting its
// alignment lines on a worker pool. Profiles reach the writer in feature
// order.
func countRegions(ctx context.Context, cfg countConfig, stats *Stats, w *feature.CountsWriter) error {
	path := cfg.pathSAMs[0].Path
	return runner.Run(ctx, len(cfg.features), cfg.nWorker,
		func(ctx context.Context, seq int) ([]byte, error) {
			feat := cfg.features[seq]
			region, err := feat.Region(cfg.lengths)
			if err != nil {
				return nil, err
			}
			iline := 0
			err = esam.RegionQuery(ctx, cfg.samCmdIn, path, region, func(line string) error {
				iline++
				stats.AddAlignment()
				read, ok, err := esam.ParseLine(line, cfg.decode)
				if err != nil {
					return &esam.ParseError{File: path, Line: iline, Err: fmt.Errorf("feature %s: %w", feat.Name, err)}
				}
				if !ok {
					stats.AddSkipped()
					return nil
				}
				counted, err := feat.CountRead(read, cfg.countMethod, cfg.countPartial)
				if err != nil {
					return err
				}
				if counted {
					stats.AddCounted(read.Name)
				} else {
					stats.AddSkipped()
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
			return feat.CountsCSV(), nil
		},
		func(buf []byte) error {
			_, err := w.Write(buf)
			return err
		})
}

// countStream reads the alignment files once, routing each record to the
// features its span overlaps through per-chromosome interval trees. Profile
// assembly and formatting then run on the worker pool.
func countStream(ctx context.Context, cfg countConfig, stats *Stats, w *feature.CountsWriter) error {
	trees, err := feature.BuildTrees(cfg.features)
	if err != nil {
		return err
	}

	for _, p := range cfg.pathSAMs {
		if err = streamFile(p, trees, cfg, stats); err != nil {
			return err
		}
	}

	return runner.Run(ctx, len(cfg.features), cfg.nWorker,
		func(ctx context.Context, seq int) ([]byte, error) {
			return cfg.features[seq].CountsCSV(), nil
		},
		func(buf []byte) error {
			_, err := w.Write(buf)
			return err
		})
}

func streamFile(p esam.PathSAM, trees map[string]*interval.IntTree, cfg countConfig, stats *Stats) error {
	f, rr, err := p.Open(cfg.nWorker)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return err
	}
	defer f.Close()
	if br, ok := rr.(*bam.Reader); ok {
		defer br.Close()
	}

	iline := 0
	for {
		rec, err := rr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &esam.ParseError{File: p.Path, Line: iline + 1, Err: err}
		}
		iline++
		stats.AddAlignment()
		read, ok, err := esam.FromRecord(rec, cfg.decode)
		if err != nil {
			return &esam.ParseError{File: p.Path, Line: iline, Err: err}
		}
		if !ok {
			stats.AddSkipped()
			continue
		}
		counted := false
		for _, i := range feature.OverlapRead(read, trees) {
			c, err := cfg.features[i].CountRead(read, cfg.countMethod, cfg.countPartial)
			if err != nil {
				return err
			}
			counted = counted || c
		}
		if counted {
			stats.AddCounted(read.Name)
		} else {
			stats.AddSkipped()
		}
	}
	log.Debugf("%s: %d alignments", p.Path, iline)
	return nil
}
