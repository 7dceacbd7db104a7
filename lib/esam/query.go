//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package esam

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// Generous line cap for long-read alignments.
const maxLineBytes = 64 * 1024 * 1024

// RegionQuery runs the external query tool with the alignment path and a
// 1-based "chrom:start-end" region appended to argv, streaming every
// alignment line of its stdout to fn. Header lines are dropped. A non-zero
// exit becomes a ToolError carrying the tool's stderr.
func RegionQuery(ctx context.Context, argv []string, path, region string, fn func(line string) error) error {
	args := append(append([]string{}, argv[1:]...), path, region)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err = cmd.Start(); err != nil {
		return &ToolError{Cmd: strings.Join(cmd.Args, " "), Err: err}
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	var fnErr error
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '@' {
			continue
		}
		if fnErr = fn(line); fnErr != nil {
			break
		}
	}
	if fnErr != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return fnErr
	}
	if err = scanner.Err(); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return err
	}
	if err = cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ToolError{Cmd: strings.Join(cmd.Args, " "), Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return nil
}
