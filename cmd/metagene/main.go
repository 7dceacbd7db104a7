//
// Copyright (C) 2015-2026 Hollick Lab
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

package main

import (
	"fmt"
	"os"

	"github.com/op/go-logging"
)

var version = "DEV"

var log = logging.MustGetLogger("metagene")
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05} %{shortfunc} | %{level:.6s} %{color:reset} %{message}`,
)

// setupLogging installs the stderr backend. Debug messages only show with
// verbose on.
func setupLogging(verbose bool) {
	backend := logging.NewBackendFormatter(logging.NewLogBackend(os.Stderr, "", 0), format)
	leveled := logging.AddModuleLevel(backend)
	if verbose {
		leveled.SetLevel(logging.DEBUG, "")
	} else {
		leveled.SetLevel(logging.NOTICE, "")
	}
	logging.SetBackend(leveled)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: metagene <command> [options]

Commands:
  count     Count alignments over genomic features onto metagene profiles
  window    Sum sliding windows over a metagene counts file
  version   Print version and quit

Run 'metagene <command> -h' for the options of a command.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "count":
		err = runCount(os.Args[2:])
	case "window":
		err = runWindow(os.Args[2:])
	case "version", "-version", "--version":
		fmt.Println(version)
	case "help", "-h", "-help", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "metagene: unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}
