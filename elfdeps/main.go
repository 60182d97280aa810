// Command elfdeps prints the dynamic-linking metadata of ELF binaries:
// the shared libraries they depend on (in load order), their run-path,
// and their soname, roughly what ldd reports without resolving anything
// against the host.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/xyproto/env/v2"

	"github.com/liumengdeqq/jelf/dynfile"
)

var debugLevel = flag.Int("debuglevel", env.Int("ELFDEPS_DEBUG", 0), "debug verbosity level")

func usage() {
	fmt.Fprintf(os.Stderr, "usage: elfdeps binary...\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *debugLevel > 0 {
		dynfile.DebugLogf = func(verbosityLevel int, format string, args ...interface{}) {
			if verbosityLevel <= *debugLevel {
				log.Printf(format, args...)
			}
		}
	}
	if flag.NArg() == 0 {
		usage()
	}

	status := 0
	for _, filename := range flag.Args() {
		if flag.NArg() > 1 {
			fmt.Printf("%s:\n", filename)
		}
		if err := show(filename); err != nil {
			log.Printf("%s: %v", filename, err)
			status = 1
		}
	}
	os.Exit(status)
}

func show(filename string) error {
	f, err := dynfile.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	if f.Dynamic == nil {
		fmt.Println("\tstatically linked")
		return nil
	}

	if soname, ok, err := f.Dynamic.SoName(); err != nil {
		return err
	} else if ok {
		fmt.Printf("\tSONAME   %s\n", soname)
	}

	libs, err := f.Dynamic.NeededLibraries()
	if err != nil {
		return err
	}
	for _, lib := range libs {
		fmt.Printf("\tNEEDED   %s\n", lib)
	}

	// DT_RUNPATH supersedes the legacy DT_RPATH when both are present.
	if path, ok, err := f.Dynamic.RunPath(); err != nil {
		return err
	} else if ok {
		fmt.Printf("\tRUNPATH  %s\n", path)
	} else if path, ok, err := f.Dynamic.RPath(); err != nil {
		return err
	} else if ok {
		fmt.Printf("\tRPATH    %s\n", path)
	}
	return nil
}
