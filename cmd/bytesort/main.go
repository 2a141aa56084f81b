// bytesort sorts the byte content of a file under a fixed memory
// budget and prints where the sorted output landed.
//
// Usage:
//
//	go run ./cmd/bytesort -cache 67108864 big_file.bin
//	go run ./cmd/bytesort -cache 4096 -verify -checksum data.bin
//
// The budget caps all in-memory buffering; the input may be far larger
// than it. Trivially sorted inputs (zero or one byte) are reported
// as-is without creating a new file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vmarkushin/bytesort"
)

func main() {
	cache := flag.Uint64("cache", 64<<20, "memory budget in bytes for all buffering")
	verify := flag.Bool("verify", false, "scan the output and fail if it is not sorted")
	checksum := flag.Bool("checksum", false, "print an xxhash checksum of the sorted output")
	output := flag.String("out", "", "output path (default: input path + .sorted)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bytesort [flags] <file>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	var opts []bytesort.Option
	if *checksum {
		opts = append(opts, bytesort.WithChecksum())
	}
	if *output != "" {
		opts = append(opts, bytesort.WithOutputPath(*output))
	}

	start := time.Now()
	res, err := bytesort.Sort(context.Background(), path, *cache, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bytesort: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	if res.OutputPath == path {
		fmt.Printf("%s is already sorted (%d bytes)\n", path, res.Bytes)
	} else {
		fmt.Printf("sorted %d bytes in %d run(s) to %s (%.3fs)\n",
			res.Bytes, res.Runs, res.OutputPath, elapsed.Seconds())
	}
	if *checksum {
		fmt.Printf("checksum: %016x\n", res.Checksum)
	}

	if *verify {
		if err := bytesort.VerifySorted(res.OutputPath); err != nil {
			fmt.Fprintf(os.Stderr, "bytesort: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("verified: output is sorted")
	}
}
