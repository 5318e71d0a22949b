// slime-bench times a Slime program in interpreter mode, bytecode mode, or
// both, by shelling out to the slime binary the way a user would run it.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

var (
	slimeBin   = flag.String("slime", "slime", "path to the slime binary")
	iterations = flag.Int("n", 10, "timed iterations per mode")
	warmup     = flag.Int("warmup", 1, "untimed warmup runs per mode")
	mode       = flag.String("mode", "both", "what to time: interpret, bytecode, or both")
)

type report struct {
	Min    time.Duration
	Max    time.Duration
	Avg    time.Duration
	Stddev time.Duration
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "slime-bench - time a Slime program\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n  slime-bench [options] <source.slm>\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	source := flag.Arg(0)

	if *mode == "interpret" || *mode == "both" {
		r, err := timeCommand(*slimeBin, source)
		if err != nil {
			fail(err)
		}
		printReport("interpret", r)
	}

	if *mode == "bytecode" || *mode == "both" {
		image := filepath.Join(os.TempDir(), "slime-bench-"+uuid.NewString()+".btc")
		defer os.Remove(image)

		if out, err := exec.Command(*slimeBin, "--compile", source, image).CombinedOutput(); err != nil {
			fail(fmt.Errorf("compiling %s: %w\n%s", source, err, out))
		}

		r, err := timeCommand(*slimeBin, "--run", image)
		if err != nil {
			fail(err)
		}
		printReport("bytecode", r)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func timeCommand(name string, args ...string) (report, error) {
	for i := 0; i < *warmup; i++ {
		if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
			return report{}, fmt.Errorf("warmup run failed: %w\n%s", err, out)
		}
	}

	samples := make([]time.Duration, 0, *iterations)
	for i := 0; i < *iterations; i++ {
		start := time.Now()
		if out, err := exec.Command(name, args...).CombinedOutput(); err != nil {
			return report{}, fmt.Errorf("run %d failed: %w\n%s", i+1, err, out)
		}
		samples = append(samples, time.Since(start))
	}
	return summarize(samples), nil
}

func summarize(samples []time.Duration) report {
	r := report{Min: samples[0], Max: samples[0]}

	var total time.Duration
	for _, s := range samples {
		total += s
		if s < r.Min {
			r.Min = s
		}
		if s > r.Max {
			r.Max = s
		}
	}
	r.Avg = total / time.Duration(len(samples))

	var sumSquares float64
	for _, s := range samples {
		d := float64(s - r.Avg)
		sumSquares += d * d
	}
	r.Stddev = time.Duration(math.Sqrt(sumSquares / float64(len(samples))))

	return r
}

func printReport(name string, r report) {
	fmt.Printf("%s: %d runs\n", name, *iterations)
	fmt.Printf("  min    %v\n", r.Min)
	fmt.Printf("  max    %v\n", r.Max)
	fmt.Printf("  avg    %v\n", r.Avg)
	fmt.Printf("  stddev %v\n", r.Stddev)
}
