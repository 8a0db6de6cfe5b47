// Package config parses and validates the server's command-line
// arguments, matching the original C server's parse_arguments /
// print_help_message in src/main.c exactly: -p and -C are mandatory
// positive integers, -t is optional and clamped to the default thread
// count when out of range, and -h prints help and exits cleanly.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// DefaultThreads is used whenever -t/--threads is absent or out of the
// valid 1..999 range.
const DefaultThreads = 8

// MinThreads and MaxThreads bound a valid -t value, both inclusive (the C
// original treats threadNumber <= 0 || threadNumber >= 1000 as invalid).
const (
	MinThreads = 1
	MaxThreads = 999
)

// Config holds the validated server configuration.
type Config struct {
	Port        int
	CacheSize   int
	Threads     int
	MetricsAddr string
}

// ErrHelp is returned when -h/--help was given; the caller should exit 0.
var ErrHelp = pflag.ErrHelp

// Parse parses args (typically os.Args[1:]) into a Config. On a parsing
// failure (such as an unknown flag) it prints usage to stdout and returns
// a non-nil error; on an invalid or missing mandatory flag it prints a
// message to stderr and returns a non-nil error. In both cases the caller
// should exit 1. If -h/--help was
// requested, it prints usage to stdout and returns ErrHelp; the caller
// should exit 0.
func Parse(args []string, stderr, stdout io.Writer) (Config, error) {
	fs := pflag.NewFlagSet("meteoserver", pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // we render our own banner below
	fs.Usage = func() {}

	port := fs.IntP("port", "p", 0, "TCP port to listen on.")
	cacheSize := fs.IntP("cache-size", "C", 0, "Cache size.")
	threads := fs.IntP("threads", "t", 0, "Number of threads used as thread pool (8 by default).")
	metricsAddr := fs.StringP("metrics-addr", "m", "", "Optional address to serve Prometheus metrics on (disabled if empty).")
	help := fs.BoolP("help", "h", false, "Show this help message.")

	if err := fs.Parse(args); err != nil {
		printHelp(stdout)
		return Config{}, err
	}

	if *help {
		printHelp(stdout)
		return Config{}, ErrHelp
	}

	if *port <= 0 {
		fmt.Fprintln(stderr, "Error: A valid '-p' (port) argument is obligatory.")
		return Config{}, fmt.Errorf("config: missing or invalid -p/--port")
	}

	if *cacheSize <= 0 {
		fmt.Fprintln(stderr, "Error: A valid '-C' (cache size) argument is obligatory.")
		return Config{}, fmt.Errorf("config: missing or invalid -C/--cache-size")
	}

	n := *threads
	if n < MinThreads || n > MaxThreads {
		n = DefaultThreads
	}

	return Config{
		Port:        *port,
		CacheSize:   *cacheSize,
		Threads:     n,
		MetricsAddr: *metricsAddr,
	}, nil
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Usage: %s [-p port] [-C amount] [-t amount]\n", os.Args[0])
	fmt.Fprintln(w, "    -p, --port            <port>          Port.")
	fmt.Fprintln(w, "    -C, --cache-size      <amount>        Cache size.")
	fmt.Fprintln(w, "    -t, --threads         <amount>        Number of threads used as thread pool (8 by default).")
	fmt.Fprintln(w, "    -m, --metrics-addr    <addr>          Optional Prometheus metrics listen address.")
	fmt.Fprintln(w, "    -h, --help                            Show this help message.")
	fmt.Fprintln(w)
}
