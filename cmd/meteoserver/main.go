// Command meteoserver runs the concurrent get/md5/LRU-cache TCP server
// described in this repository's spec: it accepts "get <message>
// <delay_ms>" request lines, hashes <message> with MD5, optionally sleeps
// <delay_ms> to simulate expensive work, and answers from a bounded LRU
// cache on repeat requests.
package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/sirupsen/logrus"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alromeros/meteoserver/internal/config"
	"github.com/alromeros/meteoserver/internal/metrics"
	"github.com/alromeros/meteoserver/internal/supervisor"
)

func main() {
	os.Exit(run())
}

func run() int {
	log := logrus.NewEntry(logrus.StandardLogger())

	if _, err := maxprocs.Set(maxprocs.Logger(log.Debugf)); err != nil {
		log.WithError(err).Warn("failed to set GOMAXPROCS from cgroup limits")
	}
	if _, err := memlimit.SetGoMemLimitWithOpts(); err != nil {
		log.WithError(err).Warn("failed to set GOMEMLIMIT from cgroup limits")
	}

	cfg, err := config.Parse(os.Args[1:], os.Stderr, os.Stdout)
	if err != nil {
		if err == config.ErrHelp {
			return 0
		}
		return 1
	}

	var m *metrics.Metrics
	if cfg.MetricsAddr != "" {
		m = metrics.New()
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Warn("metrics listener stopped")
			}
		}()
	}

	sup, err := supervisor.New(supervisor.Config{
		Port:      cfg.Port,
		CacheSize: cfg.CacheSize,
		Threads:   cfg.Threads,
	}, log, m)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if err := sup.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
