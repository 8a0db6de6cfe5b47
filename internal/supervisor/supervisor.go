// Package supervisor owns the server's top-level lifecycle: startup,
// signal registration, the accept loop, USR1 cache flushes, and TERM/INT
// graceful teardown with the MRU-order cache dump.
//
// Grounded on the original C server's main()/signal_modifier/
// signal_handler/teardown_server (src/main.c, src/main/signalHandler.c).
package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/alromeros/meteoserver/internal/cache"
	"github.com/alromeros/meteoserver/internal/latch"
	"github.com/alromeros/meteoserver/internal/metrics"
	"github.com/alromeros/meteoserver/internal/queue"
	"github.com/alromeros/meteoserver/internal/transport"
	"github.com/alromeros/meteoserver/internal/worker"
)

// Config is the subset of the parsed CLI configuration the supervisor
// needs.
type Config struct {
	Port      int
	CacheSize int
	Threads   int
}

// Supervisor wires together the cache, queue, worker pool, acceptor and
// shutdown latch, and runs the accept loop.
type Supervisor struct {
	cfg     Config
	log     *logrus.Entry
	metrics *metrics.Metrics

	latch    *latch.Latch
	cache    *cache.LRU
	queue    *queue.Queue[transport.ByteStream]
	acceptor transport.StreamAcceptor

	stdout io.Writer
}

// New constructs a Supervisor and opens its listening socket. The caller
// owns calling Run and, eventually, observing it return after a TERM/INT
// signal.
func New(cfg Config, log *logrus.Entry, m *metrics.Metrics) (*Supervisor, error) {
	l := latch.New()
	s := &Supervisor{
		cfg:     cfg,
		log:     log,
		metrics: m,
		latch:   l,
		cache:   cache.New(cfg.CacheSize),
		stdout:  os.Stdout,
	}
	s.queue = queue.New[transport.ByteStream](func() bool {
		return s.latch.Has(latch.TermPending)
	})

	acceptor, err := transport.Listen(cfg.Port, cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("supervisor: listen: %w", err)
	}
	s.acceptor = acceptor

	return s, nil
}

// Run registers signal handlers, starts the worker pool, runs the accept
// loop until a TERM/INT signal is observed, and then tears the server
// down: join workers, dump the cache, close the acceptor, print "Bye!".
// It returns once teardown is complete.
func (s *Supervisor) Run() error {
	sigCh := make(chan os.Signal, 4)
	signal.Notify(sigCh, syscall.SIGUSR1, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go s.watchSignals(sigCh)

	var g errgroup.Group
	for i := 0; i < s.cfg.Threads; i++ {
		w := &worker.Worker{
			ID:      i,
			Queue:   s.queue,
			Cache:   s.cache,
			Log:     s.log.WithField("worker", i),
			Metrics: s.metrics,
		}
		g.Go(func() error {
			w.Run()
			return nil
		})
	}

	s.acceptLoop()

	return s.teardown(&g)
}

func (s *Supervisor) watchSignals(sigCh <-chan os.Signal) {
	for sig := range sigCh {
		switch sig {
		case syscall.SIGUSR1:
			s.latch.Set(latch.USR1Pending)
		case syscall.SIGTERM, syscall.SIGINT:
			s.latch.Clear(latch.Enabled)
			s.latch.Set(latch.TermPending)
			s.queue.SignalDrain()
			return
		}
	}
}

func (s *Supervisor) acceptLoop() {
	for s.latch.Has(latch.Enabled) {
		if s.latch.Has(latch.USR1Pending) {
			s.latch.Clear(latch.USR1Pending)
			s.cache.Reset()
			fmt.Fprintln(s.stdout, "Done!")
			s.log.Info("cache flushed on SIGUSR1")
		}

		conn, err := s.acceptor.Accept()
		if err != nil {
			if !s.latch.Has(latch.Enabled) {
				return
			}
			s.log.WithError(err).Debug("transient accept error")
			continue
		}

		s.queue.Push(conn)
		if s.metrics != nil {
			s.metrics.QueueDepth.Set(float64(s.queue.Len()))
			s.metrics.CacheSize.Set(float64(s.cache.Len()))
		}
	}
}

func (s *Supervisor) teardown(g *errgroup.Group) error {
	s.queue.SignalDrain()
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Warn("worker pool returned an error during shutdown")
	}

	for _, entry := range s.cache.Dump() {
		fmt.Fprintf(s.stdout, "Request: '%s' with hash: '%s'\n", entry.Request, entry.Digest)
	}

	if err := s.acceptor.Close(); err != nil {
		s.log.WithError(err).Debug("error closing acceptor during teardown")
	}

	fmt.Fprintln(s.stdout, "Bye!")
	return nil
}
