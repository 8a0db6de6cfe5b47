// Package worker implements the per-connection request handler run by
// each pool goroutine: WAIT_CONN -> READ -> PARSE -> LOOKUP -> COMPUTE ->
// REPLY -> CLOSE, looping until the queue reports shutdown.
//
// Grounded on the original C server's request_monitor/read_client_request/
// process_client_request (src/requestMonitor/requestMonitor.c).
package worker

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alromeros/meteoserver/internal/cache"
	"github.com/alromeros/meteoserver/internal/hashing"
	"github.com/alromeros/meteoserver/internal/metrics"
	"github.com/alromeros/meteoserver/internal/protocol"
	"github.com/alromeros/meteoserver/internal/queue"
	"github.com/alromeros/meteoserver/internal/transport"
)

const (
	replyTimeout = "Timeout.\n"
	replyTooLong = "Request is too long.\n"
	replyInvalid = "Request is not valid.\n"
)

// Sleep is the delay function used by COMPUTE; a package variable so
// tests can substitute a fast stand-in without waiting on real time.
var Sleep = time.Sleep

// Worker pops connections off a queue, services one request per
// connection, and replies. A Worker is not safe for concurrent use by
// more than one goroutine -- the pool runs N independent Workers sharing
// the same Queue and Cache instead.
type Worker struct {
	ID      int
	Queue   *queue.Queue[transport.ByteStream]
	Cache   *cache.LRU
	Log     *logrus.Entry
	Metrics *metrics.Metrics // nil disables instrumentation
}

// Run services connections until the queue reports shutdown.
func (w *Worker) Run() {
	for {
		conn, ok := w.Queue.PopBlocking()
		if !ok {
			return
		}
		w.handle(conn)
	}
}

func (w *Worker) handle(conn transport.ByteStream) {
	defer conn.Close()

	buf, n, result := w.read(conn)
	switch result {
	case readTimeout:
		w.reply(conn, replyTimeout)
		w.count(metrics.ResultTimeout)
		return
	case readTooLong:
		w.reply(conn, replyTooLong)
		w.count(metrics.ResultTooLong)
		return
	case readFailed:
		w.count(metrics.ResultTransportError)
		return
	}

	req, err := protocol.Parse(buf[:n])
	if err != nil {
		w.reply(conn, replyInvalid)
		w.count(metrics.ResultInvalid)
		return
	}

	digest, hit := w.Cache.Get(req.Message)
	if hit {
		w.count(metrics.ResultHit)
	} else {
		digest = hashing.Digest(req.Message)
		Sleep(time.Duration(req.DelayMs) * time.Millisecond)
		w.Cache.Put(req.Message, digest)
		w.count(metrics.ResultMiss)
	}

	w.reply(conn, digest+"\n")
}

type readResult int

const (
	readOK readResult = iota
	readTimeout
	readTooLong
	readFailed
)

// read issues a single Read of up to MaxRequestSize+1 bytes, matching the
// C original's single recv call (see spec.md §9's open question on
// adversarial small-write clients: this is intentionally preserved, not a
// bug).
func (w *Worker) read(conn transport.ByteStream) ([]byte, int, readResult) {
	if err := conn.SetDeadline(time.Now().Add(transport.StreamDeadline)); err != nil {
		w.Log.WithError(err).Debug("worker: failed to set read deadline")
	}

	buf := make([]byte, protocol.MaxRequestSize+1)
	n, err := conn.Read(buf)
	if err != nil {
		if isTimeout(err) {
			return nil, 0, readTimeout
		}
		if n == 0 {
			return nil, 0, readFailed
		}
	}

	if n > protocol.MaxRequestSize {
		drain(conn)
		return nil, 0, readTooLong
	}

	return buf, n, readOK
}

// drain keeps reading (and discarding) until the client stops sending or
// the connection closes, so a too-long request doesn't leave unread bytes
// on the wire ahead of our error reply.
func drain(conn transport.ByteStream) {
	discard := make([]byte, protocol.MaxRequestSize+1)
	for {
		n, err := conn.Read(discard)
		if err != nil || n == 0 {
			return
		}
	}
}

// reply refreshes the connection deadline before writing, so a reply sent
// after a timed-out or drained read still gets its own send window.
func (w *Worker) reply(conn transport.ByteStream, msg string) {
	if err := conn.SetDeadline(time.Now().Add(transport.StreamDeadline)); err != nil {
		w.Log.WithError(err).Debug("worker: failed to set reply deadline")
	}
	_, _ = conn.Write([]byte(msg)) // send errors are swallowed; the caller closes regardless
}

func (w *Worker) count(result string) {
	if w.Metrics != nil {
		w.Metrics.Requests.WithLabelValues(result).Inc()
	}
}

type timeoutError interface {
	Timeout() bool
}

func isTimeout(err error) bool {
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
