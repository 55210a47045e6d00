package main

import (
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// The web server: one goroutine per connection, one request per connection.

type server struct {
	conf   *config
	runner ScriptRunner

	// accessLog receives one entry per request. It may be nil.
	accessLog *CSVLog

	// activeConnections counts connections that are still being served,
	// so that shutdown can wait for them.
	activeConnections sync.WaitGroup
}

func newServer(conf *config, runner ScriptRunner, accessLog *CSVLog) *server {
	return &server{
		conf:      conf,
		runner:    runner,
		accessLog: accessLog,
	}
}

// serve accepts connections on ln and handles each in its own goroutine.
// Accept errors are logged and retried; serve returns only when ln is closed.
func (s *server) serve(ln net.Listener) error {
	var tempDelay time.Duration

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if max := 1 * time.Second; tempDelay > max {
				tempDelay = max
			}
			log.Printf("Accept error: %v; retrying in %v", err, tempDelay)
			time.Sleep(tempDelay)
			continue
		}
		tempDelay = 0

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.serveConn(conn)
		}()
	}
}

// waitForConnections waits until every active connection has finished, or
// until timeout has passed. It reports whether all connections finished.
func (s *server) waitForConnections(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.activeConnections.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// serveConn reads one request from conn, writes one response, and closes
// the connection.
func (s *server) serveConn(conn net.Conn) {
	defer lingerClose(conn)

	tx := &transaction{
		start: time.Now(),
		peer:  conn.RemoteAddr().String(),
	}

	req, err := readRequest(conn)
	if err != nil {
		log.Printf("Bad request from %s: %v", tx.peer, err)
		tx.resp = errorResponse(http.StatusBadRequest)
	} else {
		tx.req = req
		tx.resp = s.handle(tx)
	}

	if err := tx.resp.writeTo(conn); err != nil {
		log.Printf("Error writing response to %s: %v", tx.peer, err)
	}

	if s.accessLog != nil {
		s.accessLog.Log(tx.logFields())
	}
}

// handle routes a parsed request and produces its response. It records the
// resolved target in tx.
func (s *server) handle(tx *transaction) *Response {
	req := tx.req

	switch req.Method {
	case "GET", "POST":
		if err := req.decodePath(); err != nil {
			log.Printf("Bad request from %s: %v", tx.peer, err)
			return errorResponse(http.StatusBadRequest)
		}
	}

	switch req.Method {
	case "GET":
		target, err := resolveTarget(s.conf.Root, req.Path)
		tx.target = target
		if err != nil {
			log.Printf("Forbidden: %s: %v", target.Path, err)
			return errorResponse(http.StatusForbidden)
		}
		return s.serveStatic(req, target)

	case "POST":
		if !strings.HasPrefix(cleanRelative(req.Path), scriptsPrefix) {
			return errorResponse(http.StatusNotFound)
		}
		target, err := resolveTarget(s.conf.Root, req.Path)
		tx.target = target
		if err != nil {
			log.Printf("Forbidden: %s: %v", target.Path, err)
			return errorResponse(http.StatusForbidden)
		}
		switch target.Kind {
		case Missing:
			return errorResponse(http.StatusNotFound)
		case Forbidden:
			log.Printf("Refusing to run %s: not a regular file inside the root folder", target.Path)
			return errorResponse(http.StatusForbidden)
		}
		return s.runScript(req, target)

	default:
		resp := errorResponse(http.StatusMethodNotAllowed)
		resp.Header.Set("Allow", "GET, POST")
		return resp
	}
}

// lingerClose closes conn. For TCP connections it first shuts down the
// sending side and discards unread input for a moment, so that a client
// still sending a request body gets the response rather than a reset.
func lingerClose(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		tc.CloseWrite()
		tc.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		io.Copy(io.Discard, io.LimitReader(tc, 256<<10))
	}
	conn.Close()
}
