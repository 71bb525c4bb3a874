// Package server implements the TCP listener and per-connection dispatch
// onto the worker pool described in SPEC_FULL.md §4.5.
package server

import (
	"bufio"
	"errors"
	"io"
	"log"
	"net"

	"github.com/wolfapple/kvs/engine"
	"github.com/wolfapple/kvs/pool"
	"github.com/wolfapple/kvs/wire"
)

// Server owns an engine handle and a worker pool. Accepted connections are
// dispatched onto the pool so many clients can be served concurrently over
// the shared, internally goroutine-safe engine.
type Server struct {
	engine engine.Engine
	pool   pool.Pool
}

// New builds a Server over eng and p. p is not started or stopped by
// Server; callers own its lifecycle and should Close it after Run returns.
func New(eng engine.Engine, p pool.Pool) *Server {
	return &Server{engine: eng, pool: p}
}

// Run binds addr and serves connections until the listener is closed; it
// returns an error only if binding fails. Accept failures other than
// listener closure are logged and do not terminate the loop.
func (s *Server) Run(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer listener.Close()

	log.Printf("server: listening on %s", addr)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("server: accept failed: %v", err)
			continue
		}

		eng := s.engine
		s.pool.Submit(func() {
			handleConnection(eng, conn)
		})
	}
}

// handleConnection decodes requests from conn one at a time, dispatches
// each to eng, and writes exactly one response per request until EOF or a
// decode error.
func handleConnection(eng engine.Engine, conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)
	dec := wire.NewDecoder(reader)
	enc := wire.NewEncoder(writer)

	for {
		req, err := dec.DecodeRequest()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("server: decode request from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp := dispatch(eng, req)

		if err := enc.EncodeResponse(resp); err != nil {
			log.Printf("server: encode response to %s: %v", conn.RemoteAddr(), err)
			return
		}
		if err := writer.Flush(); err != nil {
			log.Printf("server: flush response to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

// dispatch invokes the engine operation named by req and converts any
// engine error into a wire-level Err response, so the connection is never
// torn down because of a per-request engine error.
func dispatch(eng engine.Engine, req wire.Request) wire.Response {
	switch {
	case req.Get != nil:
		v, ok, err := eng.Get(req.Get.Key)
		if err != nil {
			return wire.Err(err.Error())
		}
		return wire.OkOptional(v, ok)

	case req.Set != nil:
		if err := eng.Set(req.Set.Key, req.Set.Value); err != nil {
			return wire.Err(err.Error())
		}
		return wire.OkEmpty()

	case req.Remove != nil:
		if err := eng.Remove(req.Remove.Key); err != nil {
			return wire.Err(err.Error())
		}
		return wire.OkEmpty()

	default:
		return wire.Err("malformed request")
	}
}
