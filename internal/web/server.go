// Package web implements the station's single-client HTTP responder: raw
// request parsing, the route table, response rendering and the transport
// that hands each transaction to the control loop. It also carries the
// read-only status server.
package web

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sweeney/weather-station/internal/errors"
	"github.com/sweeney/weather-station/internal/logger"
)

// Defaults for ServerConfig.
const (
	DefaultRecvBuffer   = 1024
	DefaultMaxBody      = 16384
	DefaultReadTimeout  = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// After the response, unread request bytes are drained for at most this long
// so closing the socket does not reset the connection before the client has
// read the reply.
const (
	lingerTimeout = 500 * time.Millisecond
	lingerMax     = 64 << 10
)

// ServerConfig bounds what one transaction may consume.
type ServerConfig struct {
	RecvBuffer   int
	MaxBody      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.RecvBuffer <= 0 {
		c.RecvBuffer = DefaultRecvBuffer
	}
	if c.MaxBody <= 0 {
		c.MaxBody = DefaultMaxBody
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	return c
}

// Transaction is one accepted connection's request, waiting for a Response.
type Transaction struct {
	ID       uuid.UUID
	Raw      []byte
	Received time.Time

	reply chan Response
}

// NewTransaction wraps raw request bytes for hand-off to the control loop.
func NewTransaction(raw []byte, received time.Time) *Transaction {
	return &Transaction{
		ID:       uuid.New(),
		Raw:      raw,
		Received: received,
		reply:    make(chan Response, 1),
	}
}

// Reply delivers the response passed to Respond.
func (t *Transaction) Reply() <-chan Response {
	return t.reply
}

// Respond delivers the response. Only the first call has any effect.
func (t *Transaction) Respond(resp Response) {
	select {
	case t.reply <- resp:
	default:
	}
}

// Server accepts one connection at a time and hands its request to the
// control loop over Transactions. The connection is always closed after the
// response is written.
type Server struct {
	ln  net.Listener
	cfg ServerConfig
	log zerolog.Logger

	txs       chan *Transaction
	done      chan struct{}
	closeOnce sync.Once
}

// Listen binds addr and returns a Server on it.
func Listen(addr string, cfg ServerConfig, log zerolog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrTransport, err)
	}
	return NewServer(ln, cfg, log), nil
}

// NewServer wraps an existing listener. Useful for tests.
func NewServer(ln net.Listener, cfg ServerConfig, log zerolog.Logger) *Server {
	return &Server{
		ln:   ln,
		cfg:  cfg.withDefaults(),
		log:  log,
		txs:  make(chan *Transaction),
		done: make(chan struct{}),
	}
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Transactions delivers accepted requests. The receiver must call Respond
// on each one.
func (s *Server) Transactions() <-chan *Transaction {
	return s.txs
}

// Serve accepts connections until Close is called, serving each to
// completion before accepting the next. It returns nil after Close. Any
// other accept error ends listening and is returned.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			err = errors.Wrap(errors.ErrTransport, err)
			logger.WithCode(s.log.Error(), err).Msg("accept failed, no longer listening")
			return err
		}
		s.serveConn(conn)
	}
}

// Close stops accepting and releases any transaction still waiting.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.ln.Close()
	})
	return err
}

func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()

	raw, err := s.readRequest(conn)
	if len(raw) == 0 {
		s.log.Debug().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("connection closed without a request")
		return
	}

	tx := NewTransaction(raw, time.Now())
	log := s.log.With().Str("tx", tx.ID.String()).Logger()
	if err != nil {
		// Serve what arrived; the dispatcher tolerates a partial request.
		log.Debug().Err(err).Int("bytes", len(raw)).Msg("request read ended early")
	}

	select {
	case s.txs <- tx:
	case <-s.done:
		return
	}

	var resp Response
	select {
	case resp = <-tx.reply:
	case <-s.done:
		return
	}

	out, err := Render(resp, s.cfg.MaxBody)
	if err != nil {
		logger.WithCode(log.Error(), err).Msg("response not sent, replying empty")
		out, _ = Render(Empty(), 0)
	}

	conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if _, err := conn.Write(out); err != nil {
		logger.WithCode(log.Warn(), errors.Wrap(errors.ErrTransport, err)).Msg("write failed")
		return
	}
	log.Debug().Int("bytes", len(out)).Dur("took", time.Since(tx.Received)).Msg("transaction complete")
	linger(conn)
}

func linger(conn net.Conn) {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tc.CloseWrite(); err != nil {
		return
	}
	tc.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.Copy(io.Discard, io.LimitReader(tc, lingerMax))
}

// readRequest reads into a fixed buffer until the request is complete, the
// buffer is full or the read deadline passes. Bytes beyond the buffer are
// dropped.
func (s *Server) readRequest(conn net.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

	buf := make([]byte, s.cfg.RecvBuffer)
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if requestComplete(buf[:n]) {
			return buf[:n], nil
		}
		if err != nil {
			return buf[:n], err
		}
	}
	return buf[:n], nil
}
