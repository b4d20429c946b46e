package tlsnet

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/latticekem/kyber-go/pkg/kyber"
	"github.com/latticekem/kyber-go/pkg/kyber/logging"
)

// DefaultMaxFrame bounds a single message. It comfortably holds the largest
// public key and ciphertext of every supported scheme.
const DefaultMaxFrame = 1 << 20

var (
	// ErrClosed is returned once the transport has been closed.
	ErrClosed = errors.New("tlsnet: transport closed")
	// ErrFrameTooLarge is returned for messages above the configured limit.
	ErrFrameTooLarge = errors.New("tlsnet: frame too large")
)

// Config configures the mTLS transport. Party i listens on Addresses[i] and
// presents a certificate for Names[i]; the transport identifies it as
// kyber.PartyID(i).
type Config struct {
	Self        kyber.PartyID
	Names       []string
	Addresses   []string
	Certificate tls.Certificate
	RootCAs     *x509.CertPool

	// MaxFrame caps the size of a received message. Zero selects
	// DefaultMaxFrame.
	MaxFrame uint32

	// ConnectTimeout bounds how long New waits for every peer. Zero selects
	// ten seconds.
	ConnectTimeout time.Duration

	Logger logging.Logger
}

// Transport implements kyber.Transport over long-lived mutually
// authenticated TLS connections, one per peer.
type Transport struct {
	self     kyber.PartyID
	maxFrame uint32
	log      logging.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	links map[kyber.PartyID]*link

	listener  net.Listener
	closeOnce sync.Once
}

var _ kyber.Transport = (*Transport)(nil)

type link struct {
	peer kyber.PartyID
	conn net.Conn

	out chan []byte
	in  chan []byte

	errOnce    sync.Once
	err        error
	inDoneOnce sync.Once
}

func (cfg *Config) validate() error {
	if cfg.RootCAs == nil {
		return errors.New("tlsnet: root CA pool required")
	}
	if len(cfg.Names) != len(cfg.Addresses) {
		return errors.New("tlsnet: names/addresses length mismatch")
	}
	if len(cfg.Names) < 2 {
		return errors.New("tlsnet: at least two parties required")
	}
	if int(cfg.Self) >= len(cfg.Names) {
		return fmt.Errorf("tlsnet: invalid self id %d", cfg.Self)
	}
	return nil
}

// New listens on the local address, connects to every other party and
// returns once all links are up. Lower ids dial higher ids.
func New(cfg Config) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MaxFrame == 0 {
		cfg.MaxFrame = DefaultMaxFrame
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New(nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Transport{
		self:     cfg.Self,
		maxFrame: cfg.MaxFrame,
		log:      cfg.Logger.With("party", cfg.Self),
		ctx:      ctx,
		cancel:   cancel,
		links:    make(map[kyber.PartyID]*link),
	}

	serverTLS := &tls.Config{
		Certificates: []tls.Certificate{cfg.Certificate},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    cfg.RootCAs,
		MinVersion:   tls.VersionTLS13,
	}
	ln, err := tls.Listen("tcp", cfg.Addresses[cfg.Self], serverTLS)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("tlsnet: listen: %w", err)
	}
	t.listener = ln

	var ready sync.WaitGroup
	ready.Add(len(cfg.Names) - 1)
	errCh := make(chan error, len(cfg.Names))

	go t.accept(ln, cfg.Names, &ready, errCh)

	clientTLS := &tls.Config{
		Certificates: []tls.Certificate{cfg.Certificate},
		RootCAs:      cfg.RootCAs,
		MinVersion:   tls.VersionTLS13,
	}
	for i := int(cfg.Self) + 1; i < len(cfg.Names); i++ {
		tlsCfg := clientTLS.Clone()
		tlsCfg.ServerName = cfg.Names[i]
		go t.dial(kyber.PartyID(i), cfg.Addresses[i], tlsCfg, &ready, errCh)
	}

	done := make(chan struct{})
	go func() {
		ready.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.log.Debug(ctx, "transport ready", "peers", len(cfg.Names)-1)
		return t, nil
	case err := <-errCh:
		t.Close()
		return nil, err
	case <-time.After(cfg.ConnectTimeout):
		t.Close()
		return nil, errors.New("tlsnet: timeout waiting for peer connections")
	}
}

func (t *Transport) accept(ln net.Listener, names []string, ready *sync.WaitGroup, errCh chan<- error) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-t.ctx.Done():
			default:
				errCh <- fmt.Errorf("tlsnet: accept: %w", err)
			}
			return
		}
		tlsConn, ok := conn.(*tls.Conn)
		if !ok {
			errCh <- closeWith(conn, errors.New("tlsnet: non-TLS connection accepted"))
			return
		}
		if err := tlsConn.HandshakeContext(t.ctx); err != nil {
			errCh <- closeWith(tlsConn, fmt.Errorf("tlsnet: handshake: %w", err))
			return
		}
		peer, err := readPartyID(tlsConn)
		if err != nil {
			errCh <- closeWith(tlsConn, fmt.Errorf("tlsnet: read peer id: %w", err))
			return
		}
		if peer >= t.self {
			errCh <- closeWith(tlsConn, fmt.Errorf("tlsnet: unexpected peer id %d", peer))
			return
		}
		// The claimed id must match the identity the peer authenticated as.
		certs := tlsConn.ConnectionState().PeerCertificates
		if len(certs) == 0 || certs[0].VerifyHostname(names[peer]) != nil {
			errCh <- closeWith(tlsConn, fmt.Errorf("tlsnet: peer %d did not present a certificate for %q", peer, names[peer]))
			return
		}
		if err := t.register(peer, tlsConn, ready); err != nil {
			errCh <- closeWith(tlsConn, err)
			return
		}
	}
}

func (t *Transport) dial(peer kyber.PartyID, addr string, tlsCfg *tls.Config, ready *sync.WaitGroup, errCh chan<- error) {
	d := tls.Dialer{Config: tlsCfg}
	for {
		select {
		case <-t.ctx.Done():
			return
		default:
		}
		conn, err := d.DialContext(t.ctx, "tcp", addr)
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err := writePartyID(conn, t.self); err != nil {
			_ = conn.Close()
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if err := t.register(peer, conn, ready); err != nil {
			errCh <- closeWith(conn, err)
		}
		return
	}
}

func (t *Transport) register(peer kyber.PartyID, conn net.Conn, ready *sync.WaitGroup) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.links[peer]; exists {
		return fmt.Errorf("tlsnet: duplicate connection from peer %d", peer)
	}
	t.links[peer] = newLink(t.ctx, peer, conn, t.maxFrame)
	ready.Done()
	return nil
}

func (t *Transport) Send(ctx context.Context, to kyber.PartyID, msg []byte) error {
	if to == t.self {
		return errors.New("tlsnet: send to self")
	}
	if uint64(len(msg)) > uint64(t.maxFrame) {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(msg))
	}
	l, err := t.link(to)
	if err != nil {
		return err
	}
	if t.ctx.Err() != nil {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.ctx.Done():
		return ErrClosed
	case l.out <- append([]byte(nil), msg...):
		return nil
	}
}

func (t *Transport) Receive(ctx context.Context, from kyber.PartyID) ([]byte, error) {
	if from == t.self {
		return nil, errors.New("tlsnet: receive from self")
	}
	l, err := t.link(from)
	if err != nil {
		return nil, err
	}
	return l.next(ctx, t.ctx)
}

func (t *Transport) ReceiveAll(ctx context.Context, from []kyber.PartyID) (map[kyber.PartyID][]byte, error) {
	seen := make(map[kyber.PartyID]struct{}, len(from))
	for _, peer := range from {
		if peer == t.self {
			return nil, errors.New("tlsnet: receive_all includes self")
		}
		if _, err := t.link(peer); err != nil {
			return nil, err
		}
		if _, dup := seen[peer]; dup {
			return nil, errors.New("tlsnet: duplicate peer in receive_all")
		}
		seen[peer] = struct{}{}
	}

	out := make(map[kyber.PartyID][]byte, len(from))
	for _, peer := range from {
		l, _ := t.link(peer)
		msg, err := l.next(ctx, t.ctx)
		if err != nil {
			return nil, err
		}
		out[peer] = msg
	}
	return out, nil
}

// Close terminates the transport and every link. Messages still queued for
// writing are dropped. It is safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() {
		t.cancel()
		if t.listener != nil {
			_ = t.listener.Close()
		}
		t.mu.Lock()
		for _, l := range t.links {
			l.close()
		}
		t.mu.Unlock()
	})
	return nil
}

func (t *Transport) link(peer kyber.PartyID) (*link, error) {
	t.mu.RLock()
	l, ok := t.links[peer]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("tlsnet: unknown peer %d", peer)
	}
	return l, nil
}

func newLink(ctx context.Context, peer kyber.PartyID, conn net.Conn, maxFrame uint32) *link {
	l := &link{
		peer: peer,
		conn: conn,
		out:  make(chan []byte, 16),
		in:   make(chan []byte, 16),
	}
	go l.writer(ctx)
	go l.reader(ctx, maxFrame)
	return l
}

func (l *link) writer(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.fail(ctx.Err())
			return
		case msg, ok := <-l.out:
			if !ok {
				return
			}
			if err := writeFrame(l.conn, msg); err != nil {
				l.fail(err)
				return
			}
		}
	}
}

func (l *link) reader(ctx context.Context, maxFrame uint32) {
	defer l.closeIn()
	for {
		msg, err := readFrame(l.conn, maxFrame)
		if err != nil {
			l.fail(err)
			return
		}
		select {
		case l.in <- msg:
		case <-ctx.Done():
			l.fail(ctx.Err())
			return
		}
	}
}

func (l *link) next(ctx, transportCtx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-transportCtx.Done():
		return nil, ErrClosed
	case msg, ok := <-l.in:
		if !ok {
			return nil, l.errOr(io.EOF)
		}
		return msg, nil
	}
}

func (l *link) close() {
	l.fail(io.EOF)
}

// fail records the first error and tears the connection down. The writer
// observes the closed out channel and exits.
func (l *link) fail(err error) {
	l.errOnce.Do(func() {
		if err == nil {
			err = io.EOF
		}
		l.err = err
		_ = l.conn.Close()
	})
}

func (l *link) closeIn() {
	l.inDoneOnce.Do(func() { close(l.in) })
}

func (l *link) errOr(fallback error) error {
	if l.err != nil {
		return l.err
	}
	return fallback
}

func writeFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	_, err := w.Write(buf)
	return err
}

func readFrame(r io.Reader, maxFrame uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrame {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writePartyID(w io.Writer, id kyber.PartyID) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(id))
	_, err := w.Write(buf[:])
	return err
}

func readPartyID(r io.Reader) (kyber.PartyID, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return kyber.PartyID(binary.BigEndian.Uint32(buf[:])), nil
}

func closeWith(c io.Closer, base error) error {
	if closeErr := c.Close(); closeErr != nil {
		return fmt.Errorf("%w; close error: %v", base, closeErr)
	}
	return base
}
