// Package quic implements transport.Session over QUIC connections.
package quic

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"math/big"
	"net"
	"time"

	quicgo "github.com/quic-go/quic-go"

	"github.com/Masterchef365/web-transport-test/pkg/transport"
)

const alpn = "wtt"

// Transport dials and listens for QUIC sessions. The listener side uses an
// ephemeral self-signed certificate; the dialer side skips verification, so
// peer authentication is the responsibility of whatever handshake runs on
// top. Supply your own configs via NewWithTLS to pin a real trust root.
type Transport struct {
	tlsConf  *tls.Config
	quicConf *quicgo.Config
}

func New() *Transport {
	cert, _ := selfSignedCert()
	return NewWithTLS(&tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{alpn},
		MinVersion:   tls.VersionTLS13,
	})
}

func NewWithTLS(tlsConf *tls.Config) *Transport {
	return &Transport{tlsConf: tlsConf, quicConf: &quicgo.Config{}}
}

func (t *Transport) Listen(ctx context.Context, address string) (transport.Listener, error) {
	l, err := quicgo.ListenAddr(address, t.tlsConf, t.quicConf)
	if err != nil {
		return nil, err
	}
	go func() { <-ctx.Done(); _ = l.Close() }()
	return &listener{l: l}, nil
}

func (t *Transport) Dial(ctx context.Context, address string) (transport.Session, error) {
	tlsClient := &tls.Config{
		InsecureSkipVerify: true, // NOTE: identity is verified at application layer.
		NextProtos:         []string{alpn},
		MinVersion:         tls.VersionTLS13,
	}
	if t.tlsConf.RootCAs != nil {
		tlsClient.InsecureSkipVerify = false
		tlsClient.RootCAs = t.tlsConf.RootCAs
	}
	c, err := quicgo.DialAddr(ctx, address, tlsClient, t.quicConf)
	if err != nil {
		return nil, err
	}
	return &session{c: c}, nil
}

type listener struct {
	l *quicgo.Listener
}

func (l *listener) Accept(ctx context.Context) (transport.Session, error) {
	c, err := l.l.Accept(ctx)
	if err != nil {
		return nil, err
	}
	return &session{c: c}, nil
}

func (l *listener) Addr() net.Addr { return l.l.Addr() }

func (l *listener) Close() error { return l.l.Close() }

type session struct {
	c quicgo.Connection
}

func (s *session) OpenStream(ctx context.Context) (transport.Stream, error) {
	st, err := s.c.OpenStreamSync(ctx)
	if err != nil {
		return nil, err
	}
	return &stream{st: st}, nil
}

func (s *session) AcceptStream(ctx context.Context) (transport.Stream, error) {
	st, err := s.c.AcceptStream(ctx)
	if err != nil {
		return nil, err
	}
	return &stream{st: st}, nil
}

func (s *session) LocalAddr() net.Addr  { return s.c.LocalAddr() }
func (s *session) RemoteAddr() net.Addr { return s.c.RemoteAddr() }

func (s *session) Close() error { return s.c.CloseWithError(0, "") }

// stream adapts a quic-go stream: Close on the quic side only ends the send
// direction, which is exactly our CloseWrite.
type stream struct {
	st quicgo.Stream
}

func (st *stream) Read(p []byte) (int, error)  { return st.st.Read(p) }
func (st *stream) Write(p []byte) (int, error) { return st.st.Write(p) }

func (st *stream) CloseWrite() error { return st.st.Close() }

func (st *stream) Close() error {
	st.st.CancelRead(0)
	return st.st.Close()
}

// selfSignedCert generates a short-lived self-signed TLS certificate for
// local use.
func selfSignedCert() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}
	tmpl := x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		NotBefore:             time.Now().Add(-time.Minute),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: priv}, nil
}
