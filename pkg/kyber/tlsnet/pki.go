package tlsnet

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

// PKI is a throwaway certificate authority with one leaf per party, for
// demos and tests. Every leaf is valid for both client and server auth and
// names the party plus localhost and 127.0.0.1.
type PKI struct {
	Roots *x509.CertPool
	Certs map[string]tls.Certificate
}

// NewPKI issues certificates for names from a fresh ECDSA P-256 CA.
func NewPKI(names []string) (*PKI, error) {
	if len(names) < 2 {
		return nil, fmt.Errorf("tlsnet: provide at least two party names (got %v)", names)
	}
	now := time.Now()
	caKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate CA key: %w", err)
	}
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "kyber-go-demo-ca"},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		MaxPathLenZero:        true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("create CA certificate: %w", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, fmt.Errorf("parse CA certificate: %w", err)
	}

	p := &PKI{Roots: x509.NewCertPool(), Certs: make(map[string]tls.Certificate, len(names))}
	p.Roots.AddCert(caCert)
	for i, name := range names {
		if name == "" {
			return nil, errors.New("tlsnet: empty party name")
		}
		if _, dup := p.Certs[name]; dup {
			return nil, fmt.Errorf("tlsnet: duplicate party name %q", name)
		}
		key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("generate key for %s: %w", name, err)
		}
		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(int64(i + 2)),
			Subject:      pkix.Name{CommonName: name},
			NotBefore:    now.Add(-time.Hour),
			NotAfter:     now.Add(24 * time.Hour),
			KeyUsage:     x509.KeyUsageDigitalSignature,
			ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
			DNSNames:     []string{name, "localhost"},
			IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, caCert, &key.PublicKey, caKey)
		if err != nil {
			return nil, fmt.Errorf("create cert for %s: %w", name, err)
		}
		p.Certs[name] = tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}
	}
	return p, nil
}
