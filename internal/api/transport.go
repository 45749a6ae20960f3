package api

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TransportOptions configures NewHTTPClient.
type TransportOptions struct {
	// RequestTimeout bounds dialing, the TLS handshake and the wait for
	// response headers.
	RequestTimeout time.Duration
	// ResourceTimeout bounds the whole exchange including the body.
	ResourceTimeout time.Duration
	// PinnedCertsDir holds .cer, .der, .crt or .pem files. Empty disables pinning.
	PinnedCertsDir string
}

// ErrCertificateNotPinned is returned by the TLS handshake when no presented
// certificate matches a pinned one.
var ErrCertificateNotPinned = errors.New("server certificate does not match any pinned certificate")

// NewHTTPClient builds the transport used by Client.
func NewHTTPClient(opts TransportOptions) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.RequestTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   opts.RequestTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = opts.RequestTimeout
		transport.ResponseHeaderTimeout = opts.RequestTimeout
	}

	if opts.PinnedCertsDir != "" {
		pinned, err := LoadPinnedCertificates(opts.PinnedCertsDir)
		if err != nil {
			return nil, err
		}
		if len(pinned) > 0 {
			transport.TLSClientConfig = &tls.Config{
				MinVersion:            tls.VersionTLS12,
				VerifyPeerCertificate: verifyPinned(pinned),
			}
		}
	}

	return &http.Client{Transport: transport, Timeout: opts.ResourceTimeout}, nil
}

var pinnedExtensions = map[string]bool{".cer": true, ".der": true, ".crt": true, ".pem": true}

// LoadPinnedCertificates reads every certificate file in dir. A missing
// directory yields no certificates.
func LoadPinnedCertificates(dir string) ([]*x509.Certificate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pinned certs dir: %w", err)
	}

	var certs []*x509.Certificate
	for _, entry := range entries {
		if entry.IsDir() || !pinnedExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read pinned cert %s: %w", entry.Name(), err)
		}
		parsed, err := parseCertificates(data)
		if err != nil {
			return nil, fmt.Errorf("parse pinned cert %s: %w", entry.Name(), err)
		}
		certs = append(certs, parsed...)
	}
	return certs, nil
}

func parseCertificates(data []byte) ([]*x509.Certificate, error) {
	if !bytes.Contains(data, []byte("-----BEGIN")) {
		cert, err := x509.ParseCertificate(data)
		if err != nil {
			return nil, err
		}
		return []*x509.Certificate{cert}, nil
	}

	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, errors.New("no certificate found")
	}
	return certs, nil
}

// verifyPinned runs after normal chain verification and accepts the
// connection when any presented certificate equals a pinned one.
func verifyPinned(pinned []*x509.Certificate) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		for _, raw := range rawCerts {
			for _, p := range pinned {
				if bytes.Equal(raw, p.Raw) {
					return nil
				}
			}
		}
		return ErrCertificateNotPinned
	}
}
