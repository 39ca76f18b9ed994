package testinfra

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// CertBundle holds a throwaway PKI for TLS tests: a CA, a server cert
// for the database container, and a client cert for mTLS connections.
type CertBundle struct {
	CACert, CAKey         []byte
	ServerCert, ServerKey []byte
	ClientCert, ClientKey []byte
}

// CertPaths points at a bundle written to disk.
type CertPaths struct {
	CACert     string
	ServerCert string
	ServerKey  string
	ClientCert string
	ClientKey  string
}

type keyPair struct {
	key     *ecdsa.PrivateKey
	certDER []byte
}

func issueCert(template, parent *x509.Certificate, parentKey *ecdsa.PrivateKey) (*keyPair, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	signingKey := parentKey
	if signingKey == nil { // self-signed
		parent = template
		signingKey = key
	}

	der, err := x509.CreateCertificate(rand.Reader, template, parent, &key.PublicKey, signingKey)
	if err != nil {
		return nil, fmt.Errorf("create certificate: %w", err)
	}

	return &keyPair{key: key, certDER: der}, nil
}

// GenerateCertBundle creates a short-lived CA plus server and client
// certificates. hosts lists the names and IPs the server cert must
// cover; the client cert's CN is "postgres" to match pg_hba cert auth.
func GenerateCertBundle(hosts []string) (*CertBundle, error) {
	now := time.Now()

	ca, err := issueCert(&x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "tilevault-test-ca"},
		NotBefore:             now.Add(-5 * time.Minute),
		NotAfter:              now.Add(1 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("CA: %w", err)
	}

	caCert, err := x509.ParseCertificate(ca.certDER)
	if err != nil {
		return nil, fmt.Errorf("parse CA certificate: %w", err)
	}

	serverTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(2),
		Subject:      pkix.Name{CommonName: "tilevault-test-server"},
		NotBefore:    now.Add(-5 * time.Minute),
		NotAfter:     now.Add(1 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	for _, h := range hosts {
		if ip := net.ParseIP(h); ip != nil {
			serverTemplate.IPAddresses = append(serverTemplate.IPAddresses, ip)
		} else {
			serverTemplate.DNSNames = append(serverTemplate.DNSNames, h)
		}
	}

	server, err := issueCert(serverTemplate, caCert, ca.key)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	client, err := issueCert(&x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "postgres"},
		NotBefore:    now.Add(-5 * time.Minute),
		NotAfter:     now.Add(1 * time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	}, caCert, ca.key)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}

	bundle := &CertBundle{
		CACert:     encodeCertPEM(ca.certDER),
		ServerCert: encodeCertPEM(server.certDER),
		ClientCert: encodeCertPEM(client.certDER),
	}
	if bundle.CAKey, err = encodeKeyPEM(ca.key); err != nil {
		return nil, fmt.Errorf("encode CA key: %w", err)
	}
	if bundle.ServerKey, err = encodeKeyPEM(server.key); err != nil {
		return nil, fmt.Errorf("encode server key: %w", err)
	}
	if bundle.ClientKey, err = encodeKeyPEM(client.key); err != nil {
		return nil, fmt.Errorf("encode client key: %w", err)
	}

	return bundle, nil
}

// WriteToDir writes the bundle as PEM files under dir and returns their
// paths.
func (b *CertBundle) WriteToDir(dir string) (*CertPaths, error) {
	paths := &CertPaths{
		CACert:     filepath.Join(dir, "ca.crt"),
		ServerCert: filepath.Join(dir, "server.crt"),
		ServerKey:  filepath.Join(dir, "server.key"),
		ClientCert: filepath.Join(dir, "client.crt"),
		ClientKey:  filepath.Join(dir, "client.key"),
	}

	files := map[string][]byte{
		paths.CACert:     b.CACert,
		paths.ServerCert: b.ServerCert,
		paths.ServerKey:  b.ServerKey,
		paths.ClientCert: b.ClientCert,
		paths.ClientKey:  b.ClientKey,
	}

	for path, data := range files {
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("write %s: %w", filepath.Base(path), err)
		}
	}

	return paths, nil
}

func encodeCertPEM(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}

func encodeKeyPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), nil
}
