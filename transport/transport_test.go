package transport

import (
	"crypto/tls"
	"crypto/x509"
	"testing"
)

func TestCipherSuitesForLevel(t *testing.T) {
	if got := cipherSuitesForLevel(CipherDefault); got != nil {
		t.Fatalf("CipherDefault should defer to crypto/tls defaults, got %v", got)
	}
	high := cipherSuitesForLevel(CipherHigh)
	if len(high) == 0 {
		t.Fatal("CipherHigh should return a non-empty suite list")
	}
	for _, suite := range high {
		found := false
		for _, s := range tls.CipherSuites() {
			if s.ID == suite {
				found = true
				break
			}
		}
		// TLS 1.3 suites aren't listed by tls.CipherSuites() the same
		// way 1.2 suites are on some Go versions, so only fail on a
		// suite that's neither insecure nor in the known list.
		if !found {
			insecure := false
			for _, s := range tls.InsecureCipherSuites() {
				if s.ID == suite {
					insecure = true
				}
			}
			if !insecure && suite != tls.TLS_CHACHA20_POLY1305_SHA256 {
				t.Fatalf("suite %d not a recognized crypto/tls cipher suite", suite)
			}
		}
	}
}

func TestConfig_RequireServerCertDefaultsTrue(t *testing.T) {
	cfg := &Config{}
	if !cfg.requireServerCert() {
		t.Fatal("default RequireServerCertificate should be true")
	}
	no := false
	cfg.RequireServerCertificate = &no
	if cfg.requireServerCert() {
		t.Fatal("explicit false should disable the default")
	}
}

func TestConfig_TLSConfigServerNameFallback(t *testing.T) {
	cfg := &Config{}
	tc := cfg.tlsConfig("mail.example.com")
	if tc.ServerName != "mail.example.com" {
		t.Fatalf("got ServerName %q, want fallback to hostname", tc.ServerName)
	}
	if tc.MinVersion != tls.VersionTLS12 {
		t.Fatalf("got MinVersion %x, want default TLS 1.2 floor", tc.MinVersion)
	}

	cfg2 := &Config{ServerName: "override.example.com"}
	tc2 := cfg2.tlsConfig("mail.example.com")
	if tc2.ServerName != "override.example.com" {
		t.Fatalf("explicit ServerName should win over the dial hostname, got %q", tc2.ServerName)
	}
}

func TestConfig_VerifierWiresPeerCertificateCallback(t *testing.T) {
	cfg := &Config{Verifier: stubVerifier{}}
	tc := cfg.tlsConfig("host")
	if tc.VerifyPeerCertificate == nil {
		t.Fatal("expected VerifyPeerCertificate to be set when Verifier is non-nil")
	}
}

type stubVerifier struct{}

func (stubVerifier) VerifyChain(chain []*x509.Certificate) error             { return nil }
func (stubVerifier) VerifyHostname(cert *x509.Certificate, hostname string) error { return nil }
