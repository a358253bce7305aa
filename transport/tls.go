package transport

import (
	"crypto/tls"
	"crypto/x509"

	"vmime.dev/vmime/vmimeerr"
)

// CertificateVerifier is the user-supplied certificate policy spec.md
// §4.5 requires: a chain verifier plus an optional hostname matcher.
// It is consulted in addition to (or, with Config.RequireServerCertificate
// set to false, instead of) Go's usual tls.Config verification.
type CertificateVerifier interface {
	// VerifyChain inspects the peer's certificate chain and returns an
	// error to fail the handshake.
	VerifyChain(chain []*x509.Certificate) error
	// VerifyHostname checks the peer certificate's identity against
	// the hostname the connection was made to. A nil CertificateVerifier
	// field, or a verifier that returns nil here unconditionally, skips
	// hostname matching.
	VerifyHostname(cert *x509.Certificate, hostname string) error
}

// Config configures a TLS upgrade: cipher-suite selection (spec.md §6
// tls.cipherSuite / tls.requireServerCertificate) and the certificate
// policy hooks above.
type Config struct {
	ServerName string

	// CipherLevel picks a platform-neutral cipher strength; ignored
	// when CipherSuites is non-empty.
	CipherLevel CipherLevel
	// CipherSuites, when set, is passed through to crypto/tls verbatim
	// (a "backend-native string" selection, per spec.md §4.5).
	CipherSuites []uint16

	// RequireServerCertificate defaults to true (spec.md §6); when
	// false, certificate verification errors from the Go stdlib TLS
	// stack are suppressed (InsecureSkipVerify), though Verifier, if
	// set, still runs against whatever certificate was presented.
	RequireServerCertificate *bool

	// Verifier, if non-nil, runs after Go's own verification (or
	// instead of it, when RequireServerCertificate is false) to apply
	// an application-supplied certificate policy.
	Verifier CertificateVerifier

	// MinVersion overrides the default minimum TLS version (tls.VersionTLS12).
	MinVersion uint16
}

func (cfg *Config) requireServerCert() bool {
	if cfg.RequireServerCertificate == nil {
		return true
	}
	return *cfg.RequireServerCertificate
}

func cipherSuitesForLevel(level CipherLevel) []uint16 {
	switch level {
	case CipherHigh:
		return []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_CHACHA20_POLY1305_SHA256,
		}
	case CipherMedium:
		return []uint16{
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
		}
	case CipherLow:
		return []uint16{
			tls.TLS_RSA_WITH_AES_128_CBC_SHA,
			tls.TLS_RSA_WITH_AES_256_CBC_SHA,
		}
	default: // CipherDefault or unset: let crypto/tls pick.
		return nil
	}
}

func (cfg *Config) tlsConfig(hostname string) *tls.Config {
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = hostname
	}
	minVersion := cfg.MinVersion
	if minVersion == 0 {
		minVersion = tls.VersionTLS12
	}
	tc := &tls.Config{
		ServerName:         serverName,
		MinVersion:         minVersion,
		InsecureSkipVerify: !cfg.requireServerCert(),
	}
	if cfg.CipherSuites != nil {
		tc.CipherSuites = cfg.CipherSuites
	} else {
		tc.CipherSuites = cipherSuitesForLevel(cfg.CipherLevel)
	}
	if cfg.Verifier != nil {
		tc.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			chain := make([]*x509.Certificate, 0, len(rawCerts))
			for _, raw := range rawCerts {
				cert, err := x509.ParseCertificate(raw)
				if err != nil {
					return vmimeerr.Wrap(vmimeerr.TLSVerificationFailed, "parse peer certificate", err)
				}
				chain = append(chain, cert)
			}
			if err := cfg.Verifier.VerifyChain(chain); err != nil {
				return vmimeerr.Wrap(vmimeerr.TLSVerificationFailed, "certificate chain rejected", err)
			}
			if len(chain) > 0 {
				if err := cfg.Verifier.VerifyHostname(chain[0], serverName); err != nil {
					return vmimeerr.Wrap(vmimeerr.TLSVerificationFailed, "hostname mismatch", err)
				}
			}
			return nil
		}
	}
	return tc
}

// UpgradeTLS performs a TLS client handshake over an already-connected
// Conn (either a direct TLS connect or a post-STARTTLS upgrade) and
// returns a new Conn reporting Secure() == true. Handshake or
// verification failure is fatal to the connection, per spec.md §4.5;
// the caller should Disconnect the original Conn in that case.
func UpgradeTLS(c *Conn, hostname string, cfg *Config) (*Conn, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	tc := cfg.tlsConfig(hostname)
	tlsConn := tls.Client(c.Conn, tc)
	if err := tlsConn.Handshake(); err != nil {
		if _, ok := err.(x509.CertificateInvalidError); ok {
			return nil, vmimeerr.Wrap(vmimeerr.TLSVerificationFailed, "peer certificate rejected", err)
		}
		return nil, vmimeerr.Wrap(vmimeerr.TLSHandshakeFailed, "TLS handshake failed", err)
	}
	return &Conn{Conn: tlsConn, secure: true}, nil
}
