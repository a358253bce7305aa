package sasl

import (
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"testing"
)

func TestCRAMMD5_Step(t *testing.T) {
	m := &CRAMMD5{Username: "user", Password: "secret"}
	challenge := []byte("<1896.697170952@postoffice.reston.mci.net>")
	resp, err := m.Step(challenge)
	if err != nil {
		t.Fatal(err)
	}
	mac := hmac.New(md5.New, []byte("secret"))
	mac.Write(challenge)
	want := fmt.Sprintf("user %s", hex.EncodeToString(mac.Sum(nil)))
	if string(resp) != want {
		t.Fatalf("got %q want %q", resp, want)
	}
	if !m.IsComplete() {
		t.Fatal("expected IsComplete after one step")
	}
	if _, err := m.Step(challenge); err == nil {
		t.Fatal("expected error stepping an already-complete mechanism")
	}
}

func TestPlain_Step(t *testing.T) {
	m := &Plain{Username: "user", Password: "pass"}
	resp, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	want := "\x00user\x00pass"
	if string(resp) != want {
		t.Fatalf("got %q want %q", resp, want)
	}
	if !m.IsComplete() {
		t.Fatal("expected IsComplete after one step")
	}
}

func TestLogin_TwoStep(t *testing.T) {
	m := &Login{Username: "user", Password: "pass"}
	if m.IsComplete() {
		t.Fatal("should not be complete before any step")
	}
	r1, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(r1) != "user" {
		t.Fatalf("step 1: got %q", r1)
	}
	if m.IsComplete() {
		t.Fatal("should not be complete after one step")
	}
	r2, err := m.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(r2) != "pass" {
		t.Fatalf("step 2: got %q", r2)
	}
	if !m.IsComplete() {
		t.Fatal("expected IsComplete after two steps")
	}
}

func TestEncodeDecodeChallenge_RoundTrip(t *testing.T) {
	orig := []byte("hello world, this is a challenge")
	enc := EncodeChallenge(orig)
	dec, err := DecodeChallenge(enc)
	if err != nil {
		t.Fatal(err)
	}
	if string(dec) != string(orig) {
		t.Fatalf("got %q want %q", dec, orig)
	}
}

func TestDecodeChallenge_Invalid(t *testing.T) {
	if _, err := DecodeChallenge("not valid base64!!"); err == nil {
		t.Fatal("expected error decoding invalid base64")
	}
}

func TestSaslprep_PassesCleanASCII(t *testing.T) {
	if got := saslprep("plainuser"); got != "plainuser" {
		t.Fatalf("got %q", got)
	}
}
