package access

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

type fakeMap struct {
	settings *Settings
}

func (m *fakeMap) ShareSettings() *Settings { return m.settings }

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	hash, err := hashSecretCost(plain, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return hash
}

var passwords = []string{"", "wrong", "abc123", "ABC123", " "}

func TestResolvePublicGrantsForAnyPassword(t *testing.T) {
	m := &fakeMap{settings: &Settings{Type: ShareTypePublic, Enabled: true}}
	for _, pw := range passwords {
		res := Resolve(m, pw)
		if !res.Granted() {
			t.Fatalf("password %q: expected granted, got %s", pw, res.Outcome)
		}
		if res.Message != "" {
			t.Fatalf("password %q: unexpected message %q", pw, res.Message)
		}
	}
}

func TestResolvePrivateOrDisabledDeniesForAnyPassword(t *testing.T) {
	cases := []struct {
		name     string
		settings *Settings
	}{
		{name: "absent", settings: nil},
		{name: "private", settings: &Settings{Type: ShareTypePrivate, Enabled: true}},
		{name: "private disabled", settings: &Settings{Type: ShareTypePrivate}},
		{name: "public disabled", settings: &Settings{Type: ShareTypePublic}},
		{name: "password disabled", settings: &Settings{Type: ShareTypePassword, SecretHash: mustHash(t, "abc123")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &fakeMap{settings: tc.settings}
			for _, pw := range passwords {
				res := Resolve(m, pw)
				if res.Outcome != OutcomeDenied || res.Reason != ReasonPrivate {
					t.Fatalf("password %q: expected denied(private), got %s(%s)", pw, res.Outcome, res.Reason)
				}
			}
		})
	}
}

func TestResolveMissingMapIsNotFound(t *testing.T) {
	res := Resolve(nil, "abc123")
	if res.Outcome != OutcomeDenied || res.Reason != ReasonNotFound {
		t.Fatalf("expected denied(not found), got %s(%s)", res.Outcome, res.Reason)
	}
}

func TestResolveUnknownTypeIsInvalidConfig(t *testing.T) {
	m := &fakeMap{settings: &Settings{Type: "link", Enabled: true}}
	res := Resolve(m, "")
	if res.Outcome != OutcomeDenied || res.Reason != ReasonInvalidConfig {
		t.Fatalf("expected denied(invalid configuration), got %s(%s)", res.Outcome, res.Reason)
	}
}

func TestResolvePasswordProtected(t *testing.T) {
	m := &fakeMap{settings: &Settings{
		Type:       ShareTypePassword,
		Enabled:    true,
		SecretHash: mustHash(t, "abc123"),
	}}

	cases := []struct {
		name     string
		supplied string
		outcome  Outcome
		message  string
	}{
		{name: "first visit", supplied: "", outcome: OutcomePasswordRequired},
		{name: "exact match", supplied: "abc123", outcome: OutcomeGranted},
		{name: "case differs", supplied: "ABC123", outcome: OutcomePasswordRequired, message: MsgIncorrectPassword},
		{name: "prefix", supplied: "abc12", outcome: OutcomePasswordRequired, message: MsgIncorrectPassword},
		{name: "trailing space", supplied: "abc123 ", outcome: OutcomePasswordRequired, message: MsgIncorrectPassword},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Resolve(m, tc.supplied)
			if res.Outcome != tc.outcome {
				t.Fatalf("expected %s, got %s", tc.outcome, res.Outcome)
			}
			if res.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, res.Message)
			}
			if res.Outcome == OutcomeDenied {
				t.Fatalf("password maps must never deny outright")
			}
		})
	}
}

func TestResolveEmptyPasswordNeverMatchesEmptySecret(t *testing.T) {
	m := &fakeMap{settings: &Settings{Type: ShareTypePassword, Enabled: true}}

	res := Resolve(m, "")
	if res.Outcome != OutcomePasswordRequired || res.Message != "" {
		t.Fatalf("expected password required without message, got %s %q", res.Outcome, res.Message)
	}

	res = Resolve(m, "anything")
	if res.Outcome != OutcomePasswordRequired || res.Message != MsgIncorrectPassword {
		t.Fatalf("expected incorrect password, got %s %q", res.Outcome, res.Message)
	}
}

func TestHashSecretRejectsEmpty(t *testing.T) {
	if _, err := HashSecret(""); err != ErrEmptySecret {
		t.Fatalf("expected ErrEmptySecret, got %v", err)
	}
}

func TestHashSecretRoundTrip(t *testing.T) {
	hash, err := HashSecret("abc123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "abc123" {
		t.Fatalf("secret stored in plain text")
	}
	m := &fakeMap{settings: &Settings{Type: ShareTypePassword, Enabled: true, SecretHash: hash}}
	if !Resolve(m, "abc123").Granted() {
		t.Fatalf("expected hashed secret to match")
	}
}
