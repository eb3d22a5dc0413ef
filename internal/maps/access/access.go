// Package access decides whether a requester may view a shared map.
//
// Resolve is a pure function over already-loaded share settings: it performs
// no I/O and has no side effects. Callers count views and log outcomes.
package access

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ShareType is the stored share mode of a map.
type ShareType string

const (
	ShareTypePrivate  ShareType = "private"
	ShareTypePublic   ShareType = "public"
	ShareTypePassword ShareType = "password"
)

// Valid reports whether t is one of the known share types.
func (t ShareType) Valid() bool {
	switch t {
	case ShareTypePrivate, ShareTypePublic, ShareTypePassword:
		return true
	}
	return false
}

// Settings mirrors the persisted share configuration. SecretHash is a
// bcrypt hash and is only set for ShareTypePassword.
type Settings struct {
	Type       ShareType
	Enabled    bool
	SecretHash string
}

// Target is anything that carries share settings. A nil Target means the
// map does not exist.
type Target interface {
	ShareSettings() *Settings
}

// Outcome classifies a resolution.
type Outcome int

const (
	OutcomeDenied Outcome = iota
	OutcomeGranted
	OutcomePasswordRequired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGranted:
		return "granted"
	case OutcomePasswordRequired:
		return "password_required"
	default:
		return "denied"
	}
}

// Reason explains a denial.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNotFound      Reason = "not found"
	ReasonPrivate       Reason = "private"
	ReasonInvalidConfig Reason = "invalid configuration"
)

// MsgIncorrectPassword is attached to a PasswordRequired retry.
const MsgIncorrectPassword = "incorrect password"

// Result is the decision for a single access attempt.
type Result struct {
	Outcome Outcome
	Reason  Reason
	// Message is set only when a supplied password did not match.
	Message string
}

// Granted reports whether the requester may view the map.
func (r Result) Granted() bool { return r.Outcome == OutcomeGranted }

// Resolve classifies an access attempt. An empty supplied password is the
// same as no password: it never matches, not even an empty secret.
func Resolve(target Target, suppliedPassword string) Result {
	if target == nil {
		return Result{Outcome: OutcomeDenied, Reason: ReasonNotFound}
	}

	settings := target.ShareSettings()
	if settings == nil || !settings.Enabled {
		return Result{Outcome: OutcomeDenied, Reason: ReasonPrivate}
	}

	switch settings.Type {
	case ShareTypePrivate:
		return Result{Outcome: OutcomeDenied, Reason: ReasonPrivate}
	case ShareTypePublic:
		return Result{Outcome: OutcomeGranted}
	case ShareTypePassword:
		if suppliedPassword == "" {
			return Result{Outcome: OutcomePasswordRequired}
		}
		if matchSecret(settings.SecretHash, suppliedPassword) {
			return Result{Outcome: OutcomeGranted}
		}
		return Result{Outcome: OutcomePasswordRequired, Message: MsgIncorrectPassword}
	default:
		return Result{Outcome: OutcomeDenied, Reason: ReasonInvalidConfig}
	}
}

func matchSecret(hash, supplied string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(supplied)) == nil
}

// ErrEmptySecret is returned when hashing an empty password.
var ErrEmptySecret = errors.New("share password must not be empty")

// HashSecret hashes a share password for storage.
func HashSecret(plain string) (string, error) {
	return hashSecretCost(plain, bcrypt.DefaultCost)
}

func hashSecretCost(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
