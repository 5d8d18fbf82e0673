package auth

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// TokenShape identifies which historical tuple layout a portable token uses.
type TokenShape string

const (
	// ShapeLegacyNumeric is "subjectId:timestamp:salt".
	ShapeLegacyNumeric TokenShape = "legacy-numeric"
	// ShapeDemoRole is "demo-<role>:timestamp:salt".
	ShapeDemoRole TokenShape = "demo-role"
)

const (
	demoRolePrefix = "demo-"
	tupleSeparator = ":"

	// MaxPortableTokenLength bounds the input accepted by the decoder.
	MaxPortableTokenLength = 1024
)

var (
	base64Charset = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	// canonical decimal only, so each subject has exactly one numeric spelling
	legacySubject = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// PortableToken is a decoded self-encoded credential.
type PortableToken struct {
	Shape TokenShape
	// SubjectID is set for ShapeLegacyNumeric only.
	SubjectID int64
	Role      Role
	Timestamp string
	Salt      string
}

// IsBase64Charset reports whether s is non-empty, within the length bound
// and made only of standard base64 characters with at most two trailing '='.
func IsBase64Charset(s string) bool {
	if s == "" || len(s) > MaxPortableTokenLength {
		return false
	}
	return base64Charset.MatchString(s)
}

// DecodePortableToken classifies and decodes a portable token.
//
// The numeric shape takes priority: when the first field parses as an
// integer, the role is taken from the directory. Otherwise the first field
// must be a "demo-<role>" tag. Every failure is reported as
// ErrMalformedCredential or ErrUnknownRole; the function never panics on
// attacker-supplied input.
func DecodePortableToken(raw string, dir *DemoDirectory) (PortableToken, error) {
	if !IsBase64Charset(raw) {
		return PortableToken{}, fmt.Errorf("%w: not base64", ErrMalformedCredential)
	}

	enc := base64.RawStdEncoding
	if strings.HasSuffix(raw, "=") {
		enc = base64.StdEncoding
	}
	decoded, err := enc.DecodeString(raw)
	if err != nil {
		return PortableToken{}, fmt.Errorf("%w: base64 decode", ErrMalformedCredential)
	}
	if !utf8.Valid(decoded) {
		return PortableToken{}, fmt.Errorf("%w: not utf-8", ErrMalformedCredential)
	}

	fields := strings.Split(string(decoded), tupleSeparator)
	if len(fields) < 2 {
		return PortableToken{}, fmt.Errorf("%w: want at least 2 fields, got %d", ErrMalformedCredential, len(fields))
	}

	tok := PortableToken{Timestamp: fields[1]}
	if len(fields) > 2 {
		tok.Salt = fields[2]
	}

	head := fields[0]
	if legacySubject.MatchString(head) {
		id, err := strconv.ParseInt(head, 10, 64)
		if err != nil {
			return PortableToken{}, fmt.Errorf("%w: subject id out of range", ErrMalformedCredential)
		}
		if dir == nil {
			return PortableToken{}, fmt.Errorf("%w: no demo directory for numeric token", ErrUnknownRole)
		}
		role := dir.RoleFor(id)
		if !role.Valid() {
			return PortableToken{}, fmt.Errorf("%w: subject %d", ErrUnknownRole, id)
		}
		tok.Shape = ShapeLegacyNumeric
		tok.SubjectID = id
		tok.Role = role
		return tok, nil
	}

	if !strings.HasPrefix(head, demoRolePrefix) {
		return PortableToken{}, fmt.Errorf("%w: unrecognised first field", ErrMalformedCredential)
	}
	role, err := ParseRole(strings.TrimPrefix(head, demoRolePrefix))
	if err != nil {
		return PortableToken{}, err
	}
	tok.Shape = ShapeDemoRole
	tok.Role = role
	return tok, nil
}

// EncodeLegacyNumeric builds a legacy-numeric portable token.
func EncodeLegacyNumeric(subjectID int64, timestamp, salt string) string {
	return encodeTuple(strconv.FormatInt(subjectID, 10), timestamp, salt)
}

// EncodeDemoRole builds a demo-role portable token.
func EncodeDemoRole(role Role, timestamp, salt string) string {
	return encodeTuple(demoRolePrefix+string(role), timestamp, salt)
}

func encodeTuple(fields ...string) string {
	return base64.StdEncoding.EncodeToString([]byte(strings.Join(fields, tupleSeparator)))
}
