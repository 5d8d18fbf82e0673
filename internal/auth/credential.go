package auth

// CredentialSource tags where a RawCredential was found.
type CredentialSource string

const (
	SourcePrimaryCookie CredentialSource = "cookie-primary"
	SourceLegacyCookie  CredentialSource = "cookie-legacy"
	SourceHeader        CredentialSource = "header"
	SourceQuery         CredentialSource = "query"
)

// previewLength is the number of credential characters that may appear in logs.
const previewLength = 8

// RawCredential is the single credential string extracted from a request.
// It is consumed once by the resolver and must never be logged in full.
type RawCredential struct {
	Value  string
	Source CredentialSource
}

// MaybeOpaque reports whether the credential could reference a persisted session.
// Legacy cookies are always converted into portable tokens and never hit the store.
func (c RawCredential) MaybeOpaque() bool {
	return c.Source != SourceLegacyCookie
}

// Preview returns a fixed-length prefix of the credential suitable for logs.
func (c RawCredential) Preview() string {
	return truncate(c.Value, previewLength)
}

// String implements fmt.Stringer so that formatting a RawCredential by accident
// only ever prints the preview.
func (c RawCredential) String() string {
	return string(c.Source) + ":" + c.Preview()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
