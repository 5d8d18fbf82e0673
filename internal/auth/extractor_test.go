package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_NoCredential(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/worker", nil)

	cred, ok := NewExtractor().Extract(req)
	assert.False(t, ok)
	assert.Equal(t, RawCredential{}, cred)
}

func TestExtractor_Priority(t *testing.T) {
	fixedSalt := WithSaltSource(func() string { return "salt" })

	tests := []struct {
		name       string
		build      func(r *http.Request)
		wantSource CredentialSource
		wantValue  string
	}{
		{
			name: "primary cookie beats everything",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultPrimaryCookie, Value: "opaque-primary"})
				r.AddCookie(&http.Cookie{Name: DefaultLegacyCookie, Value: "worker:1700"})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			wantSource: SourcePrimaryCookie,
			wantValue:  "opaque-primary",
		},
		{
			name: "legacy cookie beats header",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultLegacyCookie, Value: "worker:1700"})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			wantSource: SourceLegacyCookie,
			wantValue:  EncodeDemoRole(RoleWorker, "1700", "salt"),
		},
		{
			name: "header beats query",
			build: func(r *http.Request) {
				r.Header.Set("Authorization", "bearer header-token")
				q := r.URL.Query()
				q.Set(DefaultQueryParam, "query-token")
				r.URL.RawQuery = q.Encode()
			},
			wantSource: SourceHeader,
			wantValue:  "header-token",
		},
		{
			name: "query is the last resort",
			build: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
				q := r.URL.Query()
				q.Set(DefaultQueryParam, "query-token")
				r.URL.RawQuery = q.Encode()
			},
			wantSource: SourceQuery,
			wantValue:  "query-token",
		},
		{
			name: "malformed legacy cookie is skipped",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultLegacyCookie, Value: "no-separator"})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			wantSource: SourceHeader,
			wantValue:  "header-token",
		},
		{
			name: "url-encoded legacy cookie",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: DefaultLegacyCookie, Value: "client%3A1700"})
			},
			wantSource: SourceLegacyCookie,
			wantValue:  EncodeDemoRole(RoleClient, "1700", "salt"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			tt.build(req)

			cred, ok := NewExtractor(fixedSalt).Extract(req)
			require.True(t, ok)
			assert.Equal(t, tt.wantSource, cred.Source)
			assert.Equal(t, tt.wantValue, cred.Value)
		})
	}
}

func TestExtractor_LegacyCookieSaltVaries(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultLegacyCookie, Value: "worker:1700"})

	ex := NewExtractor()
	first, ok := ex.Extract(req)
	require.True(t, ok)
	second, ok := ex.Extract(req)
	require.True(t, ok)

	assert.NotEqual(t, first.Value, second.Value)

	dir := DefaultDemoDirectory()
	for _, cred := range []RawCredential{first, second} {
		tok, err := DecodePortableToken(cred.Value, dir)
		require.NoError(t, err)
		assert.Equal(t, RoleWorker, tok.Role)
		assert.Equal(t, "1700", tok.Timestamp)
		assert.Len(t, tok.Salt, saltLength)
	}
}

func TestExtractor_CustomNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?auth=q", nil)
	req.AddCookie(&http.Cookie{Name: DefaultPrimaryCookie, Value: "ignored"})
	req.AddCookie(&http.Cookie{Name: "sid", Value: "custom"})

	ex := NewExtractor(WithCookieNames("sid", "legacy"), WithQueryParam("auth"))
	cred, ok := ex.Extract(req)
	require.True(t, ok)
	assert.Equal(t, SourcePrimaryCookie, cred.Source)
	assert.Equal(t, "custom", cred.Value)
}

func TestRawCredential_Preview(t *testing.T) {
	cred := RawCredential{Value: "0123456789abcdef", Source: SourceHeader}
	assert.Equal(t, "01234567...", cred.Preview())
	assert.Equal(t, "header:01234567...", cred.String())
	assert.True(t, cred.MaybeOpaque())

	short := RawCredential{Value: "abc", Source: SourceLegacyCookie}
	assert.Equal(t, "abc", short.Preview())
	assert.False(t, short.MaybeOpaque())
}
