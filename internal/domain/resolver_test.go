package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidates(t *testing.T) {
	tests := []struct {
		domain string
		want   []string
	}{
		{"example.com", []string{"example.com"}},
		{"www.example.com", []string{"www.example.com", "example.com"}},
		{"a.b.example.com.", []string{"a.b.example.com", "b.example.com", "example.com"}},
		{"WWW.Example.COM", []string{"www.example.com", "example.com"}},
		{"com", nil},
		{"", nil},
	}

	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, Candidates(tt.domain))
		})
	}
}

func TestResolveBaseDomain(t *testing.T) {
	registered := []string{"example.com", "example.org"}

	base, err := ResolveBaseDomain("www.example.com", registered)
	require.NoError(t, err)
	assert.Equal(t, "example.com", base)

	base, err = ResolveBaseDomain("example.org", registered)
	require.NoError(t, err)
	assert.Equal(t, "example.org", base)
}

func TestResolveBaseDomain_MostSpecificWins(t *testing.T) {
	registered := []string{"example.com", "a.example.com"}

	base, err := ResolveBaseDomain("_acme-challenge.a.example.com", registered)
	require.NoError(t, err)
	assert.Equal(t, "a.example.com", base)

	base, err = ResolveBaseDomain("b.example.com", registered)
	require.NoError(t, err)
	assert.Equal(t, "example.com", base)
}

func TestResolveBaseDomain_NotFound(t *testing.T) {
	_, err := ResolveBaseDomain("unregistered.org", []string{"example.com"})
	require.Error(t, err)

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, []string{"unregistered.org"}, nf.Candidates)
	assert.Contains(t, err.Error(), "unregistered.org")
}

func TestResolveBaseDomain_ResultIsSuffix(t *testing.T) {
	registered := []string{"example.com", "deep.sub.example.net", "example.net"}
	hosts := []string{
		"example.com",
		"x.y.z.example.com",
		"deep.sub.example.net",
		"a.deep.sub.example.net",
		"other.sub.example.net",
	}

	for _, h := range hosts {
		base, err := ResolveBaseDomain(h, registered)
		require.NoError(t, err, h)
		assert.True(t, IsSubDomain(h, base), "%s should be under %s", h, base)
		assert.Contains(t, registered, base)
	}
}

func TestResolveBaseDomain_NormalizesRegistered(t *testing.T) {
	base, err := ResolveBaseDomain("www.example.com", []string{"Example.COM."})
	require.NoError(t, err)
	assert.Equal(t, "example.com", base)
}

func TestExtractSubDomain(t *testing.T) {
	sub, ok := ExtractSubDomain("_acme-challenge.sub.example.com", "example.com")
	require.True(t, ok)
	assert.Equal(t, "_acme-challenge.sub", sub)
	assert.Equal(t, "_acme-challenge.sub.example.com", sub+"."+"example.com")

	_, ok = ExtractSubDomain("example.com", "example.com")
	assert.False(t, ok)

	_, ok = ExtractSubDomain("_acme-challenge.badexample.com", "example.com")
	assert.False(t, ok)

	_, ok = ExtractSubDomain("_acme-challenge.example.com", "")
	assert.False(t, ok)
}

func TestMatchDomain(t *testing.T) {
	assert.True(t, MatchDomain("example.com", "example.com"))
	assert.True(t, MatchDomain("*.example.com", "www.example.com"))
	assert.True(t, MatchDomain("*.example.com", "*.example.com"))
	assert.False(t, MatchDomain("*.example.com", "example.com"))
	assert.False(t, MatchDomain("*.example.com", "a.b.example.com"))
	assert.False(t, MatchDomain("www.example.com", "api.example.com"))
}
