package core

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dnspod-certbot/internal/config"
	"dnspod-certbot/internal/storage"
)

func TestValidator_NeedRenew(t *testing.T) {
	s := storage.NewFileStorage(afero.NewMemMapFs(), "/certs", logr.Discard())
	v := NewValidator(s, logr.Discard())

	domainCfg := config.DomainConfig{Domain: "example.com", Sans: []string{"www.example.com"}, RenewDays: 30}

	need, _, err := v.NeedRenew(domainCfg)
	require.NoError(t, err)
	assert.True(t, need, "no local certificate")

	require.NoError(t, s.SaveCertificate("example.com", &storage.Certificate{
		Certificate: selfSigned(t, []string{"example.com", "*.example.com"}, time.Now().Add(60*24*time.Hour)),
	}))
	need, expiry, err := v.NeedRenew(domainCfg)
	require.NoError(t, err)
	assert.False(t, need, "wildcard covers www")
	assert.False(t, expiry.IsZero())

	domainCfg.Sans = append(domainCfg.Sans, "api.example.org")
	need, _, err = v.NeedRenew(domainCfg)
	require.NoError(t, err)
	assert.True(t, need, "new SAN not covered")
}

func TestValidator_RenewWindow(t *testing.T) {
	s := storage.NewFileStorage(afero.NewMemMapFs(), "/certs", logr.Discard())
	v := NewValidator(s, logr.Discard())

	require.NoError(t, s.SaveCertificate("example.com", &storage.Certificate{
		Certificate: selfSigned(t, []string{"example.com"}, time.Now().Add(20*24*time.Hour)),
	}))

	need, _, err := v.NeedRenew(config.DomainConfig{Domain: "example.com", RenewDays: 30})
	require.NoError(t, err)
	assert.True(t, need)

	need, _, err = v.NeedRenew(config.DomainConfig{Domain: "example.com", RenewDays: 7})
	require.NoError(t, err)
	assert.False(t, need)
}
