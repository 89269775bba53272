package tencent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkerrors "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/errors"

	"dnspod-certbot/internal/provider"
)

func testProvider(retries int) *DNSProvider {
	return newDNSProvider(Options{
		Timeout:       time.Second,
		Retries:       retries,
		RetryInterval: time.Millisecond,
	}, logr.Discard())
}

func TestCall_RetriesRateLimit(t *testing.T) {
	p := testProvider(3)

	calls := 0
	err := p.call(context.Background(), "CreateTXTRecord", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return sdkerrors.NewTencentCloudSDKError("RequestLimitExceeded", "too many requests", "req-1")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCall_GivesUpAfterMaxTries(t *testing.T) {
	p := testProvider(2)

	calls := 0
	err := p.call(context.Background(), "DeleteRecord", func(ctx context.Context) error {
		calls++
		return sdkerrors.NewTencentCloudSDKError("InternalError", "boom", "req-2")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, hasCode(err, "InternalError"))
}

func TestCall_PermanentErrorNotRetried(t *testing.T) {
	p := testProvider(5)

	calls := 0
	err := p.call(context.Background(), "CreateTXTRecord", func(ctx context.Context) error {
		calls++
		return sdkerrors.NewTencentCloudSDKError("AuthFailure.SignatureFailure", "bad key", "req-3")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, hasCode(err, "AuthFailure.SignatureFailure"))
}

func TestCall_AppliesTimeout(t *testing.T) {
	p := testProvider(1)

	err := p.call(context.Background(), "DescribeDomainList", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
		return nil
	})
	require.NoError(t, err)
}

func TestIsNotFound(t *testing.T) {
	err := fmt.Errorf("wrapped: %w",
		sdkerrors.NewTencentCloudSDKError("ResourceNotFound.NoDataOfRecord", "no record", "req-4"))
	assert.True(t, isNotFound(err))
	assert.False(t, isNotFound(errors.New("plain")))
	assert.False(t, isRetryable(errors.New("plain")))
}

func TestDeleteRecord_InvalidID(t *testing.T) {
	p := testProvider(1)

	err := p.DeleteRecord(context.Background(), "example.com", "not-a-number")
	require.Error(t, err)
	assert.False(t, errors.Is(err, provider.ErrRecordNotFound))
}

func TestNewDNSProvider_Defaults(t *testing.T) {
	p := newDNSProvider(Options{}, logr.Discard())
	assert.Equal(t, "tencent", p.Name())
	assert.Equal(t, 30*time.Second, p.timeout)
	assert.Equal(t, 1, p.retries)
	assert.Equal(t, uint64(600), p.ttl)
}
