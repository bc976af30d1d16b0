package endpoint_test

import (
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestParse(t *testing.T) {
	parsed, err := endpoint.Parse("oss-cn-hangzhou.aliyuncs.com")
	require.NoError(t, err)
	require.Equal(t, endpoint.Endpoint{Scheme: "http", Host: "oss-cn-hangzhou.aliyuncs.com"}, parsed)

	parsed, err = endpoint.Parse("  HTTPS://127.0.0.1:9000/ignored?x=y ")
	require.NoError(t, err)
	require.Equal(t, endpoint.Endpoint{Scheme: "https", Host: "127.0.0.1:9000"}, parsed)
	require.Equal(t, "https://127.0.0.1:9000", parsed.String())

	parsed, err = endpoint.Parse("http://[::1]:8080")
	require.NoError(t, err)
	require.Equal(t, "[::1]:8080", parsed.Host)
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"http://",
		"https://:9000",
		"ftp://example.com",
		"http://exa mple.com",
	} {
		_, err := endpoint.Parse(raw)
		require.ErrorIs(t, err, endpoint.ErrInvalidEndpoint, "endpoint %q", raw)
	}

	_, err := endpoint.NewURLMaker("http://", false)
	require.ErrorIs(t, err, endpoint.ErrInvalidEndpoint)
}

func TestModeString(t *testing.T) {
	require.Equal(t, "virtual-hosted", endpoint.VirtualHosted.String())
	require.Equal(t, "path-style", endpoint.PathStyle.String())
	require.Equal(t, "custom-domain", endpoint.CustomDomain.String())
	require.Equal(t, "unknown", endpoint.Mode(42).String())
}
