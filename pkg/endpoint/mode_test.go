package endpoint_test

import (
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/stretchr/testify/require"
	"testing"
	"testing/quick"
)

func TestIsIPOrLocalhost(t *testing.T) {
	for _, host := range []string{
		"127.0.0.1",
		"192.168.1.1:9000",
		"::1",
		"[::1]",
		"[2001:db8::1]:443",
		"fe80::1%eth0",
		"localhost",
		"LocalHost:8080",
	} {
		require.True(t, endpoint.IsIPOrLocalhost(host), "host %q", host)
	}

	for _, host := range []string{
		"oss-cn-hangzhou.aliyuncs.com",
		"oss-cn-hangzhou.aliyuncs.com:80",
		"localhost.localstack.cloud",
		"cdn.example.com",
		"256.1.1.1",
	} {
		require.False(t, endpoint.IsIPOrLocalhost(host), "host %q", host)
	}
}

func TestValidBucketName(t *testing.T) {
	for _, name := range []string{
		"abc",
		"my-bucket",
		"0bucket9",
		"a-1",
		"abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijk",
	} {
		require.True(t, endpoint.ValidBucketName(name), "bucket %q", name)
	}

	for _, name := range []string{
		"",
		"ab",
		"My_Bucket",
		"my.bucket",
		"-bucket",
		"bucket-",
		"Bucket",
		"abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyzabcdefghijkl",
	} {
		require.False(t, endpoint.ValidBucketName(name), "bucket %q", name)
	}
}

func TestResolveIPAlwaysPathStyle(t *testing.T) {
	f := func(a, b, c, d uint8, port uint16, isCustomDomain bool, bucket string) bool {
		ipv4 := fmt.Sprintf("%d.%d.%d.%d", a, b, c, d)
		ipv6 := fmt.Sprintf("[2001:db8::%x:%x]", a, d)

		for _, host := range []string{ipv4, ipv6, fmt.Sprintf("%s:%d", ipv4, port),
			fmt.Sprintf("%s:%d", ipv6, port), "localhost"} {
			if endpoint.Resolve(host, isCustomDomain, bucket) != endpoint.PathStyle {
				return false
			}
		}

		return true
	}

	require.NoError(t, quick.Check(f, &quick.Config{
		MaxCount: 10_000,
	}))
}

func TestResolveCustomDomain(t *testing.T) {
	f := func(bucket string) bool {
		return endpoint.Resolve("cdn.example.com", true, bucket) == endpoint.CustomDomain
	}

	require.NoError(t, quick.Check(f, nil))
}

func TestResolveByBucketName(t *testing.T) {
	f := func(bucket string) bool {
		mode := endpoint.Resolve("oss-cn-hangzhou.aliyuncs.com", false, bucket)

		if endpoint.ValidBucketName(bucket) {
			return mode == endpoint.VirtualHosted
		}

		return mode == endpoint.PathStyle
	}

	require.NoError(t, quick.Check(f, &quick.Config{
		MaxCount: 10_000,
	}))

	require.Equal(t, endpoint.VirtualHosted, endpoint.Resolve("oss-cn-hangzhou.aliyuncs.com", false, "my-bucket"))
	require.Equal(t, endpoint.PathStyle, endpoint.Resolve("oss-cn-hangzhou.aliyuncs.com", false, "My_Bucket"))
	require.Equal(t, endpoint.PathStyle, endpoint.Resolve("oss-cn-hangzhou.aliyuncs.com", false, ""))
}
