package endpoint

import (
	"net"
	"net/netip"
	"regexp"
	"strings"
)

type Mode int

const (
	VirtualHosted Mode = iota
	PathStyle
	CustomDomain
)

func (mode Mode) String() string {
	switch mode {
	case VirtualHosted:
		return "virtual-hosted"
	case PathStyle:
		return "path-style"
	case CustomDomain:
		return "custom-domain"
	default:
		return "unknown"
	}
}

var bucketNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// Resolve picks the addressing mode for a bucket. The first matching rule wins:
// IP or loopback hosts always use path-style, custom domains are used as-is,
// valid bucket names become subdomains and everything else falls back
// to path-style.
func Resolve(host string, isCustomDomain bool, bucket string) Mode {
	if IsIPOrLocalhost(host) {
		return PathStyle
	}

	if isCustomDomain {
		return CustomDomain
	}

	if ValidBucketName(bucket) {
		return VirtualHosted
	}

	return PathStyle
}

// ValidBucketName reports whether name can be used as a DNS label under
// the endpoint host: 3 to 63 lowercase letters, digits and hyphens,
// starting and ending with a letter or a digit.
func ValidBucketName(name string) bool {
	return bucketNameRe.MatchString(name)
}

// IsIPOrLocalhost accepts a network location with or without a port,
// IPv6 literals may be bracketed.
func IsIPOrLocalhost(host string) bool {
	hostname := host

	if splitHost, _, err := net.SplitHostPort(host); err == nil {
		hostname = splitHost
	}

	hostname = strings.TrimSuffix(strings.TrimPrefix(hostname, "["), "]")

	if strings.EqualFold(hostname, "localhost") {
		return true
	}

	_, err := netip.ParseAddr(hostname)

	return err == nil
}
