package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// ServiceURLOptions configures the validation of a remote service base URL.
type ServiceURLOptions struct {
	// AllowHTTP permits plain HTTP URLs. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback, private and link-local targets and
	// localhost hostnames.
	AllowLocalNetworks bool
}

// LocalServices accepts the default deployment, services reachable over plain
// HTTP on the same host or network.
var LocalServices = ServiceURLOptions{AllowHTTP: true, AllowLocalNetworks: true}

// Strict requires HTTPS towards a public host.
var Strict = ServiceURLOptions{}

// ValidateServiceURL checks that rawURL is usable as the base URL of a
// remote service. IP literals are checked without DNS lookups.
func ValidateServiceURL(rawURL string, opts ServiceURLOptions) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !opts.AllowHTTP {
			return errors.Errorf("http is not allowed for %q, use https", rawURL)
		}
	default:
		return errors.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return errors.Errorf("base URL %q must not carry a query or fragment", rawURL)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.Errorf("URL %q has no host", rawURL)
	}

	if !opts.AllowLocalNetworks {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
			return errors.Errorf("local hostname %q is not allowed", host)
		}
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		// not an IP literal
		return nil
	}
	if addr.Zone() != "" && !opts.AllowLocalNetworks {
		return errors.Errorf("zoned IP address %q is not allowed", host)
	}
	addr = addr.Unmap()

	if addr.IsUnspecified() || addr.IsMulticast() {
		return errors.Errorf("IP address %q cannot be a service address", host)
	}
	if !opts.AllowLocalNetworks {
		if addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
			return errors.Errorf("local network IP %q is not allowed", host)
		}
	}

	return nil
}
