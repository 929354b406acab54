package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

const defaultLookupTimeout = 3 * time.Second

// Domain returns the part after the last @, lower-cased.
func Domain(email string) (string, bool) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", false
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:])), true
}

// DomainChecker tells whether an e-mail domain can receive mail: it has an
// MX record or at least resolves to an address.
type DomainChecker struct {
	resolver *net.Resolver
	timeout  time.Duration
}

func NewDomainChecker(resolver *net.Resolver, timeout time.Duration) *DomainChecker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &DomainChecker{resolver: resolver, timeout: timeout}
}

func (d *DomainChecker) Valid(ctx context.Context, email string) bool {
	domain, ok := Domain(email)
	if !ok || !strings.Contains(domain, ".") {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if mx, err := d.resolver.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}
	if ips, err := d.resolver.LookupIPAddr(ctx, domain); err == nil && len(ips) > 0 {
		return true
	}
	return false
}

var defaultChecker = NewDomainChecker(nil, 0)

// IsEmailDomainValid checks with the default resolver and timeout.
func IsEmailDomainValid(email string) bool {
	return defaultChecker.Valid(context.Background(), email)
}
