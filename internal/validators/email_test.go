package validators

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomain(t *testing.T) {
	cases := []struct {
		email  string
		domain string
		ok     bool
	}{
		{"ana@Oficina.COM", "oficina.com", true},
		{"a@b@c.io", "c.io", true},
		{"sem-arroba", "", false},
		{"@oficina.com", "", false},
		{"ana@", "", false},
	}
	for _, tc := range cases {
		d, ok := Domain(tc.email)
		assert.Equal(t, tc.ok, ok, tc.email)
		assert.Equal(t, tc.domain, d, tc.email)
	}
}

func TestValidRejectsWithoutLookup(t *testing.T) {
	c := NewDomainChecker(nil, 0)
	ctx := context.Background()

	assert.False(t, c.Valid(ctx, "ana"))
	assert.False(t, c.Valid(ctx, "ana@localhost"))
}
