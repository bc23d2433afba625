package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareServerVersions(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{name: "equal", a: "4.0", b: "4.0", expected: 0},
		{name: "patch level above minimum", a: "4.0.28", b: "4.0", expected: 1},
		{name: "older major", a: "3.6.23", b: "4.0", expected: -1},
		{name: "newer major", a: "7.0.1", b: "4.0", expected: 1},
		{name: "minor comparison is numeric not lexical", a: "4.10", b: "4.9", expected: 1},
		{name: "enterprise suffix ignored", a: "4.0.28-ent", b: "4.0.28", expected: 0},
		{name: "release candidate compares on digits", a: "5.0.0-rc1", b: "4.4", expected: 1},
		{name: "missing component counts as zero", a: "4", b: "4.0", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compareServerVersions(tt.a, tt.b))
		})
	}
}
