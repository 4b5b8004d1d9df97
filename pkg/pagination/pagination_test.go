package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults applied", Params{}, Params{Limit: DefaultLimit, Offset: 0}},
		{"limit capped", Params{Limit: 500, Offset: 10}, Params{Limit: MaxLimit, Offset: 10}},
		{"negative offset clamped", Params{Limit: 10, Offset: -3}, Params{Limit: 10, Offset: 0}},
		{"valid params untouched", Params{Limit: 50, Offset: 100}, Params{Limit: 50, Offset: 100}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.in))
		})
	}
}
