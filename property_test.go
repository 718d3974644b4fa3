package propix_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propix/propix"
)

func TestProperty_Address(t *testing.T) {
	t.Parallel()

	p := &propix.Property{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62704"}
	assert.Equal(t, "123 Main St, Springfield, IL 62704", p.Address())

	partial := &propix.Property{Street: "123 Main St", City: "Springfield"}
	assert.Equal(t, "123 Main St, Springfield", partial.Address())
}

func TestPropertyKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		property *propix.Property
		want     string
	}{
		{
			name:     "full address",
			property: &propix.Property{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62704"},
			want:     "123-main-st-springfield-il-62704",
		},
		{
			name:     "punctuation collapsed",
			property: &propix.Property{Street: "45-B O'Brien Rd.", City: "St. Paul"},
			want:     "45-b-o-brien-rd-st-paul",
		},
		{
			name:     "street only",
			property: &propix.Property{Street: "789 Pine Rd"},
			want:     "789-pine-rd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, propix.PropertyKey(tt.property))
		})
	}
}

func TestProperty_Validate(t *testing.T) {
	t.Parallel()

	valid := &propix.Property{Key: "k", Street: "123 Main St"}
	assert.NoError(t, valid.Validate())

	missingKey := &propix.Property{Street: "123 Main St"}
	assert.Equal(t, propix.EINVALID, propix.ErrorCode(missingKey.Validate()))

	missingStreet := &propix.Property{Key: "k"}
	assert.Equal(t, propix.EINVALID, propix.ErrorCode(missingStreet.Validate()))
}
