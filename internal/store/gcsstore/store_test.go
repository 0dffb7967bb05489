package gcsstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		prefix string
		id     string
		want   string
	}{
		{"", "abc", "abc.json"},
		{"datasets", "abc", "datasets/abc.json"},
		{"datasets/", "abc", "datasets/abc.json"},
		{"a/b", "x-1", "a/b/x-1.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectName(tt.prefix, tt.id))
	}
}

func TestNew_RequiresBucket(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)
}
