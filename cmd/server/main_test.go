package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("listen tcp: address already in use")))
}

func TestSplitList(t *testing.T) {
	testCases := []struct {
		name   string
		values []string
		want   []string
	}{
		{name: "flag values", values: []string{"https://a.example", "https://b.example"}, want: []string{"https://a.example", "https://b.example"}},
		{name: "comma separated env", values: []string{"https://a.example, https://b.example"}, want: []string{"https://a.example", "https://b.example"}},
		{name: "blank parts", values: []string{" ,*, "}, want: []string{"*"}},
		{name: "empty", values: nil, want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitList(tc.values))
		})
	}
}
