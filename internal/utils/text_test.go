package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountWords(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "empty", input: "", expected: 0},
		{name: "single", input: "sunset", expected: 1},
		{name: "sentence", input: "a calm sunset over the ocean", expected: 6},
		{name: "extra whitespace", input: "  a   calm\nsunset ", expected: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CountWords(tt.input))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		maxLength int
		expected  string
	}{
		{name: "short stays", input: "moody", maxLength: 10, expected: "moody"},
		{name: "long cut", input: "a very long description", maxLength: 6, expected: "a very"},
		{name: "exact length", input: "abc", maxLength: 3, expected: "abc"},
		{name: "blank falls back", input: "   ", maxLength: 10, expected: "Unknown"},
		{name: "empty falls back", input: "", maxLength: 10, expected: "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Truncate(tt.input, tt.maxLength))
		})
	}
}

func TestCleanCodeBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text untouched", input: "a calm sunset", expected: "a calm sunset"},
		{name: "bare fences", input: "```\na calm sunset\n```", expected: "a calm sunset"},
		{name: "json fence", input: "```json\n{\"a\":1}\n```", expected: "{\"a\":1}"},
		{name: "surrounding whitespace", input: "  a calm sunset \n", expected: "a calm sunset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanCodeBlock(tt.input))
		})
	}
}
