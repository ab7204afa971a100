package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestYell(t *testing.T) {
	assert.Equal(t, "HELLO THERE!!!", yell("hello there"))
	assert.Equal(t, "!!!", yell(""))
}

func TestSarcasm(t *testing.T) {
	assert.Equal(t, "HeLlO \U0001F643", sarcasm("hello"))
	assert.Equal(t, "HeLlO ThErE \U0001F643", sarcasm("hello there"))
	assert.Equal(t, " \U0001F643", sarcasm(""))
}
