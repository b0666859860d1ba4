package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunPrintsUsageOnMissingArgs(t *testing.T) {
	stderr := new(bytes.Buffer)
	assert.Equal(t, 2, run(context.Background(), []string{"migrate"}, new(bytes.Buffer), stderr))
	assert.Contains(t, stderr.String(), "orbitctl migrate up|down|version")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"deploy", "now"}, new(bytes.Buffer), stderr))
	assert.Contains(t, stderr.String(), "orbitctl jobs stats")
}
