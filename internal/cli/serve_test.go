package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServe_StopsOnCancel(t *testing.T) {
	opts := &ServeOptions{
		RootOptions: &RootOptions{Format: "text", ConfigPath: writeConfig(t)},
		Address:     "127.0.0.1:0",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- runServe(ctx, opts) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after context cancellation")
	}
}

func TestRunServe_BadConfig(t *testing.T) {
	opts := &ServeOptions{RootOptions: &RootOptions{Format: "text", ConfigPath: "testdata/missing.yaml"}}

	err := runServe(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
