package buildsys

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildOutputSpinner(t *testing.T) {
	stderr := new(lockedBuffer)
	out := newBuildOutput(stderr, false, true, "building hello.rs")

	require.Contains(t, stderr.String(), "building hello.rs")

	fmt.Fprintln(out.writer, "compiling")
	require.Eventually(t, func() bool {
		return strings.Count(stderr.String(), "building hello.rs") > 1
	}, 2*time.Second, 50*time.Millisecond)

	out.Finish()
	require.Equal(t, "compiling\n", out.Captured())
	require.NotContains(t, stderr.String(), "compiling")
}

func TestBuildOutputQuiet(t *testing.T) {
	stderr := new(lockedBuffer)
	out := newBuildOutput(stderr, false, false, "building hello.rs")

	fmt.Fprintln(out.writer, "compiling")
	out.Finish()

	require.Empty(t, stderr.String())
	require.Equal(t, "compiling\n", out.Captured())
}

func TestBuildOutputStreams(t *testing.T) {
	stderr := new(lockedBuffer)
	out := newBuildOutput(stderr, true, true, "building hello.rs")

	fmt.Fprintln(out.writer, "compiling")
	out.Finish()

	require.Equal(t, "compiling\n", stderr.String())
	require.Empty(t, out.Captured())
}
