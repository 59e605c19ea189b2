package buildsys

import (
	"bytes"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// buildOutput collects the output of build commands. It either streams to the user or buffers the
// output (with a spinner on interactive terminals) so that it can be shown if the build fails.
type buildOutput struct {
	writer io.Writer
	buffer *lockedBuffer
	bar    *progressbar.ProgressBar
}

type lockedBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func newBuildOutput(stderr io.Writer, showLogs, interactive bool, desc string) *buildOutput {
	if showLogs {
		return &buildOutput{writer: stderr}
	}

	out := &buildOutput{buffer: new(lockedBuffer)}
	out.writer = out.buffer

	if interactive {
		out.bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(stderr),
			progressbar.OptionSetDescription(desc),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetRenderBlankState(true),
		)
	}

	return out
}

// Captured returns the buffered output; it's empty if the output was streamed.
func (o *buildOutput) Captured() string {
	if o.buffer == nil {
		return ""
	}

	return o.buffer.String()
}

func (o *buildOutput) Finish() {
	if o.bar != nil {
		o.bar.Finish()
		o.bar = nil
	}
}
