package notify

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriterNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewWriterNotifier(&buf)
	n.Alert(context.Background(), "theme missing")
	n.Error(context.Background(), "ignored")
	require.Equal(t, "! theme missing\n", buf.String())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	n.Alert(context.Background(), "fatal thing")
	n.Error(context.Background(), "minor thing")
	require.Contains(t, buf.String(), "level=ERROR msg=\"fatal thing\" notification=alert")
	require.Contains(t, buf.String(), "level=WARN msg=\"minor thing\" notification=error")
}

func TestMultiAndRecorder(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi{a, Nop{}, b}
	m.Alert(context.Background(), "x")
	m.Error(context.Background(), "y")
	for _, r := range []*Recorder{a, b} {
		require.Equal(t, []string{"x"}, r.Alerts())
		require.Equal(t, []string{"y"}, r.Errors())
	}
}
