package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrintf_WritesToOut(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{Out: &buf}
	l.Printf("hello %s", "qwex")
	require.Equal(t, "hello qwex\n", buf.String())
}

func TestSucessf_ContainsMessage(t *testing.T) {
	l := New()
	require.Contains(t, l.Sucessf("built %s", "root"), "built root")
}

func TestErrorf_ReturnsError(t *testing.T) {
	l := New()
	err := l.Errorf("boom %d", 1)
	require.Contains(t, err.Error(), "boom 1")
}

func TestCompiledf_ContainsSourceAndOutput(t *testing.T) {
	l := New()
	msg := l.Compiledf("root.yaml", "./.qwex/target/qwex.sh")
	require.Contains(t, msg, "root.yaml")
	require.Contains(t, msg, "./.qwex/target/qwex.sh")
}
