package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplSessionRelexesGrowingDocument(t *testing.T) {
	var out bytes.Buffer
	s := newReplSession(&out, false)

	assert.True(t, s.eval("Hello"))
	assert.Equal(t, "1:1\tTEXT\t\"Hello\"\n1:6\tNEWLINE\t\"\\n\"\n", out.String())

	out.Reset()
	assert.True(t, s.eval("world"))
	assert.Contains(t, out.String(), "1:6\tSOFT_LINE_BREAK\t\"\\n\"")
	assert.Contains(t, out.String(), "2:1\tTEXT\t\"world\"")

	out.Reset()
	assert.True(t, s.eval(":doc"))
	assert.Equal(t, "Hello\nworld\n", out.String())
}

func TestReplSessionCommands(t *testing.T) {
	var out bytes.Buffer
	s := newReplSession(&out, false)

	s.eval("```go")
	out.Reset()
	s.eval(":state")
	assert.Equal(t, "fence=true frontmatter=false list=false indent=[0]\n", out.String())

	out.Reset()
	s.eval(":reset")
	s.eval(":state")
	assert.Equal(t, "fence=false frontmatter=false list=false indent=[0]\n", out.String())

	out.Reset()
	s.eval(":bogus")
	assert.Contains(t, out.String(), "unknown command :bogus")

	out.Reset()
	s.eval(":help")
	assert.Equal(t, replHelp+"\n", out.String())

	assert.False(t, s.eval(":quit"))
}

func TestReplSessionOnlyPrintsChangedLines(t *testing.T) {
	var out bytes.Buffer
	s := newReplSession(&out, false)

	s.eval("first")
	s.eval("")
	out.Reset()
	s.eval("second")

	assert.NotContains(t, out.String(), "first")
	assert.Contains(t, out.String(), "3:1\tTEXT\t\"second\"")
}
