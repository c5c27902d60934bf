package progressbar

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualProgressBar(t *testing.T) {
	var out bytes.Buffer
	p := NewManualProgressBar(&out, 4, 2)
	assert.Equal(t, "|    | [0.00%]", p.String())

	p.Increment()
	assert.Equal(t, "|██  | [50.00%]", p.String())

	p.Increment()
	p.Increment()
	assert.Equal(t, 1.0, p.Fraction())
	assert.Equal(t, "|████| [100.00%]", p.String())

	p.Display()
	assert.True(t, strings.Contains(out.String(), "[100.00%]"))

	assert.Panics(t, func() { NewManualProgressBar(&out, 0, 1) })
}
