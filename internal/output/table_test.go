package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "ID", "NAME", "SERIAL")
	table.AddRow("12", "Lab-01", "AAA")
	table.AddRow("13", "Office-01", "BBB")

	require.NoError(t, table.Render())
	assert.Equal(t, 2, table.Len())

	out := buf.String()
	assert.Regexp(t, `ID\W+NAME\W+SERIAL`, out)
	assert.Regexp(t, `12\W+Lab-01\W+AAA`, out)
	assert.Regexp(t, `13\W+Office-01\W+BBB`, out)
	assert.Less(t, strings.Index(out, "Lab-01"), strings.Index(out, "Office-01"), "rows keep insertion order")
}

func TestTable_EmptyRendersHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, "VALUE", "COUNT")

	require.NoError(t, table.Render())
	assert.Contains(t, buf.String(), "VALUE")
	assert.Equal(t, 0, table.Len())
}
