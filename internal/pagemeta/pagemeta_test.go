package pagemeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCountsElements(t *testing.T) {
	source := `<!DOCTYPE html>
<html>
<head><title> 体检合格证明下载 </title></head>
<body>
  <form action="/search">
    <input type="text" name="q">
    <select><option>a</option></select>
    <textarea></textarea>
  </form>
  <table>
    <tr><td>体检合格证明</td><td><a href="/blank.pdf">空白表格</a> <a href="/sample.pdf">示例样表</a></td></tr>
  </table>
  <img src="/logo.png">
  <a href="/help">帮助</a>
</body>
</html>`

	m, err := Parse(source)
	require.NoError(t, err)
	assert.Equal(t, "体检合格证明下载", m.Title)
	assert.Equal(t, 3, m.Links)
	assert.Equal(t, 1, m.Images)
	assert.Equal(t, 1, m.Forms)
	assert.Equal(t, 3, m.Inputs)
}

func TestParseMalformedMarkup(t *testing.T) {
	// Unclosed tags parse the way a browser would, without error.
	m, err := Parse(`<html><body><a href="/x">one<a href="/y">two`)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Links)
}

func TestParseEmpty(t *testing.T) {
	m, err := Parse("")
	require.NoError(t, err)
	assert.Zero(t, m.Links)
	assert.Empty(t, m.Title)
}
