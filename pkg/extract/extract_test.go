package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Store front</title></head>
<body>
<a href="/product?id=1">Product one</a>
<a href="/product?id=2#reviews">Product two</a>
<a href="https://other.example.com/out">External</a>
<a href="javascript:void(0)">Menu</a>
<a href="mailto:shop@example.com">Mail</a>
<a href="/product?id=1">Product one again</a>
<form action="/search" method="post">
  <input type="text" name="q" value="widgets">
  <input type="hidden" name="csrf" value="tok123">
  <input type="submit" value="Go">
  <textarea name="notes">default text</textarea>
  <select name="sort">
    <option value="price">Price</option>
    <option value="name">Name</option>
  </select>
</form>
<form>
  <input name="email">
</form>
</body>
</html>`

func mustBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParse_Links(t *testing.T) {
	base := mustBase(t, "http://shop.example.com/home")
	page := Parse(samplePage, base)

	assert.Equal(t, "Store front", page.Title)
	assert.Equal(t, []string{
		"http://shop.example.com/product?id=1",
		"http://shop.example.com/product?id=2",
		"https://other.example.com/out",
	}, page.Links)
}

func TestParse_Forms(t *testing.T) {
	base := mustBase(t, "http://shop.example.com/home")
	forms := Forms(samplePage, base)
	require.Len(t, forms, 2)

	search := forms[0]
	assert.Equal(t, "http://shop.example.com/search", search.Action)
	assert.Equal(t, "POST", search.Method)
	require.Len(t, search.Fields, 4)

	byName := map[string]Field{}
	for _, f := range search.Fields {
		byName[f.Name] = f
	}
	assert.Equal(t, "widgets", byName["q"].Value)
	assert.Equal(t, "hidden", byName["csrf"].Type)
	assert.Equal(t, "default text", byName["notes"].Value)
	assert.Equal(t, "select", byName["sort"].Type)
	assert.Equal(t, "price", byName["sort"].Value)

	// A form without action submits to the current page.
	bare := forms[1]
	assert.Equal(t, base.String(), bare.Action)
	assert.Equal(t, "GET", bare.Method)
	require.Len(t, bare.Fields, 1)
	assert.Equal(t, "email", bare.Fields[0].Name)
}

func TestParse_UnnamedInputsSkipped(t *testing.T) {
	base := mustBase(t, "http://example.com/")
	forms := Forms(`<form><input type="text"><input name="ok"></form>`, base)
	require.Len(t, forms, 1)
	require.Len(t, forms[0].Fields, 1)
	assert.Equal(t, "ok", forms[0].Fields[0].Name)
}

func TestParse_ButtonControlsExcluded(t *testing.T) {
	base := mustBase(t, "http://example.com/")
	forms := Forms(`<form>
		<input type="submit" name="go" value="Go">
		<input type="button" name="b">
		<input type="reset" name="r">
		<input type="file" name="upload">
		<input type="image" name="img">
		<input type="number" name="qty" value="1">
		<input type="password" name="pw">
	</form>`, base)
	require.Len(t, forms, 1)
	require.Len(t, forms[0].Fields, 2)
	assert.Equal(t, "qty", forms[0].Fields[0].Name)
	assert.Equal(t, "pw", forms[0].Fields[1].Name)
}

func TestParse_BrokenMarkup(t *testing.T) {
	base := mustBase(t, "http://example.com/")
	page := Parse(`<a href="/x">unclosed <form><input name="f"`, base)
	assert.Contains(t, page.Links, "http://example.com/x")
	require.Len(t, page.Forms, 1)
}

func TestResolveRef_SchemesAndFragments(t *testing.T) {
	base := mustBase(t, "http://example.com/dir/page")
	assert.Equal(t, "http://example.com/dir/rel", resolveRef("rel", base))
	assert.Equal(t, "http://example.com/abs", resolveRef("/abs", base))
	assert.Equal(t, "", resolveRef("#top", base))
	assert.Equal(t, "", resolveRef("javascript:alert(1)", base))
	assert.Equal(t, "", resolveRef("ftp://example.com/file", base))
	assert.Equal(t, "http://example.com/p", resolveRef("/p#frag", base))
}
