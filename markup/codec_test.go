package markup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_CanonicalOrder(t *testing.T) {
	v := NewObject(S("name", "W"), S("tag", "x-widget"), S("id", "7"))

	got, err := Encode(v, "product", CloudNamespace)
	require.NoError(t, err)

	want := `<?xml version="1.0"?>
<product xmlns="http://cloud.firebrandtech.com/">
  <id>7</id>
  <tag>x-widget</tag>
  <name>W</name>
</product>
`
	assert.Equal(t, want, string(got))
}

func TestEncode_ByteIdenticalRegardlessOfInsertionOrder(t *testing.T) {
	a := NewObject(S("status-tag", "CLD_AS_Pending"), S("product-id", "3"), S("tag", "t"), F("flags", NewObject(S("y", "1"), S("x", "2"))))
	b := NewObject(F("flags", NewObject(S("x", "2"), S("y", "1"))), S("tag", "t"), S("product-id", "3"), S("status-tag", "CLD_AS_Pending"))

	encA, err := Encode(a, "asset", CloudNamespace)
	require.NoError(t, err)
	encB, err := Encode(b, "asset", CloudNamespace)
	require.NoError(t, err)

	assert.Equal(t, string(encA), string(encB))
}

func TestEncode_EscapingAttributesContentAndLists(t *testing.T) {
	link := &Object{}
	link.SetAttr("rel", `"self"`)
	link.SetAttr("href", "http://x/?a=1&b=2")

	note := &Object{Content: "raw <b>bold</b> ]]> end"}
	note.SetAttr("lang", "en")

	v := NewObject(
		S("title", `Tom & Jerry's <"Adventures">`),
		F("available", Bool(true)),
		F("link", link.Value()),
		F("note", note.Value()),
		F("isbn", List(Scalar("1"), Scalar("2"))),
	)

	got, err := Encode(v, "product", "")
	require.NoError(t, err)

	want := `<?xml version="1.0"?>
<product>
  <available>true</available>
  <isbn>1</isbn>
  <isbn>2</isbn>
  <link href="http://x/?a=1&amp;b=2" rel="&quot;self&quot;"/>
  <note lang="en"><![CDATA[raw <b>bold</b> ]]]]><![CDATA[> end]]></note>
  <title>Tom &amp; Jerry&apos;s &lt;&quot;Adventures&quot;&gt;</title>
</product>
`
	assert.Equal(t, want, string(got))
}

func TestEncode_NumericFieldNamesRepeatParent(t *testing.T) {
	v := NewObject(F("isbn", NewObject(S("0", "111"), S("1", "222"))))

	got, err := Encode(v, "filter", "")
	require.NoError(t, err)

	want := `<?xml version="1.0"?>
<filter>
  <isbn>
    <isbn>111</isbn>
    <isbn>222</isbn>
  </isbn>
</filter>
`
	assert.Equal(t, want, string(got))
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(NewObject(F("a", List(List(Scalar("x"))))), "root", "")
	assert.True(t, errors.Is(err, ErrNestedList))

	_, err = Encode(List(Scalar("x")), "root", "")
	assert.Error(t, err)

	_, err = Encode(Scalar("x"), "", "")
	assert.Error(t, err)
}

func TestDecode_Shapes(t *testing.T) {
	doc := `<?xml version="1.0" encoding="utf-8"?>
<assets xmlns="http://cloud.firebrandtech.com/" xmlns:i="http://www.w3.org/2001/XMLSchema-instance">
  <total>2</total>
  <asset>
    <id>10</id>
    <tag>a</tag>
  </asset>
  <asset>
    <id>11</id>
    <tag>b</tag>
  </asset>
  <owner kind="publisher" i:type="x">Acme</owner>
  <description><![CDATA[<p>hi</p>]]></description>
  <single>
    <id>12</id>
  </single>
</assets>`

	root, v, err := DecodeRoot([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "assets", root)

	assert.Equal(t, "2", v.String("total"))

	assets, ok := v.Field("asset")
	require.True(t, ok)
	require.True(t, assets.IsList())
	require.Len(t, assets.Items(), 2)
	assert.Equal(t, "10", assets.Items()[0].String("id"))
	assert.Equal(t, "b", assets.Items()[1].String("tag"))

	owner, ok := v.Field("owner")
	require.True(t, ok)
	require.True(t, owner.IsObject())
	assert.Equal(t, "publisher", owner.Object().Attr("kind"))
	assert.Equal(t, "x", owner.Object().Attr("type"))
	assert.Equal(t, "Acme", owner.Text())
	assert.NotContains(t, owner.Object().Attributes, "xmlns")

	assert.Equal(t, "<p>hi</p>", v.String("description"))

	single, ok := v.Field("single")
	require.True(t, ok)
	assert.True(t, single.IsObject(), "a single occurrence must not decode as a list")
	assert.Len(t, single.Items(), 1)
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "empty", doc: ""},
		{name: "unclosed", doc: "<a><b>x</b>"},
		{name: "mismatched", doc: "<a></b>"},
		{name: "two roots", doc: "<a/><b/>"},
		{name: "plain text", doc: "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.doc))
			var malformed *MalformedMarkupError
			assert.True(t, errors.As(err, &malformed), "got %v", err)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	cover := &Object{}
	cover.SetAttr("href", "https://cdn/x.jpg")
	cover.SetAttr("width", "600")

	v := NewObject(
		S("title", "A & B <c>"),
		S("id", "42"),
		F("contributor", NewObject(S("role", "A01"), S("name", "Jane 'JD' Doe"))),
		F("cover", cover.Value()),
		F("price", NewObject(S("currency", "USD"), F("amount", NewObject(S("value", "9.99"))))),
		S("spaced", "  keep  "),
	)

	enc, err := Encode(v, "product", CloudNamespace)
	require.NoError(t, err)

	root, got, err := DecodeRoot(enc)
	require.NoError(t, err)
	assert.Equal(t, "product", root)
	assert.Equal(t, Canonicalize(v), got)
}

func TestRoundTrip_RepeatedFields(t *testing.T) {
	v := NewObject(F("asset", List(NewObject(S("id", "1")), NewObject(S("id", "2")))))

	enc, err := Encode(v, "assets", "")
	require.NoError(t, err)

	got, err := Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestFromInterface(t *testing.T) {
	in := map[string]interface{}{
		"name":        "W",
		"id":          float64(7),
		"active":      true,
		"isbn":        []interface{}{"1", "2"},
		AttributesKey: map[string]interface{}{"version": "2"},
	}

	v, err := FromInterface(in)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "active", "isbn", "name"}, v.Object().Names())
	assert.Equal(t, "7", v.String("id"))
	assert.Equal(t, "true", v.String("active"))
	assert.Equal(t, "2", v.Object().Attr("version"))

	back := ToInterface(v).(map[string]interface{})
	assert.Equal(t, "W", back["name"])
	assert.Equal(t, []interface{}{"1", "2"}, back["isbn"])
	assert.Equal(t, map[string]interface{}{"version": "2"}, back[AttributesKey])

	_, err = FromInterface(map[string]interface{}{"bad": struct{}{}})
	assert.Error(t, err)
}

func TestIsElementName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"", false},
		{"  ", false},
		{"0", false},
		{"12", false},
		{" 7 ", false},
		{"-1", false},
		{"+1.5", false},
		{".5", false},
		{"1.", false},
		{"1e3", false},
		{"2E-4", false},
		{"isbn", true},
		{"inf", true},
		{"NaN", true},
		{"Infinity", true},
		{"0x1A", true},
		{"1e", true},
		{"1_000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isElementName(tt.name))
		})
	}
}

func TestEncode_NonNumericNamesKeepTheirElement(t *testing.T) {
	got, err := Encode(NewObject(S("NaN", "v"), S("inf", "w")), "root", "")
	require.NoError(t, err)

	want := `<?xml version="1.0"?>
<root>
  <NaN>v</NaN>
  <inf>w</inf>
</root>
`
	assert.Equal(t, want, string(got))
}

func TestEncode_InvalidNames(t *testing.T) {
	withAttr := &Object{}
	withAttr.SetAttr("bad attr", "x")

	values := map[string]Value{
		"space in field":     NewObject(S("a b", "v")),
		"markup in field":    NewObject(S("x<y", "z")),
		"digit first":        NewObject(S("1abc", "v")),
		"nested field":       NewObject(F("outer", NewObject(S("in valid", "v")))),
		"space in attribute": withAttr.Value(),
	}
	for name, v := range values {
		t.Run(name, func(t *testing.T) {
			_, err := Encode(v, "root", "")
			assert.True(t, errors.Is(err, ErrInvalidName), "got %v", err)
		})
	}

	_, err := Encode(NewObject(), "my root", "")
	assert.True(t, errors.Is(err, ErrInvalidName))
}

func TestIsXMLName(t *testing.T) {
	for _, name := range []string{"id", "status-tag", "_x", "a.b", "i:type", "größe", "x1"} {
		assert.True(t, isXMLName(name), name)
	}
	for _, name := range []string{"", "1a", "-a", ".a", "a b", "x<y", "a&b", "a\"b"} {
		assert.False(t, isXMLName(name), name)
	}
}

func TestDecode_LossyEdges(t *testing.T) {
	content := &Object{}
	content.SetContent("  padded  ")
	content.Set("child", Scalar("c"))

	enc, err := Encode(NewObject(F("note", content.Value()), F("empty", NewObject())), "root", "")
	require.NoError(t, err)

	got, err := Decode(enc)
	require.NoError(t, err)

	note, ok := got.Field("note")
	require.True(t, ok)
	assert.Equal(t, "padded", note.Text())
	assert.Equal(t, "c", note.String("child"))

	empty, ok := got.Field("empty")
	require.True(t, ok)
	assert.True(t, empty.IsScalar())
	assert.Equal(t, "", empty.Text())
}
