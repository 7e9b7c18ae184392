package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/standardbeagle/magentointel/internal/types"
)

func TestAssemble(t *testing.T) {
	members := types.MemberSet{
		"setData": {Name: "setData", Kind: types.MemberMethod, Parameters: []string{"key", "value"}},
		"getId":   {Name: "getId", Kind: types.MemberMethod, Parameters: []string{}},
		"isNew":   {Name: "isNew", Kind: types.MemberProperty},
	}
	got := Assemble(types.ResolvedClass{Name: "Foo_Bar_Model_Baz", AccessContext: types.AccessPrivate}, members)

	assert.Equal(t, []types.CompletionEntry{
		{Label: "getId\tFoo_Bar_Model_Baz", InsertText: "getId()"},
		{Label: "isNew\tFoo_Bar_Model_Baz", InsertText: "isNew"},
		{Label: "setData\tFoo_Bar_Model_Baz", InsertText: `setData(${1:\$key}, ${2:\$value})`},
	}, got)
}

func TestAssemble_Static(t *testing.T) {
	members := types.MemberSet{
		"STATUS_ACTIVE": {Name: "STATUS_ACTIVE", Kind: types.MemberConstant},
		"instances":     {Name: "instances", Kind: types.MemberProperty},
		"load":          {Name: "load", Kind: types.MemberMethod, Parameters: []string{"id"}},
	}
	got := Assemble(types.ResolvedClass{Name: "Mage_Catalog_Model_Product", AccessContext: types.AccessStatic}, members)

	assert.Equal(t, []types.CompletionEntry{
		{Label: "STATUS_ACTIVE\tMage_Catalog_Model_Product", InsertText: "STATUS_ACTIVE"},
		{Label: "instances\tMage_Catalog_Model_Product", InsertText: "$instances"},
		{Label: "load\tMage_Catalog_Model_Product", InsertText: `load(${1:\$id})`},
	}, got)
}

func TestAssemble_Empty(t *testing.T) {
	assert.Empty(t, Assemble(types.ResolvedClass{}, types.MemberSet{"a": {Name: "a"}}))
	assert.Empty(t, Assemble(types.ResolvedClass{Name: "A"}, nil))
	assert.NotNil(t, Assemble(types.ResolvedClass{Name: "A"}, types.MemberSet{}))
}

func TestSnippet(t *testing.T) {
	tests := []struct {
		name   string
		info   types.MemberInfo
		access types.AccessContext
		want   string
	}{
		{"method without parameters", types.MemberInfo{Name: "getId", Kind: types.MemberMethod}, types.AccessPublic, "getId()"},
		{"method with parameters", types.MemberInfo{Name: "load", Kind: types.MemberMethod, Parameters: []string{"id", "field"}}, types.AccessPublic, `load(${1:\$id}, ${2:\$field})`},
		{"property", types.MemberInfo{Name: "isNew", Kind: types.MemberProperty}, types.AccessPublic, "isNew"},
		{"private property", types.MemberInfo{Name: "_data", Kind: types.MemberProperty}, types.AccessPrivate, "_data"},
		{"static property", types.MemberInfo{Name: "instances", Kind: types.MemberProperty}, types.AccessStatic, "$instances"},
		{"constant", types.MemberInfo{Name: "CACHE_TAG", Kind: types.MemberConstant}, types.AccessStatic, "CACHE_TAG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Snippet(tt.info, tt.access))
		})
	}
}

func TestRankByPrefix(t *testing.T) {
	entries := []types.CompletionEntry{
		{Label: "getData\tA", InsertText: "getData()"},
		{Label: "getId\tA", InsertText: "getId()"},
		{Label: "load\tA", InsertText: "load()"},
		{Label: "save\tA", InsertText: "save()"},
		{Label: "setData\tA", InsertText: "setData()"},
	}

	got := RankByPrefix(entries, "get", 0.99)
	assert.Equal(t, []string{"getData\tA", "getId\tA"}, labels(got))

	got = RankByPrefix(entries, "GETI", 0.99)
	assert.Equal(t, []string{"getId\tA"}, labels(got), "prefix match ignores case")

	got = RankByPrefix(entries, "setDta", 0.8)
	assert.Equal(t, "setData\tA", got[0].Label, "close misspellings survive the threshold")

	assert.Empty(t, RankByPrefix(entries, "zzzz", 0.7))
	assert.Equal(t, entries, RankByPrefix(entries, "", 0.7))
}

func TestRankByPrefix_PrefixBeforeFuzzy(t *testing.T) {
	entries := []types.CompletionEntry{
		{Label: "sav\tA"},
		{Label: "saveAll\tA"},
		{Label: "save\tA"},
	}
	got := RankByPrefix(entries, "save", 0)
	assert.Equal(t, []string{"save\tA", "saveAll\tA", "sav\tA"}, labels(got))
}

func TestLimit(t *testing.T) {
	entries := []types.CompletionEntry{{Label: "a"}, {Label: "b"}, {Label: "c"}}
	assert.Len(t, Limit(entries, 2), 2)
	assert.Len(t, Limit(entries, 0), 3)
	assert.Len(t, Limit(entries, 10), 3)
}

func TestMemberName(t *testing.T) {
	assert.Equal(t, "getId", MemberName("getId\tFoo"))
	assert.Equal(t, "plain", MemberName("plain"))
}

func labels(entries []types.CompletionEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Label
	}
	return out
}
