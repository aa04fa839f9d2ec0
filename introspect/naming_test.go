package introspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamingPolicies(t *testing.T) {
	cases := []struct {
		policy NamingPolicy
		in     string
		want   string
	}{
		{Identity, "HTTPServerID", "HTTPServerID"},
		{UpperCamelCase, "someField", "SomeField"},
		{UpperCamelCaseWithSpaces, "SomeFieldName", "Some Field Name"},
		{LowerCaseWithUnderscores, "HTTPServerID", "http_server_id"},
		{LowerCaseWithUnderscores, "Already_Snake", "already_snake"},
		{LowerCaseWithDashes, "SomeFieldID", "some-field-id"},
		{LowerCamelCase, "SomeFieldID", "someFieldID"},
		{LowerCamelCase, "URLPath", "urlPath"},
		{LowerCaseWithUnderscores, "Version2Name", "version2_name"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.policy.Apply(tc.in), "%s(%s)", tc.policy, tc.in)
	}
}

func TestSplitWords(t *testing.T) {
	assert.Equal(t, []string{"HTTP", "Server", "ID2"}, splitWords("HTTPServerID2"))
	assert.Equal(t, []string{"a"}, splitWords("a"))
	assert.Empty(t, splitWords(""))
}

func TestParseNamingPolicy(t *testing.T) {
	for p := range namingPolicyNames {
		got, err := ParseNamingPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParseNamingPolicy("")
	require.NoError(t, err)
	assert.Equal(t, Identity, got)

	_, err = ParseNamingPolicy("kebab")
	assert.Error(t, err)
}
