package engine

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func objectTokens(keys ...string) []Token {
	toks := []Token{{Kind: KindBeginObject}}
	for _, k := range keys {
		toks = append(toks, Token{Kind: KindKey, String: k}, Token{Kind: KindNumber, Number: "1"})
	}
	return append(toks, Token{Kind: KindEndObject})
}

func drain(src TokenSource) error {
	for {
		if _, err := src.NextToken(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func TestEnforce_DuplicateKeyError(t *testing.T) {
	src := WrapWithEnforcement(&SliceSource{Tokens: objectTokens("a", "b", "a")}, EnforceOptions{OnDuplicate: DupError})
	err := drain(src)
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, CodeDuplicateKey, ie.Code)
	require.Equal(t, "/a", ie.Path)
}

func TestEnforce_DuplicateKeyWarnReportsAndContinues(t *testing.T) {
	var got []SimpleIssue
	src := WrapWithEnforcement(&SliceSource{Tokens: objectTokens("a", "a")}, EnforceOptions{
		OnDuplicate: DupWarn,
		IssueSink:   func(si SimpleIssue) { got = append(got, si) },
	})
	require.NoError(t, drain(src))
	require.Len(t, got, 1)
	require.Equal(t, CodeDuplicateKey, got[0].Code)
}

func TestEnforce_MaxDepth(t *testing.T) {
	toks := []Token{
		{Kind: KindBeginArray},
		{Kind: KindBeginArray},
		{Kind: KindBeginArray},
		{Kind: KindEndArray},
		{Kind: KindEndArray},
		{Kind: KindEndArray},
	}
	err := drain(WrapWithEnforcement(&SliceSource{Tokens: toks}, EnforceOptions{MaxDepth: 2}))
	var ie IssueError
	require.ErrorAs(t, err, &ie)
	require.Equal(t, CodeMaxDepth, ie.Code)
	require.Equal(t, "/0/0", ie.Path)
}

func TestFramer_KeysAndValues(t *testing.T) {
	var f Framer
	f.OpenObject()
	require.True(t, f.IsKey())
	require.False(t, f.IsKey())
	f.ValueDone()
	require.True(t, f.IsKey())
	f.OpenArray()
	require.False(t, f.IsKey())
	f.Close()
	require.True(t, f.IsKey())
}
