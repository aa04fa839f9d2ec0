package gracedec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/introspect"
)

type IntModel struct {
	Value int `json:"value"`
}

type BoolModel struct {
	Value bool `json:"value"`
}

type Item struct {
	Value int `json:"value"`
}

type ListModel struct {
	List []Item `json:"list"`
}

type Child struct {
	Child string `json:"child"`
}

type Holder struct {
	Parent *Child  `json:"parent"`
	After  *string `json:"after"`
}

type Settings struct {
	Retries int      `json:"retries" default:"3"`
	Mode    string   `json:"mode" default:"fast"`
	Tags    []string `json:"tags" default:"[\"a\"]"`
}

type Optional struct {
	Nick *string `json:"nick"`
	Tag  *string `json:"tag" default:"x"`
	Tags []int   `json:"tags" graceful:"nullable"`
}

func newRegistry(t *testing.T, register func(r *gracedec.Registry) error, opts ...gracedec.Option) *gracedec.Registry {
	t.Helper()
	r := gracedec.NewRegistry(introspect.New(), opts...)
	require.NoError(t, register(r))
	require.NoError(t, r.Build())
	return r
}

func requireFailure(t *testing.T, err error) *gracedec.GracefulFailure {
	t.Helper()
	require.Error(t, err)
	gf, ok := gracedec.AsGracefulFailure(err)
	require.True(t, ok, "expected *GracefulFailure, got %T: %v", err, err)
	return gf
}

func TestRequiredInt(t *testing.T) {
	r := newRegistry(t, gracedec.Register[IntModel])

	got, err := gracedec.Unmarshal[IntModel](r, []byte(`{"value": 1}`))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Value)

	cases := []struct {
		in     string
		reason gracedec.Reason
	}{
		{`{"value": "string"}`, gracedec.ReasonMalformed},
		{`{"value": null}`, gracedec.ReasonNull},
		{`{}`, gracedec.ReasonAbsent},
		{`{"value": 1.5}`, gracedec.ReasonMalformed},
		{`{"value": [1]}`, gracedec.ReasonMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			v, err := gracedec.Unmarshal[IntModel](r, []byte(tc.in))
			assert.Nil(t, v)
			gf := requireFailure(t, err)
			assert.Equal(t, "IntModel", gf.Model)
			assert.Equal(t, "value", gf.Field)
			assert.Equal(t, "/value", gf.Path)
			assert.Equal(t, tc.reason, gf.Reason)
		})
	}
}

func TestIntegerCoercion(t *testing.T) {
	r := newRegistry(t, gracedec.Register[IntModel])
	for in, want := range map[string]int{
		`{"value": "42"}`:  42,
		`{"value": 1e3}`:   1000,
		`{"value": "2.0"}`: 2,
		`{"value": -7}`:    -7,
	} {
		got, err := gracedec.Unmarshal[IntModel](r, []byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Value, in)
	}
}

func TestRequiredBoolCoercion(t *testing.T) {
	r := newRegistry(t, gracedec.Register[BoolModel])

	for in, want := range map[string]bool{
		`{"value": "True"}`:  true,
		`{"value": "FALSE"}`: false,
		`{"value": 1}`:       true,
		`{"value": 0}`:       false,
		`{"value": true}`:    true,
	} {
		got, err := gracedec.Unmarshal[BoolModel](r, []byte(in))
		require.NoError(t, err, in)
		assert.Equal(t, want, got.Value, in)
	}

	for _, in := range []string{`{"value": 3}`, `{"value": "yes"}`, `{"value": 1.0}`} {
		_, err := gracedec.Unmarshal[BoolModel](r, []byte(in))
		requireFailure(t, err)
	}
}

func TestListDropsFailingElements(t *testing.T) {
	r := newRegistry(t, gracedec.Register[ListModel])

	got, err := gracedec.Unmarshal[ListModel](r, []byte(`{"list": [{"value":1}, {"value":"bad"}, {"value":3}]}`))
	require.NoError(t, err)
	assert.Equal(t, []Item{{Value: 1}, {Value: 3}}, got.List)
}

func TestListNotAnArrayFailsRequiredField(t *testing.T) {
	r := newRegistry(t, gracedec.Register[ListModel])

	_, err := gracedec.Unmarshal[ListModel](r, []byte(`{"list": {"value": 1}}`))
	gf := requireFailure(t, err)
	assert.Equal(t, "list", gf.Field)
	assert.Equal(t, gracedec.ReasonMalformed, gf.Reason)
}

func TestEmptyListIsNotNil(t *testing.T) {
	r := newRegistry(t, gracedec.Register[ListModel])

	got, err := gracedec.Unmarshal[ListModel](r, []byte(`{"list": []}`))
	require.NoError(t, err)
	assert.NotNil(t, got.List)
	assert.Empty(t, got.List)
}

func TestLenientParentAbsorbsChildFailure(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Holder])

	got, err := gracedec.Unmarshal[Holder](r, []byte(`{"parent": {"child": null}}`))
	require.NoError(t, err)
	assert.Nil(t, got.Parent)
}

func TestFailureDrainsRestOfObject(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Holder])

	in := `{"parent": {"child": 1, "extra": [1, {"a": [2]}], "child2": {}}, "after": "ok"}`
	got, err := gracedec.Unmarshal[Holder](r, []byte(in))
	require.NoError(t, err)
	assert.Nil(t, got.Parent)
	require.NotNil(t, got.After)
	assert.Equal(t, "ok", *got.After)
}

func TestDefaultOnFailure(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Settings])

	got, err := gracedec.Unmarshal[Settings](r, []byte(`{"retries": "x", "mode": null, "tags": 5}`))
	require.NoError(t, err)
	assert.Equal(t, Settings{Retries: 3, Mode: "fast", Tags: []string{"a"}}, *got)

	got, err = gracedec.Unmarshal[Settings](r, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 3, got.Retries)

	got, err = gracedec.Unmarshal[Settings](r, []byte(`{"retries": 9, "mode": "slow", "tags": ["b", "c"]}`))
	require.NoError(t, err)
	assert.Equal(t, Settings{Retries: 9, Mode: "slow", Tags: []string{"b", "c"}}, *got)
}

func TestDefaultsAreNotShared(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Settings])

	first, err := gracedec.Unmarshal[Settings](r, []byte(`{}`))
	require.NoError(t, err)
	first.Tags[0] = "mutated"

	second, err := gracedec.Unmarshal[Settings](r, []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, second.Tags)
}

func TestLenientFields(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Optional])

	got, err := gracedec.Unmarshal[Optional](r, []byte(`{"nick": "n", "tag": "t", "tags": [1]}`))
	require.NoError(t, err)
	require.NotNil(t, got.Nick)
	assert.Equal(t, "n", *got.Nick)
	assert.Equal(t, "t", *got.Tag)
	assert.Equal(t, []int{1}, got.Tags)

	got, err = gracedec.Unmarshal[Optional](r, []byte(`{"nick": 5, "tag": {}, "tags": "no"}`))
	require.NoError(t, err)
	assert.Nil(t, got.Nick)
	assert.Nil(t, got.Tag)
	assert.Nil(t, got.Tags)

	got, err = gracedec.Unmarshal[Optional](r, []byte(`{"nick": null, "tag": null}`))
	require.NoError(t, err)
	assert.Nil(t, got.Nick)
	assert.Nil(t, got.Tag)

	// absence keeps the construction value
	got, err = gracedec.Unmarshal[Optional](r, []byte(`{}`))
	require.NoError(t, err)
	assert.Nil(t, got.Nick)
	require.NotNil(t, got.Tag)
	assert.Equal(t, "x", *got.Tag)
}

func TestTopLevelShapes(t *testing.T) {
	r := newRegistry(t, gracedec.Register[IntModel])

	got, err := gracedec.Unmarshal[IntModel](r, []byte(`null`))
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = gracedec.Unmarshal[IntModel](r, []byte(`[{"value": 1}]`))
	gf := requireFailure(t, err)
	assert.Equal(t, gracedec.ReasonShape, gf.Reason)
	assert.Empty(t, gf.Field)
}

func TestStreamErrorIsNeverAbsorbed(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Holder])

	_, err := gracedec.Unmarshal[Holder](r, []byte(`{"parent": {"child": `))
	gf := requireFailure(t, err)
	assert.Equal(t, gracedec.ReasonStream, gf.Reason)
	_, ok := gracedec.AsStreamError(err)
	assert.True(t, ok)
}

func TestTrailingDataFails(t *testing.T) {
	r := newRegistry(t, gracedec.Register[IntModel])

	_, err := gracedec.Unmarshal[IntModel](r, []byte(`{"value": 1} {"value": 2}`))
	gf := requireFailure(t, err)
	se, ok := gracedec.AsStreamError(gf)
	require.True(t, ok)
	assert.Equal(t, gracedec.CodeTrailingData, se.Code)
}

func TestDecodeStreamReadsConsecutiveValues(t *testing.T) {
	r := newRegistry(t, gracedec.Register[IntModel])
	c, err := gracedec.For[IntModel](r)
	require.NoError(t, err)

	ts := gracedec.NewTokenStream(gracedec.JSONBytes([]byte(`{"value": 1} {"value": "bad"} {"value": 3}`)))
	var got []int
	var failures int
	for {
		eof, err := ts.AtEOF()
		require.NoError(t, err)
		if eof {
			break
		}
		v, err := c.DecodeStream(ts)
		if err != nil {
			failures++
			continue
		}
		got = append(got, v.Value)
	}
	assert.Equal(t, []int{1, 3}, got)
	assert.Equal(t, 1, failures)
}
