package shoptest_test

import (
	"bytes"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/internal/gen/shoptest"
	"github.com/reoring/gracedec/introspect"
)

const orderJSON = `{
	"id": "o1",
	"amount": "12",
	"lines": [{"sku": "a", "qty": 2}, {"sku": "b", "qty": "x"}],
	"note": 5,
	"at": "2026-01-02T03:04:05Z",
	"parent": {"id": "p0", "total": 1, "lines": [], "at": "2026-01-01T00:00:00Z", "created_by": "alice"}
}`

func TestDecodeThroughGeneratedTables(t *testing.T) {
	r, err := shoptest.NewShopRegistry()
	require.NoError(t, err)

	o, err := shoptest.DecodeOrder(r, gracedec.JSONBytes([]byte(orderJSON)))
	require.NoError(t, err)
	assert.Equal(t, "o1", o.ID)
	assert.Equal(t, int64(12), o.Total)
	assert.Equal(t, []shoptest.Line{{SKU: "a", Qty: 2}}, o.Lines)
	assert.Nil(t, o.Note)
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), o.At)
	assert.Equal(t, "system", o.CreatedBy)
	require.NotNil(t, o.Parent)
	assert.Equal(t, "p0", o.Parent.ID)
	assert.Equal(t, "alice", o.Parent.CreatedBy)
	assert.Nil(t, o.Parent.Parent)

	var buf bytes.Buffer
	require.NoError(t, shoptest.EncodeOrder(r, gracedec.NewJSONSink(&buf), o))
	again, err := shoptest.DecodeOrder(r, gracedec.JSONBytes(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, o, again)
}

func TestLenientParentAbsorbsFailure(t *testing.T) {
	r, err := shoptest.NewShopRegistry()
	require.NoError(t, err)

	o, err := shoptest.DecodeOrder(r, gracedec.JSONBytes([]byte(
		`{"id": "o2", "total": 1, "lines": [], "at": "2026-01-01T00:00:00Z", "parent": {"id": "p"}}`)))
	require.NoError(t, err)
	assert.Nil(t, o.Parent)

	_, err = shoptest.DecodeOrder(r, gracedec.JSONBytes([]byte(`{"id": "o3", "total": 1, "lines": []}`)))
	gf, ok := gracedec.AsGracefulFailure(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, "at", gf.Field)
	assert.Equal(t, gracedec.ReasonAbsent, gf.Reason)
}

// The generated tables must agree with what reflection derives from the
// same structs, field by field.
func TestGeneratedTablesMatchIntrospection(t *testing.T) {
	generated, err := shoptest.NewShopRegistry()
	require.NoError(t, err)
	reflected := gracedec.NewRegistry(introspect.New())
	require.NoError(t, gracedec.Register[shoptest.Order](reflected))
	require.NoError(t, reflected.Build())

	for _, typ := range []reflect.Type{reflect.TypeFor[shoptest.Order](), reflect.TypeFor[shoptest.Line]()} {
		want, ok := reflected.Describe(typ)
		require.True(t, ok, typ.String())
		got, ok := generated.Describe(typ)
		require.True(t, ok, typ.String())
		require.Len(t, got.Fields, len(want.Fields), typ.String())
		for i := range want.Fields {
			w, g := want.Fields[i], got.Fields[i]
			assert.Equal(t, w.Name, g.Name)
			assert.Equal(t, w.Owner, g.Owner, w.Name)
			assert.Equal(t, w.Index, g.Index, w.Name)
			assert.Equal(t, w.WireKeys, g.WireKeys, w.Name)
			assert.Equal(t, w.Type, g.Type, w.Name)
			assert.Equal(t, gracedec.PolicyOf(w), gracedec.PolicyOf(g), w.Name)
			assert.Equal(t, string(w.Default), string(g.Default), w.Name)
		}
	}

	a, err := gracedec.Unmarshal[shoptest.Order](generated, []byte(orderJSON))
	require.NoError(t, err)
	b, err := gracedec.Unmarshal[shoptest.Order](reflected, []byte(orderJSON))
	require.NoError(t, err)
	assert.Equal(t, b, a)
}
