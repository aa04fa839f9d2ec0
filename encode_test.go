package gracedec_test

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/gracedec"
)

type Profile struct {
	Name  string         `json:"name"`
	Nick  *string        `json:"nick"`
	Age   int64          `json:"age"`
	Tags  []string       `json:"tags"`
	Meta  map[string]int `json:"meta" graceful:"nullable"`
	Score float64        `json:"score"`
}

func TestEncodeNullsAndEmptyContainers(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Profile])

	out, err := gracedec.Marshal(r, &Profile{Name: "a", Age: 5, Score: 1.5})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","nick":null,"age":5,"tags":[],"meta":null,"score":1.5}`, string(out))

	out, err = gracedec.Marshal[Profile](r, nil)
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestEncodeOptions(t *testing.T) {
	nick := "al"
	p := &Profile{Name: "a", Nick: &nick, Age: 1 << 60, Meta: map[string]int{"b": 2, "a": 1}}

	r := newRegistry(t, gracedec.Register[Profile], gracedec.WithLongAsString())
	out, err := gracedec.Marshal(r, p)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"a","nick":"al","age":"1152921504606846976","tags":[],"meta":{"a":1,"b":2},"score":0}`, string(out))

	r = newRegistry(t, gracedec.Register[Profile], gracedec.WithOmitNulls())
	out, err = gracedec.Marshal(r, &Profile{Name: "b"})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"b","age":0,"tags":[],"score":0}`, string(out))
}

func TestEncodeNonFiniteFloatsAsStrings(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Profile])

	out, err := gracedec.Marshal(r, &Profile{Score: math.Inf(-1)})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"score":"-Inf"`)
}

func TestEncodeEscapesStrings(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Profile])

	var buf bytes.Buffer
	require.NoError(t, gracedec.Encode(r, gracedec.NewJSONSink(&buf), &Profile{Name: "a\"b\n<c>"}))
	got, err := gracedec.Unmarshal[Profile](r, buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "a\"b\n<c>", got.Name)
}

func TestReencodeIsIdempotent(t *testing.T) {
	r := newRegistry(t, gracedec.Register[ListModel])

	first, err := gracedec.Unmarshal[ListModel](r, []byte(`{"list": [{"value": 1}, {"value": "bad"}, null, {"value": "3"}]}`))
	require.NoError(t, err)

	out, err := gracedec.Marshal(r, first)
	require.NoError(t, err)
	assert.Equal(t, `{"list":[{"value":1},{"value":3}]}`, string(out))

	second, err := gracedec.Unmarshal[ListModel](r, out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

type Scores struct {
	ByID map[int]string `json:"by_id"`
}

type Ptrs struct {
	Items []*Item `json:"items"`
}

func TestMapEntriesAndNullElements(t *testing.T) {
	r := newRegistry(t, func(r *gracedec.Registry) error {
		if err := gracedec.Register[Scores](r); err != nil {
			return err
		}
		return gracedec.Register[Ptrs](r)
	})

	s, err := gracedec.Unmarshal[Scores](r, []byte(`{"by_id": {"1": "a", "x": "b", "2": null, "3": 4}}`))
	require.NoError(t, err)
	assert.Equal(t, map[int]string{1: "a"}, s.ByID)
	out, err := gracedec.Marshal(r, s)
	require.NoError(t, err)
	assert.Equal(t, `{"by_id":{"1":"a"}}`, string(out))

	s, err = gracedec.Unmarshal[Scores](r, []byte(`{"by_id": {}}`))
	require.NoError(t, err)
	assert.NotNil(t, s.ByID)

	p, err := gracedec.Unmarshal[Ptrs](r, []byte(`{"items": [{"value": 1}, null, {"value": "x"}]}`))
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, 1, p.Items[0].Value)
	assert.Nil(t, p.Items[1])
	out, err = gracedec.Marshal(r, p)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[{"value":1},null]}`, string(out))
}

type Stamp struct {
	At    time.Time  `json:"at"`
	Until *time.Time `json:"until"`
}

func TestTextValues(t *testing.T) {
	r := newRegistry(t, gracedec.Register[Stamp])

	got, err := gracedec.Unmarshal[Stamp](r, []byte(`{"at": "2024-01-02T03:04:05Z", "until": "garbage"}`))
	require.NoError(t, err)
	assert.True(t, got.At.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	assert.Nil(t, got.Until)

	out, err := gracedec.Marshal(r, got)
	require.NoError(t, err)
	assert.Equal(t, `{"at":"2024-01-02T03:04:05Z","until":null}`, string(out))

	_, err = gracedec.Unmarshal[Stamp](r, []byte(`{"at": 17}`))
	gf := requireFailure(t, err)
	assert.Equal(t, gracedec.ReasonMalformed, gf.Reason)
}
