package benchmarks_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/reoring/gracedec"
	"github.com/reoring/gracedec/introspect"
)

// Run with -tags gojson to decode through goccy/go-json.

type user struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email *string  `json:"email"`
	Age   *int     `json:"age"`
	Tags  []string `json:"tags" graceful:"nullable"`
}

type userList struct {
	Users []user `json:"users"`
}

func newRegistry(tb testing.TB) *gracedec.Registry {
	tb.Helper()
	r := gracedec.NewRegistry(introspect.New())
	if err := gracedec.Register[userList](r); err != nil {
		tb.Fatalf("register failed: %v", err)
	}
	if err := r.Build(); err != nil {
		tb.Fatalf("build failed: %v", err)
	}
	return r
}

// generateUsers returns a {"users": [...]} document with n entries; every
// tenth entry carries a malformed age and every hundredth lacks an id.
func generateUsers(n int) []byte {
	var b bytes.Buffer
	b.WriteString(`{"users":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		age := fmt.Sprintf("%d", 20+i%50)
		if i%10 == 0 {
			age = `"n/a"`
		}
		id := fmt.Sprintf(`"id":"u_%d",`, i)
		if i%100 == 0 {
			id = ""
		}
		fmt.Fprintf(&b, `{%s"name":"user %d","email":null,"age":%s,"tags":["a","b"]}`, id, i, age)
	}
	b.WriteString(`]}`)
	return b.Bytes()
}

func BenchmarkGracefulDecode(b *testing.B) {
	r := newRegistry(b)
	codec, err := gracedec.For[userList](r)
	if err != nil {
		b.Fatal(err)
	}
	for _, n := range []int{10, 1000} {
		data := generateUsers(n)
		b.Run(fmt.Sprintf("users=%d/%s", n, gracedec.CurrentJSONDriver().Name()), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(data)))
			for b.Loop() {
				v, err := codec.Unmarshal(data)
				if err != nil {
					b.Fatal(err)
				}
				_ = v
			}
		})
	}
}

// BenchmarkStdlibDecode is the all-or-nothing baseline. Inputs carry no
// malformed values so encoding/json succeeds.
func BenchmarkStdlibDecode(b *testing.B) {
	var doc struct {
		Users []struct {
			ID    string   `json:"id"`
			Name  string   `json:"name"`
			Email *string  `json:"email"`
			Age   int      `json:"age"`
			Tags  []string `json:"tags"`
		} `json:"users"`
	}
	data := bytes.ReplaceAll(generateUsers(1000), []byte(`"n/a"`), []byte(`1`))
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	for b.Loop() {
		if err := json.Unmarshal(data, &doc); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	r := newRegistry(b)
	v, err := gracedec.Unmarshal[userList](r, generateUsers(1000))
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		if _, err := gracedec.Marshal(r, v); err != nil {
			b.Fatal(err)
		}
	}
}

func TestGeneratedInputDecodes(t *testing.T) {
	r := newRegistry(t)
	v, err := gracedec.Unmarshal[userList](r, generateUsers(200))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	// entries 0 and 100 lack the required id and are dropped
	if got := len(v.Users); got != 198 {
		t.Fatalf("want 198 users, got %d", got)
	}
	if v.Users[0].Age == nil || *v.Users[0].Age != 21 {
		t.Fatalf("want age 21, got %v", v.Users[0].Age)
	}
	// entry 10 carries "n/a", absorbed by the nullable field
	if v.Users[9].Age != nil {
		t.Fatalf("want nil age, got %d", *v.Users[9].Age)
	}
}
