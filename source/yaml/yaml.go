// Package yaml exposes YAML documents as a gracedec token stream.
//
// Documents are parsed into a yaml.Node tree, which keeps mapping key order,
// and replayed as tokens. Aliases are followed; scalar tags decide whether a
// scalar becomes a null, bool, number or string token.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/gracedec"
	eng "github.com/reoring/gracedec/internal/engine"
)

// Bytes returns a gracedec.Source over the first YAML document in b.
func Bytes(b []byte) gracedec.Source { return gracedec.SourceFromEngine(NewBytes(b)) }

// Reader returns a gracedec.Source over the first YAML document read from r.
func Reader(r io.Reader) gracedec.Source { return gracedec.SourceFromEngine(NewReader(r)) }

// NewBytes parses b and returns the replayed token stream.
func NewBytes(b []byte) eng.TokenSource {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return &eng.SliceSource{Err: fmt.Errorf("yaml: %w", err)}
	}
	return materialize(&doc)
}

// NewReader parses the first document from r.
func NewReader(r io.Reader) eng.TokenSource {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &eng.SliceSource{}
		}
		return &eng.SliceSource{Err: fmt.Errorf("yaml: %w", err)}
	}
	return materialize(&doc)
}

func materialize(doc *yaml.Node) eng.TokenSource {
	w := walker{active: map[*yaml.Node]bool{}}
	if doc.Kind == 0 {
		return &eng.SliceSource{}
	}
	if err := w.node(doc); err != nil {
		return &eng.SliceSource{Err: err}
	}
	return &eng.SliceSource{Tokens: w.toks}
}

type walker struct {
	toks   []eng.Token
	active map[*yaml.Node]bool
}

func (w *walker) emit(t eng.Token) {
	t.Offset = -1
	w.toks = append(w.toks, t)
}

func (w *walker) node(n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.emit(eng.Token{Kind: eng.KindNull})
			return nil
		}
		return w.node(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return fmt.Errorf("yaml: line %d: unresolved alias", n.Line)
		}
		if w.active[n.Alias] {
			return fmt.Errorf("yaml: line %d: recursive alias %q", n.Line, n.Value)
		}
		w.active[n.Alias] = true
		defer delete(w.active, n.Alias)
		return w.node(n.Alias)
	case yaml.SequenceNode:
		w.emit(eng.Token{Kind: eng.KindBeginArray})
		for _, c := range n.Content {
			if err := w.node(c); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndArray})
		return nil
	case yaml.MappingNode:
		w.emit(eng.Token{Kind: eng.KindBeginObject})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind == yaml.AliasNode && k.Alias != nil {
				k = k.Alias
			}
			if k.Kind != yaml.ScalarNode {
				return fmt.Errorf("yaml: line %d: mapping key must be a scalar", k.Line)
			}
			w.emit(eng.Token{Kind: eng.KindKey, String: k.Value})
			if err := w.node(n.Content[i+1]); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndObject})
		return nil
	case yaml.ScalarNode:
		return w.scalar(n)
	}
	return fmt.Errorf("yaml: line %d: unsupported node kind %d", n.Line, n.Kind)
}

func (w *walker) scalar(n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		w.emit(eng.Token{Kind: eng.KindNull})
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return fmt.Errorf("yaml: line %d: %w", n.Line, err)
		}
		w.emit(eng.Token{Kind: eng.KindBool, Bool: b})
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			w.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(i, 10)})
			return nil
		}
		var u uint64
		if err := n.Decode(&u); err == nil {
			w.emit(eng.Token{Kind: eng.KindNumber, Number: strconv.FormatUint(u, 10)})
			return nil
		}
		w.emit(eng.Token{Kind: eng.KindString, String: n.Value})
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return fmt.Errorf("yaml: line %d: %w", n.Line, err)
		}
		text := strconv.FormatFloat(f, 'g', -1, 64)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			w.emit(eng.Token{Kind: eng.KindString, String: text})
		} else {
			w.emit(eng.Token{Kind: eng.KindNumber, Number: text})
		}
	default:
		w.emit(eng.Token{Kind: eng.KindString, String: n.Value})
	}
	return nil
}
