package kgx

import (
	"io"
	"unicode"
	"unicode/utf8"
)

// SliceProvider is an IDProvider over a fixed list of ids. Every batch holds
// size ids except possibly the last.
type SliceProvider struct {
	ids  []interface{}
	size int
	pos  int
}

// NewSliceProvider returns a SliceProvider handing out ids in batches of size.
func NewSliceProvider(ids []interface{}, size int) *SliceProvider {
	if size < 1 {
		size = 1
	}
	return &SliceProvider{ids: ids, size: size}
}

// NextBatch implements IDProvider.
func (p *SliceProvider) NextBatch() ([]interface{}, error) {
	if p.pos >= len(p.ids) {
		return nil, io.EOF
	}
	end := p.pos + p.size
	if end > len(p.ids) {
		end = len(p.ids)
	}
	batch := p.ids[p.pos:end]
	p.pos = end
	return batch, nil
}

// StringIDs boxes a list of string ids for use with a SliceProvider.
func StringIDs(ids []string) []interface{} {
	ret := make([]interface{}, len(ids))
	for i, id := range ids {
		ret[i] = id
	}
	return ret
}

// MaxIDBytes is the longest document id, in bytes, the index engines accept.
const MaxIDBytes = 512

// IDPredicate reports whether an id may be indexed.
type IDPredicate func(id interface{}) bool

// DefaultIDPredicate accepts non-empty, valid UTF-8 strings of at most
// MaxIDBytes bytes without control characters.
func DefaultIDPredicate(id interface{}) bool {
	s, ok := id.(string)
	if !ok || s == "" || len(s) > MaxIDBytes || !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) {
			return false
		}
	}
	return true
}

// ValidateIDs splits ids into those accepted by valid and those rejected. A
// nil predicate means DefaultIDPredicate. Order is preserved in both results.
func ValidateIDs(ids []interface{}, valid IDPredicate) (ok []string, bad []interface{}) {
	if valid == nil {
		valid = DefaultIDPredicate
	}
	ok = make([]string, 0, len(ids))
	for _, id := range ids {
		if !valid(id) {
			bad = append(bad, id)
			continue
		}
		s, isString := id.(string)
		if !isString {
			bad = append(bad, id)
			continue
		}
		ok = append(ok, s)
	}
	return ok, bad
}
