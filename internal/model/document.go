package model

import (
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	KeyType              = "type"
	KeyID                = "id"
	KeyValidity          = "validity"
	KeySignature         = "signature"
	KeySignatureAddress  = "signature_address"
	KeyEncryptedContents = "encrypted_contents"
)

// Document is a protocol document with its keys kept in the order they were received.
// Nested objects are bson.D and arrays are bson.A, so a Document goes to the store
// and comes back without its key order being touched.
type Document bson.D

// D returns the document as the driver type.
func (d Document) D() bson.D {
	return bson.D(d)
}

func (d Document) Get(key string) (interface{}, bool) {
	for _, e := range d {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

func (d Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// GetString returns the value under key if it is a string.
func (d Document) GetString(key string) string {
	v, _ := d.Get(key)
	s, _ := v.(string)
	return s
}

// Sub returns the nested object under key.
func (d Document) Sub(key string) (Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return AsDocument(v)
}

// Lookup follows a dotted path through nested objects, e.g. "delivery.accept_delivery".
func (d Document) Lookup(path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	current := d
	for i, part := range parts {
		v, ok := current.Get(part)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		if current, ok = AsDocument(v); !ok {
			return nil, false
		}
	}
	return nil, false
}

// HasPath reports whether anything is stored under the dotted path. Arrays on the way
// are searched element by element, so "bids.offer" holds when any bid has an offer.
func (d Document) HasPath(path string) bool {
	return hasPath(bson.D(d), strings.Split(path, "."))
}

func hasPath(v interface{}, parts []string) bool {
	if len(parts) == 0 {
		return true
	}
	if arr, ok := AsArray(v); ok {
		for _, item := range arr {
			if hasPath(item, parts) {
				return true
			}
		}
		return false
	}
	doc, ok := AsDocument(v)
	if !ok {
		return false
	}
	next, ok := doc.Get(parts[0])
	if !ok {
		return false
	}
	return hasPath(next, parts[1:])
}

// List returns the nested objects of the array under key. Non object elements are skipped.
func (d Document) List(key string) []Document {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	arr, ok := AsArray(v)
	if !ok {
		return nil
	}

	docs := make([]Document, 0, len(arr))
	for _, item := range arr {
		if doc, ok := AsDocument(item); ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

func (d Document) ID() string {
	return d.GetString(KeyID)
}

func (d Document) Type() string {
	return d.GetString(KeyType)
}

// Without returns a copy of the document without the given top level keys.
func (d Document) Without(keys ...string) Document {
	out := make(Document, 0, len(d))
	for _, e := range d {
		if containsKey(keys, e.Key) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Set returns a copy of the document with key set to value. An existing key keeps its position,
// a new key is appended.
func (d Document) Set(key string, value interface{}) Document {
	out := make(Document, len(d), len(d)+1)
	copy(out, d)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, bson.E{Key: key, Value: value})
}

// Clone deep copies the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	return Document(cloneValue(bson.D(d)).(bson.D))
}

// AsDocument converts a nested value decoded by the driver into a Document.
func AsDocument(v interface{}) (Document, bool) {
	switch val := v.(type) {
	case Document:
		return val, true
	case bson.D:
		return Document(val), true
	default:
		return nil, false
	}
}

func AsArray(v interface{}) (bson.A, bool) {
	switch val := v.(type) {
	case bson.A:
		return val, true
	case []interface{}:
		return bson.A(val), true
	default:
		return nil, false
	}
}

// Normalize rewrites the containers of a decoded value into bson.D and bson.A.
// Unordered maps only show up when a document did not come from ordered input, their
// keys are sorted so the result is still deterministic.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case Document:
		return Normalize(bson.D(val))
	case bson.D:
		out := make(bson.D, len(val))
		for i, e := range val {
			out[i] = bson.E{Key: e.Key, Value: Normalize(e.Value)}
		}
		return out
	case bson.M:
		return Normalize(map[string]interface{}(val))
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(bson.D, len(keys))
		for i, k := range keys {
			out[i] = bson.E{Key: k, Value: Normalize(val[k])}
		}
		return out
	case bson.A:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []interface{}:
		return Normalize(bson.A(val))
	default:
		return v
	}
}

func cloneValue(v interface{}) interface{} {
	switch val := v.(type) {
	case Document:
		return Document(cloneValue(bson.D(val)).(bson.D))
	case bson.D:
		out := make(bson.D, len(val))
		for i, e := range val {
			out[i] = bson.E{Key: e.Key, Value: cloneValue(e.Value)}
		}
		return out
	case bson.A:
		out := make(bson.A, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func containsKey(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
