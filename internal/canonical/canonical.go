// Package canonical turns protocol documents into the exact bytes that are hashed and signed.
//
// The encoding matches what the protocol clients produce with Python's json.dumps:
// ", " and ": " separators, ASCII only output, Python float repr and the original key order.
package canonical

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"causeway/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrNotObject = errors.New("payload is not a JSON object")

// Parse decodes raw JSON into a Document keeping the key order of the input.
// Keys are taken literally, "$" prefixed ones included. A repeated key keeps its first
// position and takes the last value. Integers stay exact: int64, or Decimal128 past its range.
func Parse(raw []byte) (model.Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotObject
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, errors.New("failed to parse the payload: " + err.Error())
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("failed to parse the payload: unexpected data after the object")
	}
	return model.Document(v.(bson.D)), nil
}

func decodeValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected %q", t)
	case json.Number:
		return parseNumber(t)
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (bson.D, error) {
	d := bson.D{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}

		if i := indexOf(d, key); i >= 0 {
			d[i].Value = value
			continue
		}
		d = append(d, bson.E{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return d, nil
}

func decodeArray(dec *json.Decoder) (bson.A, error) {
	a := bson.A{}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		a = append(a, value)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return a, nil
}

func parseNumber(n json.Number) (interface{}, error) {
	literal := n.String()
	if !strings.ContainsAny(literal, ".eE") {
		if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
			return i, nil
		}
		d, err := primitive.ParseDecimal128(literal)
		if err != nil || d.String() != literal {
			return nil, fmt.Errorf("integer %s is out of range", literal)
		}
		return d, nil
	}

	f, err := strconv.ParseFloat(literal, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, err
	}
	return f, nil
}

func indexOf(d bson.D, key string) int {
	for i, e := range d {
		if e.Key == key {
			return i
		}
	}
	return -1
}

// Marshal encodes the document without the excluded top level keys.
func Marshal(doc model.Document, exclude ...string) ([]byte, error) {
	if len(exclude) > 0 {
		doc = doc.Without(exclude...)
	}
	return Encode(doc.D())
}

// Encode encodes any value made of documents, arrays and JSON scalars.
func Encode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeValue(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case string:
		writeString(buf, val)
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float32:
		buf.WriteString(FormatFloat(float64(val)))
	case float64:
		buf.WriteString(FormatFloat(val))
	case primitive.Decimal128:
		buf.WriteString(val.String())
	case primitive.Null, primitive.Undefined:
		buf.WriteString("null")
	case model.Document:
		return encodeDocument(buf, bson.D(val))
	case bson.D:
		return encodeDocument(buf, val)
	case bson.A:
		return encodeArray(buf, val)
	case []interface{}:
		return encodeArray(buf, val)
	case []string:
		arr := make(bson.A, len(val))
		for i, s := range val {
			arr[i] = s
		}
		return encodeArray(buf, arr)
	case bson.M:
		return encodeValue(buf, map[string]interface{}(val))
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		d := make(bson.D, len(keys))
		for i, k := range keys {
			d[i] = bson.E{Key: k, Value: val[k]}
		}
		return encodeDocument(buf, d)
	default:
		return fmt.Errorf("unsupported value of type %T in a document", v)
	}
	return nil
}

func encodeDocument(buf *bytes.Buffer, d bson.D) error {
	buf.WriteByte('{')
	for i, e := range d {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(buf, e.Key)
		buf.WriteString(": ")
		if err := encodeValue(buf, e.Value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func encodeArray(buf *bytes.Buffer, a []interface{}) error {
	buf.WriteByte('[')
	for i, item := range a {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeValue(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if r >= 0x20 && r <= 0x7e {
				buf.WriteRune(r)
				continue
			}
			if r > 0xffff {
				hi, lo := utf16.EncodeRune(r)
				writeUnicodeEscape(buf, hi)
				writeUnicodeEscape(buf, lo)
				continue
			}
			writeUnicodeEscape(buf, r)
		}
	}
	buf.WriteByte('"')
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xf])
	buf.WriteByte(hexDigits[(r>>8)&0xf])
	buf.WriteByte(hexDigits[(r>>4)&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}

// FormatFloat renders f the way Python's repr does: the shortest round-tripping digits,
// positional notation while the decimal exponent is in (-4, 16], scientific otherwise.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	sci := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, expPart := sci, "0"
	if i := strings.IndexByte(sci, 'e'); i >= 0 {
		mantissa, expPart = sci[:i], sci[i+1:]
	}
	exp, _ := strconv.Atoi(expPart)
	decpt := exp + 1

	if decpt > -4 && decpt <= 16 {
		fixed := strconv.FormatFloat(f, 'f', -1, 64)
		if !strings.ContainsAny(fixed, ".") {
			fixed += ".0"
		}
		return fixed
	}

	sign := "+"
	if exp < 0 {
		sign = "-"
		exp = -exp
	}
	expStr := strconv.Itoa(exp)
	if len(expStr) < 2 {
		expStr = "0" + expStr
	}
	return mantissa + "e" + sign + expStr
}
