package docstore

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// IDField is the name of the identifier field every stored Document carries.
const IDField = "_id"

const pathSeparator = "."

// Field is a single key/value pair of a Document.
type Field struct {
	Key   string
	Value any
}

// F is a short factory for Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Document is an ordered key/value record.
//
// Documents are structurally heterogeneous across collections, so nothing beyond the identifier
// is assumed. Values are scalars (string, bool, int64, float64, time.Time, nil), nested Documents,
// map[string]any or []any.
//
// Lookups accept dotted paths ("shippingAddress.fullName") and distinguish three cases that matter
// for filters: the field is absent, the field is present with a null value, or the field is present
// with a (possibly empty) value.
type Document struct {
	fields []Field
}

// NewDocument creates a Document from the given fields. Later duplicates of a key overwrite earlier ones
// but keep the position of the first occurrence.
func NewDocument(fields ...Field) Document {
	d := Document{fields: make([]Field, 0, len(fields))}
	for _, f := range fields {
		d = d.With(f.Key, f.Value)
	}

	return d
}

// Fields returns a copy of the fields in their original order.
func (d Document) Fields() []Field {
	fields := make([]Field, len(d.fields))
	copy(fields, d.fields)

	return fields
}

// Len returns the number of top-level fields.
func (d Document) Len() int {
	return len(d.fields)
}

// Keys returns the top-level keys in their original order.
func (d Document) Keys() []string {
	keys := make([]string, 0, len(d.fields))
	for _, f := range d.fields {
		keys = append(keys, f.Key)
	}

	return keys
}

// With returns a copy of the Document with the given top-level field set.
func (d Document) With(key string, value any) Document {
	fields := make([]Field, len(d.fields), len(d.fields)+1)
	copy(fields, d.fields)

	for i := range fields {
		if fields[i].Key == key {
			fields[i].Value = value
			return Document{fields: fields}
		}
	}

	return Document{fields: append(fields, Field{Key: key, Value: value})}
}

// Without returns a copy of the Document without the given top-level field.
func (d Document) Without(key string) Document {
	fields := make([]Field, 0, len(d.fields))
	for _, f := range d.fields {
		if f.Key != key {
			fields = append(fields, f)
		}
	}

	return Document{fields: fields}
}

// ID returns the canonical string form of the identifier field, or "" if the Document has none.
func (d Document) ID() string {
	value, ok := d.Lookup(IDField)
	if !ok || value == nil {
		return ""
	}

	return IDString(value)
}

// Lookup resolves a dotted path. The boolean reports whether the field is present; a present field may hold nil.
func (d Document) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}

	var current any = d
	for _, segment := range strings.Split(path, pathSeparator) {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}

	return current, true
}

// Has reports whether the field is present, regardless of its value.
func (d Document) Has(path string) bool {
	_, ok := d.Lookup(path)
	return ok
}

// IsNull reports whether the field is present and holds null.
func (d Document) IsNull(path string) bool {
	value, ok := d.Lookup(path)
	return ok && value == nil
}

// StringAt returns the value if the field is present and holds a string (which may be empty).
func (d Document) StringAt(path string) (string, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return "", false
	}

	s, isString := value.(string)

	return s, isString
}

// TimeAt returns the value if the field is present and holds a time.Time or an RFC 3339 timestamp string.
func (d Document) TimeAt(path string) (time.Time, bool) {
	value, ok := d.Lookup(path)
	if !ok {
		return time.Time{}, false
	}

	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	default:
		return time.Time{}, false
	}
}

func child(value any, key string) (any, bool) {
	switch v := value.(type) {
	case Document:
		for _, f := range v.fields {
			if f.Key == key {
				return f.Value, true
			}
		}
		return nil, false
	case map[string]any:
		c, ok := v[key]
		return c, ok
	default:
		return nil, false
	}
}

// IDString converts an identifier or reference value into its canonical string form.
// Values that offer a Hex() method (e.g. Mongo ObjectIDs) use it, other fmt.Stringer values use String().
func IDString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case interface{ Hex() string }:
		return v.Hex()
	case fmt.Stringer:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

// MarshalJSON encodes the Document as a JSON object keeping the field order.
func (d Document) MarshalJSON() ([]byte, error) {
	stream := jsoniter.ConfigCompatibleWithStandardLibrary.BorrowStream(nil)
	defer jsoniter.ConfigCompatibleWithStandardLibrary.ReturnStream(stream)

	stream.WriteObjectStart()
	for i, f := range d.fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Key)
		stream.WriteVal(f.Value)
	}
	stream.WriteObjectEnd()

	if stream.Error != nil {
		return nil, stream.Error
	}

	return append([]byte(nil), stream.Buffer()...), nil
}

// DocumentFromJSON decodes a JSON object into a Document keeping the field order.
// Nested objects become Documents, integral numbers become int64, other numbers float64.
func DocumentFromJSON(data []byte) (Document, error) {
	iter := jsoniter.ParseBytes(jsoniter.ConfigCompatibleWithStandardLibrary, data)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return Document{}, ErrDecodingDocumentFailed
	}

	value := readJSONValue(iter)
	if iter.Error != nil {
		return Document{}, iter.Error
	}

	doc, _ := value.(Document)

	return doc, nil
}

func readJSONValue(iter *jsoniter.Iterator) any {
	switch iter.WhatIsNext() {
	case jsoniter.ObjectValue:
		doc := Document{fields: make([]Field, 0)}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			doc.fields = append(doc.fields, Field{Key: key, Value: readJSONValue(it)})
			return it.Error == nil
		})
		return doc

	case jsoniter.ArrayValue:
		items := make([]any, 0)
		iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
			items = append(items, readJSONValue(it))
			return it.Error == nil
		})
		return items

	case jsoniter.StringValue:
		return iter.ReadString()

	case jsoniter.NumberValue:
		return numberValue(iter.ReadNumber())

	case jsoniter.BoolValue:
		return iter.ReadBool()

	case jsoniter.NilValue:
		iter.ReadNil()
		return nil

	default:
		iter.Skip()
		return nil
	}
}

func numberValue(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return i
	}

	if f, err := n.Float64(); err == nil {
		return f
	}

	return n.String()
}
