package documents

import (
	"fmt"

	"causeway/internal/canonical"
	"causeway/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/multierr"
)

// Shape lists the keys a document must carry. An element is either a key name
// or a single entry map from a key to the names required inside that object.
type Shape []interface{}

var (
	unencryptedBase = Shape{
		model.KeyType,
		model.KeyID,
		map[string][]string{model.KeyValidity: {model.KeySignature, model.KeySignatureAddress}},
	}
	encryptedBase = Shape{
		model.KeyType,
		model.KeyID,
		model.KeyEncryptedContents,
	}
)

// Check verifies the declaration itself is well formed.
func (s Shape) Check() error {
	for i, field := range s {
		switch f := field.(type) {
		case string:
		case map[string][]string:
			if len(f) != 1 {
				return fmt.Errorf("element %d declares %d nested objects, expected exactly one", i, len(f))
			}
		default:
			return fmt.Errorf("element %d is a %T, expected a key name or a nested key list", i, field)
		}
	}
	return nil
}

// Match returns every requirement of the shape the document does not meet.
func (s Shape) Match(doc model.Document) error {
	var err error
	for _, field := range s {
		switch f := field.(type) {
		case string:
			if !doc.Has(f) {
				err = multierr.Append(err, fmt.Errorf("missing key %q", f))
			}
		case map[string][]string:
			for key, children := range f {
				sub, ok := doc.Sub(key)
				if !ok {
					err = multierr.Append(err, fmt.Errorf("missing object %q", key))
					continue
				}
				for _, child := range children {
					if !sub.Has(child) {
						err = multierr.Append(err, fmt.Errorf("missing key %q in %q", child, key))
					}
				}
			}
		}
	}
	return err
}

// String renders the shape as the JSON list it is declared as.
func (s Shape) String() string {
	list := make(bson.A, 0, len(s))
	for _, field := range s {
		switch f := field.(type) {
		case map[string][]string:
			nested := bson.D{}
			for key, children := range f {
				names := make(bson.A, len(children))
				for i, c := range children {
					names[i] = c
				}
				nested = append(nested, bson.E{Key: key, Value: names})
			}
			list = append(list, nested)
		default:
			list = append(list, fmt.Sprint(f))
		}
	}
	out, err := canonical.Encode(list)
	if err != nil {
		return fmt.Sprint([]interface{}(s))
	}
	return string(out)
}

func join(base, extra Shape) Shape {
	out := make(Shape, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
