package documents

import (
	"context"
	"fmt"

	"causeway/internal/canonical"
	"causeway/internal/hashing"
	"causeway/internal/model"
	"causeway/internal/signkeys"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// variant is what a document type contributes to the shared creation pipeline.
type variant interface {
	docType() string
	shape() Shape
	encrypted() bool
	isDuplicate(ctx context.Context, doc model.Document) (bool, error)
	save(ctx context.Context, doc model.Document) error
}

// restricted variants refuse payloads carrying keys the server manages.
type restricted interface {
	reservedKeys() []string
}

// create runs the validation pipeline and stores the document when every step passes.
// payload is raw JSON ([]byte or string) or an already parsed model.Document.
func (s *Service) create(ctx context.Context, v variant, payload interface{}) (model.Document, error) {
	doc, err := parsePayload(payload)
	if err != nil {
		return nil, s.rejected(v, err)
	}

	base := unencryptedBase
	if v.encrypted() {
		base = encryptedBase
	}
	expected := join(base, v.shape())

	if err := expected.Check(); err != nil {
		s.logger.DPanic("malformed shape declaration", zap.String("type", v.docType()), zap.Error(err))
		return nil, model.WrapError(model.KindShapeSpecDefect, err, "bad expected structure of %s", v.docType())
	}

	if err := expected.Match(doc); err != nil {
		return nil, s.rejected(v, model.WithExpected(
			model.WrapError(model.KindStructureMismatch, err, "bad incoming document structure"),
			expected.String()))
	}

	if r, ok := v.(restricted); ok {
		if err := checkReserved(doc, r.reservedKeys()); err != nil {
			return nil, s.rejected(v, model.WithExpected(err, expected.String()))
		}
	}

	if doc.Type() != v.docType() {
		return nil, s.rejected(v, model.WithExpected(
			model.NewError(model.KindTypeMismatch, "bad incoming document type %q", doc.Type()),
			v.docType()))
	}

	duplicate, err := v.isDuplicate(ctx, doc)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, s.rejected(v, model.WithExpected(
			model.NewError(model.KindDuplicateDocument, "the server already has a document with ID %s", doc.ID()),
			expected.String()))
	}

	if !v.encrypted() {
		if err := s.verify(doc); err != nil {
			return nil, s.rejected(v, model.WithExpected(err, expected.String()))
		}
	}

	if err := v.save(ctx, doc); err != nil {
		err = storeError(err, v.docType(), doc.ID())
		if model.KindOf(err).Class() == model.ClassValidation {
			err = model.WithExpected(err, expected.String())
		}
		return nil, s.rejected(v, err)
	}

	s.logger.Info("document stored", zap.String("type", v.docType()), zap.String("id", doc.ID()))
	return doc, nil
}

func parsePayload(payload interface{}) (model.Document, error) {
	switch p := payload.(type) {
	case model.Document:
		return p, nil
	case []byte:
		return parseRaw(p)
	case string:
		return parseRaw([]byte(p))
	default:
		return nil, model.NewError(model.KindStructureMismatch, "unsupported payload of type %T", payload)
	}
}

func parseRaw(raw []byte) (model.Document, error) {
	doc, err := canonical.Parse(raw)
	if err != nil {
		return nil, model.WrapError(model.KindStructureMismatch, err, "payload is not a document")
	}
	return doc, nil
}

// verify checks the id is the hash of the content and the signature covers the rest.
func (s *Service) verify(doc model.Document) error {
	content, err := canonical.Marshal(doc, model.KeyID, model.KeyValidity)
	if err != nil {
		return model.WrapError(model.KindIdentityMismatch, err, "content cannot be encoded")
	}
	if hashing.Calculate(content) != doc.ID() {
		return model.NewError(model.KindIdentityMismatch, "the ID of the document is not the hash of its contents")
	}

	validity, _ := doc.Sub(model.KeyValidity)
	address := validity.GetString(model.KeySignatureAddress)
	signature := validity.GetString(model.KeySignature)

	message, err := canonical.Marshal(doc, model.KeyValidity)
	if err != nil {
		return model.WrapError(model.KindSignatureInvalid, err, "message cannot be encoded")
	}

	ok, err := signkeys.VerifyMessage(s.net, address, message, signature)
	if err != nil {
		return model.WrapError(model.KindSignatureInvalid, err, "bad Bitcoin signature")
	}
	if !ok {
		return model.NewError(model.KindSignatureInvalid, "bad Bitcoin signature")
	}
	return nil
}

func (s *Service) rejected(v variant, err error) error {
	if model.KindOf(err) != "" {
		s.logger.Warn("document rejected", zap.String("type", v.docType()), zap.String("kind", string(model.KindOf(err))), zap.Error(err))
	}
	return err
}

func checkReserved(doc model.Document, keys []string) error {
	var err error
	for _, key := range keys {
		if doc.Has(key) {
			err = multierr.Append(err, fmt.Errorf("key %q is managed by the server", key))
		}
	}
	if err != nil {
		return model.WrapError(model.KindStructureMismatch, err, "bad incoming document structure")
	}
	return nil
}
