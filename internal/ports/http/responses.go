package http

import (
	"errors"
	"net/http"
	"strings"

	"causeway/internal/canonical"
	"causeway/internal/model"

	"github.com/fxamacker/cbor"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	contentJSON = "application/json"
	contentCBOR = "application/cbor"
)

func errorBody(kind, message, expected string) bson.D {
	body := bson.D{
		{Key: "result", Value: "error"},
		{Key: "kind", Value: kind},
		{Key: "message", Value: message},
	}
	if expected != "" {
		body = append(body, bson.E{Key: "expected", Value: expected})
	}
	return body
}

// statusOf maps a protocol error to the status class of its kind.
func statusOf(kind model.Kind) int {
	switch kind {
	case model.KindQuotaExceeded:
		return http.StatusPaymentRequired
	case model.KindUnknownUser, model.KindBadToken, model.KindAlreadyUsed:
		return http.StatusUnauthorized
	}

	switch kind.Class() {
	case model.ClassValidation:
		return http.StatusUnprocessableEntity
	case model.ClassRead:
		return http.StatusNotFound
	case model.ClassExtension:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (ser *server) fail(w http.ResponseWriter, err error) {
	var perr *model.Error
	if !errors.As(err, &perr) {
		ser.serverError(w, err.Error())
		return
	}

	status := statusOf(perr.Kind)
	if status == http.StatusInternalServerError {
		ser.logger.Error("request failed", zap.Error(err))
	} else {
		ser.logger.Info("request refused", zap.String("kind", string(perr.Kind)), zap.Int("status", status))
	}

	message := perr.Message
	if perr.Cause != nil && perr.Kind == model.KindStructureMismatch {
		message += ": " + perr.Cause.Error()
	}
	ser.write(w, status, errorBody(string(perr.Kind), message, perr.Expected))
}

func (ser *server) created(w http.ResponseWriter) {
	ser.write(w, http.StatusCreated, bson.D{{Key: "result", Value: "success"}})
}

func (ser *server) write(w http.ResponseWriter, status int, body interface{}) {
	data, err := canonical.Encode(body)
	if err != nil {
		ser.logger.Error("failed to encode the response: " + err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentJSON)
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}

// respond writes a read result in canonical JSON, or in CBOR when the client asks for it.
func (ser *server) respond(w http.ResponseWriter, r *http.Request, body interface{}) {
	if !strings.Contains(r.Header.Get("Accept"), contentCBOR) {
		ser.write(w, http.StatusOK, body)
		return
	}

	data, err := cbor.Marshal(plain(body), cbor.CanonicalEncOptions())
	if err != nil {
		ser.serverError(w, "failed to encode the response: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", contentCBOR)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		ser.logger.Error("failed to write the response: " + err.Error())
	}
}

// plain turns ordered documents into maps and slices the CBOR encoder understands.
func plain(v interface{}) interface{} {
	switch val := v.(type) {
	case model.Document:
		return plain(bson.D(val))
	case bson.D:
		m := make(map[string]interface{}, len(val))
		for _, e := range val {
			m[e.Key] = plain(e.Value)
		}
		return m
	case bson.A:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	case []interface{}:
		return plain(bson.A(val))
	case primitive.Decimal128:
		return val.String()
	default:
		return v
	}
}
