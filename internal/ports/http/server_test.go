package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"causeway/internal/app"
	"causeway/internal/documents"
	"causeway/internal/keymanager"
	"causeway/internal/model"
	"causeway/internal/repository/memory"
	"causeway/internal/requestauth"
	"causeway/internal/testdocs"

	"github.com/fxamacker/cbor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type client struct {
	t       *testing.T
	handler http.Handler
}

func newClient(t *testing.T, config requestauth.Config) client {
	t.Helper()

	logger := zap.NewNop()
	repo := memory.NewRepository(logger)
	keys, err := keymanager.NewKeyManager(logger, "k1", keymanager.SigningKey{ID: "k1", Secret: []byte(strings.Repeat("k", 32))})
	require.NoError(t, err)

	a := app.NewApp(logger,
		documents.NewService(logger, repo, testdocs.Net),
		requestauth.NewAuthenticator(logger, repo, keys, config),
		repo,
		app.ServerInfo{URL: testdocs.ServerURL, CausewayVersion: "0.3.0", PricingType: "free", Description: "test"})

	return client{t: t, handler: NewServer(logger, a, ":0", 5*time.Second, nil).Handler()}
}

func (c client) get(path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

func (c client) token(user testdocs.User) string {
	rec := c.get("/token?user_id=" + url.QueryEscape(user.ID()))
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Token
}

func (c client) submit(path string, author testdocs.User, doc model.Document) *httptest.ResponseRecorder {
	return c.post(path, url.Values{
		"payload": {testdocs.JSON(c.t, doc)},
		"token":   {c.token(author)},
	})
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestInfoAndHealth(t *testing.T) {
	c := newClient(t, requestauth.Config{})

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"url": "http://localhost:8077", "causeway_version": "0.3.0", "pricing_type": "free", "free_quota": 0, "description": "test"}`, rec.Body.String())

	rec = c.get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWorkflowOverHTTP(t *testing.T) {
	c := newClient(t, requestauth.Config{})

	george := testdocs.NewUser(t, "george", false)
	barbara := testdocs.NewUser(t, "barbara", true)
	for _, u := range []testdocs.User{george, barbara} {
		rec := c.post("/users", url.Values{"payload": {testdocs.JSON(t, u.Doc)}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, `{"result": "success"}`, rec.Body.String())
	}

	rec := c.post("/users", url.Values{"payload": {testdocs.JSON(t, george.Doc)}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "DuplicateDocument", decode(t, rec)["kind"])

	job := testdocs.NewJob(t, "fence", george, barbara)
	rec = c.submit("/jobs", george, job)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.get("/jobs/" + job.ID())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testdocs.JSON(t, job), rec.Body.String(), "served in the order it was signed")

	bid := testdocs.Encrypted(t, barbara, "bid", bson.D{{Key: "amount", Value: 0.33}})
	rec = c.submit("/jobs/"+job.ID()+"/bids", barbara, bid)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	offer := testdocs.Encrypted(t, george, "offer", bson.D{{Key: "bid", Value: bid.ID()}})
	rec = c.submit("/jobs/"+job.ID()+"/bids/missing/offer", george, offer)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.submit("/jobs/"+job.ID()+"/bids/"+bid.ID()+"/offer", george, offer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.get("/jobs/" + job.ID() + "/offer")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, bid.ID(), decode(t, rec)["id"])

	delivery := testdocs.Encrypted(t, barbara, "delivery", bson.D{{Key: "url", Value: "https://example.com"}})
	rec = c.submit("/jobs/"+job.ID()+"/delivery", barbara, delivery)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.get("/jobs/" + job.ID() + "/state")
	assert.Equal(t, `{"id": "`+job.ID()+`", "state": "delivered"}`, rec.Body.String())

	accept := testdocs.Encrypted(t, george, "accept_delivery", bson.D{{Key: "amount", Value: 0.33}})
	rec = c.submit("/jobs/"+job.ID()+"/delivery/acceptance", george, accept)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.get("/jobs/active")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	late := testdocs.Encrypted(t, barbara, "bid", bson.D{{Key: "amount", Value: 0.2}})
	rec = c.submit("/jobs/"+job.ID()+"/bids", barbara, late)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "WorkflowViolation", decode(t, rec)["kind"])

	rec = c.get("/jobs")
	var all []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
	assert.Equal(t, true, all[0]["finished"])

	rec = c.get("/requests/" + accept.ID())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, george.ID(), decode(t, rec)["user"])

	rec = c.get("/jobs/"+job.ID()+"/bids/"+bid.ID(), "Accept", "application/cbor")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/cbor", rec.Header().Get("Content-Type"))
	var fromCBOR map[string]interface{}
	require.NoError(t, cbor.Unmarshal(rec.Body.Bytes(), &fromCBOR))
	assert.Equal(t, bid.ID(), fromCBOR["id"])
}

func TestAuthorizationFailures(t *testing.T) {
	c := newClient(t, requestauth.Config{FreeQuota: 1})

	george := testdocs.NewUser(t, "george", false)
	barbara := testdocs.NewUser(t, "barbara", true)
	for _, u := range []testdocs.User{george, barbara} {
		rec := c.post("/users", url.Values{"payload": {testdocs.JSON(t, u.Doc)}})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := c.get("/token?user_id=nobody")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UnknownUser", decode(t, rec)["kind"])

	job := testdocs.NewJob(t, "fence", george, barbara)
	rec = c.post("/jobs", url.Values{"payload": {testdocs.JSON(t, job)}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, `{"result": "error", "kind": "BadToken", "message": "missing token"}`, rec.Body.String())

	token := c.token(george)
	rec = c.post("/jobs", url.Values{"payload": {testdocs.JSON(t, job)}, "token": {token}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.post("/jobs", url.Values{"payload": {testdocs.JSON(t, job)}, "token": {token}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AlreadyUsed", decode(t, rec)["kind"])

	rec = c.submit("/jobs", george, testdocs.NewJob(t, "roof", george, barbara))
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "QuotaExceeded", decode(t, rec)["kind"])

	rec = c.post("/jobs", url.Values{"token": {c.token(george)}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationErrorsEchoExpected(t *testing.T) {
	c := newClient(t, requestauth.Config{})

	george := testdocs.NewUser(t, "george", false)
	rec := c.post("/users", url.Values{"payload": {testdocs.JSON(t, george.Doc)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = c.post("/jobs", url.Values{
		"payload": {`{"type": "job", "id": "x"}`},
		"token":   {c.token(george)},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "StructureMismatch", body["kind"])
	assert.Contains(t, body["expected"], `"name"`)

	barbara := testdocs.NewUser(t, "barbara", true)
	rec = c.post("/users", url.Values{"payload": {testdocs.JSON(t, barbara.Doc)}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	job := testdocs.NewJob(t, "fence", george, barbara)
	other := testdocs.NewJob(t, "roof", george, barbara)
	unsigned := testdocs.NewJob(t, "gate", george, barbara)
	rec = c.submit("/jobs", george, job)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	validity, _ := other.Get("validity")
	cases := []struct {
		kind     string
		path     string
		doc      model.Document
		expected string
	}{
		{"TypeMismatch", "/jobs", other.Set("type", "user"), "job"},
		{"DuplicateDocument", "/jobs", job, `"mediator"`},
		{"IdentityMismatch", "/jobs", other.Set("name", "roof!"), `"mediator"`},
		{"SignatureInvalid", "/jobs", unsigned.Set("validity", validity), `"mediator"`},
	}
	for _, tc := range cases {
		rec = c.submit(tc.path, george, tc.doc)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, tc.kind)
		body = decode(t, rec)
		assert.Equal(t, tc.kind, body["kind"])
		assert.Contains(t, body["expected"], tc.expected, tc.kind)
	}

	rec = c.get("/jobs/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = c.get("/jobs/nope/delivery")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusOf(t *testing.T) {
	cases := map[model.Kind]int{
		model.KindShapeSpecDefect:         http.StatusInternalServerError,
		model.KindStructureMismatch:       http.StatusUnprocessableEntity,
		model.KindTypeMismatch:            http.StatusUnprocessableEntity,
		model.KindDuplicateDocument:       http.StatusUnprocessableEntity,
		model.KindIdentityMismatch:        http.StatusUnprocessableEntity,
		model.KindSignatureInvalid:        http.StatusUnprocessableEntity,
		model.KindWorkflowViolation:       http.StatusUnprocessableEntity,
		model.KindNotFound:                http.StatusNotFound,
		model.KindUnknownUser:             http.StatusUnauthorized,
		model.KindBadToken:                http.StatusUnauthorized,
		model.KindAlreadyUsed:             http.StatusUnauthorized,
		model.KindQuotaExceeded:           http.StatusPaymentRequired,
		model.KindExtensionNotImplemented: http.StatusNotImplemented,
	}
	for kind, status := range cases {
		assert.Equal(t, status, statusOf(kind), kind)
	}
}
