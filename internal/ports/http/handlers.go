package http

import (
	"net/http"
	"time"

	"causeway/internal/ports/http/middleware/auth"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func (ser *server) info(w http.ResponseWriter, r *http.Request) {
	info := ser.app.Info()
	ser.respond(w, r, bson.D{
		{Key: "url", Value: info.URL},
		{Key: "causeway_version", Value: info.CausewayVersion},
		{Key: "pricing_type", Value: info.PricingType},
		{Key: "free_quota", Value: info.FreeQuota},
		{Key: "description", Value: info.Description},
	})
}

func (ser *server) issueToken(w http.ResponseWriter, r *http.Request) {
	userID := r.FormValue("user_id")
	if userID == "" {
		ser.badRequest(w, "missing user_id")
		return
	}

	ctx, cancel := ser.context(r)
	defer cancel()

	token, err := ser.app.IssueToken(ctx, userID)
	if err != nil {
		ser.fail(w, err)
		return
	}
	ser.respond(w, r, bson.D{{Key: "token", Value: token.Encoded}})
}

// submission reads the payload of a POST, the token was already taken by the middleware.
func (ser *server) submission(w http.ResponseWriter, r *http.Request) (token, payload string, ok bool) {
	payload = r.PostFormValue("payload")
	if payload == "" {
		ser.badRequest(w, "missing payload")
		return "", "", false
	}
	return auth.Token(r.Context()), payload, true
}

func (ser *server) getRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	req, err := ser.app.FindRequest(ctx, mux.Vars(r)["documentID"])
	if err != nil {
		ser.fail(w, err)
		return
	}

	ser.respond(w, r, bson.D{
		{Key: "token", Value: req.Token},
		{Key: "user", Value: req.UserID},
		{Key: "payload", Value: req.Payload},
		{Key: "document_id", Value: req.DocumentID},
		{Key: "created_at", Value: req.CreatedAt.UTC().Format(time.RFC3339)},
	})
}

// USERS

func (ser *server) getUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	users, err := ser.app.Users(ctx)
	if err != nil {
		ser.fail(w, err)
		return
	}

	list := make(bson.A, len(users))
	for i, u := range users {
		list[i] = u.D()
	}
	ser.respond(w, r, list)
}

func (ser *server) postUser(w http.ResponseWriter, r *http.Request) {
	payload := r.PostFormValue("payload")
	if payload == "" {
		ser.badRequest(w, "missing payload")
		return
	}

	ctx, cancel := ser.context(r)
	defer cancel()

	user, err := ser.app.CreateUser(ctx, payload)
	if err != nil {
		ser.fail(w, err)
		return
	}
	ser.logger.Info("user created", zap.String("userID", user.ID()), zap.String("login", user.GetString("login")))
	ser.created(w)
}

func (ser *server) getUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	user, err := ser.app.User(ctx, mux.Vars(r)["userID"])
	if err != nil {
		ser.fail(w, err)
		return
	}
	ser.respond(w, r, user.D())
}

// JOBS

func (ser *server) getJobs(activeOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := ser.context(r)
		defer cancel()

		jobs, err := ser.app.Jobs(ctx, activeOnly)
		if err != nil {
			ser.fail(w, err)
			return
		}

		list := make(bson.A, len(jobs))
		for i, j := range jobs {
			list[i] = j.D()
		}
		ser.respond(w, r, list)
	}
}

func (ser *server) postJob(w http.ResponseWriter, r *http.Request) {
	token, payload, ok := ser.submission(w, r)
	if !ok {
		return
	}

	ctx, cancel := ser.context(r)
	defer cancel()

	if _, err := ser.app.CreateJob(ctx, token, payload); err != nil {
		ser.fail(w, err)
		return
	}
	ser.created(w)
}

func (ser *server) getJob(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	job, err := ser.app.Job(ctx, mux.Vars(r)["jobID"])
	if err != nil {
		ser.fail(w, err)
		return
	}
	ser.respond(w, r, job.D())
}

func (ser *server) getJobState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.context(r)
	defer cancel()

	jobID := mux.Vars(r)["jobID"]
	state, err := ser.app.JobState(ctx, jobID)
	if err != nil {
		ser.fail(w, err)
		return
	}
	ser.respond(w, r, bson.D{
		{Key: "id", Value: jobID},
		{Key: "state", Value: state.String()},
	})
}
