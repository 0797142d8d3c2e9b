package http

import (
	"context"
	"net/http"
	"time"

	"causeway/internal/app"
	"causeway/internal/model"
	"causeway/internal/ports/http/middleware/auth"
	"causeway/internal/ports/http/middleware/cors"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type server struct {
	app        app.App
	httpServer *http.Server
	addr       string
	timeout    time.Duration
	origins    []string
	logger     *zap.Logger
}

func (ser *server) badRequest(w http.ResponseWriter, message string) {
	ser.logger.Warn(message)
	ser.write(w, http.StatusBadRequest, errorBody("BadRequest", message, ""))
}

func (ser *server) serverError(w http.ResponseWriter, message string) {
	ser.logger.Error(message)
	ser.write(w, http.StatusInternalServerError, errorBody("ServerError", message, ""))
}

func (ser *server) registerHandlers(router *mux.Router) {
	tokens := auth.NewTokenExtractor(ser.logger, func(w http.ResponseWriter, r *http.Request) {
		ser.fail(w, model.NewError(model.KindBadToken, "missing token"))
	})
	submit := func(path string, handler http.HandlerFunc) {
		router.Handle(path, tokens.RequireToken(handler)).Methods(http.MethodPost)
	}

	router.HandleFunc("/", ser.info).Methods(http.MethodGet)
	router.HandleFunc("/health", healthcheck)
	router.HandleFunc("/token", ser.issueToken).Methods(http.MethodGet, http.MethodPost)

	router.HandleFunc("/users", ser.getUsers).Methods(http.MethodGet)
	router.HandleFunc("/users", ser.postUser).Methods(http.MethodPost)
	router.HandleFunc("/users/{userID}", ser.getUser).Methods(http.MethodGet)

	router.HandleFunc("/jobs", ser.getJobs(false)).Methods(http.MethodGet)
	submit("/jobs", ser.postJob)
	router.HandleFunc("/jobs/active", ser.getJobs(true)).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{jobID}", ser.getJob).Methods(http.MethodGet)
	router.HandleFunc("/jobs/{jobID}/state", ser.getJobState).Methods(http.MethodGet)

	router.HandleFunc("/jobs/{jobID}/bids", ser.getBids).Methods(http.MethodGet)
	submit("/jobs/{jobID}/bids", ser.postBid)
	router.HandleFunc("/jobs/{jobID}/bids/{bidID}", ser.getBid).Methods(http.MethodGet)

	router.HandleFunc("/jobs/{jobID}/bids/{bidID}/offer", ser.getOffer).Methods(http.MethodGet)
	submit("/jobs/{jobID}/bids/{bidID}/offer", ser.postOffer)
	router.HandleFunc("/jobs/{jobID}/offer", ser.getOfferedBid).Methods(http.MethodGet)

	router.HandleFunc("/jobs/{jobID}/delivery", ser.getDelivery).Methods(http.MethodGet)
	submit("/jobs/{jobID}/delivery", ser.postDelivery)
	router.HandleFunc("/jobs/{jobID}/delivery/acceptance", ser.getDeliveryAcceptance).Methods(http.MethodGet)
	submit("/jobs/{jobID}/delivery/acceptance", ser.postDeliveryAcceptance)

	router.HandleFunc("/jobs/{jobID}/dispute", ser.getDispute).Methods(http.MethodGet)
	submit("/jobs/{jobID}/dispute", ser.postDispute)
	router.HandleFunc("/jobs/{jobID}/dispute/resolution", ser.getResolution).Methods(http.MethodGet)
	submit("/jobs/{jobID}/dispute/resolution", ser.postResolution)
	router.HandleFunc("/jobs/{jobID}/dispute/resolution/acceptance", ser.getResolutionAcceptance).Methods(http.MethodGet)
	submit("/jobs/{jobID}/dispute/resolution/acceptance", ser.postResolutionAcceptance)

	router.HandleFunc("/requests/{documentID}", ser.getRequest).Methods(http.MethodGet)
}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

// NewServer builds the server, origins restricts cross-origin browser access (empty allows any).
func NewServer(logger *zap.Logger, a app.App, address string, timeout time.Duration, origins []string) *server {
	ser := &server{
		app:     a,
		addr:    address,
		timeout: timeout,
		origins: origins,
		logger:  logger,
	}
	ser.httpServer = &http.Server{
		Handler:           ser.Handler(),
		Addr:              address,
		ReadHeaderTimeout: timeout,
	}
	return ser
}

// Handler returns the routes wrapped in the CORS policy.
func (ser *server) Handler() http.Handler {
	router := mux.NewRouter()
	ser.registerHandlers(router)
	return cors.Policy(ser.logger, ser.origins)(router)
}

func (ser *server) Run() error {
	ser.logger.Info("listening", zap.String("addr", ser.addr))
	return ser.httpServer.ListenAndServe()
}

func (ser *server) Shutdown(ctx context.Context) error {
	return ser.httpServer.Shutdown(ctx)
}

func (ser *server) context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), ser.timeout)
}
