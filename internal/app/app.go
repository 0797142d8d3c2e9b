package app

import (
	"context"
	"errors"

	"causeway/internal/documents"
	"causeway/internal/model"
	"causeway/internal/repository"
	"causeway/internal/requestauth"

	"go.uber.org/zap"
)

type RequestStore interface {
	FindRequest(ctx context.Context, documentID string) (model.Request, error)
}

type ServerInfo struct {
	URL             string
	CausewayVersion string
	PricingType     string
	FreeQuota       int64
	Description     string
}

type App struct {
	logger   *zap.Logger
	docs     *documents.Service
	auth     *requestauth.Authenticator
	requests RequestStore
	info     ServerInfo
}

func NewApp(logger *zap.Logger, docs *documents.Service, auth *requestauth.Authenticator, requests RequestStore, info ServerInfo) App {
	return App{
		logger:   logger,
		docs:     docs,
		auth:     auth,
		requests: requests,
		info:     info,
	}
}

func (a App) Info() ServerInfo {
	return a.info
}

func (a App) IssueToken(ctx context.Context, userKey string) (requestauth.Token, error) {
	return a.auth.Issue(ctx, userKey)
}

// authorize consumes the token for the payload. It runs before anything is validated or loaded.
func (a App) authorize(ctx context.Context, token, payload string) error {
	req, err := a.auth.Redeem(ctx, token)
	if err != nil {
		return err
	}
	if err := req.AttachPayload(ctx, payload); err != nil {
		return err
	}
	a.logger.Debug("request authorized", zap.String("userID", req.UserID))
	return nil
}

// FindRequest returns the authorization record of a stored document.
func (a App) FindRequest(ctx context.Context, documentID string) (model.Request, error) {
	req, err := a.requests.FindRequest(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Request{}, model.WrapError(model.KindNotFound, err, "request for document %s", documentID)
		}
		return model.Request{}, err
	}
	return req, nil
}
