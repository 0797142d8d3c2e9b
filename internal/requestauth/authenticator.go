// Package requestauth issues one time authorization tokens and consumes them
// together with the payload they authorize.
package requestauth

import (
	"context"
	"errors"
	"time"

	"causeway/internal/canonical"
	"causeway/internal/keymanager"
	"causeway/internal/model"
	"causeway/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

const (
	DefaultTTL = 10 * time.Minute

	PricingFree = "free"
)

type Store interface {
	FindUser(ctx context.Context, key string) (model.Document, error)
	TokenUsed(ctx context.Context, token string) (bool, error)
	InsertRequest(ctx context.Context, request model.Request) error
	ReserveQuota(ctx context.Context, userID string, limit int64) (bool, error)
	ReleaseQuota(ctx context.Context, userID string) error
}

type Config struct {
	// TTL is how long an issued token stays valid.
	TTL time.Duration
	// FreeQuota caps the requests of a user under the free pricing, 0 is unlimited.
	FreeQuota   int64
	PricingType string
}

type Authenticator struct {
	store  Store
	keys   keymanager.KeyManager
	config Config
	now    func() time.Time
	logger *zap.Logger
}

type Token struct {
	Encoded string
	UserID  string
	Expiry  time.Time
}

func NewAuthenticator(logger *zap.Logger, store Store, keys keymanager.KeyManager, config Config) *Authenticator {
	if config.TTL <= 0 {
		config.TTL = DefaultTTL
	}
	if config.PricingType == "" {
		config.PricingType = PricingFree
	}

	return &Authenticator{
		store:  store,
		keys:   keys,
		config: config,
		now:    time.Now,
		logger: logger,
	}
}

// SetClock replaces the time source tokens are issued and checked against.
func (a *Authenticator) SetClock(now func() time.Time) {
	a.now = now
}

// Issue mints a token for the user matching key by id, login or email.
// The token is bound to the user's id.
func (a *Authenticator) Issue(ctx context.Context, key string) (Token, error) {
	user, err := a.store.FindUser(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Token{}, model.NewError(model.KindUnknownUser, "user with SIN %s", key)
		}
		return Token{}, err
	}

	signingKey := a.keys.Active()
	opts := (&jose.SignerOptions{}).WithType("JWT").WithHeader(jose.HeaderKey("kid"), signingKey.ID)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: signingKey.Secret}, opts)
	if err != nil {
		return Token{}, errors.New("failed to create the token signer: " + err.Error())
	}

	now := a.now()
	expiry := now.Add(a.config.TTL)
	claims := jwt.Claims{
		ID:       uuid.NewString(),
		Subject:  user.ID(),
		IssuedAt: jwt.NewNumericDate(now),
		Expiry:   jwt.NewNumericDate(expiry),
	}

	encoded, err := jwt.Signed(signer).Claims(claims).CompactSerialize()
	if err != nil {
		return Token{}, errors.New("failed to sign the token: " + err.Error())
	}

	a.logger.Debug("token issued", zap.String("userID", user.ID()), zap.String("tokenID", claims.ID))

	return Token{Encoded: encoded, UserID: user.ID(), Expiry: expiry}, nil
}

// Redeem checks the token was not used before, verifies it and returns a request bound to its user.
func (a *Authenticator) Redeem(ctx context.Context, encoded string) (*AuthorizedRequest, error) {
	if encoded == "" {
		return nil, model.NewError(model.KindBadToken, "missing token")
	}

	used, err := a.store.TokenUsed(ctx, encoded)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, model.NewError(model.KindAlreadyUsed, "the token was already used")
	}

	userID, err := a.verify(encoded)
	if err != nil {
		a.logger.Warn("bad token", zap.Error(err))
		return nil, model.WrapError(model.KindBadToken, err, "bad token")
	}

	return &AuthorizedRequest{
		auth:   a,
		token:  encoded,
		UserID: userID,
	}, nil
}

func (a *Authenticator) verify(encoded string) (string, error) {
	token, err := jwt.ParseSigned(encoded)
	if err != nil {
		return "", err
	}
	if len(token.Headers) != 1 {
		return "", errors.New("unexpected number of signatures")
	}
	header := token.Headers[0]
	if header.Algorithm != string(jose.HS256) {
		return "", errors.New("unexpected signing algorithm " + header.Algorithm)
	}

	secret, err := a.keys.Get(header.KeyID)
	if err != nil {
		return "", err
	}

	var claims jwt.Claims
	if err := token.Claims(secret, &claims); err != nil {
		return "", err
	}
	if claims.Expiry == nil {
		return "", errors.New("token without expiry")
	}
	if err := claims.ValidateWithLeeway(jwt.Expected{Time: a.now()}, 0); err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token without subject")
	}
	return claims.Subject, nil
}

// AuthorizedRequest is a redeemed token waiting for the payload it authorizes.
type AuthorizedRequest struct {
	auth  *Authenticator
	token string

	UserID string
}

// AttachPayload consumes the token for payload. Pricing and quota are checked first,
// a refused request leaves the token usable. The quota unit is reserved in the store
// before the token is recorded and given back when recording fails.
func (r *AuthorizedRequest) AttachPayload(ctx context.Context, payload string) error {
	a := r.auth

	if a.config.PricingType != PricingFree {
		return model.NewError(model.KindExtensionNotImplemented, "pricing type %q", a.config.PricingType)
	}

	reserved := false
	if a.config.FreeQuota > 0 {
		ok, err := a.store.ReserveQuota(ctx, r.UserID, a.config.FreeQuota)
		if err != nil {
			return err
		}
		if !ok {
			a.logger.Info("quota exceeded", zap.String("userID", r.UserID), zap.Int64("quota", a.config.FreeQuota))
			return model.NewError(model.KindQuotaExceeded, "user %s used the free quota of %d requests", r.UserID, a.config.FreeQuota)
		}
		reserved = true
	}

	request := model.Request{
		Token:     r.token,
		UserID:    r.UserID,
		Payload:   payload,
		CreatedAt: a.now().UTC(),
	}
	if doc, err := canonical.Parse([]byte(payload)); err == nil {
		request.DocumentID = doc.ID()
	}

	if err := a.store.InsertRequest(ctx, request); err != nil {
		if reserved {
			if rerr := a.store.ReleaseQuota(ctx, r.UserID); rerr != nil {
				a.logger.Error("failed to release the quota", zap.String("userID", r.UserID), zap.Error(rerr))
			}
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewError(model.KindAlreadyUsed, "the token was already used")
		}
		return err
	}
	return nil
}
