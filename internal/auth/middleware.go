package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	apperrors "rentease/pkg/errors"
	httputil "rentease/pkg/http"
	"rentease/pkg/model"
	"rentease/pkg/sealer"
)

// UserLoader fetches the account behind a token subject. Implemented by the
// users repository.
type UserLoader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticator turns bearer tokens into request identities.
type Authenticator struct {
	sealer *sealer.Sealer
	users  UserLoader
}

func NewAuthenticator(s *sealer.Sealer, users UserLoader) *Authenticator {
	return &Authenticator{sealer: s, users: users}
}

// Authenticate wraps an httprouter handle, requiring a valid bearer token
// backed by an active, email-verified account.
func (a *Authenticator) Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, err := a.resolve(r)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}

		r = r.WithContext(WithIdentity(r.Context(), identity))
		next(w, r, ps)
	}
}

// Require wraps an authenticated handle with a capability check.
func (a *Authenticator) Require(op Operation, next httprouter.Handle) httprouter.Handle {
	return a.Authenticate(func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		identity, _ := IdentityFrom(r.Context())
		if !Can(identity.Role, op) {
			httputil.WriteError(w, apperrors.Forbidden("You do not have permission to perform this action"))
			return
		}
		next(w, r, ps)
	})
}

func (a *Authenticator) resolve(r *http.Request) (Identity, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return Identity{}, apperrors.Unauthorized("Missing or malformed Authorization header")
	}

	token := strings.TrimPrefix(header, "Bearer ")

	claims, err := a.sealer.Open(token, sealer.PurposeAccess)
	if err != nil {
		if err == sealer.ErrExpiredToken {
			return Identity{}, apperrors.Unauthorized("Token has expired")
		}
		return Identity{}, apperrors.Unauthorized("Invalid token")
	}

	user, err := a.users.FindByID(r.Context(), claims.Subject)
	if err != nil {
		return Identity{}, apperrors.Unauthorized("Account no longer exists")
	}

	if !user.IsActive {
		return Identity{}, apperrors.Forbidden("Account is deactivated")
	}

	if !user.IsVerified {
		return Identity{}, apperrors.Forbidden("Email address is not verified")
	}

	return Identity{
		UserID:   user.ID,
		Role:     user.UserType,
		Email:    user.Email,
		FullName: user.FullName,
	}, nil
}
