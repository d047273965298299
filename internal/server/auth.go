package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/lumis-app/invoice-ocr/internal/common"
)

// User is the authenticated caller attached to every request.
type User struct {
	ID    int64
	Email string
}

// Authenticator resolves the calling user from a request. The service runs
// behind a gateway that terminates auth, so the default implementation trusts
// gateway-injected identity headers.
type Authenticator interface {
	Authenticate(r *http.Request) (User, error)
}

// HeaderAuthenticator reads X-User-Id and X-User-Email set by the gateway.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (User, error) {
	raw := r.Header.Get("X-User-Id")
	if raw == "" {
		return User{}, fmt.Errorf("%w: missing user identity", common.ErrForbidden)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return User{}, fmt.Errorf("%w: malformed user identity", common.ErrForbidden)
	}
	return User{ID: id, Email: r.Header.Get("X-User-Email")}, nil
}
