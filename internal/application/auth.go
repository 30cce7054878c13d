package application

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/atvirokodosprendimai/clinicseed/internal/domain"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Authenticate checks a printed login against what the last rebuild stored.
// token is optional; when set it must match the stored token digest.
func (i *TokenIdentity) Authenticate(ctx context.Context, dir domain.LoginDirectory, email, secret, token string) (domain.StoredLogin, error) {
	login, err := dir.FindLogin(ctx, email)
	if errors.Is(err, domain.ErrLoginNotFound) {
		return domain.StoredLogin{}, ErrInvalidCredentials
	}
	if err != nil {
		return domain.StoredLogin{}, err
	}
	if !i.Verify(login.PasswordHash, secret) {
		return domain.StoredLogin{}, ErrInvalidCredentials
	}
	if token != "" && subtle.ConstantTimeCompare([]byte(HashToken(token)), []byte(login.TokenDigest)) != 1 {
		return domain.StoredLogin{}, ErrInvalidCredentials
	}
	return login, nil
}
