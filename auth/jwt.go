package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/intermodalis/transitcore/coreerrors"
	"github.com/intermodalis/transitcore/permissions"
)

// managementPrefix is the literal 6-byte wire prefix management tokens
// carry ahead of their JWT (spec.md §4.4, §6).
const managementPrefix = "manag."

// AccessClaims is the access-token claim set (spec.md §4.4). Origin is the
// refresh jti that minted this access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Origin      uuid.UUID               `json:"origin"`
	UserID      int64                   `json:"uid"`
	Permissions permissions.Permissions `json:"permissions"`
}

// RefreshClaims is the refresh-token claim set (spec.md §4.4).
type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"uid"`
	Username string `json:"uname"`
}

// ManagementClaims is the management-token claim set (spec.md §4.4).
type ManagementClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"uid"`
}

// KeySet is the process-wide signing-key set (spec.md §5 "Shared state"):
// initialized once at startup, never mutated.
type KeySet struct {
	AccessSecret     []byte
	RefreshSecret    []byte
	ManagementSecret []byte

	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	ManagementTTL time.Duration
}

func (k KeySet) signAccess(claims AccessClaims) (string, error) {
	return signHS256(claims, k.AccessSecret)
}

func (k KeySet) signRefresh(claims RefreshClaims) (string, error) {
	return signHS256(claims, k.RefreshSecret)
}

func (k KeySet) signManagement(claims ManagementClaims) (string, error) {
	signed, err := signHS256(claims, k.ManagementSecret)
	if err != nil {
		return "", err
	}
	return managementPrefix + signed, nil
}

func signHS256(claims jwt.Claims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", coreerrors.Processing.Wrap(err)
	}
	return signed, nil
}

// DecodeAccess parses and validates an access token.
func (k KeySet) DecodeAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := parseHS256(token, &claims, k.AccessSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// DecodeRefresh parses and validates a refresh token.
func (k KeySet) DecodeRefresh(token string) (*RefreshClaims, error) {
	var claims RefreshClaims
	if err := parseHS256(token, &claims, k.RefreshSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

// DecodeManagement strips the literal manag. prefix (rejecting anything
// shorter than 7 bytes or missing the prefix, per spec.md §6) before
// parsing the remaining JWT.
func (k KeySet) DecodeManagement(token string) (*ManagementClaims, error) {
	if len(token) < len(managementPrefix)+1 || !strings.HasPrefix(token, managementPrefix) {
		return nil, coreerrors.Forbidden.New("management token missing manag. prefix")
	}
	var claims ManagementClaims
	if err := parseHS256(strings.TrimPrefix(token, managementPrefix), &claims, k.ManagementSecret); err != nil {
		return nil, err
	}
	return &claims, nil
}

func parseHS256(token string, claims jwt.Claims, secret []byte) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, coreerrors.Forbidden.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return coreerrors.Forbidden.Wrap(err)
	}
	return nil
}
