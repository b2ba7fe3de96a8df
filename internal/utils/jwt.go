package utils // package utils provides helpers for access token handling

import (
    "errors"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
    "github.com/google/uuid"

    "github.com/iliyamo/service-booking/internal/model"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.  The concrete cause is wrapped.
var ErrInvalidToken = errors.New("invalid access token")

// AccessClaims are the claims carried by an access token.  The subject is
// the identity id in decimal; jti identifies the token for revocation.
type AccessClaims struct {
    Role string `json:"role"`
    Name string `json:"name,omitempty"`
    jwt.RegisteredClaims
}

// AccessToken represents a signed JWT access token along with its id and
// expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    ID    string    // jti claim
    Exp   time.Time // the UTC expiration time
}

// VerifiedToken is the result of a successful ParseAccessToken.
type VerifiedToken struct {
    Identity model.Identity
    ID       string
    Exp      time.Time
}

// NewAccessToken builds and signs an HS256 JWT for an identity.  Tokens are
// normally issued by the external auth service; this is used by tests and
// the devtoken tool, which share the same secret.
func NewAccessToken(secret string, id model.Identity, ttl time.Duration) (AccessToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    jti := uuid.NewString()
    claims := AccessClaims{
        Role: string(id.Role),
        Name: id.Name,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   strconv.FormatUint(id.ID, 10),
            ID:        jti,
            IssuedAt:  jwt.NewNumericDate(now),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseAccessToken verifies raw with secret and returns the identity it
// carries.  Only HS256 is accepted; sub, role, jti and exp are required, and
// sub must be a positive decimal id.
func ParseAccessToken(secret, raw string) (VerifiedToken, error) {
    var claims AccessClaims
    _, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return VerifiedToken{}, errors.Join(ErrInvalidToken, err)
    }

    uid, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || uid == 0 {
        return VerifiedToken{}, errors.Join(ErrInvalidToken, errors.New("subject is not a valid id"))
    }
    role, ok := model.ParseRole(claims.Role)
    if !ok {
        return VerifiedToken{}, errors.Join(ErrInvalidToken, errors.New("unknown role"))
    }
    if claims.ID == "" {
        return VerifiedToken{}, errors.Join(ErrInvalidToken, errors.New("missing token id"))
    }
    return VerifiedToken{
        Identity: model.Identity{ID: uid, Role: role, Name: claims.Name},
        ID:       claims.ID,
        Exp:      claims.ExpiresAt.Time.UTC(),
    }, nil
}
