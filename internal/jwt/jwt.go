package jwt

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type UserToken struct {
	UserID   int64 `json:"userID,string"`
	Remember bool  `json:"rem"`
	jwt.RegisteredClaims
}

// Verifier checks tokens issued by the identity provider that shares the
// secret, and re-signs them when a session is renewed.
type Verifier struct {
	secret  []byte
	isHttps bool
}

func NewVerifier(secret string, isHttps bool) *Verifier {
	return &Verifier{secret: []byte(secret), isHttps: isHttps}
}

func (v *Verifier) CreateToken(rememberMe bool, userID int64) (http.Cookie, error) {
	var tokenLifeTime time.Duration
	if rememberMe {
		tokenLifeTime = time.Hour * 24 * 7 * 4 // 4 weeks
	} else {
		tokenLifeTime = time.Hour * 24 // 1 day
	}

	currentTime := time.Now().UTC()
	expirationDate := currentTime.Add(tokenLifeTime)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, UserToken{
		UserID:   userID,
		Remember: rememberMe,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(expirationDate),
		},
	})

	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return http.Cookie{}, err
	}

	cookie := http.Cookie{
		Name:     "JWT",
		Value:    tokenString,
		Path:     "/",
		HttpOnly: true,
		Secure:   v.isHttps,
		SameSite: http.SameSiteLaxMode,
	}

	if rememberMe {
		cookie.Expires = expirationDate
	}

	return cookie, nil
}

// VerifyToken also rejects expired tokens and tokens without a user.
func (v *Verifier) VerifyToken(tokenString string) (UserToken, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserToken{}, func(token *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return UserToken{}, err
	}

	claims, ok := token.Claims.(*UserToken)
	if !ok || claims.UserID == 0 {
		return UserToken{}, errors.New("invalid token")
	}
	return *claims, nil
}
