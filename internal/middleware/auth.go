package middleware

import (
	"log"
	"net/url"
	"time"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	adapter "github.com/gwatts/gin-adapter"
)

// UserIDKey is the gin context key test middlewares use to inject an
// identity without a real token.
const UserIDKey = "user_id"

// JWTAuth validates Auth0-issued bearer tokens. Requests without a valid
// token are rejected before reaching handlers.
func JWTAuth(domain, audience string) (gin.HandlerFunc, error) {
	issuerURL, err := url.Parse("https://" + domain + "/")
	if err != nil {
		return nil, err
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)
	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{audience},
	)
	if err != nil {
		return nil, err
	}

	mw := jwtmiddleware.New(jwtValidator.ValidateToken)
	return adapter.Wrap(mw.CheckJWT), nil
}

// GetAuth0ID extracts the subject claim from the validated JWT in the
// request context.
func GetAuth0ID(c *gin.Context) (string, bool) {
	claims, exists := c.Request.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
	if !exists {
		log.Printf("No user claims found in context")
		return "", false
	}

	return claims.RegisteredClaims.Subject, true
}

// GetUserID returns the authenticated identity: an injected test identity if
// one is present, otherwise the JWT subject.
func GetUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get(UserIDKey); ok {
		id, ok := v.(string)
		return id, ok
	}
	return GetAuth0ID(c)
}
