package jwt

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"log"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/hertz-contrib/jwt"

	"drape/leon/admin-service/config"
)

var (
	IdentityKey         = "sub"
	PublicKeyAuthServer = "-----BEGIN PUBLIC KEY-----\nMFkwEwYHKoZIzj0CAQYIKoZIzj0DAQcDQgAEnlwXdOFOQFhhEoYksncm/mmRMjVv\nVKiJhzabtB5d2uMV7Xn0SKVzJB4jKUM/05Qcfmxkjt4OyBJNQ4LE5oa3eQ==\n-----END PUBLIC KEY-----\n"
)

type AdminUser struct {
	ID    string
	Email string
}

// GetJwtMiddleware verifies tokens issued by the auth server and only lets
// whitelisted admin emails through. Every admin route mounts this.
func GetJwtMiddleware(cfg *config.Config) *jwt.HertzJWTMiddleware {
	var err error
	publicKeyBlock, _ := pem.Decode([]byte(PublicKeyAuthServer))
	publicKey, err := x509.ParsePKIXPublicKey(publicKeyBlock.Bytes)
	if err != nil {
		log.Fatal(err)
	}
	ECDSAPubKey := publicKey.(*ecdsa.PublicKey)

	admins := map[string]bool{}
	for _, email := range cfg.Admin.Emails {
		admins[strings.ToLower(strings.TrimSpace(email))] = true
	}

	JwtMiddleware, err := jwt.New(&jwt.HertzJWTMiddleware{
		Realm:       "drape admin digital signature public key auth",
		Key:         []byte("secret key"),
		Timeout:     time.Hour,
		MaxRefresh:  time.Hour,
		IdentityKey: IdentityKey,
		PayloadFunc: func(data interface{}) jwt.MapClaims {
			if v, ok := data.(*AdminUser); ok {
				return jwt.MapClaims{
					IdentityKey: v.ID,
					"email":     v.Email,
				}
			}
			return jwt.MapClaims{}
		},
		IdentityHandler: func(ctx context.Context, c *app.RequestContext) interface{} {
			claims := jwt.ExtractClaims(ctx, c)
			user := &AdminUser{}
			if sub, ok := claims[IdentityKey].(string); ok {
				user.ID = sub
			}
			if email, ok := claims["email"].(string); ok {
				user.Email = email
			}
			return user
		},
		Authorizator: func(data interface{}, ctx context.Context, c *app.RequestContext) bool {
			v, ok := data.(*AdminUser)
			if !ok {
				return false
			}
			if !admins[strings.ToLower(v.Email)] {
				return false
			}
			c.Set("userID", v.ID)
			c.Set("adminEmail", v.Email)
			return true
		},
		Unauthorized: func(ctx context.Context, c *app.RequestContext, code int, message string) {
			c.JSON(code, map[string]interface{}{
				"code":    code,
				"message": message,
			})
		},
		TokenLookup:   "header: Authorization, query: token, cookie: jwt",
		TokenHeadName: "Bearer",
		TimeFunc:      time.Now,
		KeyFunc: func(t *gojwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*gojwt.SigningMethodECDSA); !ok {
				return nil, jwt.ErrInvalidSigningAlgorithm
			}
			return ECDSAPubKey, nil
		},
	})
	if err != nil {
		log.Fatal("JWT Error:" + err.Error())
	}
	return JwtMiddleware
}
