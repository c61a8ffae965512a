package util

import (
	"errors"
	"sync"
	"time"

	"taskboard/config"
	"taskboard/dao/model"
	"taskboard/logutils"

	jwt "github.com/golang-jwt/jwt/v5"
)

type (
	JWTClaims struct {
		UserID uint       `json:"ui"`
		Name   string     `json:"un"`
		Role   model.Role `json:"rl"`
		jwt.RegisteredClaims
	}
	// JWTMessage is the authenticated actor identity injected into
	// every request after the token is verified.
	JWTMessage struct {
		UserID uint       `json:"userID"`
		Name   string     `json:"name"`
		Role   model.Role `json:"role"`
	}
)

type TokenManager struct {
	secretKey string
	tokenTTL  time.Duration
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		conf := config.GetConfig()
		tokenMgr = newTokenManager(conf.Auth.Secret,
			time.Duration(conf.Auth.TokenTTLDays)*24*time.Hour)
	})
	return tokenMgr
}

func newTokenManager(secretKey string, tokenTTL time.Duration) *TokenManager {
	return &TokenManager{
		secretKey,
		tokenTTL,
	}
}

// CreateToken issues a signed bearer token for the given identity.
func (tm *TokenManager) CreateToken(msg *JWTMessage) (string, error) {
	expiresAt := time.Now().Add(tm.tokenTTL)

	claims := &JWTClaims{
		UserID: msg.UserID,
		Name:   msg.Name,
		Role:   msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(tm.secretKey))
	if err != nil {
		logutils.Log.Error(err)
		return "", err
	}
	return signed, nil
}

// CheckToken verifies a bearer token and returns the identity it
// carries.
func (tm *TokenManager) CheckToken(requestToken string) (JWTMessage, error) {
	claims := JWTClaims{}
	token, err := jwt.ParseWithClaims(requestToken, &claims, func(_ *jwt.Token) (any, error) {
		return []byte(tm.secretKey), nil
	})
	if err != nil {
		return JWTMessage{}, err
	}
	if !token.Valid {
		return JWTMessage{}, errors.New("invalid token")
	}
	return JWTMessage{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}, nil
}
