package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/CodedInternet/motorlink/logger"
	"github.com/asdine/storm/v3"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
)

var (
	JWT_LIFESPAN time.Duration = time.Hour
)

type contextKey string

const jwtContextKey contextKey = "jwt"

//---
// Structs
//

// Operator is a local account allowed to drive the motors remotely.
type Operator struct {
	ID       int    `storm:"increment"` // pk
	Name     string `storm:"unique"`
	Password string
}

// Sets the Operator.Password to the hashed value for the provided plain text
func (o *Operator) SetPassword(pass []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.Password = string(hash)
	return nil
}

// Compares Operator.Password with the provided plain text.
// Returns values directly as provided by the bcrypt library for downstream processing.
func (o *Operator) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(o.Password), pass)
}

func CreateOperator(db *storm.DB, name, password string) error {
	if name == "" || password == "" {
		return errors.New("name and password are required")
	}

	operator := &Operator{Name: name}
	if err := operator.SetPassword([]byte(password)); err != nil {
		return err
	}
	return db.Save(operator)
}

//---
// Generic payloads
//---

// Login payload
type LoginPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (l *LoginPayload) Bind(r *http.Request) error {
	if l.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type JWTPayload struct {
	SignedToken string `json:"token"`
}

//---
// Helper functions
//

func jwtSecret() []byte {
	return []byte(ENV.JWT_SECRET)
}

// Produce a standard format JWT token
func newJWT(sub string) (ts string, err error) {
	now := time.Now().UTC()
	claims := jwt.StandardClaims{
		Issuer:    ENV.JWT_ISSUER,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(JWT_LIFESPAN).Unix(),
		Subject:   sub,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(jwtSecret())
}

//---
// Views
//---

// Login looks up an operator, verifies password and returns response
func Login(w http.ResponseWriter, r *http.Request) {
	data := &LoginPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var operator Operator
	if err := ENV.DB.One("Name", data.Name, &operator); err != nil {
		if err == storm.ErrNotFound {
			render.Render(w, r, ErrNotFound)
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	err := operator.VerifyPassword([]byte(data.Password))
	if err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			render.Render(w, r, ErrPermissionDenied(errors.New("Invalid password")))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	tokenString, err := newJWT(operator.Name)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	logger.Info("operator %s logged in", operator.Name)
	render.JSON(w, r, JWTPayload{tokenString})
}

// Provides a new token to the client
func JWTRefresh(w http.ResponseWriter, r *http.Request) {
	token, ok := r.Context().Value(jwtContextKey).(*jwt.Token)
	if !ok {
		render.Render(w, r, ErrUnauthorized(JWTEmpty))
		return
	}
	claims := token.Claims.(*jwt.StandardClaims)

	tokenString, err := newJWT(claims.Subject)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}

	render.JSON(w, r, JWTPayload{tokenString})
}

//---
// Authentication middleware
//---

var (
	JWTEmpty = errors.New("Bearer token not provided")
)

func ValidateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var tokenStr string

		// Get token from query params, browsers cannot set headers on websockets
		tokenStr = r.URL.Query().Get("jwt")

		// Get token from authorization header
		if tokenStr == "" {
			bearer := r.Header.Get("Authorization")
			if len(bearer) > 7 && strings.ToUpper(bearer[0:6]) == "BEARER" {
				tokenStr = bearer[7:]
			}
		}

		// Get token from cookie
		if tokenStr == "" {
			cookie, err := r.Cookie("jwt")
			if err == nil {
				tokenStr = cookie.Value
			}
		}

		if tokenStr == "" {
			render.Render(w, r, ErrUnauthorized(JWTEmpty))
			return
		}

		token, err := jwt.ParseWithClaims(tokenStr,
			&jwt.StandardClaims{},
			func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.New("unexpected signing method")
				}
				return jwtSecret(), nil
			})

		if err != nil {
			reason := errors.New("Invalid token")
			var jwterr *jwt.ValidationError
			if errors.As(err, &jwterr) && jwterr.Errors&jwt.ValidationErrorExpired != 0 {
				reason = errors.New("Token has expired")
			}

			render.Render(w, r, ErrUnauthorized(reason))
			return
		}

		if !token.Valid {
			render.Render(w, r, ErrUnauthorized(errors.New("Invalid token")))
			return
		}

		ctx = context.WithValue(ctx, jwtContextKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
