// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/holomush/holoauth/internal/auth"
	"github.com/holomush/holoauth/internal/auth/memory"
	"github.com/holomush/holoauth/internal/handler"
	"github.com/holomush/holoauth/internal/token"
)

var (
	keysOnce    sync.Once
	accessPair  token.KeyPair
	refreshPair token.KeyPair
	keysErr     error
)

// testKeys generates the signing keys once per test binary.
func testKeys() (token.KeyPair, token.KeyPair, error) {
	keysOnce.Do(func() {
		accessPair, keysErr = generatePair()
		if keysErr != nil {
			return
		}
		refreshPair, keysErr = generatePair()
	})
	return accessPair, refreshPair, keysErr
}

func generatePair() (token.KeyPair, error) {
	privPEM, pubPEM, err := token.GenerateKeyPair(token.MinKeyBits)
	if err != nil {
		return token.KeyPair{}, err
	}
	return token.LoadKeyPair(token.EncodeKey(privPEM), token.EncodeKey(pubPEM))
}

// recordingMailer keeps every email it is asked to send.
type recordingMailer struct {
	mu     sync.Mutex
	emails []auth.Email
}

func (m *recordingMailer) Send(_ context.Context, email auth.Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emails = append(m.emails, email)
	return nil
}

func (m *recordingMailer) sent(kind auth.EmailKind) []auth.Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []auth.Email
	for _, e := range m.emails {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// env is a complete HTTP stack over the memory store and real RS256 keys.
type env struct {
	store  *memory.Store
	mailer *recordingMailer
	signer *token.Signer
	router *gin.Engine
}

// envOption adjusts the stack newEnv builds.
type envOption func(*envConfig)

type envConfig struct {
	sessions func(auth.SessionRepository) auth.SessionRepository
}

// withSessions wraps the session repository the services use.
func withSessions(wrap func(auth.SessionRepository) auth.SessionRepository) envOption {
	return func(c *envConfig) {
		c.sessions = wrap
	}
}

func newEnv(opts ...envOption) (*env, error) {
	gin.SetMode(gin.TestMode)

	var cfg envConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	access, refresh, err := testKeys()
	if err != nil {
		return nil, err
	}
	signer, err := token.NewSigner(access, refresh)
	if err != nil {
		return nil, err
	}
	hasher, err := auth.NewArgon2idHasherWithParams(auth.Argon2Params{
		Time:    1,
		Memory:  1024,
		Threads: 1,
		SaltLen: 16,
		KeyLen:  32,
	})
	if err != nil {
		return nil, err
	}

	logger := discardLogger()
	store := memory.NewStore()
	mailer := &recordingMailer{}

	var sessionRepo auth.SessionRepository = store.Sessions()
	if cfg.sessions != nil {
		sessionRepo = cfg.sessions(sessionRepo)
	}

	sessions, err := auth.NewAuthService(store.Users(), sessionRepo, hasher, signer, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	accounts, err := auth.NewAccountService(store.Users(), hasher, mailer, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	resolver, err := auth.NewIdentityResolver(signer, sessions, auth.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	router, err := handler.NewRouter(sessions, accounts, resolver, handler.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &env{store: store, mailer: mailer, signer: signer, router: router}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// do sends a request. Byte slices are sent as is, other bodies are
// JSON-encoded.
func (e *env) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) register(email, password string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/users", map[string]string{
		"firstName":            "Ada",
		"lastName":             "Lovelace",
		"email":                email,
		"password":             password,
		"passwordConfirmation": password,
	}, nil)
}

func (e *env) user(email string) (*auth.User, error) {
	return e.store.Users().GetByEmail(context.Background(), auth.NormalizeEmail(email))
}

func (e *env) verify(email string) (*httptest.ResponseRecorder, error) {
	u, err := e.user(email)
	if err != nil {
		return nil, err
	}
	return e.do(http.MethodGet, "/api/users/verify/"+u.ID.String()+"/"+u.VerificationCode, nil, nil), nil
}

func (e *env) login(email, password string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/api/sessions", map[string]string{
		"email":    email,
		"password": password,
	}, map[string]string{"User-Agent": "handler-test"})
}

func decodeTokens(w *httptest.ResponseRecorder) (auth.Tokens, error) {
	var tokens auth.Tokens
	err := json.Unmarshal(w.Body.Bytes(), &tokens)
	return tokens, err
}
