package mockbank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"mbank/internal/crypto"
	"mbank/internal/domain"
)

const maxRequestBytes = 64 << 10

// Config wires a Server.
type Config struct {
	// ChecksumKey must match the clients' signing key.
	ChecksumKey string
	// TokenSecret signs access and refresh tokens.
	TokenSecret string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	Logger      *slog.Logger
	// Registerer receives the HTTP metrics; nil disables them.
	Registerer prometheus.Registerer
}

// Server serves the bank API over a Bank.
type Server struct {
	bank    *Bank
	signer  *crypto.Signer
	tokens  *tokenIssuer
	log     *slog.Logger
	metrics *metrics
}

type ctxKey struct{}

// NewServer validates cfg and returns a Server.
func NewServer(bank *Bank, cfg Config) (*Server, error) {
	signer, err := crypto.NewSigner(cfg.ChecksumKey)
	if err != nil {
		return nil, err
	}
	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("%w: mockbank: token secret is required", domain.ErrConfiguration)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		bank:   bank,
		signer: signer,
		tokens: &tokenIssuer{secret: []byte(cfg.TokenSecret), accessTTL: cfg.AccessTTL, refreshTTL: cfg.RefreshTTL},
		log:    log.With("component", "mockbank"),
	}
	if cfg.Registerer != nil {
		s.metrics = newMetrics(cfg.Registerer)
	}
	return s, nil
}

// Handler returns a router serving the API at the root.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	s.Register(r)
	return r
}

// Register mounts the API routes on r.
func (s *Server) Register(r *mux.Router) {
	r.Use(s.accessLog)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh-tokens", s.refresh).Methods(http.MethodPost)
	r.HandleFunc("/users/by-phone-number", s.userByPhone).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireBearer)
	authed.HandleFunc("/accounts/by-user-id", s.account).Methods(http.MethodGet)
	authed.HandleFunc("/transactions/by-user-id", s.history).Methods(http.MethodGet)
	authed.HandleFunc("/transactions", s.createTransaction).Methods(http.MethodPost)
}

// ---------- Auth ----------

type tokenBody struct {
	Token string `json:"token"`
}

type tokenPair struct {
	Access  tokenBody `json:"access"`
	Refresh tokenBody `json:"refresh"`
}

func (s *Server) pair(phone string) (tokenPair, error) {
	access, refresh, err := s.tokens.issuePair(phone)
	if err != nil {
		return tokenPair{}, err
	}
	return tokenPair{Access: tokenBody{access}, Refresh: tokenBody{refresh}}, nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PhoneNumber string `json:"phoneNumber"`
		Password    string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name, err := s.bank.Authenticate(in.PhoneNumber, in.Password)
	if err != nil {
		respondBankError(w, err)
		return
	}
	tokens, err := s.pair(in.PhoneNumber)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, map[string]any{
		"tokens": tokens,
		"user":   domain.User{Name: name, PhoneNumber: domain.PhoneNumber(in.PhoneNumber)},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	phone, err := s.tokens.parse(in.RefreshToken, tokenRefresh)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	tokens, err := s.pair(phone)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondData(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (s *Server) userByPhone(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	name, err := s.bank.Lookup(in.PhoneNumber)
	if err != nil {
		respondBankError(w, err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"name": name, "phoneNumber": in.PhoneNumber})
}

// requireBearer resolves the access token to the caller's phone number.
func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			respondError(w, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		phone, err := s.tokens.parse(raw, tokenAccess)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, phone)))
	})
}

func caller(r *http.Request) string {
	phone, _ := r.Context().Value(ctxKey{}).(string)
	return phone
}

// ---------- Accounts & transactions ----------

func (s *Server) account(w http.ResponseWriter, r *http.Request) {
	acc, err := s.bank.Account(caller(r))
	if err != nil {
		respondBankError(w, err)
		return
	}
	respondData(w, http.StatusOK, acc)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	list, err := s.bank.History(caller(r))
	if err != nil {
		respondBankError(w, err)
		return
	}
	respondData(w, http.StatusOK, list)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	phone := caller(r)
	key := r.Header.Get("Idempotency-Key")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Unreadable body")
		return
	}

	prev, replayed, err := s.bank.Reserve(phone, key, body)
	if err != nil {
		respondBankError(w, err)
		return
	}
	if replayed {
		writeRaw(w, prev.Status, prev.Body)
		return
	}

	status, out := s.execute(phone, body)
	b, _ := json.Marshal(out)
	if status < http.StatusInternalServerError {
		s.bank.Remember(phone, key, Outcome{Status: status, Body: b})
	} else {
		s.bank.Release(phone, key)
	}
	writeRaw(w, status, b)
}

// execute verifies and applies a transaction body, returning the response.
func (s *Server) execute(phone string, body []byte) (int, any) {
	fields := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return http.StatusBadRequest, errorBody("Invalid JSON")
	}

	sum, _ := fields["checksum"].(string)
	delete(fields, "checksum")
	if sum == "" {
		return http.StatusBadRequest, errorBody("Missing checksum")
	}
	if ok, err := s.signer.Verify(crypto.Payload(fields), sum); err != nil || !ok {
		s.log.Warn("checksum mismatch", "phone", phone)
		return http.StatusBadRequest, errorBody("Invalid checksum")
	}

	req, err := parseTransaction(fields)
	if err != nil {
		return http.StatusUnprocessableEntity, errorBody(err.Error())
	}
	trx, err := s.bank.Execute(phone, req)
	if err != nil {
		status, msg := bankErrorStatus(err)
		return status, errorBody(msg)
	}
	s.log.Info("transaction created", "id", trx.TransactionID, "type", trx.TransactionType)
	return http.StatusCreated, dataBody(trx)
}

func parseTransaction(f map[string]any) (domain.TransactionRequest, error) {
	str := func(k string) string {
		v, _ := f[k].(string)
		return v
	}

	var raw string
	switch v := f["amount"].(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return domain.TransactionRequest{}, domain.ErrInvalidAmount
	}

	req := domain.TransactionRequest{
		Account:         domain.AccountNumber(str("account")),
		To:              domain.PhoneNumber(str("to")),
		Amount:          amount,
		Description:     str("description"),
		TransactionType: domain.TransactionType(str("transactionType")),
		TokenID:         str("tokenId"),
	}
	if err := req.Validate(); err != nil {
		return domain.TransactionRequest{}, err
	}
	return req, nil
}

// ---------- Helpers ----------

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes)).Decode(v)
}

func dataBody(v any) map[string]any { return map[string]any{"data": v} }

func errorBody(msg string) map[string]string { return map[string]string{"message": msg} }

func respondData(w http.ResponseWriter, code int, v any) {
	respondJSON(w, code, dataBody(v))
}

func respondError(w http.ResponseWriter, code int, msg string) {
	respondJSON(w, code, errorBody(msg))
}

func respondBankError(w http.ResponseWriter, err error) {
	code, msg := bankErrorStatus(err)
	respondError(w, code, msg)
}

func bankErrorStatus(err error) (int, string) {
	var be *Error
	if errors.As(err, &be) {
		return be.Status, be.Message
	}
	return http.StatusInternalServerError, err.Error()
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeRaw(w, code, b)
}

func writeRaw(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
