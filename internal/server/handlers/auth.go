package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/iudanet/listingsync/pkg/api"
)

// AuthHandler выпускает токены операторов в обмен на API ключ
type AuthHandler struct {
	logger    *slog.Logger
	jwtConfig JWTConfig
	keyDigest [sha256.Size]byte
	enabled   bool
}

// NewAuthHandler создает новый handler для авторизации.
// Пустой apiKey отключает выпуск токенов через API
func NewAuthHandler(logger *slog.Logger, jwtConfig JWTConfig, apiKey string) *AuthHandler {
	return &AuthHandler{
		logger:    logger,
		jwtConfig: jwtConfig,
		keyDigest: sha256.Sum256([]byte(apiKey)),
		enabled:   apiKey != "",
	}
}

// Token обрабатывает POST /api/v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !h.enabled {
		sendError(w, h.logger, "token issuing is disabled", http.StatusForbidden)
		return
	}

	var req api.TokenRequest
	if err := decodeRequest(r, &req, false); err != nil {
		sendDomainError(w, h.logger, err)
		return
	}

	// Сравниваем дайджесты за постоянное время
	got := sha256.Sum256([]byte(req.APIKey))
	if subtle.ConstantTimeCompare(got[:], h.keyDigest[:]) != 1 {
		h.logger.WarnContext(ctx, "invalid api key", "operator", req.Operator)
		sendError(w, h.logger, "invalid api key", http.StatusUnauthorized)
		return
	}

	token, expiresIn, err := GenerateAccessToken(h.jwtConfig, req.Operator)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to generate access token", slog.Any("error", err))
		sendError(w, h.logger, "internal server error", http.StatusInternalServerError)
		return
	}

	h.logger.InfoContext(ctx, "operator token issued", "operator", req.Operator)
	sendJSON(w, h.logger, api.TokenResponse{AccessToken: token, ExpiresIn: expiresIn}, http.StatusOK)
}
