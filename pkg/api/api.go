// Package api содержит типы запросов и ответов HTTP API listingsync
package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Kind    string `json:"kind,omitempty"`    // класс ошибки (config_invalid, connectivity, ...)
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// TokenRequest запрос на выпуск токена оператора
type TokenRequest struct {
	Operator string `json:"operator" validate:"required,max=64"`
	APIKey   string `json:"api_key" validate:"required"`
}

// TokenResponse представляет выпущенный токен оператора
type TokenResponse struct {
	AccessToken string `json:"access_token"` // JWT access token
	ExpiresIn   int64  `json:"expires_in"`   // время жизни в секундах
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
