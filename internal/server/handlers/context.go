package handlers

import "context"

// contextKey тип для ключей контекста
type contextKey string

const (
	// OperatorKey ключ для имени оператора в контексте
	OperatorKey contextKey = "operator"
)

// GetOperator извлекает имя оператора из контекста
func GetOperator(ctx context.Context) (string, bool) {
	operator, ok := ctx.Value(OperatorKey).(string)
	return operator, ok
}
