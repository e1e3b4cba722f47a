package validation

import (
	"fmt"
	"regexp"
)

// FieldNamePattern определяет допустимый формат имени поля listing
// Только строчные латинские буквы (a-z), цифры (0-9), нижнее подчеркивание (_),
// первый символ буква. Длина: 1-64 символа
var FieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

const (
	// MaxFieldNameLen максимальная длина имени поля
	MaxFieldNameLen = 64
)

// ValidateFieldName проверяет, что имя поля соответствует требованиям
func ValidateFieldName(name string) error {
	if name == "" {
		return fmt.Errorf("field name cannot be empty")
	}

	if len(name) > MaxFieldNameLen {
		return fmt.Errorf("field name must not exceed %d characters", MaxFieldNameLen)
	}

	if !FieldNamePattern.MatchString(name) {
		return fmt.Errorf("field name %q can only contain lowercase letters (a-z), numbers (0-9), and underscores (_), starting with a letter", name)
	}

	return nil
}

// ValidateAccessToken проверяет минимальные требования к токену доступа remote store
// Минимум 8 символов, без пробелов
func ValidateAccessToken(token string) error {
	const minTokenLen = 8

	if token == "" {
		return fmt.Errorf("access token cannot be empty")
	}

	if len(token) < minTokenLen {
		return fmt.Errorf("access token must be at least %d characters long", minTokenLen)
	}

	for _, r := range token {
		if r == ' ' || r == '\t' || r == '\n' {
			return fmt.Errorf("access token must not contain whitespace")
		}
	}

	return nil
}
