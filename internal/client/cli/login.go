package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/iudanet/listingsync/internal/client/storage"
)

// apiKeyEnv переменная окружения с API ключом сервера
const apiKeyEnv = "LISTINGSYNC_API_KEY"

func (c *Cli) runLogin(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	operator := fs.String("operator", "", "Operator name recorded in the token")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	if *operator == "" {
		name, err := c.io.ReadInput("Operator: ")
		if err != nil {
			return fmt.Errorf("failed to read operator: %w", err)
		}
		*operator = name
	}
	if *operator == "" {
		return fmt.Errorf("%w: operator cannot be empty", ErrUsage)
	}

	apiKey, err := c.secret(apiKeyEnv, "API key: ")
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}

	resp, err := c.client.IssueToken(ctx, *operator, apiKey)
	if err != nil {
		return err
	}

	session := &storage.Session{
		Operator:    *operator,
		Server:      c.server,
		AccessToken: resp.AccessToken,
		ExpiresAt:   c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	}
	if err := c.sessions.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.io.Println("✓ Login successful!")
	c.io.Printf("Operator: %s\n", session.Operator)
	c.io.Printf("Token expires: %s\n", time.Unix(session.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}

func (c *Cli) runLogout(ctx context.Context, _ []string) error {
	err := c.sessions.DeleteSession(ctx)
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		c.io.Println("Not logged in.")
		return nil
	case err != nil:
		return fmt.Errorf("failed to delete session: %w", err)
	}

	c.io.Println("✓ Logged out")
	return nil
}

// secret берет секрет из окружения, иначе спрашивает без эха
func (c *Cli) secret(env, prompt string) (string, error) {
	if v := os.Getenv(env); v != "" {
		return v, nil
	}

	v, err := c.io.ReadSecret(prompt)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s cannot be empty", ErrUsage, env)
	}
	return v, nil
}
