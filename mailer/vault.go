package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// PasswordSource yields the SMTP password at send time.
type PasswordSource interface {
	Password(ctx context.Context) (string, error)
}

// StaticPassword is a password taken verbatim from configuration.
type StaticPassword string

// Password returns the configured value.
func (p StaticPassword) Password(ctx context.Context) (string, error) {
	return string(p), nil
}

// VaultPassword reads the SMTP password from a KV v2 secret.
type VaultPassword struct {
	client    *api.Client
	mountPath string
	dataPath  string
	field     string
	log       *slog.Logger
}

// NewVaultPassword creates a password source backed by Vault.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token with read access to the secret
//   - mountPath: KV v2 mount (e.g. "secret")
//   - dataPath: secret path within the mount (e.g. "lawsign/smtp")
//   - field: key inside the secret holding the password, "password" if empty
func NewVaultPassword(address, token, mountPath, dataPath, field string, log *slog.Logger) (*VaultPassword, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.HttpClient = &http.Client{Timeout: 30 * time.Second}

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	if field == "" {
		field = "password"
	}

	return &VaultPassword{
		client:    client,
		mountPath: strings.Trim(mountPath, "/"),
		dataPath:  strings.Trim(dataPath, "/"),
		field:     field,
		log:       log,
	}, nil
}

// Password reads the secret and extracts the configured field.
func (v *VaultPassword) Password(ctx context.Context) (string, error) {
	path := fmt.Sprintf("%s/data/%s", v.mountPath, v.dataPath)

	secret, err := v.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		v.log.Error("Failed to read from Vault", slog.String("path", path), "err", err)
		return "", fmt.Errorf("vault read %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault secret %s not found", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return "", fmt.Errorf("vault secret %s has unexpected format", path)
	}
	password, ok := data[v.field].(string)
	if !ok || password == "" {
		return "", fmt.Errorf("vault secret %s has no %q field", path, v.field)
	}
	return password, nil
}
