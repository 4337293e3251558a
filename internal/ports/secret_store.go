package ports

import "context"

// SecretStore resolves secret references such as the GLPI password or the
// Matrix access token.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}
