package mlkit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viant/scy"
)

// keypair is the JSON document shape expected at Config.SecretsURL.
type keypair struct {
	AccessKeyID     string `json:"accessKeyID"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// loadKeypair decrypts the signing keypair stored at URL. Key selects the
// encryption key, e.g. "blowfish://default"; leave it empty for plain
// storage.
func loadKeypair(ctx context.Context, secrets *scy.Service, URL, key string) (*keypair, error) {
	resource := scy.NewResource(nil, URL, key)
	secret, err := secrets.Load(ctx, resource)
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from %v: %w", URL, err)
	}
	result := &keypair{}
	if err := json.Unmarshal([]byte(secret.String()), result); err != nil {
		return nil, fmt.Errorf("failed to parse credentials from %v: %w", URL, err)
	}
	if result.AccessKeyID == "" || result.SecretAccessKey == "" {
		return nil, fmt.Errorf("credentials at %v missing accessKeyID or secretAccessKey", URL)
	}
	return result, nil
}
