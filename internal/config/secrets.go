package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// SecretsAPI is the subset of the Secrets Manager client used to resolve secrets.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, input *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveSecrets replaces server.apiKey with the value of server.apiKeySecretId
// when a secret id is configured.
func ResolveSecrets(ctx context.Context, cfg *types.ProjectConfig, client SecretsAPI) error {
	if cfg.Server == nil || cfg.Server.APIKeySecretID == "" {
		return nil
	}
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(cfg.Server.APIKeySecretID),
	})
	if err != nil {
		return fmt.Errorf("reading secret %s: %w", cfg.Server.APIKeySecretID, err)
	}
	key := aws.ToString(out.SecretString)
	if key == "" {
		return fmt.Errorf("secret %s has no string value", cfg.Server.APIKeySecretID)
	}
	cfg.Server.APIKey = key
	return nil
}
