package auth

import (
	"testing"
)

func TestLoadJWTConfig_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "secret-from-env")
	t.Setenv("JWT_ISSUER", "issuer-from-env")

	config, err := loadJWTConfig()
	if err != nil {
		t.Fatalf("loadJWTConfig() error = %v", err)
	}
	if config.SecretKey != "secret-from-env" {
		t.Errorf("SecretKey = %q, want %q", config.SecretKey, "secret-from-env")
	}
	if config.Issuer != "issuer-from-env" {
		t.Errorf("Issuer = %q, want %q", config.Issuer, "issuer-from-env")
	}
}

func TestLoadJWTConfig_EphemeralSecretWhenUnset(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "")

	first, err := loadJWTConfig()
	if err != nil {
		t.Fatalf("loadJWTConfig() error = %v", err)
	}
	second, err := loadJWTConfig()
	if err != nil {
		t.Fatalf("loadJWTConfig() error = %v", err)
	}

	// There is no hardcoded fallback: the key is generated, never empty,
	// and different on every load.
	if first.SecretKey == "" {
		t.Fatal("loadJWTConfig() returned empty secret key")
	}
	if first.SecretKey == second.SecretKey {
		t.Error("loadJWTConfig() returned the same generated key twice")
	}
}
