package auth

import (
	"os"
	"sync"
	"testing"
	"time"
)

// resetJWTSecret resets the package-level sync.Once so tests can set a fresh secret.
// This is only safe to call from test code.
func resetJWTSecret() {
	jwtSecret = ""
	jwtSecretOnce = sync.Once{}
	jwtSecretErr = nil
}

func TestMain(m *testing.M) {
	// Set a known test secret before any test runs.
	// The sync.Once will capture this value on first call to ValidateJWTSecret.
	os.Setenv("PORTAL_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
	os.Exit(m.Run())
}

func TestValidateJWTSecret(t *testing.T) {
	t.Run("valid secret from env", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("PORTAL_JWT_SECRET", "exactly-32-char-secret-for-test!!")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error: %v", err)
		}
	})

	t.Run("production mode requires secret", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("PORTAL_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "")
		t.Setenv("GIN_MODE", "release")
		if err := ValidateJWTSecret(); err == nil {
			t.Error("ValidateJWTSecret() expected error in production mode without secret, got nil")
		}
	})

	t.Run("dev mode generates random secret", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("PORTAL_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "true")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error in dev mode: %v", err)
		}
		if GetJWTSecret() == "" {
			t.Error("GetJWTSecret() returned empty string after dev mode init")
		}
	})
}

func TestGenerateAndParseJWT(t *testing.T) {
	resetJWTSecret()
	t.Setenv("PORTAL_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")

	token, err := GenerateJWT("user-1", "member@example.com", "Pat Member", false, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Email != "member@example.com" {
		t.Errorf("Email = %q, want member@example.com", claims.Email)
	}
	if claims.Admin {
		t.Error("Admin = true, want false")
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
}

func TestGenerateJWT_AdminClaim(t *testing.T) {
	resetJWTSecret()
	t.Setenv("PORTAL_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")

	token, err := GenerateJWT("admin-1", "admin@example.com", "", true, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	claims, err := ParseJWT(token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if !claims.Admin {
		t.Error("Admin = false, want true")
	}
}

func TestParseJWT_Expired(t *testing.T) {
	resetJWTSecret()
	t.Setenv("PORTAL_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")

	token, err := GenerateJWT("user-1", "member@example.com", "", false, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	if _, err := ParseJWT(token); err == nil {
		t.Error("ParseJWT() accepted an expired token")
	}
}

func TestParseJWT_Garbage(t *testing.T) {
	resetJWTSecret()
	t.Setenv("PORTAL_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")

	if _, err := ParseJWT("not-a-jwt"); err == nil {
		t.Error("ParseJWT() accepted a malformed token")
	}
}
