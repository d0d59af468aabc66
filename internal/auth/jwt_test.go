package auth

import (
	"os"
	"strings"
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
	os.Setenv("ADMC_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
	os.Exit(m.Run())
}

func TestValidateJWTSecret(t *testing.T) {
	t.Run("valid secret from env", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("ADMC_JWT_SECRET", "exactly-32-char-secret-for-test!!")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error: %v", err)
		}
	})

	t.Run("missing secret outside dev mode fails", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("ADMC_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "")
		t.Setenv("GIN_MODE", "")
		if err := ValidateJWTSecret(); err == nil {
			t.Error("ValidateJWTSecret() expected error with no secret in production mode")
		}
	})

	t.Run("missing secret in dev mode generates one", func(t *testing.T) {
		resetJWTSecret()
		t.Setenv("ADMC_JWT_SECRET", "")
		t.Setenv("DEV_MODE", "true")
		if err := ValidateJWTSecret(); err != nil {
			t.Errorf("ValidateJWTSecret() unexpected error in dev mode: %v", err)
		}
		if GetJWTSecret() == "" {
			t.Error("dev mode should have generated a secret")
		}
	})

	// Restore the shared test secret for the remaining tests.
	resetJWTSecret()
	os.Setenv("ADMC_JWT_SECRET", "test-jwt-secret-that-is-32-chars-!")
}

func TestGenerateAndValidateJWT(t *testing.T) {
	const userID = "user-1"

	token, err := GenerateJWT(userID, "alice", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if token == "" {
		t.Fatal("GenerateJWT returned an empty token")
	}

	claims, err := ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.UserID != userID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, userID)
	}
	if claims.Username != "alice" {
		t.Errorf("claims.Username = %q, want alice", claims.Username)
	}
	if claims.Role != "admin" {
		t.Errorf("claims.Role = %q, want admin", claims.Role)
	}
	if claims.Issuer != "admin-console" {
		t.Errorf("claims.Issuer = %q", claims.Issuer)
	}
	if claims.Subject != userID {
		t.Errorf("claims.Subject = %q, want %q", claims.Subject, userID)
	}
}

func TestValidateJWT_Expired(t *testing.T) {
	token, err := GenerateJWT("user-1", "alice", RoleSupport, -time.Minute)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateJWT(token); err == nil {
		t.Error("ValidateJWT accepted an expired token")
	}
}

func TestValidateJWT_Garbage(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := ValidateJWT(tok); err == nil {
			t.Errorf("ValidateJWT(%q) accepted an invalid token", tok)
		}
	}
}

func TestValidateJWT_TamperedSignature(t *testing.T) {
	token, err := GenerateJWT("user-1", "alice", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := ValidateJWT(tampered); err == nil {
		t.Error("ValidateJWT accepted a token with a forged signature")
	}
}

func TestVerificationTokenRoundTrip(t *testing.T) {
	token, err := GenerateVerificationToken("user-1", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}

	claims, err := ValidateVerificationToken(token)
	if err != nil {
		t.Fatalf("ValidateVerificationToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerificationToken_TypeSeparation(t *testing.T) {
	// The two token kinds share a signing secret; the type claim keeps one
	// from being replayed as the other.
	session, err := GenerateJWT("user-1", "alice", RoleAdmin, time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if _, err := ValidateVerificationToken(session); err == nil {
		t.Error("ValidateVerificationToken accepted a session token")
	}

	verification, err := GenerateVerificationToken("user-1", "alice@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}
	if claims, err := ValidateJWT(verification); err == nil {
		t.Errorf("ValidateJWT accepted a verification token as a session: claims = %+v", claims)
	}
}

func TestVerificationToken_Expired(t *testing.T) {
	token, err := GenerateVerificationToken("user-1", "alice@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateVerificationToken: %v", err)
	}
	if _, err := ValidateVerificationToken(token); err == nil {
		t.Error("ValidateVerificationToken accepted an expired token")
	}
}
