package auth

import (
	"testing"
	"time"
)

func TestJWTManagerRoundtrip(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)

	token, err := m.Generate("consultation-42")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error: %v", err)
	}
	if claims.Subject != "consultation-42" {
		t.Errorf("Subject = %s, want consultation-42", claims.Subject)
	}
}

func TestJWTManagerRejectsInvalid(t *testing.T) {
	m := NewJWTManager("test-secret", time.Hour)
	other := NewJWTManager("other-secret", time.Hour)

	tests := []struct {
		name  string
		token func() string
	}{
		{"garbage", func() string { return "not-a-token" }},
		{"wrong secret", func() string {
			token, _ := other.Generate("x")
			return token
		}},
		{"expired", func() string {
			expired := NewJWTManager("test-secret", -time.Minute)
			token, _ := expired.Generate("x")
			return token
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Verify(tt.token()); err == nil {
				t.Error("Verify() accepted an invalid token")
			}
		})
	}
}
