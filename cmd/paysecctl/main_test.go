package main

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"testing"

	"github.com/skillrise/payment-security/internal/models"
)

const testKey = "0123456789abcdef0123456789abcdef"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	err := cmd.Execute()
	return out.String(), err
}

func TestKeygen(t *testing.T) {
	out, err := run(t, "", "keygen")
	if err != nil {
		t.Fatal(err)
	}
	if !regexp.MustCompile(`^[0-9a-f]{64}\n$`).MatchString(out) {
		t.Errorf("keygen output = %q", out)
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)

	encrypted, err := run(t, "", "encrypt", `{"number":"4111111111111111"}`)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(encrypted, "4111") {
		t.Fatal("ciphertext output contains plaintext")
	}
	var payload models.EncryptedPayload
	if err := json.Unmarshal([]byte(encrypted), &payload); err != nil || payload.IV == "" || payload.Tag == "" {
		t.Fatalf("payload = %q, %v", encrypted, err)
	}

	decrypted, err := run(t, encrypted, "decrypt")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(decrypted) != `{"number":"4111111111111111"}` {
		t.Errorf("decrypted = %q", decrypted)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	encrypted, err := run(t, "", "encrypt", `{"a":1}`)
	if err != nil {
		t.Fatal(err)
	}

	t.Setenv("PAYMENT_ENCRYPTION_KEY", strings.Repeat("z", 32))
	if _, err := run(t, encrypted, "decrypt"); err == nil {
		t.Fatal("decrypt succeeded under a different key")
	}
}

func TestEncryptRequiresKey(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", "")

	if _, err := run(t, "", "encrypt", `{}`); err == nil {
		t.Fatal("encrypt succeeded without a key")
	}
}

func TestValidateCard(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"valid visa", []string{"validate", "card", "4111 1111 1111 1111", "--cvv", "123"}, false},
		{"bad luhn", []string{"validate", "card", "4111111111111112"}, true},
		{"amex cvv length", []string{"validate", "card", "378282246310005", "--cvv", "123"}, true},
		{"expired", []string{"validate", "card", "4111111111111111", "--exp-month", "1", "--exp-year", "2020"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := run(t, "", tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v, output %s", err, tt.wantErr, out)
			}
			if !strings.Contains(out, `"card"`) {
				t.Errorf("output = %s", out)
			}
		})
	}
}

func TestValidateAmount(t *testing.T) {
	if _, err := run(t, "", "validate", "amount", "49.99"); err != nil {
		t.Errorf("49.99: %v", err)
	}
	out, err := run(t, "", "validate", "amount", "5000.01")
	if err == nil || !strings.Contains(out, `"requiresApproval": true`) {
		t.Errorf("5000.01: err = %v, output %s", err, out)
	}
	if _, err := run(t, "", "validate", "amount", "6000", "--max", "10000"); err != nil {
		t.Errorf("6000 with raised ceiling: %v", err)
	}
	if _, err := run(t, "", "validate", "amount", "10", "--currency", "XXX"); err == nil {
		t.Error("unsupported currency accepted")
	}
}

func TestCommandsRequireBackends(t *testing.T) {
	t.Setenv("PAYMENT_ENCRYPTION_KEY", testKey)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")

	if _, err := run(t, "", "report"); err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("report err = %v", err)
	}
	if _, err := run(t, "", "audit", "tail"); err == nil || !strings.Contains(err.Error(), "KAFKA_BROKERS") {
		t.Errorf("audit tail err = %v", err)
	}
}
