package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/skillrise/payment-security/internal/config"
	"github.com/skillrise/payment-security/internal/crypto"
	"github.com/skillrise/payment-security/internal/models"
)

func keygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a value for PAYMENT_ENCRYPTION_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := crypto.GenerateSecret()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	}
}

func encryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt [json]",
		Short: "Encrypt a JSON document with the configured payment key",
		Long:  "Encrypt a JSON document with the configured payment key. Reads stdin when no argument is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCipher()
			if err != nil {
				return err
			}
			input, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			if !json.Valid(input) {
				return fmt.Errorf("input is not valid JSON")
			}

			payload, err := c.EncryptPaymentData(json.RawMessage(input))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), payload)
		},
	}
}

func decryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt [payload]",
		Short: "Decrypt an encrypted payload produced by encrypt or the tokenizer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadCipher()
			if err != nil {
				return err
			}
			input, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}

			var payload models.EncryptedPayload
			if err := json.Unmarshal(input, &payload); err != nil {
				return fmt.Errorf("parse payload: %w", err)
			}
			var out json.RawMessage
			if err := c.DecryptPaymentData(payload, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func loadCipher() (*crypto.Cipher, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	keys, err := crypto.NewKeyManager(cfg.Security.EncryptionKey, cfg.Security.KeySalt)
	if err != nil {
		return nil, err
	}
	return crypto.NewCipher(keys)
}

func argOrStdin(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 {
		return []byte(args[0]), nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return []byte(strings.TrimSpace(string(data))), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
