package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/sentivault/internal/cryptox"
	"github.com/dmitrijs2005/sentivault/internal/shared"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const saltSize = 16

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func newKeygenCmd() *cobra.Command {
	var (
		usePassphrase bool
		saltHex       string
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a new AES-256 encryption key in hex",
		Long: "Print a random 256-bit key for the server's encryption_key setting.\n" +
			"With --passphrase the key is derived from a passphrase read from the terminal;\n" +
			"keep the printed salt to derive the same key again.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !usePassphrase {
				key, err := shared.MakeRandHexString(cryptox.KeySize)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, key)
				return nil
			}

			salt, err := keygenSalt(saltHex)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.ErrOrStderr(), "Passphrase: ")
			pass, err := readPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("read passphrase: %w", err)
			}
			defer shared.WipeByteArray(pass)
			if len(pass) == 0 {
				return errors.New("passphrase must not be empty")
			}

			key := cryptox.DeriveKey(pass, salt)
			fmt.Fprintf(out, "key:  %s\nsalt: %s\n", key.Hex(), hex.EncodeToString(salt))
			return nil
		},
	}
	cmd.Flags().BoolVar(&usePassphrase, "passphrase", false, "Derive the key from a passphrase")
	cmd.Flags().StringVar(&saltHex, "salt", "", "Hex salt for --passphrase (random when empty)")
	return cmd
}

func keygenSalt(saltHex string) ([]byte, error) {
	if saltHex == "" {
		return shared.RandBytes(saltSize)
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	if len(salt) < 8 {
		return nil, fmt.Errorf("salt must be at least 8 bytes, got %d", len(salt))
	}
	return salt, nil
}
