package commands

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
)

func keygenCmd() *cobra.Command {
	var keyPath string
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a signing key pair and write it to a key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := crypto.GenerateSigningKeyPair(rand.Reader)
			if err != nil {
				return err
			}
			if err := identity.SaveKeyPair(keyPath, kp); err != nil {
				return err
			}
			fmt.Printf("Public key: %s\n", identity.PublicKeyHex(kp.Public))
			fmt.Printf("Peer ID:    %s\n", identity.PeerIDFromPublicKey(kp.Public))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "key file to write")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}
