package commands

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheusHen/saltchannel/salt"
	"github.com/TheusHen/saltchannel/salt/crypto"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/session"
)

func dialCmd() *cobra.Command {
	var (
		keyPath   string
		addr      string
		transport string
		serverKey string
		messages  []string
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "dial",
		Short: "Connect to an echo server and send messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := clientKeys(keyPath)
			if err != nil {
				return err
			}
			cfg := &session.ClientConfig{LoggerFactory: loggerFactory}
			if serverKey != "" {
				if cfg.ExpectedServerKey, err = identity.ParsePublicKeyHex(serverKey); err != nil {
					return err
				}
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			var ch *session.Channel
			switch transport {
			case "tcp":
				ch, err = salt.DialTCP(ctx, addr, kp, cfg)
			case "ws":
				ch, err = salt.DialWebSocket(ctx, "ws://"+addr+"/", kp, cfg)
			case "quic":
				ch, err = salt.DialQUIC(ctx, addr, kp, cfg)
			default:
				return fmt.Errorf("unknown transport %q", transport)
			}
			if err != nil {
				return err
			}
			defer ch.Close()
			fmt.Printf("Connected to %s\n", ch.PeerID())

			payload := make([][]byte, len(messages))
			for i, m := range messages {
				payload[i] = []byte(m)
			}
			if err := ch.Write(false, payload...); err != nil {
				return err
			}
			for range payload {
				reply, err := ch.Read()
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", reply)
			}
			return ch.Write(true)
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "client key file (default: a fresh key)")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:2033", "server address")
	cmd.Flags().StringVar(&transport, "transport", "tcp", "tcp, ws or quic")
	cmd.Flags().StringVar(&serverKey, "server-key", "", "expected server public key (hex)")
	cmd.Flags().StringArrayVar(&messages, "message", []string{"hello"}, "message to send; repeat for more")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "dial and handshake timeout")
	return cmd
}

func clientKeys(path string) (crypto.SigningKeyPair, error) {
	if path == "" {
		return crypto.GenerateSigningKeyPair(rand.Reader)
	}
	return identity.LoadKeyPair(path)
}
