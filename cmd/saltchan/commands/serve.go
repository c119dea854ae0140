package commands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/TheusHen/saltchannel/salt"
	"github.com/TheusHen/saltchannel/salt/identity"
	"github.com/TheusHen/saltchannel/salt/transport/quic"
)

func serveCmd() *cobra.Command {
	var (
		keyPath   string
		addr      string
		transport string
		bufferM2  bool
		allow     []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an echo server",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := identity.LoadKeyPair(keyPath)
			if err != nil {
				return err
			}
			authorize, err := allowList(allow)
			if err != nil {
				return err
			}
			srv, err := salt.NewServer(salt.ServerConfig{
				Keys:          kp,
				BufferM2:      bufferM2,
				Authorize:     authorize,
				LoggerFactory: loggerFactory,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Server public key: %s\n", identity.PublicKeyHex(kp.Public))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- serve(ctx, srv, transport, addr) }()

			select {
			case <-ctx.Done():
				_ = srv.Close()
				<-errCh
				return nil
			case err := <-errCh:
				_ = srv.Close()
				return err
			}
		},
	}
	cmd.Flags().StringVar(&keyPath, "key", "", "server key file")
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:2033", "listen address")
	cmd.Flags().StringVar(&transport, "transport", "tcp", "tcp, ws or quic")
	cmd.Flags().BoolVar(&bufferM2, "buffer-m2", false, "send M2 together with M4")
	cmd.Flags().StringSliceVar(&allow, "allow", nil, "hex public keys of allowed clients (default: any)")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func serve(ctx context.Context, srv *salt.Server, transport, addr string) error {
	switch transport {
	case "tcp":
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return err
		}
		err = srv.Serve(ln)
		if errors.Is(err, salt.ErrServerClosed) {
			return nil
		}
		return err
	case "ws":
		hs := &http.Server{Addr: addr, Handler: srv}
		go func() {
			<-ctx.Done()
			_ = hs.Close()
		}()
		err := hs.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case "quic":
		ln, err := quic.Listen(addr)
		if err != nil {
			return err
		}
		err = srv.ServeQUIC(ln)
		if errors.Is(err, salt.ErrServerClosed) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown transport %q", transport)
	}
}

func allowList(keys []string) (func(identity.PeerID, ed25519.PublicKey) error, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var allowed []ed25519.PublicKey
	for _, k := range keys {
		pub, err := identity.ParsePublicKeyHex(k)
		if err != nil {
			return nil, err
		}
		allowed = append(allowed, pub)
	}
	return func(id identity.PeerID, key ed25519.PublicKey) error {
		for _, a := range allowed {
			if bytes.Equal(a, key) {
				return nil
			}
		}
		return fmt.Errorf("peer %s not in allow list", id.Short())
	}, nil
}
