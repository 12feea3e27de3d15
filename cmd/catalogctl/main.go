// Package main implements catalogctl, a command line client of the storefront gRPC API.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/abgdnv/webstore/internal/config"
	catalogpb "github.com/abgdnv/webstore/internal/transport/grpc"
	"github.com/abgdnv/webstore/pkg/bootstrap"
	"github.com/abgdnv/webstore/pkg/client/grpc/interceptors"
	"github.com/abgdnv/webstore/pkg/config/configloader"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "catalogctl"

var (
	addrFlag string
	userFlag string
)

var rootCmd = &cobra.Command{
	Use:   "catalogctl",
	Short: "Query the storefront catalog over gRPC",
	Long: `catalogctl talks to the storefront gRPC API.

Configuration is read from config.yaml and CATALOGCTL_ prefixed environment
variables, e.g. CATALOGCTL_CLIENT_ADDR=localhost:50051.

Examples:
  catalogctl query --q cap --sort price --direction desc
  catalogctl get 12
  catalogctl toggle 12 --user alice`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&addrFlag, "addr", "", "Storefront gRPC address, overrides client.addr")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id sent as x-user-id, anonymous when empty")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// dial loads the configuration and returns a client guarded by the timeout, retry
// and circuit breaker interceptors. The returned func closes the connection.
func dial() (catalogpb.CatalogServiceClient, *slog.Logger, func(), error) {
	if addrFlag != "" {
		if err := os.Setenv("CATALOGCTL_CLIENT_ADDR", addrFlag); err != nil {
			return nil, nil, nil, err
		}
	}
	cfg, err := configloader.Load[*config.CtlConfig](serviceName)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := bootstrap.NewLogger(cfg.Log.Level)

	conn, err := grpc.NewClient(
		cfg.Client.Addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithChainUnaryInterceptor(
			interceptors.NewCircuitBreaker(serviceName, cfg.Client.Resilience.CircuitBreaker),
			interceptors.NewRetryInterceptor(cfg.Client.Resilience.Retry),
			interceptors.UnaryClientTimeoutInterceptor(cfg.Client.Timeout),
		),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create gRPC client connection: %w", err)
	}
	closeFn := func() {
		if err := conn.Close(); err != nil {
			logger.Error("Failed to close gRPC client connection", slog.String("error", err.Error()))
		}
	}
	return catalogpb.NewCatalogServiceClient(conn), logger, closeFn, nil
}

// withUser attaches the caller identity to outgoing calls.
func withUser(ctx context.Context, userID string) context.Context {
	if userID == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, catalogpb.UserIDMetadataKey, userID)
}

func printStruct(w io.Writer, s *structpb.Struct) error {
	raw, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(s)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
