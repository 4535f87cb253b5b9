// Package server starts the relay's HTTP, WebSocket and metrics listeners.
package server

import (
	"context"
	"net"
	"net/http"

	"cosmossdk.io/log"
	ethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/hashgraph/json-rpc-relay-go/rpc"
	"github.com/hashgraph/json-rpc-relay-go/rpc/backend"
	rpctypes "github.com/hashgraph/json-rpc-relay-go/rpc/types"
	"github.com/hashgraph/json-rpc-relay-go/server/config"
)

// StartJSONRPC starts the JSON-RPC server
func StartJSONRPC(
	ctx context.Context,
	logger log.Logger,
	g *errgroup.Group,
	cfg *config.Config,
	b *backend.Backend,
) (*http.Server, error) {
	srvLogger := logger.With(log.ModuleKey, "jsonrpc")

	rpcServer := ethrpc.NewServer()
	rpcServer.SetBatchLimits(cfg.BatchRequestLimit, cfg.BatchResponseMaxSize)

	for _, api := range rpc.GetRPCAPIs(logger, b) {
		if err := rpcServer.RegisterName(api.Namespace, api.Service); err != nil {
			srvLogger.Error(
				"failed to register service in JSON RPC namespace",
				"namespace", api.Namespace,
				"service", api.Service,
			)
			return nil, err
		}
	}

	r := mux.NewRouter()
	r.Handle("/", withRequestContext(rpcServer)).Methods("POST")

	handlerWithCors := cors.Default()
	if cfg.UnsafeCORS {
		handlerWithCors = cors.AllowAll()
	}

	httpSrv := &http.Server{
		Addr:              cfg.JSONRPCAddress,
		Handler:           handlerWithCors.Handler(r),
		ReadHeaderTimeout: cfg.HTTPTimeout,
		ReadTimeout:       cfg.HTTPTimeout,
		WriteTimeout:      cfg.HTTPTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}

	ln, err := net.Listen("tcp", httpSrv.Addr)
	if err != nil {
		return nil, err
	}

	g.Go(func() error {
		srvLogger.Info("Starting JSON-RPC server", "address", cfg.JSONRPCAddress)
		errCh := make(chan error)
		go func() {
			errCh <- httpSrv.Serve(ln)
		}()

		// Start a blocking select to wait for an indication to stop the server or that
		// the server failed to start properly.
		select {
		case <-ctx.Done():
			// The calling process canceled or closed the provided context, so we must
			// gracefully stop the JSON-RPC server.
			srvLogger.Info("stopping JSON-RPC server...", "address", cfg.JSONRPCAddress)
			if err := httpSrv.Shutdown(context.Background()); err != nil {
				srvLogger.Error("failed to shutdown JSON-RPC server", "error", err.Error())
			}
			return nil

		case err := <-errCh:
			if err == http.ErrServerClosed {
				return nil
			}
			srvLogger.Error("failed to start JSON-RPC server", "error", err.Error())
			return err
		}
	})

	srvLogger.Info("Starting JSON WebSocket server", "address", cfg.WSAddress)
	wsSrv := rpc.NewWebsocketsServer(logger, cfg)
	wsSrv.Start()

	return httpSrv, nil
}

// withRequestContext mints a per-request context record (request id,
// masked client ip) before the rpc server dispatches the call.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		rc := rpctypes.NewRequestContext(ip)
		next.ServeHTTP(w, r.WithContext(rpctypes.WithRequestContext(r.Context(), rc)))
	})
}
