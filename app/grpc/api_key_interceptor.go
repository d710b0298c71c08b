package grpc

import (
	"context"
	"crypto/subtle"
	"strings"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const apiKeyMetadataKey = "x-api-key"

// APIKeyUnaryInterceptor rejects calls whose x-api-key metadata does not match apiKey.
func APIKeyUnaryInterceptor(apiKey string) gogrpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *gogrpc.UnaryServerInfo, handler gogrpc.UnaryHandler) (any, error) {
		if err := validateIncomingAPIKey(ctx, apiKey); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func APIKeyStreamInterceptor(apiKey string) gogrpc.StreamServerInterceptor {
	return func(srv any, ss gogrpc.ServerStream, _ *gogrpc.StreamServerInfo, handler gogrpc.StreamHandler) error {
		if err := validateIncomingAPIKey(ss.Context(), apiKey); err != nil {
			return err
		}
		return handler(srv, ss)
	}
}

func validateIncomingAPIKey(ctx context.Context, expected string) error {
	presented := incomingAPIKeyFromMetadata(ctx)
	if presented == "" || expected == "" {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	if subtle.ConstantTimeCompare([]byte(presented), []byte(expected)) != 1 {
		return status.Error(codes.Unauthenticated, "unauthorized")
	}
	return nil
}

func incomingAPIKeyFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(apiKeyMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
