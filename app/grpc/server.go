package grpc

import (
	"context"
	"errors"

	"github.com/vibast-solutions/ms-go-posts/app/entity"
	"github.com/vibast-solutions/ms-go-posts/app/service"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type sessionAuthenticator interface {
	AuthenticateAccessToken(ctx context.Context, accessToken string) (*entity.User, error)
	GetProfile(ctx context.Context, userID uint64) (*entity.User, error)
}

// SessionServer lets internal services check a user's access token without
// sharing the signing secret.
type SessionServer struct {
	authService sessionAuthenticator
}

func NewSessionServer(authService sessionAuthenticator) *SessionServer {
	return &SessionServer{authService: authService}
}

func (s *SessionServer) ValidateAccessToken(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "access token is required")
	}

	user, err := s.authService.AuthenticateAccessToken(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) || errors.Is(err, service.ErrUserNotFound) {
			logrus.Debug("Access token rejected (grpc)")
			return structpb.NewStruct(map[string]any{"valid": false})
		}
		logrus.WithError(err).Error("Validate access token failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return userStruct(user, true)
}

func (s *SessionServer) GetUser(ctx context.Context, req *wrapperspb.UInt64Value) (*structpb.Struct, error) {
	if req.GetValue() == 0 {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	user, err := s.authService.GetProfile(ctx, req.GetValue())
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return nil, status.Error(codes.NotFound, "user not found")
		}
		logrus.WithError(err).WithField("user_id", req.GetValue()).Error("Get user failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	return userStruct(user, false)
}

func userStruct(user *entity.User, withValid bool) (*structpb.Struct, error) {
	fields := map[string]any{
		"user_id":   user.ID,
		"email":     user.Email,
		"full_name": user.FullName,
	}
	if withValid {
		fields["valid"] = true
	}

	result, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return result, nil
}
