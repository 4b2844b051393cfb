// Package grpc provides the gRPC transport of the conduit read API.
//
// The service is described by hand in handlers.go and exchanges protobuf
// well-known types, so no code generation is needed. The standard health
// service is registered next to it.
package grpc

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/mvaleed/conduit/internal/auth"
	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/service"
)

// Server wraps the gRPC server with dependencies
type Server struct {
	grpcServer     *grpc.Server
	health         *health.Server
	profileService *service.ProfileService
	articleService *service.ArticleService
	commentService *service.CommentService
	jwtManager     *auth.JWTManager
	logger         *logrus.Logger
}

// NewServer creates a new gRPC server with all handlers registered
func NewServer(
	profileService *service.ProfileService,
	articleService *service.ArticleService,
	commentService *service.CommentService,
	jwtManager *auth.JWTManager,
	logger *logrus.Logger,
) *Server {
	s := &Server{
		health:         health.NewServer(),
		profileService: profileService,
		articleService: articleService,
		commentService: commentService,
		jwtManager:     jwtManager,
		logger:         logger,
	}

	grpcServer := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			s.loggingInterceptor,
			s.recoveryInterceptor,
			s.authInterceptor,
		),
	)

	grpcServer.RegisterService(&conduitServiceDesc, s)
	healthpb.RegisterHealthServer(grpcServer, s.health)
	s.health.SetServingStatus(conduitServiceName, healthpb.HealthCheckResponse_SERVING)

	s.grpcServer = grpcServer
	return s
}

// Serve starts the gRPC server on the given listener
func (s *Server) Serve(listener net.Listener) error {
	return s.grpcServer.Serve(listener)
}

// GracefulStop marks the services as not serving and stops the server
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}

func (s *Server) loggingInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	entry := s.logger.WithFields(logrus.Fields{
		"method":   info.FullMethod,
		"code":     status.Code(err).String(),
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Warn("gRPC request failed")
	} else {
		entry.Info("gRPC request")
	}

	return resp, err
}

func (s *Server) recoveryInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"method": info.FullMethod,
				"panic":  r,
			}).Error("gRPC panic recovered")
			err = status.Error(codes.Internal, "internal server error")
		}
	}()

	return handler(ctx, req)
}

// authInterceptor attaches the caller's claims when a token is sent. Every
// method is readable anonymously, but a bad token is rejected.
func (s *Server) authInterceptor(
	ctx context.Context,
	req any,
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler,
) (any, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return handler(ctx, req)
	}

	tokens := md.Get("authorization")
	if len(tokens) == 0 {
		return handler(ctx, req)
	}

	token := tokens[0]
	for _, prefix := range []string{"Token ", "Bearer "} {
		token = strings.TrimPrefix(token, prefix)
	}

	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, claimsKey{}, claims), req)
}

// claimsKey is the context key for JWT claims
type claimsKey struct{}

// ClaimsFromContext extracts JWT claims from the context
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

func viewpointFromContext(ctx context.Context) *domain.UserID {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return nil
	}
	id := domain.UserID(claims.UserID)
	return &id
}
