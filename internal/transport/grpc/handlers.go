package grpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/mvaleed/conduit/internal/domain"
	"github.com/mvaleed/conduit/internal/service"
)

const conduitServiceName = "conduit.v1.ConduitService"

// ConduitServer is the read API exposed over gRPC.
type ConduitServer interface {
	ListTags(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetArticle(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	GetProfile(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ListComments(context.Context, *wrapperspb.StringValue) (*structpb.ListValue, error)
}

var conduitServiceDesc = grpc.ServiceDesc{
	ServiceName: conduitServiceName,
	HandlerType: (*ConduitServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTags", Handler: unaryHandler("ListTags", ConduitServer.ListTags)},
		{MethodName: "GetArticle", Handler: unaryHandler("GetArticle", ConduitServer.GetArticle)},
		{MethodName: "GetProfile", Handler: unaryHandler("GetProfile", ConduitServer.GetProfile)},
		{MethodName: "ListComments", Handler: unaryHandler("ListComments", ConduitServer.ListComments)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "conduit/v1/conduit.proto",
}

// unaryHandler builds the method handler protoc-gen-go-grpc would generate.
func unaryHandler[Req, Resp any](
	method string,
	call func(ConduitServer, context.Context, *Req) (*Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + conduitServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ConduitServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ConduitServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func (s *Server) ListTags(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	tags, err := s.articleService.ListTags(ctx)
	if err != nil {
		return nil, s.mapServiceError(err)
	}
	return structpb.NewList(stringsToAny(domain.TagStrings(tags)))
}

func (s *Server) GetArticle(ctx context.Context, slug *wrapperspb.StringValue) (*structpb.Struct, error) {
	article, err := s.articleService.ShowCreatedArticle(ctx, stringArg(slug), viewpointFromContext(ctx))
	if err != nil {
		return nil, s.mapServiceError(err)
	}
	return structpb.NewStruct(articleFields(article))
}

func (s *Server) GetProfile(ctx context.Context, username *wrapperspb.StringValue) (*structpb.Struct, error) {
	profile, err := s.profileService.ShowProfile(ctx, stringArg(username), viewpointFromContext(ctx))
	if err != nil {
		return nil, s.mapServiceError(err)
	}
	return structpb.NewStruct(profileFields(profile))
}

func (s *Server) ListComments(ctx context.Context, slug *wrapperspb.StringValue) (*structpb.ListValue, error) {
	comments, err := s.commentService.ListComments(ctx, stringArg(slug), viewpointFromContext(ctx))
	if err != nil {
		return nil, s.mapServiceError(err)
	}
	items := make([]any, len(comments))
	for i, c := range comments {
		items[i] = map[string]any{
			"id":        float64(c.Comment.ID),
			"body":      c.Comment.Body.String(),
			"createdAt": c.Comment.CreatedAt.UTC().Format(time.RFC3339Nano),
			"updatedAt": c.Comment.UpdatedAt.UTC().Format(time.RFC3339Nano),
			"author":    profileFields(c.Author),
		}
	}
	return structpb.NewList(items)
}

// stringArg treats an unset wrapper as an absent argument.
func stringArg(v *wrapperspb.StringValue) *string {
	if v == nil {
		return nil
	}
	s := v.GetValue()
	return &s
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func profileFields(p domain.Profile) map[string]any {
	return map[string]any{
		"username":  p.Username.String(),
		"bio":       p.Bio.String(),
		"image":     p.Image.String(),
		"following": p.Following,
	}
}

func articleFields(v service.ArticleView) map[string]any {
	a := v.Article
	return map[string]any{
		"slug":           a.Slug.String(),
		"title":          a.Title.String(),
		"description":    a.Description.String(),
		"body":           a.Body.String(),
		"tagList":        stringsToAny(domain.TagStrings(a.TagList)),
		"createdAt":      a.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updatedAt":      a.UpdatedAt.UTC().Format(time.RFC3339Nano),
		"favorited":      a.Favorited,
		"favoritesCount": float64(a.FavoritesCount),
		"author":         profileFields(v.Author),
	}
}

// mapServiceError converts use case failures to gRPC status errors. The
// cause of an unexpected failure is logged here and never sent to the client.
func (s *Server) mapServiceError(err error) error {
	if err == nil {
		return nil
	}

	var (
		invalid    service.HasValidationErrors
		notFound   *service.NotFoundError
		notAuthor  *service.NotAuthorError
		unauth     *service.UnauthorizedError
		exists     *service.AlreadyExistsError
		overCount  *service.OffsetOverCountError
		unexpected *service.UnexpectedError
	)

	switch {
	case errors.As(err, &invalid):
		return status.Error(codes.InvalidArgument, invalid.ValidationErrors().Error())
	case errors.As(err, &notFound):
		return status.Error(codes.NotFound, notFound.Err.Error())
	case errors.As(err, &notAuthor):
		return status.Error(codes.PermissionDenied, "only the author may do this")
	case errors.As(err, &unauth):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.As(err, &exists):
		return status.Error(codes.AlreadyExists, exists.Err.Error())
	case errors.As(err, &overCount):
		return status.Error(codes.OutOfRange, overCount.Error())
	case errors.As(err, &unexpected):
		s.logger.WithError(unexpected.Err).WithField("op", unexpected.Op).Error("unexpected failure")
	default:
		s.logger.WithError(err).Error("unhandled error")
	}

	return status.Error(codes.Internal, "internal server error")
}
