// Package grpc provides the gRPC transport of the storefront.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/abgdnv/webstore/internal/catalog"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/abgdnv/webstore/internal/service"
	"github.com/go-playground/validator/v10"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// CatalogService is the part of the storefront exposed over gRPC.
type CatalogService interface {
	QueryProducts(ctx context.Context, identity kv.Identity, dto service.QueryDto) (*service.QueryResult, error)
	GetProduct(ctx context.Context, id int64) (*catalog.Product, error)
	ToggleFavorite(ctx context.Context, identity kv.Identity, productID int64) (*service.ToggleResult, error)
}

type Server struct {
	service CatalogService
	logger  *slog.Logger
}

func NewServer(service CatalogService, logger *slog.Logger) *Server {
	return &Server{service: service, logger: logger.With("component", "grpc")}
}

type productRequest struct {
	ID int64 `json:"id"`
}

type toggleRequest struct {
	ProductID int64 `json:"productId"`
}

func (s *Server) QueryProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var dto service.QueryDto
	if err := fromStruct(req, &dto); err != nil {
		return nil, err
	}
	result, err := s.service.QueryProducts(ctx, identityFrom(ctx), dto)
	if err != nil {
		return nil, s.toStatus(ctx, "QueryProducts", err)
	}
	return toStruct(result)
}

func (s *Server) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in productRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	if in.ID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", in.ID)
	}
	product, err := s.service.GetProduct(ctx, in.ID)
	if err != nil {
		return nil, s.toStatus(ctx, "GetProduct", err)
	}
	return toStruct(product)
}

func (s *Server) ToggleFavorite(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in toggleRequest
	if err := fromStruct(req, &in); err != nil {
		return nil, err
	}
	if in.ProductID <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product ID: %d", in.ProductID)
	}
	result, err := s.service.ToggleFavorite(ctx, identityFrom(ctx), in.ProductID)
	if err != nil {
		return nil, s.toStatus(ctx, "ToggleFavorite", err)
	}
	return toStruct(result)
}

func (s *Server) toStatus(ctx context.Context, method string, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors), errors.Is(err, catalog.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case service.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	default:
		s.logger.ErrorContext(ctx, "service call failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

func identityFrom(ctx context.Context) kv.Identity {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return kv.Anonymous
	}
	values := md.Get(UserIDMetadataKey)
	if len(values) == 0 {
		return kv.Anonymous
	}
	return kv.UserIdentity(values[0])
}

// fromStruct decodes a Struct into dst through its JSON form, rejecting unknown fields.
func fromStruct(req *structpb.Struct, dst any) error {
	raw, err := protojson.Marshal(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	decoder := json.NewDecoder(strings.NewReader(string(raw)))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode response: %v", err)
	}
	return out, nil
}
