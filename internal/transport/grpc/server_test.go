package grpc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/abgdnv/webstore/internal/cart"
	"github.com/abgdnv/webstore/internal/catalog"
	perrors "github.com/abgdnv/webstore/internal/errors"
	"github.com/abgdnv/webstore/internal/favorites"
	"github.com/abgdnv/webstore/internal/kv"
	"github.com/abgdnv/webstore/internal/order"
	"github.com/abgdnv/webstore/internal/service"
	"github.com/abgdnv/webstore/internal/store"
	"github.com/abgdnv/webstore/pkg/messaging"
	"github.com/abgdnv/webstore/pkg/server"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) QueryProducts(ctx context.Context, identity kv.Identity, dto service.QueryDto) (*service.QueryResult, error) {
	args := m.Called(ctx, identity, dto)
	var result *service.QueryResult
	if args.Get(0) != nil {
		result = args.Get(0).(*service.QueryResult)
	}
	return result, args.Error(1)
}

func (m *MockCatalogService) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	var product *catalog.Product
	if args.Get(0) != nil {
		product = args.Get(0).(*catalog.Product)
	}
	return product, args.Error(1)
}

func (m *MockCatalogService) ToggleFavorite(ctx context.Context, identity kv.Identity, productID int64) (*service.ToggleResult, error) {
	args := m.Called(ctx, identity, productID)
	var result *service.ToggleResult
	if args.Get(0) != nil {
		result = args.Get(0).(*service.ToggleResult)
	}
	return result, args.Error(1)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestServer_GetProduct(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name         string
		request      map[string]any
		mockProduct  *catalog.Product
		mockError    error
		expectedCode codes.Code
	}{
		{
			name:         "success",
			request:      map[string]any{"id": 3},
			mockProduct:  &catalog.Product{ID: 3, Name: "Navy Hoodie", Price: decimal.RequireFromString("59.99"), Stock: 80},
			expectedCode: codes.OK,
		},
		{
			name:         "not found",
			request:      map[string]any{"id": 3},
			mockError:    perrors.ErrProductNotFound,
			expectedCode: codes.NotFound,
		},
		{
			name:         "internal error",
			request:      map[string]any{"id": 3},
			mockError:    errors.New("db is gone"),
			expectedCode: codes.Internal,
		},
		{
			name:         "invalid id",
			request:      map[string]any{"id": -1},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "unknown field",
			request:      map[string]any{"sku": "x"},
			expectedCode: codes.InvalidArgument,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mockSvc := new(MockCatalogService)
			srv := NewServer(mockSvc, testLogger)
			mockSvc.On("GetProduct", mock.Anything, int64(3)).Return(tc.mockProduct, tc.mockError).Maybe()

			// when
			res, err := srv.GetProduct(ctx, mustStruct(t, tc.request))

			// then
			if tc.expectedCode == codes.OK {
				require.NoError(t, err)
				fields := res.GetFields()
				assert.Equal(t, "Navy Hoodie", fields["name"].GetStringValue())
				assert.Equal(t, "59.99", fields["price"].GetStringValue())
				assert.Equal(t, float64(80), fields["stock"].GetNumberValue())
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.expectedCode, status.Code(err))
		})
	}
}

func TestServer_QueryProductsInvalidInput(t *testing.T) {
	mockSvc := new(MockCatalogService)
	mockSvc.On("QueryProducts", mock.Anything, kv.Anonymous, mock.Anything).Return(nil, catalog.ErrInvalidInput)
	srv := NewServer(mockSvc, testLogger)

	_, err := srv.QueryProducts(context.Background(), mustStruct(t, map[string]any{"sort": "color"}))

	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	mockSvc.AssertExpectations(t)
}

// startServer serves the catalog over bufconn and returns a client for it.
func startServer(t *testing.T) CatalogServiceClient {
	t.Helper()
	st := store.NewInMemoryStore()
	_, err := store.SeedIfEmpty(context.Background(), st, store.SeedCatalog())
	require.NoError(t, err)
	kvStore := kv.NewMemory()
	svc := service.NewCatalog(st, favorites.NewRegistry(kvStore, 0, testLogger), cart.New(kvStore, testLogger), order.NewService(order.NewInMemoryStore(), messaging.NopPublisher{}, testLogger), messaging.NopPublisher{}, testLogger, 0)

	lis := bufconn.Listen(1024 * 1024)
	grpcServer := server.NewGRPCServer(testLogger, false, func(s *grpc.Server) {
		RegisterCatalogServiceServer(s, NewServer(svc, testLogger))
	})
	go func() {
		_ = grpcServer.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		grpcServer.Stop()
		_ = lis.Close()
	})
	return NewCatalogServiceClient(conn)
}

func TestCatalogService_OverBufconn(t *testing.T) {
	client := startServer(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), UserIDMetadataKey, "dave")

	// query by category, page size 2
	res, err := client.QueryProducts(ctx, mustStruct(t, map[string]any{"categoryId": 2, "size": 2}))
	require.NoError(t, err)
	assert.Equal(t, float64(3), res.GetFields()["totalElements"].GetNumberValue())
	assert.Len(t, res.GetFields()["content"].GetListValue().GetValues(), 2)

	// toggle for dave only
	res, err = client.ToggleFavorite(ctx, mustStruct(t, map[string]any{"productId": 4}))
	require.NoError(t, err)
	assert.True(t, res.GetFields()["isFavorite"].GetBoolValue())

	res, err = client.QueryProducts(ctx, mustStruct(t, map[string]any{"favoritesOnly": true}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), res.GetFields()["totalElements"].GetNumberValue())

	res, err = client.QueryProducts(context.Background(), mustStruct(t, map[string]any{"favoritesOnly": true}))
	require.NoError(t, err)
	assert.Equal(t, "No products found for favorite products", res.GetFields()["message"].GetStringValue())

	// errors map to status codes
	_, err = client.GetProduct(ctx, mustStruct(t, map[string]any{"id": 999}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = client.QueryProducts(ctx, mustStruct(t, map[string]any{"size": 1000}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
