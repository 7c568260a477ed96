//go:build integration

package httptransport_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"praxis/internal/platform/health"
	"praxis/internal/tenant/cache"
	"praxis/internal/tenant/gateway"
	"praxis/internal/tenant/handler"
	"praxis/internal/tenant/provisioner"
	"praxis/internal/tenant/registry"
	"praxis/internal/tenant/service"
	httptransport "praxis/internal/transport/http"
	"praxis/pkg/platform/middleware/auth"
	"praxis/pkg/testutil/containers"
)

const (
	testAdminToken = "integration-admin-token"
	testSigningKey = "integration-signing-key"
)

type RouterSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	router   http.Handler
}

func TestRouterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())

	log := slog.New(slog.DiscardHandler)
	store := registry.NewPostgres(s.postgres.DB)
	prov := provisioner.New(s.postgres.DB, provisioner.WithLogger(log))
	factory := gateway.NewFactory(s.postgres.DB, prov,
		gateway.WithCache(cache.NewMemory(time.Minute)),
		gateway.WithLogger(log),
	)
	svc := service.New(store, prov,
		service.WithLogger(log),
		service.WithCache(cache.NewMemory(time.Minute)),
	)

	s.router = httptransport.NewRouter(httptransport.RouterConfig{
		Logger:        log,
		AdminToken:    testAdminToken,
		JWTSigningKey: []byte(testSigningKey),
		Resolver:      store,
		Factory:       factory,
		TenantHandler: handler.New(svc, log),
		Health:        health.New("test"),
		Metrics:       nil,
	})
}

func (s *RouterSuite) SetupTest() {
	s.Require().NoError(s.postgres.Reset(context.Background()))
}

func (s *RouterSuite) adminRequest(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) userToken(tenantID string) string {
	claims := auth.Claims{
		TenantID: tenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) userRequest(token, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) createTenant(name string) handler.TenantResponse {
	rec := s.adminRequest(http.MethodPost, "/admin/tenants", `{"name":"`+name+`"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.TenantResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func (s *RouterSuite) TestAdminEndpointsRejectBadToken() {
	req := httptest.NewRequest(http.MethodPost, "/admin/tenants", strings.NewReader(`{"name":"X"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "wrong")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestTenantLifecycleEndToEnd() {
	ctx := context.Background()

	// Creation provisions the schema immediately.
	created := s.createTenant("Harrison & Cole LLP")
	s.True(s.postgres.SchemaExists(ctx, s.T(), created.Namespace))
	s.Equal(len(provisioner.TableNames()), s.postgres.TableCount(ctx, s.T(), created.Namespace))

	// A tenant user can write and read records.
	token := s.userToken(created.ID)
	rec := s.userRequest(token, http.MethodPost, "/records/clients",
		`{"name":"Morrison Estate","tags":["probate","vip"]}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var record map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	s.Equal("Morrison Estate", record["name"])

	rec = s.userRequest(token, http.MethodGet, "/records/clients", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	var listing struct {
		Items []map[string]any `json:"items"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Len(listing.Items, 1)

	// Another tenant sees an empty table.
	other := s.createTenant("Other Firm")
	otherToken := s.userToken(other.ID)
	rec = s.userRequest(otherToken, http.MethodGet, "/records/clients", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Empty(listing.Items)

	// Deactivation locks the first tenant out with an opaque denial.
	rec = s.adminRequest(http.MethodPost, "/admin/tenants/"+created.ID+"/deactivate", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.userRequest(token, http.MethodGet, "/records/clients", "")
	s.Equal(http.StatusForbidden, rec.Code)
	s.JSONEq(`{"error":"access_denied"}`, rec.Body.String())

	// Reactivation restores access with data intact.
	rec = s.adminRequest(http.MethodPost, "/admin/tenants/"+created.ID+"/reactivate", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.userRequest(token, http.MethodGet, "/records/clients", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &listing))
	s.Len(listing.Items, 1)
}

func (s *RouterSuite) TestUnknownTenantDeniedLikeInactive() {
	created := s.createTenant("Real Firm")

	// Deactivate the real tenant.
	rec := s.adminRequest(http.MethodPost, "/admin/tenants/"+created.ID+"/deactivate", "")
	s.Require().Equal(http.StatusOK, rec.Code)

	inactiveRec := s.userRequest(s.userToken(created.ID), http.MethodGet, "/records/clients", "")
	unknownRec := s.userRequest(s.userToken(uuid.NewString()), http.MethodGet, "/records/clients", "")

	s.Equal(http.StatusForbidden, inactiveRec.Code)
	s.Equal(http.StatusForbidden, unknownRec.Code)
	s.Equal(inactiveRec.Body.String(), unknownRec.Body.String())
}

func (s *RouterSuite) TestRecordUpdateAndSoftDelete() {
	created := s.createTenant("CRUD Firm")
	token := s.userToken(created.ID)

	rec := s.userRequest(token, http.MethodPost, "/records/tasks",
		`{"title":"File motion","status":"pending","due_date":"2026-04-01"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var record map[string]any
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	recordID := record["id"].(string)

	rec = s.userRequest(token, http.MethodPatch, "/records/tasks/"+recordID, `{"status":"done"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &record))
	s.Equal("done", record["status"])

	rec = s.userRequest(token, http.MethodDelete, "/records/tasks/"+recordID, "")
	s.Equal(http.StatusNoContent, rec.Code)

	rec = s.userRequest(token, http.MethodGet, "/records/tasks/"+recordID, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestUnknownTableIsNotFound() {
	created := s.createTenant("Probing Firm")
	token := s.userToken(created.ID)

	rec := s.userRequest(token, http.MethodGet, "/records/pg_catalog", "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterSuite) TestDeleteTenantDropsSchema() {
	ctx := context.Background()
	created := s.createTenant("Departing Firm")
	s.True(s.postgres.SchemaExists(ctx, s.T(), created.Namespace))

	rec := s.adminRequest(http.MethodDelete, "/admin/tenants/"+created.ID, "")
	s.Equal(http.StatusNoContent, rec.Code)
	s.False(s.postgres.SchemaExists(ctx, s.T(), created.Namespace))
}
