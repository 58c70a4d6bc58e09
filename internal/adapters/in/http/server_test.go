package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apihttp "orderflow/internal/adapters/in/http"
	"orderflow/internal/adapters/out/memory"
	"orderflow/internal/adapters/out/policy"
	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/application/usecases/queries"
	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/suite"
)

var secret = []byte("test-secret")

type workflowFactory struct {
	inner ports.UnitOfWorkFactory
}

func (f workflowFactory) Create() commands.WorkflowUoW {
	return f.inner.Create()
}

type readFactory struct {
	inner ports.UnitOfWorkFactory
}

func (f readFactory) Create() queries.ReadUoW {
	return f.inner.Create()
}

type discardPublisher struct{}

func (discardPublisher) Publish(context.Context, ...event.Event) error {
	return nil
}

type ServerSuite struct {
	suite.Suite

	router     *echo.Echo
	admin      actor.Actor
	client     actor.Actor
	department kernel.UUID
	head       actor.Actor
	otherHead  actor.Actor
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	store := memory.NewStore()
	uows := memory.NewUnitOfWorkFactory(store)
	registry := order.DefaultRegistry()
	resolver, err := policy.NewDefaultPolicy()
	s.Require().NoError(err)
	gate := services.NewAuthorizationGate(resolver)

	s.department = kernel.NewUUID()
	otherDepartment := kernel.NewUUID()
	s.admin = actor.Actor{ID: kernel.NewUUID(), Role: actor.RoleAdmin}
	s.client = actor.Actor{ID: kernel.NewUUID(), Role: actor.RoleClient}
	s.head = actor.Actor{ID: kernel.NewUUID(), Role: actor.RoleDepartmentHead, DepartmentID: &s.department}
	s.otherHead = actor.Actor{ID: kernel.NewUUID(), Role: actor.RoleDepartmentHead, DepartmentID: &otherDepartment}

	writes := workflowFactory{inner: uows}
	reads := readFactory{inner: uows}

	document, err := apihttp.LoadDocument(s.T().Context())
	s.Require().NoError(err)

	server := apihttp.NewServer(
		commands.NewCreateOrderCommandHandler(writes, gate, kernel.SystemClock),
		commands.NewUpdateOrderStatusCommandHandler(writes, registry, services.NewTransitionValidator(registry),
			gate, discardPublisher{}, memory.NewUserDirectory(s.admin)),
		queries.NewGetStatusHistoryQueryHandler(reads, registry, gate),
		queries.NewGetWorkflowInfoQueryHandler(reads, registry, gate),
		document,
		nil,
	)
	s.router = apihttp.NewRouter(server, apihttp.RouterConfig{JWTSecret: secret, Document: document})
}

func (s *ServerSuite) token(a actor.Actor) string {
	tok, err := apihttp.SignToken(secret, a, time.Hour, time.Now())
	s.Require().NoError(err)
	return tok
}

func (s *ServerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) createOrder(by actor.Actor, clientID kernel.UUID) string {
	rec := s.do(http.MethodPost, "/api/v1/orders", s.token(by), map[string]any{
		"client_id":     clientID.String(),
		"department_id": s.department.String(),
		"title":         "Spring catalogue",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var resp apihttp.CreateOrderResponse
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	s.Require().True(resp.Success)
	s.Require().Equal("pending", resp.Order.Status)
	return resp.Order.ID.String()
}

func (s *ServerSuite) updateStatus(orderID string, by actor.Actor, status string) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/v1/orders/"+orderID+"/update-status/", s.token(by),
		map[string]any{"new_status": status, "notes": "moved by test"})
}

func decode[T any](s *ServerSuite, rec *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *ServerSuite) Test_HealthDoesNotRequireToken() {
	rec := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *ServerSuite) Test_ServesOpenAPIDocument() {
	rec := s.do(http.MethodGet, "/openapi.yaml", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "updateOrderStatus")
}

func (s *ServerSuite) Test_RejectsMissingToken() {
	rec := s.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/workflow-info/", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerSuite) Test_RejectsExpiredToken() {
	tok, err := apihttp.SignToken(secret, s.admin, time.Minute, time.Now().Add(-time.Hour))
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/workflow-info/", tok, nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Token expired", decode[apihttp.Error](s, rec).Error)
}

func (s *ServerSuite) Test_RejectsOtherSigningMethod() {
	claims := apihttp.Claims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: s.admin.ID.String()},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/workflow-info/", tok, nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerSuite) Test_RejectsUnknownRoleClaim() {
	claims := apihttp.Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.admin.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	s.Require().NoError(err)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String()+"/workflow-info/", tok, nil)

	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *ServerSuite) Test_AdminMovesOrderAndReadsHistory() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.updateStatus(orderID, s.admin, "approved")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[apihttp.UpdateStatusResponse](s, rec)
	s.True(resp.Success)
	s.Equal("approved", resp.Order.Status)
	s.Equal("Approved", resp.Order.StatusDisplay)
	s.Equal("pending", resp.PreviousStatus)
	s.Equal(5, resp.ProgressPercentage)
	s.False(resp.IsTerminal)
	s.Require().NotNil(resp.Order.StatusUpdatedBy)
	s.Equal(s.admin.ID.String(), resp.Order.StatusUpdatedBy.String())

	rec = s.do(http.MethodGet, "/api/v1/orders/"+orderID+"/status-history/", s.token(s.admin), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	history := decode[apihttp.StatusHistoryResponse](s, rec)
	s.Equal("approved", history.CurrentStatus)
	s.Require().Len(history.History, 2)
	s.Equal("approved", history.History[0].ToStatus)
	s.Require().NotNil(history.History[0].FromStatus)
	s.Equal("pending", *history.History[0].FromStatus)
	s.Equal("moved by test", history.History[0].Notes)
	s.Nil(history.History[1].FromStatus)
	s.Equal("pending", history.History[1].ToStatus)
}

func (s *ServerSuite) Test_IllegalTransitionListsAllowedStatuses() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.updateStatus(orderID, s.admin, "delivered")

	s.Equal(http.StatusBadRequest, rec.Code)
	body := decode[apihttp.Error](s, rec)
	s.False(body.Success)
	s.Equal(apihttp.CodeIllegalTransition, body.Code)
	s.Equal([]string{"approved"}, body.AllowedNextStatuses)
}

func (s *ServerSuite) Test_NoOpTransitionIsRejected() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.updateStatus(orderID, s.admin, "pending")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apihttp.CodeNoOpTransition, decode[apihttp.Error](s, rec).Code)
}

func (s *ServerSuite) Test_UnknownStatusIsRejected() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.updateStatus(orderID, s.admin, "shipped")

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apihttp.CodeUnknownStatus, decode[apihttp.Error](s, rec).Code)
}

func (s *ServerSuite) Test_ClientCannotChangeStatus() {
	orderID := s.createOrder(s.client, s.client.ID)

	rec := s.updateStatus(orderID, s.client, "approved")

	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(apihttp.CodeForbidden, decode[apihttp.Error](s, rec).Code)
}

func (s *ServerSuite) Test_DepartmentHeadScope() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.updateStatus(orderID, s.otherHead, "approved")
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(apihttp.CodeScopeViolation, decode[apihttp.Error](s, rec).Code)

	rec = s.updateStatus(orderID, s.head, "approved")
	s.Equal(http.StatusOK, rec.Code, rec.Body.String())
}

func (s *ServerSuite) Test_UnknownOrderIsNotFound() {
	rec := s.updateStatus(kernel.NewUUID().String(), s.admin, "approved")

	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal(apihttp.CodeNotFound, decode[apihttp.Error](s, rec).Code)
}

func (s *ServerSuite) Test_MalformedOrderIDIsBadRequest() {
	rec := s.updateStatus("not-a-uuid", s.admin, "approved")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *ServerSuite) Test_RejectsBodyOutsideSchema() {
	orderID := s.createOrder(s.admin, s.client.ID)
	path := "/api/v1/orders/" + orderID + "/update-status/"

	cases := map[string]any{
		"unknown field":     map[string]any{"new_status": "approved", "priority": "high"},
		"missing status":    map[string]any{"notes": "x"},
		"legacy status key": map[string]any{"status": "approved"},
		"notes too long":    map[string]any{"new_status": "approved", "notes": strings.Repeat("n", 2001)},
		"not json":          "{new_status:",
	}
	for name, body := range cases {
		s.Run(name, func() {
			rec := s.do(http.MethodPost, path, s.token(s.admin), body)
			s.Equal(http.StatusBadRequest, rec.Code)
			s.Equal(apihttp.CodeInvalidRequest, decode[apihttp.Error](s, rec).Code)
		})
	}
}

func (s *ServerSuite) Test_CreateOrderValidatesPayload() {
	rec := s.do(http.MethodPost, "/api/v1/orders", s.token(s.admin), map[string]any{
		"client_id":     "nope",
		"department_id": s.department.String(),
		"title":         "Flyers",
	})

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal(apihttp.CodeInvalidRequest, decode[apihttp.Error](s, rec).Code)
}

func (s *ServerSuite) Test_ClientCannotCreateOrderForSomeoneElse() {
	rec := s.do(http.MethodPost, "/api/v1/orders", s.token(s.client), map[string]any{
		"client_id":     kernel.NewUUID().String(),
		"department_id": s.department.String(),
		"title":         "Flyers",
	})

	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ServerSuite) Test_WorkflowInfo() {
	orderID := s.createOrder(s.admin, s.client.ID)
	s.Require().Equal(http.StatusOK, s.updateStatus(orderID, s.admin, "approved").Code)

	rec := s.do(http.MethodGet, "/api/v1/orders/"+orderID+"/workflow-info/", s.token(s.client), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	info := decode[apihttp.WorkflowInfoResponse](s, rec)
	s.Equal("approved", info.CurrentStatus)
	s.Equal("blue", info.StatusColor)
	s.Equal(5, info.ProgressPercentage)
	s.Equal([]apihttp.StatusOption{
		{Value: "estimation_sent", Display: "Estimation Sent"},
		{Value: "in_progress", Display: "In Progress"},
	}, info.AllowedNextStatuses)

	rec = s.do(http.MethodGet, "/api/v1/orders/"+orderID+"/workflow-info/",
		s.token(actor.Actor{ID: kernel.NewUUID(), Role: actor.RoleClient}), nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

func (s *ServerSuite) Test_UpdateStatusAcceptsNewStatusField() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.do(http.MethodPost, "/api/v1/orders/"+orderID+"/update-status/", s.token(s.admin),
		`{"new_status":"approved","notes":"brief accepted by the client"}`)

	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[apihttp.UpdateStatusResponse](s, rec)
	s.True(resp.Success)
	s.Equal("approved", resp.Order.Status)
	s.Equal("pending", resp.PreviousStatus)
}

func (s *ServerSuite) Test_UnversionedOrderRoutes() {
	orderID := s.createOrder(s.admin, s.client.ID)

	rec := s.do(http.MethodPost, "/orders/"+orderID+"/update-status/", s.token(s.admin),
		map[string]any{"new_status": "approved"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/orders/"+orderID+"/workflow-info/", s.token(s.client), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal("approved", decode[apihttp.WorkflowInfoResponse](s, rec).CurrentStatus)

	rec = s.do(http.MethodGet, "/orders/"+orderID+"/status-history/", s.token(s.admin), nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Len(decode[apihttp.StatusHistoryResponse](s, rec).History, 2)

	rec = s.do(http.MethodGet, "/orders/"+orderID+"/workflow-info/", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}
