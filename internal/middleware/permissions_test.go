package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kaaboura12/backend-hackathon-sos-V0.1/internal/models"
)

func permissionRouter(claims *models.JWTClaims, required ...models.Permission) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
		})
	}
	router.Use(RequirePermissions(required...))
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestRequirePermissionsMissingClaims(t *testing.T) {
	recorder := httptest.NewRecorder()
	router := permissionRouter(nil, models.PermReportView)

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequirePermissionsEmptyPermissionSet(t *testing.T) {
	recorder := httptest.NewRecorder()
	claims := &models.JWTClaims{UserID: "u1"}
	router := permissionRouter(claims)

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("empty permission set must be refused, got status: %d", recorder.Code)
	}
}

func TestRequirePermissionsPartialSetRefused(t *testing.T) {
	recorder := httptest.NewRecorder()
	claims := &models.JWTClaims{UserID: "u1", Permissions: []string{"REPORT_VIEW"}}
	router := permissionRouter(claims, models.PermReportView, models.PermReportAssign)

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequirePermissionsFullSetPasses(t *testing.T) {
	recorder := httptest.NewRecorder()
	claims := &models.JWTClaims{UserID: "u1", Permissions: []string{"REPORT_ASSIGN", "REPORT_VIEW"}}
	router := permissionRouter(claims, models.PermReportView, models.PermReportAssign)

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusNoContent {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}

func TestRequirePermissionsUnknownPermissionInToken(t *testing.T) {
	recorder := httptest.NewRecorder()
	claims := &models.JWTClaims{UserID: "u1", Permissions: []string{"FUTURE_PERMISSION"}}
	router := permissionRouter(claims, models.PermReportView)

	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", recorder.Code)
	}
}
