package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/examstack/exam-service/internal/models"
)

func newRoleGateRouter(role models.UserRole, setRole bool, required ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cam := &CasdoorAuthMiddleware{}

	router := gin.New()
	router.GET("/guarded",
		func(c *gin.Context) {
			if setRole {
				c.Set(ctxKeyUserRole, role)
			}
			c.Next()
		},
		cam.RequireRoleMiddleware(required...),
		func(c *gin.Context) {
			c.Status(http.StatusOK)
		},
	)
	return router
}

func TestRequireRoleMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		role       models.UserRole
		setRole    bool
		required   []models.UserRole
		wantStatus int
	}{
		{
			name:       "student on student route",
			role:       models.RoleStudent,
			setRole:    true,
			required:   []models.UserRole{models.RoleStudent},
			wantStatus: http.StatusOK,
		},
		{
			name:       "admin on admin route",
			role:       models.RoleAdmin,
			setRole:    true,
			required:   []models.UserRole{models.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "student on admin route",
			role:       models.RoleStudent,
			setRole:    true,
			required:   []models.UserRole{models.RoleAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			// Exam taking is a student operation; admin principals are
			// rejected rather than passed through.
			name:       "admin on student route",
			role:       models.RoleAdmin,
			setRole:    true,
			required:   []models.UserRole{models.RoleStudent},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "no role in context",
			setRole:    false,
			required:   []models.UserRole{models.RoleStudent},
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRoleGateRouter(tt.role, tt.setRole, tt.required...)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
		})
	}
}
