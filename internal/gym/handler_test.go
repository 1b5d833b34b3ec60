package gym

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"gymhub/internal/access"
	"gymhub/internal/api"
	"gymhub/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc Service, identity access.Identity) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		auth.SetIdentity(c, identity)
		c.Next()
	})
	r.POST("/gyms", h.Register)
	r.GET("/gyms", h.List)
	r.GET("/gyms/:gymID", h.Get)
	r.GET("/gyms/code/:code", h.GetByCode)
	r.POST("/gyms/:gymID/admins", h.AddAdmin)
	r.POST("/platform/gyms/:gymID/approve", h.Approve)
	r.POST("/platform/gyms/:gymID/reject", h.Reject)
	r.POST("/platform/gyms/:gymID/suspend", h.Suspend)
	r.POST("/platform/gyms/:gymID/reactivate", h.Reactivate)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_RegisterAndApprove(t *testing.T) {
	f := newFixture(t, Options{ApprovalRequired: true}, nil)

	w := doJSON(newTestRouter(f.svc, founder), http.MethodPost, "/gyms", RegisterGymRequest{Name: "Iron Temple", Location: "Harbour St"})
	require.Equal(t, http.StatusCreated, w.Code)

	var g Gym
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &g))
	assert.Equal(t, StatusPending, g.Status)

	admin := newTestRouter(f.svc, platformAdmin)

	w = doJSON(admin, http.MethodPost, "/platform/gyms/"+g.ID+"/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(admin, http.MethodPost, "/platform/gyms/"+g.ID+"/approve", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "STATE_TRANSITION", resp.Kind)

	w = doJSON(newTestRouter(f.svc, founder), http.MethodPost, "/platform/gyms/"+g.ID+"/suspend", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(admin, http.MethodPost, "/platform/gyms/missing/reject", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_RegisterValidation(t *testing.T) {
	f := newFixture(t, Options{ApprovalRequired: true}, nil)

	w := doJSON(newTestRouter(f.svc, founder), http.MethodPost, "/gyms", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Name")
}

func TestHandler_Lookup(t *testing.T) {
	f := newFixture(t, Options{ApprovalRequired: false}, nil)
	g := f.register(t)
	r := newTestRouter(f.svc, member)

	w := doJSON(r, http.MethodGet, "/gyms/code/"+g.Code, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/gyms/"+g.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodGet, "/gyms", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gyms []Gym
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &gyms))
	assert.Len(t, gyms, 1)

	admin := newTestRouter(f.svc, access.Identity{UserID: "founder", Role: access.RoleGymAdmin, GymID: g.ID})
	w = doJSON(admin, http.MethodPost, "/gyms/"+g.ID+"/admins", AddAdminRequest{UserID: "second"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(admin, http.MethodPost, "/gyms/"+g.ID+"/admins", AddAdminRequest{UserID: "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
}
