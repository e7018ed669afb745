package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/system/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroupMiddleware(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("ops", "/ops")
	group.Use(func(c *gin.Context) {
		c.AbortWithStatus(http.StatusForbidden)
	})
	group.GET("/users", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ops/users", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDomainGroupNesting(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("engagements", "/engagements")
	group.GET("", func(c *gin.Context) {
		c.String(http.StatusOK, "list")
	})

	scoped := group.Group("engagement", "/:id")
	scoped.Use(func(c *gin.Context) {
		if c.Param("id") == "PROJ-9999" {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		c.Next()
	})
	scoped.GET("/modules", func(c *gin.Context) {
		c.String(http.StatusOK, c.Param("id"))
	})

	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/engagements", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/engagements/PROJ-0001/modules", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PROJ-0001", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/engagements/PROJ-9999/modules", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDomainGroupAccessors(t *testing.T) {
	g := NewDomainGroup("auth", "/auth")
	assert.Equal(t, "auth", g.Name())
	assert.Equal(t, "/auth", g.Prefix())
}
