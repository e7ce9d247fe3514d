package handlers

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"sync"

	intconfig "travelfinance/internal/config"

	"github.com/gin-gonic/gin"
)

var (
	engineMu sync.RWMutex
	engine   *gin.Engine
)

// SetRouter keeps the engine so /api/routes can describe it.
func SetRouter(r *gin.Engine) {
	engineMu.Lock()
	defer engineMu.Unlock()
	engine = r
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "travel-finance"})
}

func DBCheck(c *gin.Context) {
	if err := intconfig.EnsureDB(c.Request.Context()); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK"})
}

type endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

// Routes lists the finance endpoints by area (reports, bookings, payments,
// installments). Health and diagnostics routes are left out.
func Routes(c *gin.Context) {
	engineMu.RLock()
	r := engine
	engineMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "router not ready"})
		return
	}

	areas := map[string][]endpoint{}
	for _, rt := range r.Routes() {
		area, ok := financeArea(rt.Path)
		if !ok {
			continue
		}
		areas[area] = append(areas[area], endpoint{Method: rt.Method, Path: rt.Path})
	}
	for _, eps := range areas {
		slices.SortFunc(eps, func(a, b endpoint) int {
			if n := cmp.Compare(a.Path, b.Path); n != 0 {
				return n
			}
			return cmp.Compare(a.Method, b.Method)
		})
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

// financeArea returns the group segment of an /api/<area>/... path.
func financeArea(path string) (string, bool) {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		return "", false
	}
	area, _, nested := strings.Cut(rest, "/")
	return area, nested
}
