package http

import "github.com/gin-gonic/gin"

// Register attaches the issue routes to the /api/issues group. The bare
// group paths exist so a missing project segment gets the plain-text
// answer instead of a 404.
func (h *Handler) Register(rg *gin.RouterGroup) {
	for _, path := range []string{"", "/", "/:project"} {
		rg.GET(path, h.list)
		rg.POST(path, h.create)
		rg.PUT(path, h.update)
		rg.DELETE(path, h.delete)
	}
}
