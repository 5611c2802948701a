package web

import (
	"github.com/gin-gonic/gin"

	"github.com/Laisky/laisky-cms/library/httperr"
	"github.com/Laisky/laisky-cms/library/throttle"
)

// throttleRequests rejects clients over their rate with 429
func throttleRequests(th *throttle.Throttle) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !th.Allow(ctx.ClientIP()) {
			httperr.Abort(ctx, httperr.TooManyRequests("Too many requests"))
			return
		}

		ctx.Next()
	}
}
