package http

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// SetupRouter builds the gin router of the ledger service. The challenge
// endpoints are public; everything else requires a session credential, and
// the record listing additionally requires an operator address.
func SetupRouter(handlers *LedgerHandlers, auth gin.HandlerFunc, admins []common.Address) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = 8 << 20

	router.GET("/sign-message/", handlers.SignMessage)
	router.POST("/verify-signature/", handlers.VerifySignature)

	authed := router.Group("/")
	authed.Use(auth)
	{
		authed.GET("/user-tokens/", handlers.UserTokens)
		authed.POST("/update-requests/", handlers.CreateUpdateRequest)
	}

	admin := router.Group("/admin")
	admin.Use(auth, AdminMiddleware(admins))
	{
		admin.GET("/update-requests/", handlers.ListUpdateRequests)
	}

	return router
}
