package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/askdoc/askdoc/internal/config"
	"github.com/askdoc/askdoc/internal/filestore"
	"github.com/askdoc/askdoc/internal/handler"
	"github.com/askdoc/askdoc/internal/ingest"
	"github.com/askdoc/askdoc/internal/middleware"
	"github.com/askdoc/askdoc/internal/ratelimit"
	"github.com/askdoc/askdoc/internal/repo"
	"github.com/askdoc/askdoc/internal/service"
	"github.com/askdoc/askdoc/test/testutil"
)

func setupRouter(t *testing.T, rateLimits map[string]config.RatePolicy) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	userRepo := repo.NewUserRepo(db)
	docRepo := repo.NewDocumentRepo(db)
	chunkRepo := repo.NewChunkRepo(db)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": t.TempDir(),
		},
	})
	require.NoError(t, err)

	runner, err := ingest.NewRunner(1, func(ctx context.Context, documentID string) {})
	require.NoError(t, err)

	documentService := service.NewDocumentService(docRepo, chunkRepo, userRepo, store, runner, 10, time.Hour)
	userService := service.NewUserService(userRepo)

	deps := handler.RouterDeps{
		Users:     handler.NewUserHandler(userService),
		Documents: handler.NewDocumentHandler(documentService),
		Ask:       handler.NewAskHandler(),
	}
	if rateLimits == nil {
		rateLimits = config.DefaultRateLimits()
	}
	limiter := ratelimit.NewLimiter(rateLimits)

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
			middleware.RateLimit(limiter, "/api/v1"),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		runner.Release()
		cleanup()
	}
}
