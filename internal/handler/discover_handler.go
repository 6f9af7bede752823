// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/mealtrack/internal/discover"
	"github.com/hitoshi/mealtrack/internal/middleware"
	"github.com/hitoshi/mealtrack/internal/model"
)

// DiscoverServiceInterface はDiscoverハンドラーが必要とするサービスインターフェース。
type DiscoverServiceInterface interface {
	// GetDiscoverFeed はDiscoverフィードの1ページを返す。
	// コンテキストがキャンセルされた場合のみエラーを返す。
	GetDiscoverFeed(ctx context.Context, req discover.FeedRequest) (*model.FeedResponse, error)
}

// DiscoverHandler はDiscoverフィードのHTTPハンドラー。
type DiscoverHandler struct {
	service DiscoverServiceInterface
	logger  *slog.Logger
}

// NewDiscoverHandler はDiscoverHandlerを生成する。
func NewDiscoverHandler(service DiscoverServiceInterface, logger *slog.Logger) *DiscoverHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverHandler{
		service: service,
		logger:  logger,
	}
}

// GetFeed はDiscoverフィードを返す。
// GET /api/discover?limit=&cursor=&surface=
func (h *DiscoverHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	q := r.URL.Query()

	limit, apiErr := parseLimit(q.Get("limit"))
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	surface, apiErr := parseSurface(q.Get("surface"))
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	resp, err := h.service.GetDiscoverFeed(r.Context(), discover.FeedRequest{
		UserID:  userID,
		Limit:   limit,
		Cursor:  q.Get("cursor"),
		Surface: surface,
	})
	if err != nil {
		// クライアントが切断済みのため、レスポンスは書き込まない
		h.logger.Debug("discover request cancelled",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// parseLimit はlimitクエリを検証する。未指定の場合はデフォルト値を返す。
func parseLimit(raw string) (int, *model.APIError) {
	if raw == "" {
		return discover.DefaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < discover.MinLimit || limit > discover.MaxLimit {
		return 0, model.NewInvalidLimitError(raw, discover.MinLimit, discover.MaxLimit)
	}
	return limit, nil
}

// parseSurface はsurfaceクエリを検証する。未指定の場合はwebを返す。
func parseSurface(raw string) (model.Surface, *model.APIError) {
	if raw == "" {
		return model.SurfaceWeb, nil
	}
	surface := model.Surface(raw)
	if !surface.Valid() {
		return "", model.NewInvalidSurfaceError(raw)
	}
	return surface, nil
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// SetupDiscoverRoutes はDiscoverフィードのルーティングを設定したchi.Routerを返す。
func SetupDiscoverRoutes(service DiscoverServiceInterface, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	h := NewDiscoverHandler(service, logger)
	r.Get("/api/discover", h.GetFeed)
	return r
}
