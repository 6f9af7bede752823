package handler

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hitoshi/mealtrack/internal/middleware"
	"github.com/hitoshi/mealtrack/internal/model"
)

// maxInteractionBodyBytes は操作イベントのリクエストボディの上限。
const maxInteractionBodyBytes = 4 << 10

// InteractionPublisher は操作イベントを非同期に送信するインターフェース。
// キューに積めなかった場合はfalseを返す。
type InteractionPublisher interface {
	Publish(event model.DiscoverInteraction) bool
}

// InteractionHandler はDiscover操作イベントのHTTPハンドラー。
type InteractionHandler struct {
	publisher InteractionPublisher
	logger    *slog.Logger
}

// NewInteractionHandler はInteractionHandlerを生成する。
func NewInteractionHandler(publisher InteractionPublisher, logger *slog.Logger) *InteractionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &InteractionHandler{
		publisher: publisher,
		logger:    logger,
	}
}

// interactionRequest は操作イベント送信リクエストのボディ。
type interactionRequest struct {
	PostID    string   `json:"post_id"`
	Action    string   `json:"action"`
	Surface   string   `json:"surface"`
	Variant   string   `json:"variant"`
	RequestID string   `json:"request_id"`
	RankScore *float64 `json:"rank_score"`
	Reason    string   `json:"reason"`
}

// Record は操作イベントを受け付ける。
// POST /api/discover/interactions
// 送信は非同期で行い、受付時点で202を返す。
func (h *InteractionHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req interactionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxInteractionBodyBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("JSONの解析に失敗しました"))
		return
	}

	event, apiErr := h.toEvent(r, userID, req)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	if !h.publisher.Publish(event) {
		// 分析イベントの欠落はクライアントに通知しない
		h.logger.Warn("discover interaction not queued",
			slog.String("user_id", userID),
			slog.String("post_id", event.PostID),
		)
	}

	w.WriteHeader(http.StatusAccepted)
}

func (h *InteractionHandler) toEvent(r *http.Request, userID string, req interactionRequest) (model.DiscoverInteraction, *model.APIError) {
	if req.PostID == "" {
		return model.DiscoverInteraction{}, model.NewInvalidRequestError("post_idは必須です")
	}

	action := model.InteractionAction(req.Action)
	if !action.Valid() {
		return model.DiscoverInteraction{}, model.NewInvalidActionError(req.Action)
	}

	surface, apiErr := parseSurface(req.Surface)
	if apiErr != nil {
		return model.DiscoverInteraction{}, apiErr
	}

	reason := model.ReasonPopular
	if req.Reason != "" {
		reason = model.Reason(req.Reason)
		if !reason.Valid() {
			return model.DiscoverInteraction{}, model.NewInvalidRequestError("reasonが不正です")
		}
	}

	var rankScore float64
	if req.RankScore != nil {
		rankScore = *req.RankScore
		if math.IsNaN(rankScore) || math.IsInf(rankScore, 0) {
			return model.DiscoverInteraction{}, model.NewInvalidRequestError("rank_scoreが不正です")
		}
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = chimw.GetReqID(r.Context())
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	return model.DiscoverInteraction{
		UserID:    userID,
		PostID:    req.PostID,
		Action:    action,
		Surface:   surface,
		Variant:   req.Variant,
		RequestID: requestID,
		RankScore: rankScore,
		Reason:    reason,
	}, nil
}
