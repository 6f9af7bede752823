package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/hitoshi/mealtrack/internal/model"
)

// mockPublisher はInteractionPublisherのモック実装。
type mockPublisher struct {
	publishFn func(event model.DiscoverInteraction) bool
	events    []model.DiscoverInteraction
}

func (m *mockPublisher) Publish(event model.DiscoverInteraction) bool {
	m.events = append(m.events, event)
	if m.publishFn != nil {
		return m.publishFn(event)
	}
	return true
}

func postInteraction(t *testing.T, h *InteractionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/discover/interactions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()
	h.Record(w, req)
	return w
}

func TestInteractionHandler_Record_Success(t *testing.T) {
	pub := &mockPublisher{}
	h := NewInteractionHandler(pub, nil)

	w := postInteraction(t, h, `{
		"post_id": "p1",
		"action": "click",
		"surface": "mobile",
		"variant": "B",
		"request_id": "req-1",
		"rank_score": 0.75,
		"reason": "popular"
	}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.events))
	}
	got := pub.events[0]
	want := model.DiscoverInteraction{
		UserID:    "user-1",
		PostID:    "p1",
		Action:    model.InteractionClick,
		Surface:   model.SurfaceMobile,
		Variant:   "B",
		RequestID: "req-1",
		RankScore: 0.75,
		Reason:    model.ReasonPopular,
	}
	if got != want {
		t.Errorf("event = %+v, want %+v", got, want)
	}
}

func TestInteractionHandler_Record_Defaults(t *testing.T) {
	pub := &mockPublisher{}
	h := NewInteractionHandler(pub, nil)

	w := postInteraction(t, h, `{"post_id": "p1", "action": "dismiss"}`)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", w.Code)
	}
	got := pub.events[0]
	if got.Surface != model.SurfaceWeb {
		t.Errorf("surface = %q, want web", got.Surface)
	}
	if got.Reason != model.ReasonPopular {
		t.Errorf("reason = %q, want popular", got.Reason)
	}
	if _, err := uuid.Parse(got.RequestID); err != nil {
		t.Errorf("request_id should be a generated UUID, got %q", got.RequestID)
	}
}

func TestInteractionHandler_Record_UsesChiRequestID(t *testing.T) {
	pub := &mockPublisher{}
	handler := chimw.RequestID(http.HandlerFunc(NewInteractionHandler(pub, nil).Record))

	req := httptest.NewRequest(http.MethodPost, "/api/discover/interactions", strings.NewReader(`{"post_id":"p1","action":"click"}`))
	req.Header.Set(chimw.RequestIDHeader, "edge-req-7")
	req = withUserID(req, "user-1")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(pub.events) != 1 || pub.events[0].RequestID != "edge-req-7" {
		t.Errorf("events = %+v, want request_id edge-req-7", pub.events)
	}
}

func TestInteractionHandler_Record_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code string
	}{
		{"不正なJSON", `{"post_id":`, model.ErrCodeInvalidRequest},
		{"post_idなし", `{"action":"click"}`, model.ErrCodeInvalidRequest},
		{"未定義のaction", `{"post_id":"p1","action":"like"}`, model.ErrCodeInvalidAction},
		{"未定義のsurface", `{"post_id":"p1","action":"click","surface":"tv"}`, model.ErrCodeInvalidSurface},
		{"未定義のreason", `{"post_id":"p1","action":"click","reason":"random"}`, model.ErrCodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &mockPublisher{}
			h := NewInteractionHandler(pub, nil)

			w := postInteraction(t, h, tt.body)

			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if body := parseAPIErrorResponse(t, w); body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if len(pub.events) != 0 {
				t.Error("nothing should be published on validation error")
			}
		})
	}
}

func TestInteractionHandler_Record_BodyTooLarge(t *testing.T) {
	pub := &mockPublisher{}
	h := NewInteractionHandler(pub, nil)

	large := `{"post_id":"p1","action":"click","variant":"` + strings.Repeat("x", maxInteractionBodyBytes) + `"}`
	w := postInteraction(t, h, large)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

// キューが満杯でもクライアントには202を返す
func TestInteractionHandler_Record_QueueFullStillAccepted(t *testing.T) {
	pub := &mockPublisher{publishFn: func(model.DiscoverInteraction) bool { return false }}
	h := NewInteractionHandler(pub, nil)

	w := postInteraction(t, h, `{"post_id":"p1","action":"click"}`)

	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}

func TestInteractionHandler_Record_Unauthorized(t *testing.T) {
	h := NewInteractionHandler(&mockPublisher{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/discover/interactions", bytes.NewBufferString(`{}`))
	w := httptest.NewRecorder()
	h.Record(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
