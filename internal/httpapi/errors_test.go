package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/workcity/chat-service/internal/chat"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := &API{logger: zap.NewNop()}

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", fmt.Errorf("%w: bad title", chat.ErrValidation), http.StatusBadRequest, "validation_error"},
		{"forbidden", fmt.Errorf("%w: not a participant", chat.ErrUnauthorized), http.StatusForbidden, "forbidden"},
		{"not found", fmt.Errorf("%w: session 9", chat.ErrNotFound), http.StatusNotFound, "not_found"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			a.respondError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
			}
			// Internal errors never leak detail to the client.
			if tt.wantCode == "internal" && body.Error.Message != "internal error" {
				t.Errorf("internal message leaked: %q", body.Error.Message)
			}
		})
	}
}

func TestSessionIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		raw    string
		wantID int64
		wantOK bool
	}{
		{"17", 17, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: tt.raw}}

			id, ok := sessionIDParam(c)
			if ok != tt.wantOK || id != tt.wantID {
				t.Fatalf("sessionIDParam(%q) = (%d, %v), want (%d, %v)", tt.raw, id, ok, tt.wantID, tt.wantOK)
			}
			if !tt.wantOK && w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}
