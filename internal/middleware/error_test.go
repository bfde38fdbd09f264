package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}
	return response
}

func TestProperty_ErrorsHaveConsistentStructure(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("error responses carry code, message and an RFC3339 timestamp", prop.ForAll(
		func(statusCode int, message string) bool {
			w := httptest.NewRecorder()
			RespondWithError(w, statusCode, message)

			if w.Code != statusCode || w.Header().Get("Content-Type") != "application/json" {
				return false
			}

			var response ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				return false
			}
			if response.Error.Code != http.StatusText(statusCode) || response.Error.Message != message {
				return false
			}
			_, err := time.Parse(time.RFC3339, response.Error.Timestamp)
			return err == nil
		},
		gen.OneConstOf(
			http.StatusBadRequest,
			http.StatusUnauthorized,
			http.StatusForbidden,
			http.StatusNotFound,
			http.StatusConflict,
			http.StatusUnprocessableEntity,
			http.StatusInternalServerError,
		),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithErrorDetails_CustomCode(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithErrorDetails(w, http.StatusConflict, "product_in_use", "product is referenced by orders",
		map[string]interface{}{"product_id": "p1"})

	response := decodeError(t, w)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if response.Error.Code != "product_in_use" {
		t.Errorf("code = %q, want product_in_use", response.Error.Code)
	}
	if response.Error.Details["product_id"] != "p1" {
		t.Errorf("details = %v", response.Error.Details)
	}
}

func TestRespondWithValidationErrors(t *testing.T) {
	w := httptest.NewRecorder()
	RespondWithValidationErrors(w, []ValidationError{{Field: "status", Message: "This field is required"}})

	response := decodeError(t, w)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if response.Error.Code != "validation_failed" {
		t.Errorf("code = %q, want validation_failed", response.Error.Code)
	}
	list, ok := response.Error.Details["validation_errors"].([]interface{})
	if !ok || len(list) != 1 {
		t.Fatalf("validation_errors = %v", response.Error.Details["validation_errors"])
	}
}

func TestErrorHandlingMiddleware_RecoversPanics(t *testing.T) {
	handler := ErrorHandlingMiddleware(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("stock ledger exploded")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("PATCH", "/api/admin/orders/1/status", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if response := decodeError(t, w); response.Error.Message != "internal server error" {
		t.Errorf("message = %q", response.Error.Message)
	}
}

func TestProperty_JSONResponsesAreValid(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("RespondWithJSON writes decodable JSON with the given status", prop.ForAll(
		func(key string, value string) bool {
			w := httptest.NewRecorder()
			RespondWithJSON(w, http.StatusOK, map[string]string{key: value})

			var decoded map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
				return false
			}
			return w.Code == http.StatusOK && decoded[key] == value
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
