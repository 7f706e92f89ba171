package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMiddleware_HandlerFunc(t *testing.T) {
	m := NewMiddleware(zap.NewNop(), []string{"https://forms.example.com"})

	testCases := []struct {
		name           string
		method         string
		origin         string
		expectedStatus int
		expectedOrigin string
		reachedNext    bool
	}{
		{
			name:           "Should answer preflight for allowed origin",
			method:         http.MethodOptions,
			origin:         "https://forms.example.com",
			expectedStatus: http.StatusNoContent,
			expectedOrigin: "https://forms.example.com",
		},
		{
			name:           "Should decorate simple request for allowed origin",
			method:         http.MethodGet,
			origin:         "https://forms.example.com",
			expectedStatus: http.StatusOK,
			expectedOrigin: "https://forms.example.com",
			reachedNext:    true,
		},
		{
			name:           "Should not decorate other origins",
			method:         http.MethodGet,
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusOK,
			reachedNext:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			handler := m.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				reached = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tc.method, "/api/forms", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()

			handler(rec, req)

			require.Equal(t, tc.expectedStatus, rec.Code)
			require.Equal(t, tc.expectedOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.reachedNext, reached)
		})
	}
}
