package maintenance

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubPruner struct {
	removed int64
	err     error
}

func (s stubPruner) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	return s.removed, s.err
}

func TestHandleTick(t *testing.T) {
	janitor := New(stubPruner{removed: 3})

	w := httptest.NewRecorder()
	janitor.HandleTick(w, httptest.NewRequest(http.MethodPost, "/maintenance/tick", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "removed 3 expired sessions")
}

func TestHandleTickFailure(t *testing.T) {
	janitor := New(stubPruner{err: errors.New("table locked")})

	w := httptest.NewRecorder()
	janitor.HandleTick(w, httptest.NewRequest(http.MethodPost, "/maintenance/tick", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "table locked")
}
