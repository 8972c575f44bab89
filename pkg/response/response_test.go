package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "shoplink/pkg/errors"
)

func record(t *testing.T, fn func(echo.Context) error) (*httptest.ResponseRecorder, Envelope) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, fn(c))

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestSuccessEnvelope(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return Success(c, map[string]string{"id": "t1"})
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.JSONEq(t, `{"id":"t1"}`, string(env.Data))
	assert.NotEmpty(t, env.Timestamp)
}

func TestErrorEnvelopeCarriesAppError(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return Error(c, apperrors.Request("Chat is closed", http.StatusUnprocessableEntity, []apperrors.FieldError{
			{Path: "chatId", Message: "chatId is required"},
		}))
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "REQUEST_ERROR", env.Error.Code)
	assert.Equal(t, "Chat is closed", env.Error.Message)

	fields := env.Error.FieldErrors()
	require.Len(t, fields, 1)
	assert.Equal(t, "chatId", fields[0].Path)
}

func TestErrorEnvelopeUnknownError(t *testing.T) {
	rec, env := record(t, func(c echo.Context) error {
		return Error(c, assert.AnError)
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}

func TestFieldErrorsIgnoresOtherShapes(t *testing.T) {
	info := &ErrorInfo{Details: json.RawMessage(`{"not":"a list"}`)}
	assert.Nil(t, info.FieldErrors())

	var nilInfo *ErrorInfo
	assert.Nil(t, nilInfo.FieldErrors())
}

func TestPaginatedEnvelope(t *testing.T) {
	_, env := record(t, func(c echo.Context) error {
		return Paginated(c, []string{"a", "b"}, 5, 1, 2)
	})

	var page PaginatedResponse
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
}
