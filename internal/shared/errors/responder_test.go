package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

var errSoldOut = stderrors.New("sold out")

func serve(t *testing.T, handler gin.HandlerFunc) (*httptest.ResponseRecorder, ProblemDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/v1/orders/:ref", handler)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/orders/GHD-1001", nil))
	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return rec, problem
}

func TestChainedResponder_UsesFirstMatchingMapper(t *testing.T) {
	responder := NewChainedResponder("https://api.ghadwa.example",
		func(err error) (ProblemDetail, bool) { return ProblemDetail{}, false },
		func(err error) (ProblemDetail, bool) {
			if stderrors.Is(err, errSoldOut) {
				return ErrConflict.WithDetail("dish sold out"), true
			}
			return ProblemDetail{}, false
		},
	)

	rec, problem := serve(t, func(c *gin.Context) { responder.RespondError(c, errSoldOut) })
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	require.Equal(t, "https://api.ghadwa.example"+TypeConflict, problem.Type)
	require.Equal(t, "/v1/orders/GHD-1001", problem.Instance)
}

func TestResponder_HidesUnknownErrors(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) {
		NewResponder("").RespondError(c, stderrors.New("pq: password authentication failed"))
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "unexpected error", problem.Detail)
}

func TestResponder_PassesProblemDetailsThrough(t *testing.T) {
	rec, problem := serve(t, func(c *gin.Context) {
		NewResponder("").RespondError(c, ErrServiceUnavailable.WithDetail("order not placed, try again"))
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, TypeServiceUnavailable, problem.Type)
}

func TestResponder_Helpers(t *testing.T) {
	responder := NewResponder("")

	rec, problem := serve(t, func(c *gin.Context) { responder.NotFound(c, "order", "GHD-1001") })
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "order", problem.Extensions["resourceType"])

	rec, problem = serve(t, func(c *gin.Context) { responder.BadRequest(c, "not JSON") })
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, TypeBadRequest, problem.Type)

	rec, problem = serve(t, func(c *gin.Context) {
		responder.ValidationFailed(c, map[string]string{"date": "is required"})
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, TypeValidation, problem.Type)

	rec, problem = serve(t, func(c *gin.Context) { responder.Forbidden(c, "admin token required") })
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, TypeForbidden, problem.Type)
	require.Equal(t, "admin token required", problem.Detail)
}

func TestNewValidationProblem(t *testing.T) {
	problem := NewValidationProblem(map[string]string{"phone": "is required"})
	require.Equal(t, http.StatusBadRequest, problem.Status)
	require.Equal(t, map[string]string{"phone": "is required"}, problem.Extensions["fields"])
	require.Equal(t, "Validation Error", problem.Error())
}
