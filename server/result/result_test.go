package result

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Constructors_Status(t *testing.T) {
	testCases := []struct {
		name   string
		result Result
		expect int
	}{
		{"OK", OK(nil), http.StatusOK},
		{"NoContent", NoContent(), http.StatusNoContent},
		{"Created", Created(nil), http.StatusCreated},
		{"Conflict", Conflict("nope"), http.StatusConflict},
		{"BadRequest", BadRequest("nope"), http.StatusBadRequest},
		{"TooLarge", TooLarge("nope"), http.StatusRequestEntityTooLarge},
		{"NotFound", NotFound(), http.StatusNotFound},
		{"Forbidden", Forbidden(), http.StatusForbidden},
		{"Unauthorized", Unauthorized(""), http.StatusUnauthorized},
		{"InternalServerError", InternalServerError(), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.result.Status)
		})
	}
}

func Test_Unauthorized_SetsWWWAuthenticate(t *testing.T) {
	r := Unauthorized("")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Bearer")
}

func Test_WriteResponse_JSONBody(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	r := OK(payload{Name: "alice"})
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got payload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "alice", got.Name)
}

func Test_WriteResponse_NoContent_EmptyBody(t *testing.T) {
	r := NoContent()
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.Bytes())
}

func Test_Err_BodyIsErrorResponse(t *testing.T) {
	r := Conflict("a user with that username already exists")
	w := httptest.NewRecorder()
	r.WriteResponse(w)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "a user with that username already exists", got.Error)
	assert.Equal(t, http.StatusConflict, got.Status)
}

func Test_fmtMsg(t *testing.T) {
	testCases := []struct {
		name   string
		def    string
		args   []interface{}
		expect string
	}{
		{"no args uses default", "OK", nil, "OK"},
		{"format with args", "OK", []interface{}{"pushed %d bytes", 5}, "pushed 5 bytes"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, fmtMsg(tc.def, tc.args))
		})
	}
}
