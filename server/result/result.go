// Package result contains the types used to build and write out sequitur
// server API responses.
package result

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorResponse is the JSON body written for any Result built via Err.
type ErrorResponse struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

// OK returns a Result containing an HTTP-200 and respObj as its JSON body.
func OK(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusOK, respObj, fmtMsg("OK", internalMsg))
}

// NoContent returns a Result containing an HTTP-204 with no body.
func NoContent(internalMsg ...interface{}) Result {
	return Response(http.StatusNoContent, nil, fmtMsg("no content", internalMsg))
}

// Created returns a Result containing an HTTP-201 and respObj as its JSON
// body.
func Created(respObj interface{}, internalMsg ...interface{}) Result {
	return Response(http.StatusCreated, respObj, fmtMsg("created", internalMsg))
}

// Conflict returns a Result containing an HTTP-409 with userMsg as the
// user-facing error.
func Conflict(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusConflict, userMsg, fmtMsg("conflict", internalMsg))
}

// BadRequest returns a Result containing an HTTP-400 with userMsg as the
// user-facing error.
func BadRequest(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusBadRequest, userMsg, fmtMsg("bad request", internalMsg))
}

// TooLarge returns a Result containing an HTTP-413 with userMsg as the
// user-facing error.
func TooLarge(userMsg string, internalMsg ...interface{}) Result {
	return Err(http.StatusRequestEntityTooLarge, userMsg, fmtMsg("too large", internalMsg))
}

// MethodNotAllowed returns a Result containing an HTTP-405 for req.
func MethodNotAllowed(req *http.Request, internalMsg ...interface{}) Result {
	userMsg := fmt.Sprintf("Method %s is not allowed for %s", req.Method, req.URL.Path)
	return Err(http.StatusMethodNotAllowed, userMsg, fmtMsg("method not allowed", internalMsg))
}

// NotFound returns a Result containing an HTTP-404.
func NotFound(internalMsg ...interface{}) Result {
	return Err(http.StatusNotFound, "The requested resource was not found", fmtMsg("not found", internalMsg))
}

// Forbidden returns a Result containing an HTTP-403.
func Forbidden(internalMsg ...interface{}) Result {
	return Err(http.StatusForbidden, "You don't have permission to do that", fmtMsg("forbidden", internalMsg))
}

// Unauthorized returns a Result containing an HTTP-401 along with the
// WWW-Authenticate header.
func Unauthorized(userMsg string, internalMsg ...interface{}) Result {
	if userMsg == "" {
		userMsg = "You are not authorized to do that"
	}
	return Err(http.StatusUnauthorized, userMsg, fmtMsg("unauthorized", internalMsg)).
		WithHeader("WWW-Authenticate", `Bearer realm="sequitur server", charset="utf-8"`)
}

// InternalServerError returns a Result containing an HTTP-500. internalMsg is
// never shown to the caller.
func InternalServerError(internalMsg ...interface{}) Result {
	return Err(http.StatusInternalServerError, "An internal server error occurred", fmtMsg("internal server error", internalMsg))
}

func fmtMsg(def string, args []interface{}) string {
	if len(args) == 0 {
		return def
	}
	format := args[0].(string)
	return fmt.Sprintf(format, args[1:]...)
}

// Response builds a successful JSON Result. If status is http.StatusNoContent,
// respObj may be nil; otherwise it must not be.
func Response(status int, respObj interface{}, internalMsg string) Result {
	return Result{
		IsJSON:      true,
		Status:      status,
		InternalMsg: internalMsg,
		resp:        respObj,
	}
}

// Err builds an error JSON Result whose body is an ErrorResponse.
func Err(status int, userMsg, internalMsg string) Result {
	return Result{
		IsJSON:      true,
		IsErr:       true,
		Status:      status,
		InternalMsg: internalMsg,
		resp:        ErrorResponse{Error: userMsg, Status: status},
	}
}

// Result is the full outcome of handling one API request: its status, body,
// and any extra headers to set before writing it out.
type Result struct {
	Status      int
	IsErr       bool
	IsJSON      bool
	InternalMsg string

	resp interface{}
	hdrs [][2]string

	respJSONBytes []byte
}

// WithHeader returns a copy of r with the given header queued for the
// eventual response.
func (r Result) WithHeader(name, val string) Result {
	cp := r
	cp.hdrs = append(append([][2]string{}, r.hdrs...), [2]string{name, val})
	return cp
}

// PrepareMarshaledResponse marshals r's body to JSON ahead of time, so that a
// marshaling failure can be surfaced as an error rather than a panic inside
// WriteResponse.
func (r *Result) PrepareMarshaledResponse() error {
	if r.respJSONBytes != nil {
		return nil
	}
	if r.IsJSON && r.Status != http.StatusNoContent {
		var err error
		r.respJSONBytes, err = json.Marshal(r.resp)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteResponse writes r's status, headers, and body to w.
func (r Result) WriteResponse(w http.ResponseWriter) {
	if r.Status == 0 {
		panic("result not populated")
	}

	if err := r.PrepareMarshaledResponse(); err != nil {
		panic(fmt.Sprintf("could not marshal response: %s", err.Error()))
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	for _, h := range r.hdrs {
		w.Header().Set(h[0], h[1])
	}

	w.WriteHeader(r.Status)

	if r.Status != http.StatusNoContent {
		w.Write(r.respJSONBytes)
	}
}
