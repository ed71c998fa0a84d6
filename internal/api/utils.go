package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/edgard/middleman/internal/database"
	"github.com/edgard/middleman/internal/recommend"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

// CodedError attaches an HTTP status code to err.
func CodedError(code int, err error) error {
	return &codedError{err: err, code: code}
}

// CodedErrorf formats an error carrying an HTTP status code.
func CodedErrorf(code int, format string, args ...any) error {
	return &codedError{err: fmt.Errorf(format, args...), code: code}
}

var (
	validate     *validator.Validate
	validateOnce sync.Once

	queryDecoder = func() *schema.Decoder {
		d := schema.NewDecoder()
		d.IgnoreUnknownKeys(true)
		return d
	}()
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return CodedErrorf(http.StatusBadRequest, "invalid request: %v", err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fe.Field()+" is required")
		default:
			fields = append(fields, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return CodedErrorf(http.StatusBadRequest, "%s", strings.Join(fields, ", "))
}

// ParseRequest decodes and validates a JSON request body.
func ParseRequest[T any](r *http.Request) (T, error) {
	var data T
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		slog.DebugContext(r.Context(), "error parsing request body", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request body")
	}
	if err := getValidator().Struct(data); err != nil {
		return data, validationError(err)
	}
	return data, nil
}

// ParseRequestQueryParams decodes and validates URL query parameters.
func ParseRequestQueryParams[T any](r *http.Request) (T, error) {
	var data T
	if err := r.ParseForm(); err != nil {
		slog.DebugContext(r.Context(), "error parsing form", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}

	if err := queryDecoder.Decode(&data, r.Form); err != nil {
		slog.DebugContext(r.Context(), "error decoding query params", "error", err)
		return data, CodedErrorf(http.StatusBadRequest, "unable to parse request query params")
	}
	if err := getValidator().Struct(data); err != nil {
		return data, validationError(err)
	}
	return data, nil
}

// created marks a handler result to be written with 201.
type created struct {
	body any
}

// Created wraps body so RestHandler responds with 201 Created.
func Created(body any) any {
	return created{body: body}
}

type errorResponse struct {
	Error string `json:"error"`
}

// RestHandler adapts a handler returning (body, error) to http.HandlerFunc.
func RestHandler(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			code, msg := statusFor(err)
			if code >= http.StatusInternalServerError {
				slog.ErrorContext(r.Context(), "error received in endpoint", "path", r.URL.Path, "status", code, "error", err)
			}
			WriteJsonResponse(w, code, errorResponse{Error: msg})
			return
		}

		if c, ok := res.(created); ok {
			WriteJsonResponse(w, http.StatusCreated, c.body)
			return
		}
		if res == nil {
			res = struct{}{}
		}
		WriteJsonResponse(w, http.StatusOK, res)
	}
}

// statusFor maps an endpoint error onto a status code and client message.
func statusFor(err error) (int, string) {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code, err.Error()
	}

	var nf *recommend.NotFoundError
	switch {
	case errors.As(err, &nf):
		return http.StatusNotFound, nf.Error()
	case errors.Is(err, recommend.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, database.ErrAlreadyExists):
		return http.StatusConflict, err.Error()
	case errors.Is(err, recommend.ErrModelInvocation), errors.Is(err, recommend.ErrGenerationShortfall):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// WriteJsonResponse writes data as JSON with the given status code.
func WriteJsonResponse(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("error serializing response body", "error", err)
	}
}
