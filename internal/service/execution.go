package service

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/antonio-alexander/go-employee-crud/internal/data"
	"github.com/antonio-alexander/go-employee-crud/internal/metrics"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

func idFromPath(pathVariables map[string]string) (int64, error) {
	id, err := strconv.ParseInt(pathVariables[data.PathId], 10, 64)
	if err != nil {
		return 0, errors.Wrapf(data.ErrInvalidArgument, "invalid id: %q", pathVariables[data.PathId])
	}
	return id, nil
}

func idFromQuery(request *http.Request) (int64, error) {
	value := request.URL.Query().Get(data.ParameterId)
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(data.ErrInvalidArgument, "invalid id: %q", value)
	}
	return id, nil
}

func errorToStatusCode(err error) int {
	switch {
	default:
		return http.StatusInternalServerError
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, data.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, data.ErrMutateDisabled):
		return http.StatusForbidden
	}
}

func handleResponse(writer http.ResponseWriter, err error, items ...any) {
	var bytes []byte

	if err == nil {
		switch {
		default:
			bytes, err = json.Marshal(items[0])
		case len(items) <= 0 || items[0] == nil:
			writer.WriteHeader(http.StatusNoContent)
			return
		}
	}
	if err != nil {
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(errorToStatusCode(err))
		bytes, err = json.Marshal(&data.Error{Error: err.Error()})
		if err != nil {
			fmt.Printf("error handling response: %s\n", err)
			return
		}
		if _, err := writer.Write(bytes); err != nil {
			fmt.Printf("error handling response: %s\n", err)
		}
		return
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := writer.Write(bytes); err != nil {
		fmt.Printf("error handling response: %s\n", err)
	}
}

func handleText(writer http.ResponseWriter, statusCode int, message string) {
	writer.Header().Set("Content-Type", "text/plain; charset=utf-8")
	writer.WriteHeader(statusCode)
	if _, err := writer.Write([]byte(message)); err != nil {
		fmt.Printf("error handling response: %s\n", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (s *statusRecorder) WriteHeader(statusCode int) {
	s.statusCode = statusCode
	s.ResponseWriter.WriteHeader(statusCode)
}

func metricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			route := request.URL.Path
			if current := mux.CurrentRoute(request); current != nil {
				if template, err := current.GetPathTemplate(); err == nil {
					route = template
				}
			}
			recorder := &statusRecorder{ResponseWriter: writer, statusCode: http.StatusOK}
			tStart := time.Now()
			next.ServeHTTP(recorder, request)
			m.RequestDuration.WithLabelValues(route).Observe(time.Since(tStart).Seconds())
			m.RequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.statusCode)).Inc()
		})
	}
}

func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if !limiter.Allow() {
				handleText(writer, http.StatusTooManyRequests,
					http.StatusText(http.StatusTooManyRequests))
				return
			}
			next.ServeHTTP(writer, request)
		})
	}
}
