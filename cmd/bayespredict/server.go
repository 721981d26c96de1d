package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gonum.org/v1/gonum/mat"
)

type predictRequest struct {
	Rows  [][]float64 `json:"rows"`
	Level float64     `json:"level,omitempty"`
}

type predictResponse struct {
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
	Lower []float64 `json:"lower,omitempty"`
	Upper []float64 `json:"upper,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// router exposes the fitted estimator:
//
//	GET  /healthz  liveness
//	GET  /model    hyperparameters and posterior means
//	POST /predict  {"rows": [[...], ...], "level": 0.9}
func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "run_id": a.runID})
	})
	r.Get("/model", a.handleModel)
	r.Post("/predict", a.handlePredict)
	return r
}

func (a *app) handleModel(w http.ResponseWriter, _ *http.Request) {
	weights, err := a.est.ExportWeights()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weights)
}

func (a *app) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}
	X, err := rowsToMatrix(req.Rows)
	if err != nil {
		writeError(w, err)
		return
	}

	pred, err := a.est.PredictWithStdContext(r.Context(), X)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := predictResponse{
		Mean: mat.Col(nil, 0, pred),
		Std:  mat.Col(nil, 1, pred),
	}
	if req.Level > 0 {
		interval, err := a.est.PredictInterval(X, req.Level)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Lower = mat.Col(nil, 0, interval)
		resp.Upper = mat.Col(nil, 1, interval)
	}

	a.logger.Debug("Served prediction",
		log.SamplesKey, len(req.Rows),
		"request_id", middleware.GetReqID(r.Context()),
	)
	writeJSON(w, http.StatusOK, resp)
}

func rowsToMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, errors.NewValueError("predict", "rows must be a non-empty matrix")
	}
	cols := len(rows[0])
	X := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		if len(row) != cols {
			return nil, errors.NewDimensionError("predict", cols, len(row), 1)
		}
		X.SetRow(i, row)
	}
	return X, nil
}

// writeError maps estimator errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var (
		dimErr        *errors.DimensionError
		valueErr      *errors.ValueError
		validationErr *errors.ValidationError
		notFitted     *errors.NotFittedError
	)
	switch {
	case errors.As(err, &dimErr), errors.As(err, &valueErr), errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &notFitted):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// serve runs the HTTP server until ctx is canceled.
func (a *app) serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	}
}
