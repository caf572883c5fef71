package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/and161185/trust-backend/internal/errs"
	"github.com/and161185/trust-backend/model"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (srv *Server) RootHandler(w http.ResponseWriter, r *http.Request) {
	srv.writeJSON(w, http.StatusOK, messageResponse{Message: "Hello World"})
}

func (srv *Server) CreateStatusCheckHandler(w http.ResponseWriter, r *http.Request) {
	input, err := decodeStatusCheckCreate(r)
	if err != nil {
		srv.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	check := model.NewStatusCheck(*input.ClientName)
	if err := srv.Storage.Insert(r.Context(), model.CollectionStatusChecks, check); err != nil {
		srv.storeFailure(w, "failed to insert status check", err)
		return
	}

	srv.writeJSON(w, http.StatusCreated, check)
}

func (srv *Server) ListStatusChecksHandler(w http.ResponseWriter, r *http.Request) {
	var checks []model.StatusCheck
	if err := srv.Storage.FindMany(r.Context(), model.CollectionStatusChecks, statusListLimit, &checks); err != nil {
		srv.storeFailure(w, "failed to list status checks", err)
		return
	}
	if checks == nil {
		checks = []model.StatusCheck{}
	}

	srv.writeJSON(w, http.StatusOK, checks)
}

func (srv *Server) TrustMetricsHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := srv.Trust.Get(r.Context())
	if err != nil {
		srv.storeFailure(w, "failed to get trust metrics", err)
		return
	}

	srv.writeJSON(w, http.StatusOK, doc)
}

func (srv *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
	if err := srv.Storage.Ping(r.Context()); err != nil {
		srv.storeFailure(w, "store ping failed", err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		srv.Config.Logger.Errorw("failed to write ping response", "error", err)
	}
}

// decodeStatusCheckCreate checks the body has the StatusCheckCreate shape.
func decodeStatusCheckCreate(r *http.Request) (model.StatusCheckCreate, error) {
	var input model.StatusCheckCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := typeErr.Field
			if field == "" {
				field = "body"
			}
			return input, fmt.Errorf("%w: %s has the wrong type", errs.ErrValidation, field)
		}
		return input, fmt.Errorf("%w: invalid JSON body", errs.ErrValidation)
	}
	if input.ClientName == nil {
		return input, fmt.Errorf("%w: client_name is required", errs.ErrValidation)
	}
	return input, nil
}

func (srv *Server) storeFailure(w http.ResponseWriter, msg string, err error) {
	srv.Config.Logger.Errorw(msg, "error", err)
	if errors.Is(err, errs.ErrStoreUnavailable) {
		srv.writeError(w, http.StatusInternalServerError, errs.ErrStoreUnavailable.Error())
		return
	}
	srv.writeError(w, http.StatusInternalServerError, "internal error")
}

func (srv *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		srv.Config.Logger.Errorw("failed to write response JSON", "error", err)
	}
}

func (srv *Server) writeError(w http.ResponseWriter, status int, detail string) {
	srv.writeJSON(w, status, errorResponse{Detail: detail})
}
