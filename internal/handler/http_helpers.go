package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"docsign-service/internal/domain"
	apperrors "docsign-service/pkg/errors"
)

type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// maxBodyBytes caps request bodies. Generation content can carry inline images.
const maxBodyBytes = 10 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// GetTokenFromContext extracts the authentication token from request context
func GetTokenFromContext(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(tokenContextKey).(string)
	return token, ok
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}
	if err := validate.Struct(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", describeValidation(err))
	}
	return nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

// responder writes service errors. Details of 5xx errors are only exposed
// outside production.
type responder struct {
	logger     domain.Logger
	production bool
}

func (rp responder) writeServiceError(w http.ResponseWriter, msg string, err error) {
	status := apperrors.GetStatusCode(err)

	var appErr *apperrors.AppError
	if status < http.StatusInternalServerError {
		rp.logger.Warn(msg, "error", err, "status", status)
		resp := errorResponse{Error: err.Error()}
		if errors.As(err, &appErr) {
			resp = errorResponse{Error: appErr.Message, Details: appErr.Details}
		}
		writeJSON(w, status, resp)
		return
	}

	rp.logger.Error(msg, err, "status", status)
	resp := errorResponse{Error: publicServerMessage(err, status)}
	if !rp.production {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// publicServerMessage names provider contract violations and keeps every
// other server-side failure generic.
func publicServerMessage(err error, status int) string {
	for _, named := range []error{domain.ErrNoUploadTarget, domain.ErrFieldCreationFailed} {
		if errors.Is(err, named) {
			return named.Error()
		}
	}
	if status == http.StatusServiceUnavailable {
		return "Upstream service unavailable"
	}
	return "Internal server error"
}
