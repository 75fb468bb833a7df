package response

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"bookcatalog/internal/apperr"
)

type Responder struct {
	DebugMode bool
}

// RespondError picks the status from the error kind. Caller mistakes are answered with their
// message, anything else goes through RespondAndLogError.
func (rr *Responder) RespondError(w http.ResponseWriter, ctx context.Context, err error) {
	var (
		invalidFilter *apperr.InvalidFilterError
		notFound      *apperr.NotFoundError
		badRequest    *apperr.BadRequestError
		invalidInput  validator.ValidationErrors
	)

	switch {
	case errors.As(err, &invalidFilter):
		rr.RespondClientError(w, ctx, http.StatusBadRequest, invalidFilter.Message)
	case errors.As(err, &notFound):
		rr.RespondClientError(w, ctx, http.StatusNotFound, notFound.Message)
	case errors.As(err, &badRequest):
		rr.RespondClientError(w, ctx, http.StatusBadRequest, badRequest.Message)
	case errors.As(err, &invalidInput):
		rr.RespondClientError(w, ctx, http.StatusBadRequest, describeValidation(invalidInput))
	default:
		rr.RespondAndLogError(w, ctx, err)
	}
}

// RespondClientError will respond with the given status and message and log with slog.LevelInfo level
func (rr *Responder) RespondClientError(w http.ResponseWriter, ctx context.Context, status int, message string) {
	log(ctx, slog.LevelInfo, message, slog.Int("status", status))
	rr.renderError(w, ctx, status, message)
}

// RespondAndLogError will respond with generic error code (500) and log with slog.LevelError level
func (rr *Responder) RespondAndLogError(w http.ResponseWriter, ctx context.Context, err error) {
	errId := uuid.NewString()
	log(ctx, slog.LevelError, err.Error(), slog.String("err_id", errId))
	rr.renderError(w, ctx, http.StatusInternalServerError, rr.hide(err.Error(), errId))
}

func (rr *Responder) SendJson(w http.ResponseWriter, ctx context.Context, data any) {
	rr.SendJsonStatus(w, ctx, http.StatusOK, data)
}

func (rr *Responder) SendJsonStatus(w http.ResponseWriter, ctx context.Context, status int, data any) {
	bs, err := json.Marshal(data)
	if err != nil {
		rr.RespondAndLogError(w, ctx, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func (rr *Responder) hide(message, errId string) string {
	if rr.DebugMode {
		return message
	}

	return "Unknown error occurred while processing your request. Error ID: " + errId
}

func (rr *Responder) renderError(w http.ResponseWriter, ctx context.Context, status int, message string) {
	data := map[string]any{}

	r, s := utf8.DecodeRuneInString(message)
	data["error"] = string(unicode.ToUpper(r)) + message[s:]

	bs, err := json.Marshal(data)
	if err == nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	} else {
		log(ctx, slog.LevelError, "cannot marshall error response body: "+err.Error())
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		bs = []byte("unknown error")
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.Copy(w, bytes.NewReader(bs))
}

func describeValidation(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "max":
			msgs = append(msgs, fe.Field()+" must be at most "+fe.Param()+" characters")
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}

	return strings.Join(msgs, "; ")
}

// Needed because it skips one more frame item than the slog.Log
func log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	l := slog.Default()

	if !l.Enabled(ctx, level) {
		return
	}

	var pc uintptr
	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])
	pc = pcs[0]

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	_ = l.Handler().Handle(ctx, r)
}
