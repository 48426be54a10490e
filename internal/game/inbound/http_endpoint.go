package inbound

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shandysiswandi/goraid/internal/game/usecase"
	"github.com/shandysiswandi/goraid/internal/pkg/pkgerror"
)

const maxBodyBytes = 1 << 20

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) SubmitScore(ctx context.Context, r *http.Request) (any, error) {
	var req SubmitScoreRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if req.Score == nil {
		return nil, pkgerror.NewMissingField("score")
	}

	if err := h.uc.SubmitScore(ctx, usecase.SubmitScoreInput{
		UserID: req.UserID,
		Score:  *req.Score,
	}); err != nil {
		return nil, err
	}

	return MessageResponse{Message: usecase.MsgScoreSaved}, nil
}

func (h *HTTPEndpoint) TopScores(ctx context.Context, _ *http.Request) (any, error) {
	return h.uc.TopScores(ctx)
}

func (h *HTTPEndpoint) Bosses(ctx context.Context, _ *http.Request) (any, error) {
	return h.uc.Bosses(ctx)
}

func (h *HTTPEndpoint) Register(ctx context.Context, r *http.Request) (any, error) {
	var req RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	if err := h.uc.Register(ctx, usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
	}); err != nil {
		return nil, err
	}

	return MessageResponse{Message: usecase.MsgUserRegistered}, nil
}

func (h *HTTPEndpoint) Login(ctx context.Context, r *http.Request) (any, error) {
	var req LoginRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}

	result, err := h.uc.Login(ctx, usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return nil, err
	}

	return LoginResponse{User: result.User, Session: result.Session}, nil
}

func (h *HTTPEndpoint) Profile(ctx context.Context, r *http.Request) (any, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	return h.uc.Profile(ctx, token)
}

func (h *HTTPEndpoint) UpdateExperience(ctx context.Context, r *http.Request) (any, error) {
	token, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	// The token is verified before the body is judged, so a decoding
	// failure travels with the input instead of ending the request here.
	var req UpdateUserRequest
	bodyErr := decodeBody(r, &req)

	if err := h.uc.UpdateExperience(ctx, token, usecase.UpdateExperienceInput{
		Experience: req.Experience,
		BodyErr:    bodyErr,
	}); err != nil {
		return nil, err
	}

	return MessageResponse{Message: usecase.MsgUserUpdated}, nil
}

// bearerToken returns the second whitespace-separated part of the
// Authorization header. A present header without that part yields an empty
// token, which the backend rejects.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", pkgerror.NewUnauthorized(usecase.MsgMissingAuthToken)
	}

	parts := strings.Fields(header)
	if len(parts) < 2 {
		return "", nil
	}

	return parts[1], nil
}

func decodeBody(r *http.Request, out any) error {
	if r.Body == nil {
		return pkgerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		return pkgerror.NewInvalidFormat()
	}

	return nil
}
