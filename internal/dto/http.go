package dto

import (
	"errors"
	"net/http"

	goValidator "github.com/go-playground/validator/v10"
)

type BaseResponse struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one failed validation rule of a request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

func NewBaseResponse(code int, message string, data any) *BaseResponse {
	return &BaseResponse{Code: code, Message: message, Data: data}
}

func NewBadRequestResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusBadRequest, message, nil)
}

// NewValidationErrorResponse is a 400 that lists per-field failures when
// err carries validator errors.
func NewValidationErrorResponse(err error) *BaseResponse {
	resp := NewBadRequestResponse("invalid request")
	var fieldErrs goValidator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		resp.Message = err.Error()
		return resp
	}
	for _, fe := range fieldErrs {
		resp.Errors = append(resp.Errors, FieldError{Field: fe.Field(), Rule: fe.Tag(), Param: fe.Param()})
	}
	return resp
}

func NewInternalErrorResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusInternalServerError, message, nil)
}

func NewSuccessResponse(message string, data any) *BaseResponse {
	return NewBaseResponse(http.StatusOK, message, data)
}

func NewAcceptedResponse(message string) *BaseResponse {
	return NewBaseResponse(http.StatusAccepted, message, nil)
}
