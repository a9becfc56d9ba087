package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/conference-central/internal/service"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{service.ErrUnauthenticated, http.StatusUnauthorized},
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrAuthorization, http.StatusForbidden},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInvalidFilter, http.StatusBadRequest},
		{service.ErrMultipleInequalityFields, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", service.ErrConflict), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusOf(tt.err), tt.err.Error())
	}
}
