package common

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHTTPStatusFromError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrValidation, http.StatusBadRequest},
		{ErrConflict, http.StatusConflict},
		{fmt.Errorf("failed to create user: %w", ErrConflict), http.StatusConflict},
		{&pgconn.PgError{Code: "23505"}, http.StatusConflict},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatusFromError(c.err); got != c.want {
			t.Errorf("HTTPStatusFromError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
