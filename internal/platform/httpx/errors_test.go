package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorStatuses(t *testing.T) {
	domainConflict := errors.New("accounting: period already exists")
	classify := func(err error) error {
		if errors.Is(err, domainConflict) {
			return ErrConflict
		}
		return nil
	}
	cases := []struct {
		err    error
		status int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("open: %w", domainConflict), http.StatusConflict},
		{ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("database exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		RespondError(rr, tc.err, classify)
		require.Equal(t, tc.status, rr.Code, tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, errors.New("pq: relation does not exist"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Empty(t, body.Detail)
	require.Equal(t, "Internal Error", body.Title)
}

func TestRespondErrorFieldErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	RespondError(rr, fmt.Errorf("create: %w", FieldErrors{"maxAmount": "must be greater than or equal to minAmount"}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "must be greater than or equal to minAmount", body.Errors["maxAmount"])
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type input struct {
		Code  string `json:"code" validate:"required"`
		Level int    `json:"level" validate:"gte=1"`
	}
	err := ValidateStruct(input{})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "is required", fields["code"])
	require.Equal(t, "must be greater than or equal to 1", fields["level"])
	require.ErrorIs(t, err, ErrValidation)
}

func TestValidateStructHandlesDecimals(t *testing.T) {
	type payload struct {
		Amount decimal.Decimal  `json:"amount" validate:"gt=0"`
		Rate   *decimal.Decimal `json:"rate" validate:"required,gte=0"`
	}
	negative := decimal.NewFromInt(-1)
	err := ValidateStruct(payload{Amount: decimal.Zero, Rate: &negative})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "must be greater than 0", fe["amount"])
	require.Equal(t, "must be greater than or equal to 0", fe["rate"])

	err = ValidateStruct(payload{Amount: decimal.NewFromInt(5)})
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "is required", fe["rate"])

	ok := decimal.RequireFromString("0.5")
	require.NoError(t, ValidateStruct(payload{Amount: ok, Rate: &ok}))
}
