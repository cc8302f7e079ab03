package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Action names a client call; conflicts are reported per action.
type Action string

const (
	ActionLogin             Action = "auth.login"
	ActionMe                Action = "auth.me"
	ActionListPeriods       Action = "periods.list"
	ActionCurrentPeriod     Action = "periods.current"
	ActionOpenPeriod        Action = "periods.open"
	ActionClosePeriod       Action = "periods.close"
	ActionLockPeriod        Action = "periods.lock"
	ActionListJournals      Action = "journal.list"
	ActionGetJournal        Action = "journal.get"
	ActionCreateJournal     Action = "journal.create"
	ActionUpdateJournal     Action = "journal.update"
	ActionPostJournal       Action = "journal.post"
	ActionVoidJournal       Action = "journal.void"
	ActionLedger            Action = "ledger.query"
	ActionLedgerExport      Action = "ledger.export"
	ActionTrialBalance      Action = "ledger.trial_balance"
	ActionListAccounts      Action = "chart.list"
	ActionCreateAccount     Action = "chart.create"
	ActionUpdateAccount     Action = "chart.update"
	ActionListCostCenters   Action = "cost_centers.list"
	ActionSyncCostCenters   Action = "cost_centers.sync"
	ActionListLoanProducts  Action = "loan_products.list"
	ActionGetLoanProduct    Action = "loan_products.get"
	ActionCreateLoanProduct Action = "loan_products.create"
	ActionUpdateLoanProduct Action = "loan_products.update"
	ActionResourceList      Action = "resource.list"
	ActionResourceGet       Action = "resource.get"
	ActionResourceCreate    Action = "resource.create"
	ActionResourceUpdate    Action = "resource.update"
)

const (
	genericMessage  = "unexpected error, please try again"
	networkMessage  = "could not reach the server, please try again"
	conflictDefault = "the record was changed by another request"
)

// ConflictMessages are shown instead of the server text when a call returns 409.
var ConflictMessages = map[Action]string{
	ActionOpenPeriod:        "a period for that month already exists or another period is open",
	ActionClosePeriod:       "the period is not open or still has pending entries",
	ActionLockPeriod:        "only closed periods can be locked",
	ActionCreateJournal:     "this entry was already submitted",
	ActionUpdateJournal:     "only draft entries can be edited",
	ActionPostJournal:       "the entry was already posted or its period is not open",
	ActionVoidJournal:       "only posted entries can be voided",
	ActionCreateAccount:     "an account with that code already exists",
	ActionUpdateAccount:     "an account with that code already exists",
	ActionSyncCostCenters:   "a cost center sync is already running",
	ActionCreateLoanProduct: "a loan product with that code already exists",
	ActionUpdateLoanProduct: "a loan product with that code already exists",
	ActionResourceCreate:    "the record already exists",
	ActionResourceUpdate:    "the record already exists",
}

// APIError is the single failure type returned by Client calls.
type APIError struct {
	Status  int
	Message string
	Action  Action
	Fields  map[string]string
	cause   error
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return string(e.Action) + ": " + e.Message
	}
	return string(e.Action) + ": " + e.Message + " (" + http.StatusText(e.Status) + ")"
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// IsConflict reports whether err is a 409 from the API.
func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	return hasStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

type errorBody struct {
	Message string            `json:"message"`
	Detail  string            `json:"detail"`
	Title   string            `json:"title"`
	Errors  map[string]string `json:"errors"`
}

func newAPIError(action Action, status int, statusLine string, body []byte) *APIError {
	var parsed errorBody
	_ = json.Unmarshal(body, &parsed)
	apiErr := &APIError{Status: status, Action: action, Fields: parsed.Errors}
	if status == http.StatusConflict {
		apiErr.Message = conflictMessage(action)
		return apiErr
	}
	apiErr.Message = firstNonEmpty(parsed.Message, parsed.Detail, statusText(status, statusLine), genericMessage)
	return apiErr
}

func conflictMessage(action Action) string {
	if msg, ok := ConflictMessages[action]; ok {
		return msg
	}
	return conflictDefault
}

// statusText strips the numeric code from an http.Response.Status line.
func statusText(status int, line string) string {
	line = strings.TrimSpace(line)
	if code, rest, ok := strings.Cut(line, " "); ok && code != "" {
		line = strings.TrimSpace(rest)
	} else if line != "" && strings.Trim(line, "0123456789") == "" {
		line = ""
	}
	if line == "" {
		return http.StatusText(status)
	}
	return line
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
