package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

func newComparisonValidator(valueInClosure int64, compareFn func(argValue, closedValue int64) bool) ParamValidator {
	return func(argValue int64) bool {
		return compareFn(argValue, valueInClosure)
	}
}

// gte returns a ParamValidator that checks if the argument is greater than or equal to the value captured in the closure.
func gte(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue >= closedValue
	})
}

// gt returns a ParamValidator that checks if the argument is greater than the value captured in the closure.
func gt(valToCompareAgainst int64) ParamValidator {
	return newComparisonValidator(valToCompareAgainst, func(argValue, closedValue int64) bool {
		return argValue > closedValue
	})
}

// QueryIntGte reads an optional integer parameter that must be >= min. Missing means def.
func QueryIntGte(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int, min int64) (int, bool) {
	return parseValidate(r, w, logger, key, def, gte(min))
}

// QueryIntGt reads an optional integer parameter that must be > min. Missing means def.
func QueryIntGt(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int, min int64) (int, bool) {
	return parseValidate(r, w, logger, key, def, gt(min))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, def int, pValidator ParamValidator) (int, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, true
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int(intValue), true
}

// QueryInt64 reads an optional integer parameter. A missing parameter yields nil.
func QueryInt64(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (*int64, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return nil, false
	}
	return &v, true
}

// QueryBool reads an optional boolean parameter. A missing parameter yields nil.
func QueryBool(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (*bool, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s flag: %s", key, value))
		return nil, false
	}
	return &v, true
}

// QueryDecimal reads an optional decimal parameter. A missing parameter yields nil.
func QueryDecimal(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string) (*decimal.Decimal, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil, true
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s amount: %s", key, value))
		return nil, false
	}
	return &v, true
}
