package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind classifies a failed backend call.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindUnauthorized
	KindNotFound
	KindServer
	KindNetwork
	KindDecode
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is the only error type the HTTP client returns for failed calls.
type Error struct {
	Err       error
	Op        string
	Detail    string
	RequestID string
	Kind      ErrorKind
	Status    int
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s error", e.Op, e.Kind)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.Status)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the text to show the user for this failure.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindUnauthorized:
		return "Sessão expirada. Faça login novamente."
	case KindServer:
		return "Erro no motor de processamento."
	case KindNetwork:
		return "Não foi possível contactar o servidor de análise."
	case KindDecode:
		return "Resposta inesperada do servidor de análise."
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "Ocorreu um erro inesperado."
}

// KindOf returns the kind of a gateway error and whether err is one.
func KindOf(err error) (ErrorKind, bool) {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind, true
	}
	return 0, false
}

// kindForStatus maps an HTTP status to an error kind.
func kindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindUnauthorized
	case status == http.StatusNotFound:
		return KindNotFound
	case status >= 500:
		return KindServer
	default:
		return KindValidation
	}
}

// parseDetail extracts FastAPI's {"detail": ...} message from an error body.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return strings.TrimSpace(truncate(string(body), 200))
	}

	var s string
	if err := json.Unmarshal(payload.Detail, &s); err == nil {
		return s
	}

	// Request validation errors come back as a list of {loc, msg}.
	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(payload.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(payload.Detail)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
