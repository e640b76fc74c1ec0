package wizard

import (
	"errors"
	"fmt"

	"github.com/Veraticus/coorte/internal/gateway"
)

// Validation errors. None of them reach the backend.
var (
	ErrNameRequired       = errors.New("project name is required")
	ErrFilesRequired      = errors.New("both spreadsheets are required")
	ErrUploadRequired     = errors.New("spreadsheets must be uploaded before mapping")
	ErrIdentifierRequired = errors.New("each spreadsheet needs at least one identifier column")
	ErrConfigIncomplete   = errors.New("reference date and join keys are required")
	ErrUnknownJoinKey     = errors.New("join key is not an identifier candidate")
	ErrFirstStep          = errors.New("already on the first step")
	ErrNoProject          = errors.New("no project has been created")
	ErrBusy               = errors.New("another step transition is in progress")
)

var warnings = map[error]string{
	ErrNameRequired:       "Preencha o nome do projeto.",
	ErrFilesRequired:      "Selecione as duas planilhas.",
	ErrUploadRequired:     "Carregue as planilhas antes de avançar.",
	ErrIdentifierRequired: "Selecione pelo menos um Identificador para cada base.",
	ErrConfigIncomplete:   "Informe a data de referência e os identificadores.",
	ErrUnknownJoinKey:     "O identificador escolhido não está entre os identificadores mapeados.",
	ErrNoProject:          "ID do projeto perdido. Recomece.",
}

// warningFor returns the notification text of a validation error.
func warningFor(err error) string {
	for target, msg := range warnings {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

// failureMessage combines an action's failure text with the backend's explanation.
func failureMessage(action string, err error) string {
	var gwErr *gateway.Error
	if errors.As(err, &gwErr) {
		return fmt.Sprintf("%s %s", action, gwErr.UserMessage())
	}
	return action
}
