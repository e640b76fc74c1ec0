package wizard

import (
	"fmt"

	"github.com/Veraticus/coorte/internal/model"
)

// Step is a wizard screen.
type Step int

const (
	StepBasicInfo Step = iota + 1
	StepUpload
	StepMapping
	StepConfiguration
)

// Steps lists the screens in order.
var Steps = []Step{StepBasicInfo, StepUpload, StepMapping, StepConfiguration}

func (s Step) String() string {
	switch s {
	case StepBasicInfo:
		return "Dados básicos"
	case StepUpload:
		return "Upload"
	case StepMapping:
		return "Mapeamento"
	case StepConfiguration:
		return "Configuração"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// BasicInfo is what the user types and selects on the first two screens.
type BasicInfo struct {
	Name        string
	Unimed      string
	Description string
	Benef       model.SourceFile
	Ficha       model.SourceFile
}

// ConfigData holds the reference date and the join key chosen for each spreadsheet.
type ConfigData struct {
	UltimaCompRef model.Date
	BenefID       string
	FichaID       string
}

// Snapshot is a consistent copy of the wizard state.
type Snapshot struct {
	Upload      *model.UploadSummary
	Suggestions *model.MappingSuggestions
	Preview     *model.CalculationPreview
	Mapping     model.FinalMapping
	Config      ConfigData
	Info        BasicInfo
	ProjectID   string
	Step        Step
	Busy        bool
	ActionBusy  bool
	Uploaded    bool
}

// DashboardPath is where a submitted project is shown.
func DashboardPath(projectID string) string {
	return "/dashboard/" + projectID
}
