package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
)

// Orchestrator owns the wizard state and performs every backend call the
// wizard needs. It is safe for concurrent use.
type Orchestrator struct {
	gw        gateway.Gateway
	notifier  Notifier
	navigator Navigator
	recorder  Recorder
	now       func() time.Time

	upload      *model.UploadSummary
	suggestions *model.MappingSuggestions
	preview     *model.CalculationPreview

	mapping model.FinalMapping
	config  ConfigData
	info    BasicInfo

	// Files the current upload summary belongs to.
	uploadedBenef model.SourceFile
	uploadedFicha model.SourceFile

	round     string
	projectID string
	createdAt time.Time

	mu      sync.Mutex
	step    Step
	actions int
	busy    bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNotifier sets where user notifications go.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) {
		o.notifier = n
	}
}

// WithNavigator sets what happens after a successful submission.
func WithNavigator(n Navigator) Option {
	return func(o *Orchestrator) {
		o.navigator = n
	}
}

// WithRecorder records created and submitted projects.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		o.recorder = r
	}
}

// WithRound sets the data round every call targets.
func WithRound(round string) Option {
	return func(o *Orchestrator) {
		o.round = round
	}
}

// WithClock replaces the clock used for the default reference date.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New creates an orchestrator on the first step.
func New(gw gateway.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gw:        gw,
		notifier:  nopNotifier{},
		navigator: nopNavigator{},
		round:     model.DefaultRound,
		now:       time.Now,
		step:      StepBasicInfo,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.config.UltimaCompRef = model.DateOf(o.now())
	return o
}

// Step returns the current step.
func (o *Orchestrator) Step() Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.step
}

// ProjectID returns the remote project id, empty before step 1 completes.
func (o *Orchestrator) ProjectID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.projectID
}

// Busy reports whether a step transition is waiting on the backend.
func (o *Orchestrator) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// ActionBusy reports whether an upload, simulation or export is in flight.
func (o *Orchestrator) ActionBusy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.actions > 0
}

// Round returns the data round the wizard targets.
func (o *Orchestrator) Round() string {
	return o.round
}

// Snapshot returns a copy of the whole state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		Step:        o.step,
		ProjectID:   o.projectID,
		Busy:        o.busy,
		ActionBusy:  o.actions > 0,
		Info:        o.info,
		Uploaded:    o.uploadedLocked(),
		Upload:      o.upload,
		Suggestions: o.suggestions,
		Mapping:     o.mapping.Clone(),
		Config:      o.config,
		Preview:     o.preview,
	}
}

// Next performs the forward transition of the current step. On the last step
// it submits the analysis.
func (o *Orchestrator) Next(ctx context.Context) error {
	switch o.Step() {
	case StepBasicInfo:
		return o.CreateProject(ctx)
	case StepUpload:
		return o.FetchSuggestions(ctx)
	case StepMapping:
		return o.ValidateMapping()
	default:
		return o.Submit(ctx)
	}
}

// Back returns to the previous step. It never calls the backend.
func (o *Orchestrator) Back() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return ErrBusy
	}
	if o.step <= StepBasicInfo {
		return ErrFirstStep
	}
	o.step--
	return nil
}

// CreateProject leaves step 1. The remote project is created only once per
// session; returning to step 1 and coming back reuses it.
func (o *Orchestrator) CreateProject(ctx context.Context) error {
	o.mu.Lock()
	if err := o.checkTransition(StepBasicInfo); err != nil {
		o.mu.Unlock()
		return err
	}
	name := strings.TrimSpace(o.info.Name)
	if name == "" {
		o.mu.Unlock()
		return o.warn(ErrNameRequired)
	}
	if o.projectID != "" {
		o.step = StepUpload
		o.mu.Unlock()
		return nil
	}
	req := model.NewProject{Name: name, Unimed: strings.TrimSpace(o.info.Unimed)}
	o.busy = true
	o.mu.Unlock()
	defer o.settle()

	id, err := o.gw.CreateProject(ctx, req)
	if err != nil {
		slog.Warn("Failed to create project", "name", req.Name, "error", err)
		o.notifier.Notify(LevelWarning, failureMessage("Erro ao criar projeto.", err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	o.mu.Lock()
	o.projectID = id
	o.createdAt = o.now()
	o.step = StepUpload
	o.mu.Unlock()

	slog.Info("Project created", "project_id", id, "name", req.Name)
	o.notifier.Notify(LevelSuccess, "Projeto iniciado. Faça o upload.")
	o.record(ctx, nil)
	return nil
}

// FetchSuggestions leaves step 2: it fetches column suggestions for the
// uploaded spreadsheets and seeds the editable mapping from them.
func (o *Orchestrator) FetchSuggestions(ctx context.Context) error {
	o.mu.Lock()
	if err := o.checkTransition(StepUpload); err != nil {
		o.mu.Unlock()
		return err
	}
	if err := o.uploadPreconditionsLocked(); err != nil {
		o.mu.Unlock()
		return o.warn(err)
	}
	if !o.uploadedLocked() {
		o.mu.Unlock()
		return o.warn(ErrUploadRequired)
	}
	projectID := o.projectID
	o.busy = true
	o.mu.Unlock()
	defer o.settle()

	s, err := o.gw.Suggestions(ctx, projectID, o.round)
	if err != nil {
		slog.Warn("Failed to fetch suggestions", "project_id", projectID, "error", err)
		o.notifier.Notify(LevelError, failureMessage("Erro ao buscar sugestões. Verifique se fez o upload.", err))
		return fmt.Errorf("failed to fetch suggestions: %w", err)
	}

	seeded := s.Seed()
	o.mu.Lock()
	o.suggestions = s
	o.mapping = seeded
	if !slices.Contains(seeded.Benef.Identifiers(), o.config.BenefID) {
		o.config.BenefID = ""
	}
	if !slices.Contains(seeded.Ficha.Identifiers(), o.config.FichaID) {
		o.config.FichaID = ""
	}
	o.step = StepMapping
	o.mu.Unlock()

	slog.Info("Mapping seeded",
		"project_id", projectID,
		"benef_concepts", len(seeded.Benef),
		"ficha_concepts", len(seeded.Ficha))
	o.notifier.Notify(LevelSuccess, "Mapeamento gerado.")
	o.record(ctx, nil)
	return nil
}

// ValidateMapping leaves step 3 once both spreadsheets have identifier
// columns, choosing the first candidate as join key where none is set.
func (o *Orchestrator) ValidateMapping() error {
	o.mu.Lock()
	if err := o.checkTransition(StepMapping); err != nil {
		o.mu.Unlock()
		return err
	}
	benefIDs := o.mapping.Benef.Identifiers()
	fichaIDs := o.mapping.Ficha.Identifiers()
	if len(benefIDs) == 0 || len(fichaIDs) == 0 {
		o.mu.Unlock()
		return o.warn(ErrIdentifierRequired)
	}
	if o.config.BenefID == "" {
		o.config.BenefID = benefIDs[0]
	}
	if o.config.FichaID == "" {
		o.config.FichaID = fichaIDs[0]
	}
	o.step = StepConfiguration
	o.mu.Unlock()

	o.record(context.Background(), nil)
	return nil
}

// Submit runs the analysis with the join-reordered mapping and navigates to
// the project dashboard.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if err := o.checkTransition(StepConfiguration); err != nil {
		o.mu.Unlock()
		return err
	}
	req, err := o.requestLocked()
	if err != nil {
		o.mu.Unlock()
		return o.warn(err)
	}
	projectID := o.projectID
	o.busy = true
	o.mu.Unlock()
	defer o.settle()

	status, err := o.gw.RunAnalysis(ctx, projectID, o.round, req)
	if err != nil {
		slog.Warn("Failed to run analysis", "project_id", projectID, "error", err)
		o.notifier.Notify(LevelError, failureMessage("Erro ao processar análise.", err))
		return fmt.Errorf("failed to run analysis: %w", err)
	}

	slog.Info("Analysis submitted",
		"project_id", projectID,
		"status", status.Status,
		"ultima_comp_ref", req.UltimaCompRef)
	o.notifier.Notify(LevelSuccess, "Processamento concluído!")

	submitted := o.now()
	o.record(ctx, &submitted)
	o.navigator.Navigate(DashboardPath(projectID))
	return nil
}

// SetName sets the project name.
func (o *Orchestrator) SetName(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.info.Name = name
}

// SetUnimed sets the cooperative code.
func (o *Orchestrator) SetUnimed(unimed string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.info.Unimed = unimed
}

// SetDescription sets the free-form project description.
func (o *Orchestrator) SetDescription(description string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.info.Description = description
}

// SetBenefFile selects the beneficiary spreadsheet.
func (o *Orchestrator) SetBenefFile(f model.SourceFile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.info.Benef = f
}

// SetFichaFile selects the claims spreadsheet.
func (o *Orchestrator) SetFichaFile(f model.SourceFile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.info.Ficha = f
}

// SetMappingValue changes the column(s) mapped to one concept.
func (o *Orchestrator) SetMappingValue(c model.Category, concept string, v model.MappingValue) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mapping.Benef == nil {
		o.mapping.Benef = model.Mapping{}
	}
	if o.mapping.Ficha == nil {
		o.mapping.Ficha = model.Mapping{}
	}
	o.mapping.Get(c).Set(concept, v)
}

// ApplyMapping overlays every concept of m onto the current mapping.
func (o *Orchestrator) ApplyMapping(m model.FinalMapping) {
	for _, c := range model.Categories {
		for concept, v := range m.Get(c) {
			o.SetMappingValue(c, concept, v)
		}
	}
}

// SetReferenceDate sets the last competence month considered by the analysis.
func (o *Orchestrator) SetReferenceDate(d model.Date) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.config.UltimaCompRef = d
}

// SetBenefID chooses the beneficiary join key.
func (o *Orchestrator) SetBenefID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.config.BenefID = id
}

// SetFichaID chooses the claims join key.
func (o *Orchestrator) SetFichaID(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.config.FichaID = id
}

// Request returns the payload a simulation or submission would send.
func (o *Orchestrator) Request() (model.AnalysisRequest, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.requestLocked()
}

// checkTransition must be called with o.mu held.
func (o *Orchestrator) checkTransition(from Step) error {
	if o.busy {
		return ErrBusy
	}
	if o.step != from {
		return fmt.Errorf("cannot leave %s from %s", from, o.step)
	}
	return nil
}

// uploadPreconditionsLocked must be called with o.mu held.
func (o *Orchestrator) uploadPreconditionsLocked() error {
	if o.projectID == "" {
		return ErrNoProject
	}
	if !o.info.Benef.IsSet() || !o.info.Ficha.IsSet() {
		return ErrFilesRequired
	}
	return nil
}

// uploadedLocked reports whether the stored upload matches the selected files.
func (o *Orchestrator) uploadedLocked() bool {
	return o.upload != nil &&
		o.info.Benef.IsSet() && o.info.Ficha.IsSet() &&
		o.uploadedBenef == o.info.Benef &&
		o.uploadedFicha == o.info.Ficha
}

// requestLocked validates the configuration and builds the join-reordered payload.
func (o *Orchestrator) requestLocked() (model.AnalysisRequest, error) {
	if o.projectID == "" {
		return model.AnalysisRequest{}, ErrNoProject
	}
	return BuildRequest(o.mapping, o.config)
}

// BuildRequest checks that cfg is complete and that its join keys are
// identifier candidates of mapping, and returns the payload with each join
// key moved to the front of its identifier list.
func BuildRequest(mapping model.FinalMapping, cfg ConfigData) (model.AnalysisRequest, error) {
	if cfg.BenefID == "" || cfg.FichaID == "" || cfg.UltimaCompRef.IsZero() {
		return model.AnalysisRequest{}, ErrConfigIncomplete
	}
	if !slices.Contains(mapping.Benef.Identifiers(), cfg.BenefID) {
		return model.AnalysisRequest{}, fmt.Errorf("%w: %s (beneficiários)", ErrUnknownJoinKey, cfg.BenefID)
	}
	if !slices.Contains(mapping.Ficha.Identifiers(), cfg.FichaID) {
		return model.AnalysisRequest{}, fmt.Errorf("%w: %s (ficha)", ErrUnknownJoinKey, cfg.FichaID)
	}
	return model.AnalysisRequest{
		UltimaCompRef: cfg.UltimaCompRef,
		Mapping:       mapping.WithJoinKeys(cfg.BenefID, cfg.FichaID),
	}, nil
}

func (o *Orchestrator) settle() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}

func (o *Orchestrator) warn(err error) error {
	o.notifier.Notify(LevelWarning, warningFor(err))
	return err
}

// record stores the project's progress. Failures only reach the log.
func (o *Orchestrator) record(ctx context.Context, submittedAt *time.Time) {
	if o.recorder == nil {
		return
	}
	o.mu.Lock()
	entry := model.HistoryEntry{
		ProjectID:   o.projectID,
		Name:        strings.TrimSpace(o.info.Name),
		Unimed:      strings.TrimSpace(o.info.Unimed),
		LastStep:    int(o.step),
		CreatedAt:   o.createdAt,
		SubmittedAt: submittedAt,
	}
	o.mu.Unlock()

	if entry.ProjectID == "" {
		return
	}
	if err := o.recorder.RecordProject(ctx, entry); err != nil {
		slog.Warn("Failed to record project history", "project_id", entry.ProjectID, "error", err)
	}
}
