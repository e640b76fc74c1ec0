package wizard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/coorte/internal/gateway"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type notification struct {
	message string
	level   Level
}

type recordingNotifier struct {
	items []notification
	mu    sync.Mutex
}

func (r *recordingNotifier) Notify(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, notification{level: level, message: message})
}

func (r *recordingNotifier) last() notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return notification{}
	}
	return r.items[len(r.items)-1]
}

type memoryRecorder struct {
	entries map[string]model.HistoryEntry
	mu      sync.Mutex
}

func (m *memoryRecorder) RecordProject(_ context.Context, e model.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[string]model.HistoryEntry)
	}
	m.entries[e.ProjectID] = e
	return nil
}

var fixedNow = time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)

func sourceFile(t *testing.T, name string) model.SourceFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("CPF_U\n12345\n"), 0o600))
	f, err := model.OpenSourceFile(path)
	require.NoError(t, err)
	return f
}

func defaultSuggestions() *model.MappingSuggestions {
	return &model.MappingSuggestions{
		Beneficiarios: model.SourceSuggestions{
			Columns: []string{"CPF_U", "ID2", "DT_NASC"},
			Suggestions: model.ConceptSuggestions{
				"identifier": {"CPF_U", "ID2"},
				"nascimento": {"DT_NASC"},
			},
		},
		Ficha: model.SourceSuggestions{
			Columns: []string{"CPF_U", "CUSTOS"},
			Suggestions: model.ConceptSuggestions{
				"identifier": {"CPF_U"},
				"custos":     {"CUSTOS"},
			},
		},
	}
}

type fixture struct {
	gw       *gateway.MockGateway
	notifier *recordingNotifier
	recorder *memoryRecorder
	wiz      *Orchestrator
	paths    []string
	mu       sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:       gateway.NewMockGateway(),
		notifier: &recordingNotifier{},
		recorder: &memoryRecorder{},
	}
	f.gw.SuggestionsFn = func(context.Context, string, string) (*model.MappingSuggestions, error) {
		return defaultSuggestions(), nil
	}
	f.wiz = New(f.gw,
		WithNotifier(f.notifier),
		WithRecorder(f.recorder),
		WithClock(func() time.Time { return fixedNow }),
		WithNavigator(NavigatorFunc(func(path string) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.paths = append(f.paths, path)
		})),
	)
	return f
}

func (f *fixture) navigated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

// toStep drives a fresh fixture forward to the given step.
func (f *fixture) toStep(t *testing.T, step Step) {
	t.Helper()
	ctx := context.Background()
	f.wiz.SetName("Carteira Ouro 2024")
	f.wiz.SetUnimed("001")
	if step == StepBasicInfo {
		return
	}
	require.NoError(t, f.wiz.Next(ctx))
	if step == StepUpload {
		return
	}
	f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))
	f.wiz.SetFichaFile(sourceFile(t, "ficha.xlsx"))
	require.NoError(t, f.wiz.Upload(ctx))
	require.NoError(t, f.wiz.Next(ctx))
	if step == StepMapping {
		return
	}
	require.NoError(t, f.wiz.Next(ctx))
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	snap := f.wiz.Snapshot()

	assert.Equal(t, StepBasicInfo, snap.Step)
	assert.Empty(t, snap.ProjectID)
	assert.False(t, snap.Busy)
	assert.Equal(t, model.NewDate(2026, time.March, 14), snap.Config.UltimaCompRef)
	assert.Equal(t, model.DefaultRound, f.wiz.Round())
}

func TestCreateProject_NameRequired(t *testing.T) {
	for _, name := range []string{"", "   ", "\t\n"} {
		t.Run("name="+name, func(t *testing.T) {
			f := newFixture(t)
			f.wiz.SetName(name)

			err := f.wiz.Next(context.Background())
			assert.ErrorIs(t, err, ErrNameRequired)
			assert.Equal(t, StepBasicInfo, f.wiz.Step())
			assert.Empty(t, f.gw.CreateProjectCalls)
			assert.Equal(t, LevelWarning, f.notifier.last().level)
		})
	}
}

func TestCreateProject_TrimsInput(t *testing.T) {
	f := newFixture(t)
	f.wiz.SetName("  Carteira Ouro 2024 ")
	f.wiz.SetUnimed(" 001 ")

	require.NoError(t, f.wiz.CreateProject(context.Background()))
	require.Len(t, f.gw.CreateProjectCalls, 1)
	assert.Equal(t, model.NewProject{Name: "Carteira Ouro 2024", Unimed: "001"}, f.gw.CreateProjectCalls[0])
	assert.Equal(t, "p1", f.wiz.ProjectID())
	assert.Equal(t, StepUpload, f.wiz.Step())
}

func TestCreateProject_GatewayError(t *testing.T) {
	f := newFixture(t)
	f.gw.CreateProjectFn = func(context.Context, model.NewProject) (string, error) {
		return "", &gateway.Error{Op: "create project", Kind: gateway.KindServer, Status: 500}
	}
	f.wiz.SetName("Carteira")

	err := f.wiz.Next(context.Background())
	require.Error(t, err)
	kind, ok := gateway.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, gateway.KindServer, kind)

	snap := f.wiz.Snapshot()
	assert.Equal(t, StepBasicInfo, snap.Step)
	assert.Empty(t, snap.ProjectID)
	assert.False(t, snap.Busy)
	assert.Equal(t, notification{level: LevelWarning, message: "Erro ao criar projeto. Erro no motor de processamento."}, f.notifier.last())
	assert.Empty(t, f.recorder.entries)
}

func TestCreateProject_ReusesProjectAfterBack(t *testing.T) {
	f := newFixture(t)
	f.toStep(t, StepUpload)

	require.NoError(t, f.wiz.Back())
	assert.Equal(t, StepBasicInfo, f.wiz.Step())
	require.NoError(t, f.wiz.Next(context.Background()))

	assert.Equal(t, StepUpload, f.wiz.Step())
	assert.Len(t, f.gw.CreateProjectCalls, 1)
	assert.Equal(t, "p1", f.wiz.ProjectID())
}

func TestFetchSuggestions_Preconditions(t *testing.T) {
	t.Run("files required", func(t *testing.T) {
		f := newFixture(t)
		f.toStep(t, StepUpload)
		f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))

		assert.ErrorIs(t, f.wiz.Next(context.Background()), ErrFilesRequired)
		assert.Equal(t, StepUpload, f.wiz.Step())
		assert.Empty(t, f.gw.SuggestionsCalls)
	})

	t.Run("upload required", func(t *testing.T) {
		f := newFixture(t)
		f.toStep(t, StepUpload)
		f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))
		f.wiz.SetFichaFile(sourceFile(t, "ficha.csv"))

		assert.ErrorIs(t, f.wiz.Next(context.Background()), ErrUploadRequired)
		assert.Empty(t, f.gw.SuggestionsCalls)
	})

	t.Run("changed file invalidates upload", func(t *testing.T) {
		f := newFixture(t)
		f.toStep(t, StepUpload)
		f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))
		f.wiz.SetFichaFile(sourceFile(t, "ficha.csv"))
		require.NoError(t, f.wiz.Upload(context.Background()))
		assert.True(t, f.wiz.Snapshot().Uploaded)

		f.wiz.SetFichaFile(sourceFile(t, "outra_ficha.csv"))
		assert.False(t, f.wiz.Snapshot().Uploaded)
		assert.ErrorIs(t, f.wiz.Next(context.Background()), ErrUploadRequired)
	})
}

func TestFetchSuggestions_SeedsMapping(t *testing.T) {
	f := newFixture(t)
	f.gw.SuggestionsFn = func(context.Context, string, string) (*model.MappingSuggestions, error) {
		s := defaultSuggestions()
		s.Ficha.Suggestions["custos"] = model.Candidates{"CUSTOS", "VALOR"}
		return s, nil
	}
	f.toStep(t, StepMapping)

	snap := f.wiz.Snapshot()
	assert.Equal(t, StepMapping, snap.Step)
	assert.Equal(t, model.Identifier("CPF_U", "ID2"), snap.Mapping.Benef["identifier"])
	assert.Equal(t, model.Scalar("DT_NASC"), snap.Mapping.Benef["nascimento"])
	assert.Equal(t, model.Scalar("CUSTOS"), snap.Mapping.Ficha["custos"])
	assert.Equal(t, []string{"p1"}, f.gw.SuggestionsCalls)
	require.NotNil(t, snap.Suggestions)
}

func TestFetchSuggestions_GatewayError(t *testing.T) {
	f := newFixture(t)
	f.toStep(t, StepUpload)
	f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))
	f.wiz.SetFichaFile(sourceFile(t, "ficha.csv"))
	require.NoError(t, f.wiz.Upload(context.Background()))

	f.gw.SuggestionsFn = func(context.Context, string, string) (*model.MappingSuggestions, error) {
		return nil, &gateway.Error{Kind: gateway.KindNetwork, Err: errors.New("connection refused")}
	}

	require.Error(t, f.wiz.Next(context.Background()))
	snap := f.wiz.Snapshot()
	assert.Equal(t, StepUpload, snap.Step)
	assert.Nil(t, snap.Suggestions)
	assert.Empty(t, snap.Mapping.Benef)
	assert.False(t, snap.Busy)
	assert.Equal(t, LevelError, f.notifier.last().level)
}

func TestValidateMapping(t *testing.T) {
	tests := []struct {
		mutate    func(w *Orchestrator)
		wantErr   error
		name      string
		wantBenef string
		wantFicha string
		wantStep  Step
	}{
		{
			name:      "defaults join keys to first candidate",
			wantStep:  StepConfiguration,
			wantBenef: "CPF_U",
			wantFicha: "CPF_U",
		},
		{
			name: "keeps chosen join key",
			mutate: func(w *Orchestrator) {
				w.SetBenefID("ID2")
			},
			wantStep:  StepConfiguration,
			wantBenef: "ID2",
			wantFicha: "CPF_U",
		},
		{
			name: "empty benef identifier",
			mutate: func(w *Orchestrator) {
				w.SetMappingValue(model.CategoryBenef, "identifier", model.Identifier())
			},
			wantErr:  ErrIdentifierRequired,
			wantStep: StepMapping,
		},
		{
			name: "empty ficha identifier",
			mutate: func(w *Orchestrator) {
				w.SetMappingValue(model.CategoryFicha, "identifier", model.Identifier())
			},
			wantErr:  ErrIdentifierRequired,
			wantStep: StepMapping,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.toStep(t, StepMapping)
			if tt.mutate != nil {
				tt.mutate(f.wiz)
			}
			calls := f.gw.CallCount()

			err := f.wiz.Next(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, LevelWarning, f.notifier.last().level)
			} else {
				require.NoError(t, err)
			}

			snap := f.wiz.Snapshot()
			assert.Equal(t, tt.wantStep, snap.Step)
			assert.Equal(t, tt.wantBenef, snap.Config.BenefID)
			assert.Equal(t, tt.wantFicha, snap.Config.FichaID)
			assert.Equal(t, calls, f.gw.CallCount())
		})
	}
}

func TestSubmit_ReordersJoinKeys(t *testing.T) {
	f := newFixture(t)
	f.toStep(t, StepConfiguration)
	f.wiz.SetBenefID("ID2")
	f.wiz.SetReferenceDate(model.NewDate(2025, time.November, 1))

	require.NoError(t, f.wiz.Next(context.Background()))

	runs := f.gw.Requests("run")
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"ID2", "CPF_U"}, runs[0].Mapping.Benef.Identifiers())
	assert.Equal(t, []string{"CPF_U"}, runs[0].Mapping.Ficha.Identifiers())
	assert.Equal(t, model.NewDate(2025, time.November, 1), runs[0].UltimaCompRef)

	// the stored mapping keeps its original order
	assert.Equal(t, []string{"CPF_U", "ID2"}, f.wiz.Snapshot().Mapping.Benef.Identifiers())
	assert.Equal(t, []string{"/dashboard/p1"}, f.navigated())
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		mutate  func(w *Orchestrator)
		wantErr error
		name    string
	}{
		{
			name:    "missing benef id",
			mutate:  func(w *Orchestrator) { w.SetBenefID("") },
			wantErr: ErrConfigIncomplete,
		},
		{
			name:    "missing reference date",
			mutate:  func(w *Orchestrator) { w.SetReferenceDate(model.Date{}) },
			wantErr: ErrConfigIncomplete,
		},
		{
			name:    "unknown benef join key",
			mutate:  func(w *Orchestrator) { w.SetBenefID("MATRICULA") },
			wantErr: ErrUnknownJoinKey,
		},
		{
			name:    "unknown ficha join key",
			mutate:  func(w *Orchestrator) { w.SetFichaID("ID2") },
			wantErr: ErrUnknownJoinKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.toStep(t, StepConfiguration)
			tt.mutate(f.wiz)

			err := f.wiz.Submit(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.gw.Requests("run"))
			assert.Equal(t, StepConfiguration, f.wiz.Step())
			assert.Empty(t, f.navigated())
		})
	}
}

func TestSubmit_GatewayError(t *testing.T) {
	f := newFixture(t)
	f.toStep(t, StepConfiguration)
	f.gw.RunAnalysisFn = func(context.Context, string, string, model.AnalysisRequest) (*model.RunStatus, error) {
		return nil, &gateway.Error{Kind: gateway.KindValidation, Status: 400, Detail: "Coluna CUSTOS inválida"}
	}
	before := f.wiz.Snapshot()

	require.Error(t, f.wiz.Submit(context.Background()))

	after := f.wiz.Snapshot()
	assert.Equal(t, before, after)
	assert.Empty(t, f.navigated())
	assert.Equal(t, "Erro ao processar análise. Coluna CUSTOS inválida", f.notifier.last().message)
}

func TestBack(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.wiz.Back(), ErrFirstStep)

	f.toStep(t, StepConfiguration)
	for want := StepMapping; want >= StepBasicInfo; want-- {
		require.NoError(t, f.wiz.Back())
		assert.Equal(t, want, f.wiz.Step())
	}
	assert.ErrorIs(t, f.wiz.Back(), ErrFirstStep)
}

func TestTransition_WrongStep(t *testing.T) {
	f := newFixture(t)
	f.wiz.SetName("Carteira")

	assert.Error(t, f.wiz.Submit(context.Background()))
	assert.Error(t, f.wiz.ValidateMapping())
	assert.Equal(t, StepBasicInfo, f.wiz.Step())
}

func TestBusy_DuringTransition(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.gw.CreateProjectFn = func(context.Context, model.NewProject) (string, error) {
		close(started)
		<-release
		return "p1", nil
	}
	f.wiz.SetName("Carteira")

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.wiz.Next(context.Background())
	}()

	<-started
	assert.True(t, f.wiz.Busy())
	assert.ErrorIs(t, f.wiz.Next(context.Background()), ErrBusy)
	assert.ErrorIs(t, f.wiz.Back(), ErrBusy)

	close(release)
	require.NoError(t, <-errCh)
	assert.False(t, f.wiz.Busy())
	assert.Len(t, f.gw.CreateProjectCalls, 1)
}

func TestBusy_ClearedOnFailure(t *testing.T) {
	f := newFixture(t)
	started := make(chan struct{})
	release := make(chan struct{})
	f.gw.CreateProjectFn = func(context.Context, model.NewProject) (string, error) {
		close(started)
		<-release
		return "", &gateway.Error{Kind: gateway.KindNetwork}
	}
	f.wiz.SetName("Carteira")

	errCh := make(chan error, 1)
	go func() {
		errCh <- f.wiz.Next(context.Background())
	}()

	<-started
	assert.True(t, f.wiz.Busy())
	close(release)
	require.Error(t, <-errCh)
	assert.False(t, f.wiz.Busy())
}

func TestHistoryRecorded(t *testing.T) {
	f := newFixture(t)
	f.toStep(t, StepConfiguration)

	entry := f.recorder.entries["p1"]
	assert.Equal(t, "Carteira Ouro 2024", entry.Name)
	assert.Equal(t, "001", entry.Unimed)
	assert.Equal(t, int(StepConfiguration), entry.LastStep)
	assert.Equal(t, fixedNow, entry.CreatedAt)
	assert.Nil(t, entry.SubmittedAt)

	require.NoError(t, f.wiz.Submit(context.Background()))
	entry = f.recorder.entries["p1"]
	require.NotNil(t, entry.SubmittedAt)
	assert.Equal(t, fixedNow, *entry.SubmittedAt)
}

func TestEndToEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.gw.UploadFn = func(_ context.Context, _, _ string, _, _ model.SourceFile) (*model.UploadSummary, error) {
		return &model.UploadSummary{Status: "success", RowsBenef: 1200, RowsFicha: 48000}, nil
	}

	f.wiz.SetName("Carteira Ouro 2024")
	f.wiz.SetUnimed("001")
	require.NoError(t, f.wiz.Next(ctx))
	assert.Equal(t, "p1", f.wiz.ProjectID())

	f.wiz.SetBenefFile(sourceFile(t, "benef.csv"))
	f.wiz.SetFichaFile(sourceFile(t, "ficha.csv"))
	require.NoError(t, f.wiz.Upload(ctx))
	snap := f.wiz.Snapshot()
	require.NotNil(t, snap.Upload)
	assert.Equal(t, 1200, snap.Upload.RowsBenef)
	assert.Equal(t, 48000, snap.Upload.RowsFicha)
	assert.Equal(t, StepUpload, snap.Step)

	require.NoError(t, f.wiz.Next(ctx))
	assert.Equal(t, StepMapping, f.wiz.Step())

	require.NoError(t, f.wiz.Next(ctx))
	f.wiz.SetBenefID("CPF_U")
	f.wiz.SetFichaID("CPF_U")
	f.wiz.SetReferenceDate(model.NewDate(2025, time.November, 1))
	require.NoError(t, f.wiz.Next(ctx))

	assert.Equal(t, []string{"/dashboard/p1"}, f.navigated())
	runs := f.gw.Requests("run")
	require.Len(t, runs, 1)
	assert.Equal(t, "2025-11-01", runs[0].UltimaCompRef.String())
	assert.Equal(t, LevelSuccess, f.notifier.last().level)
}

func TestBuildRequest(t *testing.T) {
	mapping := model.FinalMapping{
		Benef: model.Mapping{"identifier": model.Identifier("CPF_U", "ID2")},
		Ficha: model.Mapping{"identifier": model.Identifier("CPF_U")},
	}
	ref := model.NewDate(2025, time.November, 1)

	tests := []struct {
		name    string
		wantErr error
		want    []string
		cfg     ConfigData
	}{
		{
			name: "reorders join key",
			cfg:  ConfigData{UltimaCompRef: ref, BenefID: "ID2", FichaID: "CPF_U"},
			want: []string{"ID2", "CPF_U"},
		},
		{
			name:    "missing date",
			cfg:     ConfigData{BenefID: "ID2", FichaID: "CPF_U"},
			wantErr: ErrConfigIncomplete,
		},
		{
			name:    "unknown benef key",
			cfg:     ConfigData{UltimaCompRef: ref, BenefID: "CPF", FichaID: "CPF_U"},
			wantErr: ErrUnknownJoinKey,
		},
		{
			name:    "unknown ficha key",
			cfg:     ConfigData{UltimaCompRef: ref, BenefID: "ID2", FichaID: "ID2"},
			wantErr: ErrUnknownJoinKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildRequest(mapping, tt.cfg)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Mapping.Benef.Identifiers())
			assert.Equal(t, ref, req.UltimaCompRef)
			assert.Equal(t, []string{"CPF_U", "ID2"}, mapping.Benef.Identifiers())
		})
	}
}
