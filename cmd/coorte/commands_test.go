package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/coorte/internal/common"
	"github.com/Veraticus/coorte/internal/model"
	"github.com/Veraticus/coorte/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Submits(t *testing.T) {
	gw := setupCommandTest(t)

	out, err := execute(t, "", "new",
		"--name", "Carteira Ouro 2024", "--unimed", "001",
		"--benef", spreadsheet(t, "benef.csv"), "--ficha", spreadsheet(t, "ficha.xlsx"),
		"--ref-date", "2025-11-01", "--benef-id", "ID2")

	require.NoError(t, err)
	assert.Contains(t, out, "Projeto iniciado. Faça o upload.")
	assert.Contains(t, out, "Painel: /dashboard/p1")

	runs := gw.Requests("run")
	require.Len(t, runs, 1)
	assert.Equal(t, model.NewDate(2025, time.November, 1), runs[0].UltimaCompRef)
	assert.Equal(t, []string{"ID2", "CPF_U"}, runs[0].Mapping.Benef.Identifiers())

	history, err := execute(t, "", "projects", "history")
	require.NoError(t, err)
	assert.Contains(t, history, "p1")
	assert.Contains(t, history, "4/4")
}

func TestNew_DryRunThenAnalysisRun(t *testing.T) {
	gw := setupCommandTest(t)
	mappingPath := filepath.Join(t.TempDir(), "mapping.yaml")

	out, err := execute(t, "", "new",
		"--name", "Piloto",
		"--benef", spreadsheet(t, "benef.csv"), "--ficha", spreadsheet(t, "ficha.csv"),
		"--ref-date", "2024-06-30", "--benef-id", "ID2",
		"--save-mapping", mappingPath, "--dry-run")

	require.NoError(t, err)
	assert.Contains(t, out, "Cálculo simulado com sucesso!")
	assert.NotContains(t, out, "Painel:")
	assert.Len(t, gw.Requests("preview"), 1)
	assert.Empty(t, gw.Requests("run"))

	f, err := model.LoadMappingFile(mappingPath)
	require.NoError(t, err)
	assert.Equal(t, "p1", f.ProjectID)
	assert.Equal(t, "ID2", f.BenefID)

	out, err = execute(t, "", "analysis", "run", "--mapping", mappingPath)

	require.NoError(t, err)
	assert.Contains(t, out, "/dashboard/p1")
	runs := gw.Requests("run")
	require.Len(t, runs, 1)
	assert.Equal(t, []string{"ID2", "CPF_U"}, runs[0].Mapping.Benef.Identifiers())
	assert.Equal(t, model.NewDate(2024, time.June, 30), runs[0].UltimaCompRef)
}

func TestNew_UnknownJoinKey(t *testing.T) {
	gw := setupCommandTest(t)

	_, err := execute(t, "", "new",
		"--name", "Piloto",
		"--benef", spreadsheet(t, "benef.csv"), "--ficha", spreadsheet(t, "ficha.csv"),
		"--benef-id", "MATRICULA")

	require.ErrorIs(t, err, wizard.ErrUnknownJoinKey)
	assert.Equal(t, "O identificador escolhido não está entre os identificadores mapeados.", common.UserMessage(err))
	assert.Empty(t, gw.Requests("run"))
}

func TestNew_InvalidSpreadsheet(t *testing.T) {
	gw := setupCommandTest(t)

	_, err := execute(t, "", "new", "--name", "Piloto",
		"--benef", filepath.Join(t.TempDir(), "benef.pdf"), "--ficha", spreadsheet(t, "ficha.csv"))

	require.ErrorIs(t, err, model.ErrUnsupportedFormat)
	assert.Empty(t, gw.CreateProjectCalls)
}

func TestWizard_Plain(t *testing.T) {
	gw := setupCommandTest(t)
	input := "Carteira Ouro\n\n\n" +
		spreadsheet(t, "benef.csv") + "\n" + spreadsheet(t, "ficha.csv") + "\n" +
		"s\n" +
		"2025-11-01\n\n\n" +
		"c\n"

	out, err := execute(t, input, "wizard", "--plain", "--export-dir", t.TempDir())

	require.NoError(t, err)
	assert.Contains(t, out, "Análise enviada. Painel: /dashboard/p1")
	assert.Len(t, gw.Requests("run"), 1)
}

func TestProjectsView(t *testing.T) {
	gw := setupCommandTest(t)
	gw.ListProjectsFn = func(context.Context) ([]model.ProjectSummary, error) {
		return []model.ProjectSummary{{ID: "p1", Name: "Carteira Ouro", Unimed: "001"}}, nil
	}

	out, err := execute(t, "", "projects", "view")
	require.NoError(t, err)
	assert.Contains(t, out, "grid")

	_, err = execute(t, "", "projects", "view", "list")
	require.NoError(t, err)

	out, err = execute(t, "", "projects", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Unimed")
	assert.Contains(t, out, "Carteira Ouro")

	_, err = execute(t, "", "projects", "view", "table")
	require.Error(t, err)
	assert.Equal(t, "Visualização inválida, use grid ou list.", common.UserMessage(err))
}

func TestProjectsDelete(t *testing.T) {
	tests := []struct {
		name    string
		stdin   string
		args    []string
		deleted bool
	}{
		{name: "declined", stdin: "n\n", args: []string{"projects", "delete", "p1"}},
		{name: "no answer", stdin: "", args: []string{"projects", "delete", "p1"}},
		{name: "confirmed", stdin: "s\n", args: []string{"projects", "delete", "p1"}, deleted: true},
		{name: "yes flag", args: []string{"projects", "delete", "p1", "--yes"}, deleted: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := setupCommandTest(t)

			_, err := execute(t, tt.stdin, tt.args...)

			require.NoError(t, err)
			if tt.deleted {
				assert.Equal(t, []string{"p1"}, gw.DeleteProjectCalls)
			} else {
				assert.Empty(t, gw.DeleteProjectCalls)
			}
		})
	}
}

func TestResults(t *testing.T) {
	gw := setupCommandTest(t)
	gw.ResultsFn = func(_ context.Context, _, _ string, _ model.ResultsQuery) (*model.Results, error) {
		r := &model.Results{Status: "success"}
		r.Meta.RefDate = "2025-11-01"
		r.KPIs.Lives = 1200
		return r, nil
	}

	out, err := execute(t, "", "results", "p1", "--periodo", "ambos", "--grupo", "A", "--grupo", "B", "--janela", "12")

	require.NoError(t, err)
	assert.Contains(t, out, "2025-11-01")
	assert.Contains(t, out, "1200")
	require.Len(t, gw.ResultsCalls, 1)
	q := gw.ResultsCalls[0]
	assert.Equal(t, model.PeriodoAmbos, q.Periodo)
	assert.Equal(t, []string{"A", "B"}, q.Grupos)
	assert.Equal(t, 12, q.Janela)
	assert.Equal(t, 1, gw.FilterOptionsCalls)
	assert.Equal(t, 1, gw.GetProjectCalls)
}

func TestResults_Wait(t *testing.T) {
	tests := []struct {
		name       string
		processing int
		wantCalls  int
		wantReady  bool
	}{
		{name: "ready after polling", processing: 2, wantCalls: 3, wantReady: true},
		{name: "still processing after all attempts", processing: 10, wantCalls: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := setupCommandTest(t)
			gw.ResultsFn = func(_ context.Context, _, _ string, _ model.ResultsQuery) (*model.Results, error) {
				if len(gw.ResultsCalls) <= tt.processing {
					return &model.Results{Status: "processing"}, nil
				}
				r := &model.Results{Status: "success"}
				r.KPIs.Lives = 4321
				return r, nil
			}

			out, err := execute(t, "", "results", "p1", "--wait", "4", "--poll-interval", "1ms")

			require.NoError(t, err)
			assert.Len(t, gw.ResultsCalls, tt.wantCalls)
			if tt.wantReady {
				assert.Contains(t, out, "4321")
			} else {
				assert.Contains(t, out, "Resultados ainda em processamento.")
			}
		})
	}
}

func TestResults_InvalidPeriodo(t *testing.T) {
	gw := setupCommandTest(t)

	_, err := execute(t, "", "results", "p1", "--periodo", "sempre")

	require.Error(t, err)
	assert.Empty(t, gw.ResultsCalls)
}

func TestMappingSuggest(t *testing.T) {
	setupCommandTest(t)
	outPath := filepath.Join(t.TempDir(), "mapping.yaml")

	out, err := execute(t, "", "mapping", "suggest", "p1", "--out", outPath)

	require.NoError(t, err)
	assert.Contains(t, out, "DT_NASC")

	f, err := model.LoadMappingFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "p1", f.ProjectID)
	assert.Equal(t, "CPF_U", f.BenefID)
	assert.Equal(t, []string{"CPF_U", "ID2"}, f.Mapping.Benef.Identifiers())
	assert.Equal(t, "CUSTOS", f.Mapping.Ficha["custos"].Scalar)
}

func TestAnalysis_PreviewSearchAndDownload(t *testing.T) {
	gw := setupCommandTest(t)
	gw.PreviewAnalysisFn = func(_ context.Context, _, _ string, req model.AnalysisRequest) (*model.CalculationPreview, error) {
		return &model.CalculationPreview{ReferenceDate: req.UltimaCompRef, Rows: []model.Row{
			{"CPF_U": "12345", "tp": 3.0},
			{"CPF_U": "99999", "tp": 7.0},
		}}, nil
	}
	gw.DownloadPreviewFn = func(_ context.Context, _, _ string, _ model.AnalysisRequest, w io.Writer) (int64, error) {
		n, err := w.Write([]byte("xlsx"))
		return int64(n), err
	}
	mappingPath := filepath.Join(t.TempDir(), "mapping.yaml")
	f := model.MappingFile{
		ProjectID: "p9",
		Mapping: model.FinalMapping{
			Benef: model.Mapping{"identifier": model.Identifier("CPF_U")},
			Ficha: model.Mapping{"identifier": model.Identifier("CPF_U")},
		},
		BenefID: "CPF_U",
		FichaID: "CPF_U",
	}
	require.NoError(t, f.Save(mappingPath))

	_, err := execute(t, "", "analysis", "preview", "--mapping", mappingPath)
	require.ErrorIs(t, err, wizard.ErrConfigIncomplete)

	out, err := execute(t, "", "analysis", "preview", "--mapping", mappingPath, "--ref-date", "2024-06-30", "--search", "12345")
	require.NoError(t, err)
	assert.Contains(t, out, "12345")
	assert.NotContains(t, out, "99999")

	target := filepath.Join(t.TempDir(), "base.xlsx")
	out, err = execute(t, "", "analysis", "download", "p9", "--mapping", mappingPath, "--ref-date", "2024-06-30", "--out", target)
	require.NoError(t, err)
	assert.Contains(t, out, "Download concluído!")
	assert.FileExists(t, target)

	downloads := gw.Requests("download")
	require.Len(t, downloads, 1)
	assert.Equal(t, "2024-06-30", downloads[0].UltimaCompRef.String())
}

func TestUpload(t *testing.T) {
	gw := setupCommandTest(t)
	gw.UploadFn = func(context.Context, string, string, model.SourceFile, model.SourceFile) (*model.UploadSummary, error) {
		return &model.UploadSummary{RowsBenef: 1200, RowsFicha: 48000}, nil
	}

	out, err := execute(t, "", "upload", "p1", "--benef", spreadsheet(t, "benef.csv"), "--ficha", spreadsheet(t, "ficha.csv"))

	require.NoError(t, err)
	assert.Contains(t, out, "Planilhas carregadas: 1200 beneficiários, 48000 linhas de ficha.")
	require.Len(t, gw.UploadCalls, 1)
	assert.Equal(t, "p1", gw.UploadCalls[0].ProjectID)
	assert.Equal(t, model.DefaultRound, gw.UploadCalls[0].RoundID)
}
