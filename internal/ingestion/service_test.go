package ingestion

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"georegistry/internal/domain"
	"georegistry/internal/repository"
	"georegistry/internal/versioning"
)

func newTestService() (*Service, repository.RecordRepository, *versioning.Controller) {
	records := repository.NewMemoryRecordRepository()
	snapshots := versioning.NewSnapshots(repository.NewMemorySnapshotRepository())
	redirects := versioning.NewRedirectIndex(repository.NewMemoryRedirectRepository(), nil)
	diffs := versioning.NewDiffEngine(repository.NewMemoryDiffRepository(), redirects, slog.Default())
	controller := versioning.NewController(records, snapshots, diffs, slog.Default(),
		versioning.WithDiffingDisabled())
	return NewService(controller, records, slog.Default()), records, controller
}

func TestImportCreatesMunicipalities(t *testing.T) {
	service, records, _ := newTestService()

	csv := strings.Join([]string{
		"insee,name,siren,alias",
		"12345,Eu,123456789,",
		"54321,Orvanne,,Moret-sur-Loing;Ecuelles",
	}, "\n")

	summary, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader(csv),
	})
	require.NoError(t, err)
	require.Equal(t, 2, summary.TotalRows)
	require.Equal(t, 2, summary.Created)
	require.Zero(t, summary.InvalidRows)

	record, err := records.GetByField(context.Background(), domain.KindMunicipality, "insee", "54321")
	require.NoError(t, err)
	municipality := record.(*domain.Municipality)
	require.Equal(t, "Orvanne", municipality.Name)
	require.Equal(t, []string{"Moret-sur-Loing", "Ecuelles"}, municipality.Alias)
	require.EqualValues(t, 1, municipality.Version)
}

func TestImportUpdatesChangedRows(t *testing.T) {
	service, records, controller := newTestService()

	existing := domain.NewMunicipality("Eu", "12345", "")
	require.NoError(t, controller.Save(context.Background(), existing, nil))

	csv := "insee,name,siren,alias\n12345,Eu-les-Bains,123456789,\n"
	summary, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader(csv),
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Updated)
	require.Zero(t, summary.Created)

	record, err := records.GetByField(context.Background(), domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	municipality := record.(*domain.Municipality)
	require.Equal(t, "Eu-les-Bains", municipality.Name)
	require.Equal(t, "123456789", municipality.SIREN)
	require.EqualValues(t, 2, municipality.Version)
}

func TestImportLeavesIdenticalRowsUntouched(t *testing.T) {
	service, records, controller := newTestService()

	existing := domain.NewMunicipality("Eu", "12345", "123456789")
	require.NoError(t, controller.Save(context.Background(), existing, nil))

	csv := "insee,name,siren,alias\n12345,Eu,123456789,\n"
	summary, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader(csv),
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Unchanged)
	require.Zero(t, summary.Updated)

	record, err := records.GetByField(context.Background(), domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
	require.EqualValues(t, 1, record.RecordMeta().Version)
}

func TestImportCountsInvalidRows(t *testing.T) {
	service, _, _ := newTestService()

	csv := strings.Join([]string{
		"insee,name",
		",Nameless",
		"12345,",
		"54321,Orvanne",
	}, "\n")

	summary, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader(csv),
	})
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalRows)
	require.Equal(t, 2, summary.InvalidRows)
	require.Equal(t, 1, summary.Created)
}

func TestImportRequiresKnownColumns(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader("code,label\n12345,Eu\n"),
	})
	require.ErrorContains(t, err, "missing required column")
}

func TestImportRejectsUnsupportedFormat(t *testing.T) {
	service, _, _ := newTestService()

	_, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.txt",
		Data:     strings.NewReader("insee,name\n12345,Eu\n"),
	})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestImportStripsByteOrderMark(t *testing.T) {
	service, records, _ := newTestService()

	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("insee,name\n12345,Eu\n")...)
	summary, err := service.ImportMunicipalities(context.Background(), Request{
		FileName: "municipalities.csv",
		Data:     strings.NewReader(string(payload)),
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Created)

	_, err = records.GetByField(context.Background(), domain.KindMunicipality, "insee", "12345")
	require.NoError(t, err)
}
