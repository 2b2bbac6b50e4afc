package parking

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-registry/internal/logging"
	"parking-registry/internal/storage"
)

const testDataFile = "data/estacionamento.json"

// recordingStore wraps a FileStore and counts writes.
type recordingStore struct {
	*storage.FileStore
	saves int
}

func (s *recordingStore) Save(plates []string) error {
	s.saves++
	return s.FileStore.Save(plates)
}

type failingStore struct {
	loadErr error
	saveErr error
	plates  []string
}

func (s *failingStore) Load() ([]string, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.plates, nil
}

func (s *failingStore) Save(plates []string) error {
	return s.saveErr
}

func defaultTariff() Tariff {
	return NewTariff(decimal.RequireFromString("5.00"), decimal.RequireFromString("2.00"))
}

func newTestLedger(t *testing.T, initial string, opts ...LedgerOption) (*Ledger, *recordingStore, afero.Fs) {
	t.Helper()

	fs := afero.NewMemMapFs()
	fileStore := storage.NewFileStore(fs, testDataFile)
	require.NoError(t, fileStore.EnsureReady())
	if initial != "" {
		require.NoError(t, afero.WriteFile(fs, testDataFile, []byte(initial), 0o644))
	}

	store := &recordingStore{FileStore: fileStore}
	return NewLedger(store, defaultTariff(), opts...), store, fs
}

func readFile(t *testing.T, fs afero.Fs) string {
	t.Helper()
	data, err := afero.ReadFile(fs, testDataFile)
	require.NoError(t, err)
	return string(data)
}

func TestAddVehicleToEmptyLot(t *testing.T) {
	ledger, store, fs := newTestLedger(t, "")

	plate, err := ledger.AddVehicle(context.Background(), "ABC1D23")
	require.NoError(t, err)
	assert.Equal(t, Plate("ABC1D23"), plate)

	assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
	assert.Equal(t, 1, store.saves)
}

func TestAddVehicleNormalizesCase(t *testing.T) {
	ledger, _, fs := newTestLedger(t, "")

	plate, err := ledger.AddVehicle(context.Background(), "xyz9k88")
	require.NoError(t, err)
	assert.Equal(t, Plate("XYZ9K88"), plate)
	assert.Equal(t, `["XYZ9K88"]`, readFile(t, fs))
}

func TestAddVehicleDuplicateAnyCase(t *testing.T) {
	for _, variant := range []string{"ABC1D23", "abc1d23", "AbC1d23"} {
		t.Run(variant, func(t *testing.T) {
			ledger, store, fs := newTestLedger(t, `["ABC1D23"]`)

			_, err := ledger.AddVehicle(context.Background(), variant)
			assert.ErrorIs(t, err, ErrAlreadyParked)
			assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
			assert.Equal(t, 0, store.saves)
		})
	}
}

func TestAddVehicleInvalidPlate(t *testing.T) {
	ledger, store, fs := newTestLedger(t, "")

	_, err := ledger.AddVehicle(context.Background(), "AB1234C")
	assert.ErrorIs(t, err, ErrInvalidPlate)
	assert.Equal(t, "[]", readFile(t, fs))
	assert.Equal(t, 0, store.saves)
}

func TestAddVehicleKeepsInsertionOrder(t *testing.T) {
	ledger, _, _ := newTestLedger(t, "")
	ctx := context.Background()

	for _, p := range []string{"XYZ9K88", "ABC1D23", "QWE4R56"} {
		_, err := ledger.AddVehicle(ctx, p)
		require.NoError(t, err)
	}

	plates, err := ledger.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Plate{"XYZ9K88", "ABC1D23", "QWE4R56"}, plates)
}

func TestAddVehicleReloadsEveryCall(t *testing.T) {
	ledger, _, fs := newTestLedger(t, "")
	ctx := context.Background()

	_, err := ledger.AddVehicle(ctx, "ABC1D23")
	require.NoError(t, err)

	// Another writer replaces the file between calls.
	require.NoError(t, afero.WriteFile(fs, testDataFile, []byte(`["XYZ9K88"]`), 0o644))

	_, err = ledger.AddVehicle(ctx, "QWE4R56")
	require.NoError(t, err)
	assert.Equal(t, `["XYZ9K88","QWE4R56"]`, readFile(t, fs))
}

func TestRemoveVehicleComputesFee(t *testing.T) {
	ledger, store, fs := newTestLedger(t, `["ABC1D23"]`)

	receipt, err := ledger.RemoveVehicle(context.Background(), "ABC1D23", 3)
	require.NoError(t, err)

	assert.Equal(t, Plate("ABC1D23"), receipt.Plate)
	assert.Equal(t, 3, receipt.Hours)
	assert.Equal(t, "11.00", receipt.Fee.StringFixed(2))
	assert.Equal(t, "[]", readFile(t, fs))
	assert.Equal(t, 1, store.saves)
}

func TestRemoveVehicleCaseInsensitive(t *testing.T) {
	ledger, _, fs := newTestLedger(t, `["ABC1D23","XYZ9K88"]`)

	receipt, err := ledger.RemoveVehicle(context.Background(), "xyz9k88", 0)
	require.NoError(t, err)
	assert.Equal(t, Plate("XYZ9K88"), receipt.Plate)
	assert.Equal(t, "5.00", receipt.Fee.StringFixed(2))
	assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
}

func TestRemoveVehicleEmptyLot(t *testing.T) {
	ledger, store, fs := newTestLedger(t, "")

	_, err := ledger.RemoveVehicle(context.Background(), "ABC1D23", 1)
	assert.ErrorIs(t, err, ErrLotEmpty)
	assert.Equal(t, "[]", readFile(t, fs))
	assert.Equal(t, 0, store.saves)
}

func TestRemoveVehicleEmptyLotBeforeHoursCheck(t *testing.T) {
	ledger, _, _ := newTestLedger(t, "")

	_, err := ledger.RemoveVehicle(context.Background(), "ABC1D23", -5)
	assert.ErrorIs(t, err, ErrLotEmpty)
}

func TestRemoveVehicleNotFound(t *testing.T) {
	ledger, store, fs := newTestLedger(t, `["ABC1D23"]`)

	_, err := ledger.RemoveVehicle(context.Background(), "ZZZ9Z99", 2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
	assert.Equal(t, 0, store.saves)
}

func TestRemoveVehicleNotFoundBeforeHoursCheck(t *testing.T) {
	ledger, _, _ := newTestLedger(t, `["ABC1D23"]`)

	_, err := ledger.RemoveVehicle(context.Background(), "ZZZ9Z99", -1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveVehicleNegativeHours(t *testing.T) {
	ledger, store, fs := newTestLedger(t, `["ABC1D23"]`)

	_, err := ledger.RemoveVehicle(context.Background(), "ABC1D23", -1)
	assert.ErrorIs(t, err, ErrInvalidHours)
	assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
	assert.Equal(t, 0, store.saves)
}

func TestRemoveVehicleHandEditedLowercaseEntry(t *testing.T) {
	ledger, _, fs := newTestLedger(t, `["abc1d23"]`)

	receipt, err := ledger.RemoveVehicle(context.Background(), "ABC1D23", 1)
	require.NoError(t, err)
	assert.Equal(t, Plate("ABC1D23"), receipt.Plate)
	assert.Equal(t, "[]", readFile(t, fs))
}

func TestListVehiclesEmpty(t *testing.T) {
	ledger, store, _ := newTestLedger(t, "")

	plates, err := ledger.ListVehicles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plates)
	assert.Equal(t, 0, store.saves)
}

func TestListVehiclesDoesNotWrite(t *testing.T) {
	ledger, store, fs := newTestLedger(t, `["ABC1D23","XYZ9K88"]`)

	plates, err := ledger.ListVehicles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Plate{"ABC1D23", "XYZ9K88"}, plates)
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, `["ABC1D23","XYZ9K88"]`, readFile(t, fs))
}

func TestCorruptDataIsEmptyByDefault(t *testing.T) {
	var logs bytes.Buffer
	ledger, _, fs := newTestLedger(t, `["ABC1D23"`, WithLogger(logging.New(&logs)))
	ctx := context.Background()

	plates, err := ledger.ListVehicles(ctx)
	require.NoError(t, err)
	assert.Empty(t, plates)
	assert.Contains(t, logs.String(), "registry data is corrupt")

	_, err = ledger.AddVehicle(ctx, "ABC1D23")
	require.NoError(t, err)
	assert.Equal(t, `["ABC1D23"]`, readFile(t, fs))
}

func TestCorruptDataStrictMode(t *testing.T) {
	ledger, store, fs := newTestLedger(t, `not json`, WithStrictStorage(true))
	ctx := context.Background()

	_, err := ledger.ListVehicles(ctx)
	assert.ErrorIs(t, err, storage.ErrCorruptData)

	_, err = ledger.AddVehicle(ctx, "ABC1D23")
	assert.ErrorIs(t, err, storage.ErrCorruptData)
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, "not json", readFile(t, fs))
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk on fire")
	ctx := context.Background()

	ledger := NewLedger(&failingStore{loadErr: boom}, defaultTariff())
	_, err := ledger.ListVehicles(ctx)
	assert.ErrorIs(t, err, boom)

	ledger = NewLedger(&failingStore{saveErr: boom}, defaultTariff())
	_, err = ledger.AddVehicle(ctx, "ABC1D23")
	assert.ErrorIs(t, err, boom)

	ledger = NewLedger(&failingStore{saveErr: boom, plates: []string{"ABC1D23"}}, defaultTariff())
	_, err = ledger.RemoveVehicle(ctx, "ABC1D23", 1)
	assert.ErrorIs(t, err, boom)
}

func TestLedgerLogsOperations(t *testing.T) {
	var logs bytes.Buffer
	ledger, _, _ := newTestLedger(t, "", WithLogger(logging.New(&logs)))
	ctx := context.Background()

	_, err := ledger.AddVehicle(ctx, "ABC1D23")
	require.NoError(t, err)
	_, err = ledger.RemoveVehicle(ctx, "ABC1D23", 2)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, `"message":"vehicle parked"`)
	assert.Contains(t, out, `"message":"vehicle removed"`)
	assert.Contains(t, out, `"fee":"9.00"`)
}
