package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
)

func testConfig(baseURL string) config.TablesConfig {
	return config.TablesConfig{
		BaseURL:        baseURL,
		Token:          "tok",
		Timeout:        2 * time.Second,
		HarvestTableID: 1,
		StockTableID:   2,
		TripTableID:    3,
		Fields: config.FieldNames{
			HarvestLabel:   "Name",
			HarvestNominal: "Harvested Kg",
			StockLabel:     "Name",
			StockNominal:   "Stored Kg",
			TripHarvest:    "Harvest",
			TripStock:      "Stock",
			TripTruck:      "Truck",
			TripLoaded:     "Loaded Kg",
			TripStatus:     "Status",
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestGetOrigin_DecodesNamedColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/database/rows/table/1/7/", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("user_field_names"))
		assert.Equal(t, "Token tok", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "Name": "Lot 7", "Harvested Kg": "1000.50"})
	}))
	defer srv.Close()

	origin, err := NewClient(testConfig(srv.URL), nil).GetOrigin(context.Background(), models.OriginRef{Type: models.OriginHarvest, ID: 7})
	require.NoError(t, err)
	assert.Equal(t, "Lot 7", origin.Label)
	assert.True(t, decimal.RequireFromString("1000.5").Equal(origin.NominalKg))
}

func TestGetOrigin_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "ERROR_ROW_DOES_NOT_EXIST"})
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).GetOrigin(context.Background(), models.OriginRef{Type: models.OriginStock, ID: 5})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestGetAllocation_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).GetAllocation(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestGetAllocation_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(testConfig(url), nil).GetAllocation(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrStoreUnavailable)
}

func TestGetAllocation_BadRequestIsPlainError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "ERROR_REQUEST_BODY_VALIDATION"})
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).GetAllocation(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
	assert.NotErrorIs(t, err, models.ErrStoreUnavailable)
	assert.ErrorContains(t, err, "ERROR_REQUEST_BODY_VALIDATION")
}

func TestListApplicableAllocations_FollowsPagination(t *testing.T) {
	var srvURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/database/rows/table/3/", r.URL.Path)
		assert.Equal(t, "4", r.URL.Query().Get("filter__Stock__link_row_has"))

		switch r.URL.Query().Get("page") {
		case "1":
			next := srvURL + "/api/database/rows/table/3/?page=2"
			writeJSON(w, http.StatusOK, map[string]any{
				"count": 2,
				"next":  next,
				"results": []map[string]any{
					{"id": 1, "Stock": []map[string]any{{"id": 4, "value": "Silo 4"}}, "Loaded Kg": "20", "Status": map[string]any{"id": 1, "value": "applied"}},
				},
			})
		case "2":
			writeJSON(w, http.StatusOK, map[string]any{
				"count": 2,
				"next":  nil,
				"results": []map[string]any{
					{"id": 2, "Stock": []map[string]any{{"id": 4}}, "Harvest": []any{}, "Loaded Kg": nil, "Status": "kgsError"},
				},
			})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	defer srv.Close()
	srvURL = srv.URL

	trips, err := NewClient(testConfig(srv.URL), nil).ListApplicableAllocations(context.Background(), models.OriginRef{Type: models.OriginStock, ID: 4})
	require.NoError(t, err)
	require.Len(t, trips, 2)

	assert.Equal(t, []int{4}, trips[0].StockIDs)
	assert.Equal(t, models.StatusApplied, trips[0].Status)
	assert.True(t, trips[0].LoadedKg.Valid)
	assert.True(t, decimal.NewFromInt(20).Equal(trips[0].LoadedKg.Decimal))

	assert.Equal(t, models.StatusKgsError, trips[1].Status)
	assert.False(t, trips[1].LoadedKg.Valid)
	assert.Empty(t, trips[1].HarvestIDs)
}

func TestUpdateAllocation_SendsOnlyProvidedColumns(t *testing.T) {
	var (
		mu   sync.Mutex
		body map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/database/rows/table/3/9/", r.URL.Path)
		raw, _ := io.ReadAll(r.Body)
		mu.Lock()
		assert.NoError(t, json.Unmarshal(raw, &body))
		mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"id": 9, "Harvest": []map[string]any{{"id": 2}}, "Loaded Kg": "15", "Status": "applied"})
	}))
	defer srv.Close()

	fields := models.AllocationFields{HarvestIDs: []int{2, 3}, LoadedKg: decimal.NewNullDecimal(decimal.NewFromInt(15))}
	trip, err := NewClient(testConfig(srv.URL), nil).UpdateAllocation(context.Background(), 9, fields, models.StatusApplied)
	require.NoError(t, err)
	assert.Equal(t, 9, trip.ID)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []any{float64(2)}, body["Harvest"])
	assert.Equal(t, "15", body["Loaded Kg"])
	assert.Equal(t, "applied", body["Status"])
	_, hasStock := body["Stock"]
	assert.False(t, hasStock)
}

func TestCreateAllocation_OmitsStatusWhenIndeterminate(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		writeJSON(w, http.StatusOK, map[string]any{"id": 10, "Truck": []int{3}})
	}))
	defer srv.Close()

	trip, err := NewClient(testConfig(srv.URL), nil).CreateAllocation(context.Background(), models.AllocationFields{TruckIDs: []int{3}}, "")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, trip.TruckIDs)
	assert.Equal(t, models.AllocationStatus(""), trip.Status)
	_, hasStatus := body["Status"]
	assert.False(t, hasStatus, fmt.Sprint(body))
}

func TestListOrigins_SkipsBrokenRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 2,
			"results": []map[string]any{
				{"id": 1, "Stored Kg": 50},
				{"id": 2, "Stored Kg": "not a number"},
			},
		})
	}))
	defer srv.Close()

	origins, err := NewClient(testConfig(srv.URL), nil).ListOrigins(context.Background(), models.OriginStock)
	require.NoError(t, err)
	require.Len(t, origins, 1)
	assert.True(t, decimal.NewFromInt(50).Equal(origins[0].NominalKg))
}

func TestGetOrigin_MissingNominalColumnFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "Name": "Lot 7", "Harvest Kg": "1000"})
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).GetOrigin(context.Background(), models.OriginRef{Type: models.OriginHarvest, ID: 7})
	assert.ErrorContains(t, err, `harvest row 7 has no column "Harvested Kg"`)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestGetOrigin_EmptyNominalWarns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"id": 7, "Name": "Lot 7", "Harvested Kg": nil})
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	origin, err := NewClient(testConfig(srv.URL), zap.New(core)).GetOrigin(context.Background(), models.OriginRef{Type: models.OriginHarvest, ID: 7})
	require.NoError(t, err)
	assert.True(t, origin.NominalKg.IsZero())
	assert.Equal(t, 1, logs.FilterMessage("origin has no nominal kg, treating as zero").Len())
}

func TestListOrigins_SkipsRowsWithoutNominalColumn(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   2,
			"results": []map[string]any{{"id": 1, "Stored Kg": 50}, {"id": 2, "Kg": 50}},
		})
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	origins, err := NewClient(testConfig(srv.URL), zap.New(core)).ListOrigins(context.Background(), models.OriginStock)
	require.NoError(t, err)
	require.Len(t, origins, 1)
	assert.Equal(t, 1, origins[0].Ref.ID)
	assert.Equal(t, 1, logs.FilterMessage("skip undecodable origin row").Len())
}
