package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listing-portal/internal/models"
)

func newTestClient(ts *httptest.Server) *Client {
	return NewClient(ClientConfig{
		BaseURL: ts.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
	})
}

func TestListAllForwardsFilter(t *testing.T) {
	var gotQuery map[string][]string
	var gotAuth string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/records", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode([]models.CatalogRecord{
			{ID: 1, Title: "One"},
			{ID: 2, Title: "Two"},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts)

	cityID := uint(10)
	maxPrice := 300_000.0
	records, err := client.ListAll(Filter{
		CityID:   &cityID,
		MaxPrice: &maxPrice,
		Query:    "river view",
	})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	assert.Equal(t, []string{"10"}, gotQuery["city_id"])
	assert.Equal(t, []string{"300000"}, gotQuery["max_price"])
	assert.Equal(t, []string{"river view"}, gotQuery["q"])
	assert.NotContains(t, gotQuery, "category_id")
	assert.Equal(t, "Bearer test-key", gotAuth)
}

func TestListAllEmptyFilterSendsNoParams(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		json.NewEncoder(w).Encode([]models.CatalogRecord{})
	}))
	defer ts.Close()

	records, err := newTestClient(ts).ListAll(Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetByIDNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := newTestClient(ts).GetByID(999)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsTransport(err))
}

func TestTransportErrorOnUnreachableService(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused from here on

	_, err := newTestClient(ts).ListAll(Filter{})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.False(t, IsNotFound(err))
}

func TestTransportErrorOnTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer ts.Close()

	client := NewClient(ClientConfig{BaseURL: ts.URL, Timeout: 50 * time.Millisecond})
	_, err := client.ListAll(Filter{})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestRemoteErrorCarriesVerbatimMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{
			"message": "price must be positive",
		})
	}))
	defer ts.Close()

	_, err := newTestClient(ts).Create(RecordSpec{Title: "Bad listing"})
	require.Error(t, err)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusUnprocessableEntity, remote.StatusCode)
	assert.Equal(t, "price must be positive", remote.Message)
	assert.False(t, IsTransport(err))
}

func TestRemoteErrorNonJSONBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer ts.Close()

	_, err := newTestClient(ts).ListAll(Filter{})
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusBadGateway, remote.StatusCode)
	assert.Equal(t, "upstream exploded", remote.Message)
}

func TestCreateSendsSpecAndDecodesRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/records", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var spec RecordSpec
		require.NoError(t, json.NewDecoder(r.Body).Decode(&spec))
		assert.Equal(t, "New listing", spec.Title)
		assert.Equal(t, models.CatalogStatusDraft, spec.Status)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.CatalogRecord{ID: 42, Title: spec.Title, Status: spec.Status})
	}))
	defer ts.Close()

	record, err := newTestClient(ts).Create(RecordSpec{
		Title:  "New listing",
		Status: models.CatalogStatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), record.ID)
}

func TestUpdateOmitsUnsetFields(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/records/7", r.URL.Path)

		var raw map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Contains(t, raw, "price")
		assert.NotContains(t, raw, "title")
		assert.NotContains(t, raw, "status")

		json.NewEncoder(w).Encode(models.CatalogRecord{ID: 7})
	}))
	defer ts.Close()

	price := 199_000.0
	record, err := newTestClient(ts).Update(7, RecordPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(7), record.ID)
}

func TestDelete(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/records/7", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	require.NoError(t, newTestClient(ts).Delete(7))
}

func TestCountByAgent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/records/count", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("agent_id"))
		assert.Equal(t, "ACTIVE,DRAFT", r.URL.Query().Get("status"))
		json.NewEncoder(w).Encode(map[string]int{"count": 11})
	}))
	defer ts.Close()

	count, err := newTestClient(ts).CountByAgent(3, []models.CatalogStatus{
		models.CatalogStatusActive,
		models.CatalogStatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, count)
}
