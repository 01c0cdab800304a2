package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPinningService_UploadJSON(t *testing.T) {
	var gotAuth string
	var gotUpload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/groups":
			assert.Equal(t, "Music", r.URL.Query().Get("name"))
			json.NewEncoder(w).Encode(map[string]any{
				"groups": []map[string]string{{"id": "grp-1", "name": "Music"}},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/pins/json":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotUpload))
			json.NewEncoder(w).Encode(map[string]string{"cid": "QmTest", "id": "file-1"})
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	service := NewPinningService(server.URL, "gateway.test", "test-jwt")
	pin, err := service.UploadJSON(context.Background(), "event-0.json", "Music",
		map[string]string{"name": "Test Event"}, map[string]string{"category": "Music"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-jwt", gotAuth)
	assert.Equal(t, "QmTest", pin.CID)
	assert.Equal(t, "grp-1", pin.GroupID)
	assert.Equal(t, "event-0.json", gotUpload["name"])
	assert.Equal(t, "grp-1", gotUpload["group_id"])
}

func TestPinningService_UploadJSON_CreatesMissingGroup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/groups":
			json.NewEncoder(w).Encode(map[string]any{"groups": []any{}})
		case r.Method == http.MethodPost && r.URL.Path == "/groups":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Sports", body["name"])
			json.NewEncoder(w).Encode(map[string]string{"id": "grp-new"})
		case r.Method == http.MethodPost && r.URL.Path == "/pins/json":
			json.NewEncoder(w).Encode(map[string]string{"cid": "QmTest", "id": "file-1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	service := NewPinningService(server.URL, "", "jwt")
	pin, err := service.UploadJSON(context.Background(), "event.json", "Sports", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "grp-new", pin.GroupID)
}

func TestPinningService_UploadJSON_SurvivesGroupFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/groups":
			w.WriteHeader(http.StatusInternalServerError)
		case r.Method == http.MethodPost && r.URL.Path == "/pins/json":
			json.NewEncoder(w).Encode(map[string]string{"cid": "QmTest", "id": "file-1"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	service := NewPinningService(server.URL, "", "jwt")
	pin, err := service.UploadJSON(context.Background(), "event.json", "Music", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "QmTest", pin.CID)
	assert.Empty(t, pin.GroupID)
}

func TestPinningService_UploadJSON_BadJWT(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	service := NewPinningService(server.URL, "", "bad-jwt")
	_, err := service.UploadJSON(context.Background(), "event.json", "", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication failed")
}

func TestPinningService_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pins", r.URL.Path)
		assert.Equal(t, "Music", r.URL.Query().Get("category"))
		json.NewEncoder(w).Encode(map[string]any{
			"pins": []map[string]any{
				{"cid": "QmA", "name": "event-0.json", "keyvalues": map[string]string{"category": "Music"}},
				{"cid": "QmB", "name": "event-1.json", "keyvalues": map[string]string{"category": "Music"}},
			},
		})
	}))
	defer server.Close()

	service := NewPinningService(server.URL, "", "jwt")
	pins, err := service.Search(context.Background(), "Music")
	require.NoError(t, err)
	require.Len(t, pins, 2)
	assert.Equal(t, "QmA", pins[0].CID)
	assert.Equal(t, "Music", pins[1].Keyvalues["category"])
}

func TestPinningService_GatewayURL(t *testing.T) {
	tests := []struct {
		name    string
		gateway string
		cid     string
		want    string
	}{
		{"empty cid falls back to placeholder", "gateway.test", "", "/placeholder-event.jpg"},
		{"bare host gets https scheme", "gateway.test", "QmTest", "https://gateway.test/ipfs/QmTest"},
		{"explicit scheme preserved", "http://localhost:8080", "QmTest", "http://localhost:8080/ipfs/QmTest"},
		{"trailing slash trimmed", "https://gateway.test/", "QmTest", "https://gateway.test/ipfs/QmTest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewPinningService("http://api.test", tt.gateway, "jwt")
			assert.Equal(t, tt.want, service.GatewayURL(tt.cid))
		})
	}
}
