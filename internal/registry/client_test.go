package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcane-labs/arcane-cli/internal/testutil"
)

const testRegistry = "http://registry.test"

func newMockedClient(t *testing.T) *Client {
	t.Helper()
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return NewClientWithHTTP(testutil.NewTestLogger(), testRegistry, httpClient)
}

func TestClientVersions(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, testRegistry+"/arcane-template-page-vue2",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
			"name": "arcane-template-page-vue2",
			"versions": map[string]interface{}{
				"1.0.0": map[string]interface{}{"version": "1.0.0"},
				"1.0.1": map[string]interface{}{"version": "1.0.1"},
			},
		}))

	versions, err := client.Versions(context.Background(), "arcane-template-page-vue2")
	require.NoError(t, err)
	sort.Strings(versions)
	assert.Equal(t, []string{"1.0.0", "1.0.1"}, versions)
}

func TestClientVersionsScopedName(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, `=~^http://registry\.test/@arcane(%2F|/)template-section\z`,
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]interface{}{
			"versions": map[string]interface{}{"0.2.0": map[string]interface{}{}},
		}))

	versions, err := client.Versions(context.Background(), "@arcane/template-section")
	require.NoError(t, err)
	assert.Equal(t, []string{"0.2.0"}, versions)
}

func TestClientVersionsNon200IsNoData(t *testing.T) {
	client := newMockedClient(t)

	httpmock.RegisterResponder(http.MethodGet, testRegistry+"/missing",
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":"Not found"}`))

	versions, err := client.Versions(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, versions)

	// The resolver turns "no data" into a registry error.
	_, err = NewResolver(testutil.NewTestLogger(), client).Latest(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRegistry)
}

func TestClientNetworkError(t *testing.T) {
	client := newMockedClient(t)

	// No responder registered: httpmock returns a transport error.
	_, err := client.Versions(context.Background(), "unreachable")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRegistry)
}

func TestClientTarballURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/arcane-template-page-vue2", r.URL.Path)
		assert.Equal(t, userAgent, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"versions": {
				"1.0.1": {"version": "1.0.1", "dist": {"tarball": "http://cdn.test/page-1.0.1.tgz"}},
				"1.0.2": {"version": "1.0.2", "dist": {}}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(testutil.NewTestLogger(), server.URL+"/")
	assert.Equal(t, server.URL, client.BaseURL())

	url, err := client.TarballURL(context.Background(), "arcane-template-page-vue2", "1.0.1")
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.test/page-1.0.1.tgz", url)

	_, err = client.TarballURL(context.Background(), "arcane-template-page-vue2", "1.0.2")
	assert.ErrorIs(t, err, ErrRegistry)

	_, err = client.TarballURL(context.Background(), "arcane-template-page-vue2", "9.9.9")
	assert.ErrorIs(t, err, ErrRegistry)
}
