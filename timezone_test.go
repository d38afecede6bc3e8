package campfire

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupZone(t *testing.T) {
	t.Run("rails display names map through the alias table", func(t *testing.T) {
		loc, err := lookupZone("Central Time (US & Canada)")
		require.NoError(t, err)
		assert.Equal(t, "America/Chicago", loc.String())
	})

	t.Run("iana names pass through verbatim", func(t *testing.T) {
		loc, err := lookupZone("Europe/Berlin")
		require.NoError(t, err)
		assert.Equal(t, "Europe/Berlin", loc.String())
	})

	t.Run("near misses recover via underscores", func(t *testing.T) {
		loc, err := lookupZone("America/New York")
		require.NoError(t, err)
		assert.Equal(t, "America/New_York", loc.String())
	})

	t.Run("garbage fails", func(t *testing.T) {
		_, err := lookupZone("Atlantis Standard Time")
		assert.Error(t, err)
	})
}

const settingsHTML = `<html><body>
<form action="/account/settings">
<select id="account_time_zone_name" name="account[time_zone_name]">
<option value="Eastern Time (US &amp; Canada)">Eastern Time (US &amp; Canada)</option>
<option value="Central Time (US &amp; Canada)" selected="selected">Central Time (US &amp; Canada)</option>
</select>
</form>
</body></html>`

func TestResolveTimezone(t *testing.T) {
	ctx := context.Background()

	t.Run("reads the selected option from the settings page", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/account/settings", r.URL.Path)
			w.Write([]byte(settingsHTML))
		}))
		defer srv.Close()

		loc := ResolveTimezone(ctx, newTestClient(srv.URL), testLogger())
		assert.Equal(t, "America/Chicago", loc.String())
	})

	t.Run("falls back to UTC when the page has no selection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`<html><body><p>nothing here</p></body></html>`))
		}))
		defer srv.Close()

		assert.Equal(t, "UTC", ResolveTimezone(ctx, newTestClient(srv.URL), testLogger()).String())
	})

	t.Run("falls back to UTC when the fetch fails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		assert.Equal(t, "UTC", ResolveTimezone(ctx, newTestClient(srv.URL), testLogger()).String())
	})
}
