package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sfproperty/internal/store"
	"sfproperty/internal/types"
)

// run executes the CLI with a private store and a fake open data portal.
func run(t *testing.T, env map[string]string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("LOG_LEVEL", "disabled")
	for k, v := range env {
		t.Setenv(k, v)
	}
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// portal serves one parcel record when found is set and nothing otherwise.
func portal(t *testing.T, found bool) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if found && strings.Contains(r.URL.Path, "acdm-wktn") {
			_, _ = w.Write([]byte(`[{"blklot":"0563029","address":"2989 JACKSON ST","owner":"SMITH FAMILY TRUST","year_property_built":"1908"}]`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/resource"
}

func row(label, value string) string {
	return fmt.Sprintf("%-18s: %s", label, value)
}

func TestLookupJSON(t *testing.T) {
	out, err := run(t, map[string]string{
		"DATASF_BASE_URL": portal(t, true),
		"STORE_PATH":      filepath.Join(t.TempDir(), "saved.json"),
	}, "lookup", "--parcel", "0563/029", "--json")
	require.NoError(t, err)

	var p types.Profile
	require.NoError(t, json.Unmarshal([]byte(out), &p), out)
	assert.Equal(t, "SMITH FAMILY TRUST", p.Owner)
	assert.Equal(t, "0563/029", p.Parcel)
}

func TestLookupSaveThenListAndDelete(t *testing.T) {
	env := map[string]string{
		"DATASF_BASE_URL": portal(t, true),
		"STORE_PATH":      filepath.Join(t.TempDir(), "saved.json"),
	}
	out, err := run(t, env, "lookup", "2989", "Jackson", "St", "--save")
	require.NoError(t, err)
	assert.Contains(t, out, row("Owner", "SMITH FAMILY TRUST"))
	assert.Contains(t, out, "Saved as #1.")

	out, err = run(t, env, "saved", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#1 "), out)
	assert.Contains(t, out, "SMITH FAMILY TRUST")

	out, err = run(t, env, "saved", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted #1.")

	_, err = run(t, env, "saved", "delete", "1")
	assert.ErrorContains(t, err, "no saved property #1")

	out, err = run(t, env, "saved", "list", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestLookupNoData(t *testing.T) {
	out, err := run(t, map[string]string{"DATASF_BASE_URL": portal(t, false)}, "lookup", "1", "Nowhere", "St")
	require.NoError(t, err)
	assert.Contains(t, out, "No data available for this address or parcel/lot.")
}

func TestLookupNeedsInput(t *testing.T) {
	_, err := run(t, nil, "lookup")
	assert.Error(t, err)
}

func TestBadConfig(t *testing.T) {
	_, err := run(t, map[string]string{"STORE_DRIVER": "postgres"}, "saved", "list")
	assert.ErrorContains(t, err, "postgres")
}

func TestListingRejectsOtherSites(t *testing.T) {
	_, err := run(t, nil, "listing", "https://www.zillow.com/homedetails/1")
	assert.ErrorContains(t, err, "Craigslist")
}

func TestRenderProfileDiff(t *testing.T) {
	unit := "Unit 2"
	lat, lon := 37.79, -122.44
	p := &types.Profile{
		Address:        "2989 JACKSON ST",
		Owner:          "NEW OWNER LLC",
		YearBuilt:      "1908",
		RentControlled: "Yes (Verified by Rent Board)",
		UnitNumber:     &unit,
		Lat:            &lat,
		Lon:            &lon,
		EvictionCount:  1,
		EvictionHistory: []types.EvictionEntry{
			{FileDate: "2019-03-04", EvictionReason: []string{"Owner Move In"}},
		},
	}
	p.RentBoardVerified = true
	p.RentBoardUnitsCount = 2

	var buf bytes.Buffer
	renderProfile(&buf, p, map[string]any{"owner": "SMITH FAMILY TRUST", "year_built": "1908", "eviction_count": float64(0)})
	out := buf.String()

	assert.Contains(t, out, row("Owner", "NEW OWNER LLC")+" "+colorRed+"[SMITH FAMILY TRUST]"+colorReset)
	assert.Contains(t, out, row("Year Built", "1908")+"\n", "unchanged values carry no tag")
	assert.Contains(t, out, row("Evictions", "1")+" "+colorRed+"[0]"+colorReset)
	assert.Contains(t, out, "2019-03-04  Owner Move In")
	assert.Contains(t, out, "[2 on registry]")
	assert.Contains(t, out, row("Unit", "Unit 2"))
	assert.Contains(t, out, "37.790000, -122.440000")
}

func TestSavedLines(t *testing.T) {
	props := []types.SavedProperty{{
		ID:        7,
		SavedDate: time.Date(2026, 10, 19, 12, 0, 0, 0, time.Local),
		Data:      map[string]any{"address": "2989 JACKSON ST", "owner": strings.Repeat("X", 40)},
	}}
	lines := savedLines(props)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "#7    2989 JACKSON ST"))
	assert.Contains(t, lines[0], strings.Repeat("X", 29)+"…")
	assert.True(t, strings.HasSuffix(lines[0], "2026-10-19"))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("Y\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader("\n"), &out, "? "))
	assert.False(t, confirm(strings.NewReader(""), &out, "? "))
}

func TestDeleteSavedMissing(t *testing.T) {
	st, err := store.OpenFile(filepath.Join(t.TempDir(), "saved.json"))
	require.NoError(t, err)
	cmd := newSavedDeleteCmd(&app{})
	cmd.SetContext(context.Background())
	assert.ErrorContains(t, deleteSaved(cmd, st, 3), "#3")
}
