// internal/model/models_test.go
package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custom_errors "github-trending/internal/errors"
)

func TestParseSince(t *testing.T) {
	tests := []struct {
		in      string
		want    Since
		wantErr bool
	}{
		{in: "daily", want: SinceDaily},
		{in: "Weekly", want: SinceWeekly},
		{in: " monthly ", want: SinceMonthly},
		{in: "yearly", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSince(tt.in)
			if tt.wantErr {
				var sinceErr *custom_errors.ErrInvalidSince
				require.ErrorAs(t, err, &sinceErr)
				assert.Equal(t, tt.in, sinceErr.Value)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSince_Days(t *testing.T) {
	assert.Equal(t, 1, SinceDaily.Days())
	assert.Equal(t, 7, SinceWeekly.Days())
	assert.Equal(t, 30, SinceMonthly.Days())
}

func TestTrendingRepo_Validate(t *testing.T) {
	valid := TrendingRepo{Name: "foo", URL: "https://x/foo", Stars: 10, Forks: 2}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(r *TrendingRepo)
		reason string
	}{
		{"empty url", func(r *TrendingRepo) { r.URL = " " }, "url is empty"},
		{"empty name", func(r *TrendingRepo) { r.Name = "" }, "name is empty"},
		{"negative stars", func(r *TrendingRepo) { r.Stars = -1 }, "stars is negative"},
		{"negative forks", func(r *TrendingRepo) { r.Forks = -3 }, "forks is negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			var recErr *custom_errors.ErrInvalidRecord
			require.ErrorAs(t, r.Validate(), &recErr)
			assert.Equal(t, tt.reason, recErr.Reason)
		})
	}
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Nil(t, StringPtr("   "))
	require.NotNil(t, StringPtr("Go"))
	assert.Equal(t, "Go", *StringPtr(" Go "))
}
