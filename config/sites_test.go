package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSiteByID(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		expectedName string
		expectNil    bool
	}{
		{
			name:         "Amazon Egypt",
			id:           "amazon-eg",
			expectedName: "Amazon Egypt",
		},
		{
			name:         "Noon Egypt",
			id:           "noon-eg",
			expectedName: "Noon Egypt",
		},
		{
			name:         "Carrefour Egypt",
			id:           "carrefour-eg",
			expectedName: "Carrefour Egypt",
		},
		{
			name:      "Unknown site",
			id:        "ebay-eg",
			expectNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := GetSiteByID(tt.id)
			if tt.expectNil {
				assert.Nil(t, site)
			} else {
				require.NotNil(t, site)
				assert.Equal(t, tt.expectedName, site.Name)
				assert.NotEmpty(t, site.SearchURL)
				assert.NotEmpty(t, site.Selectors.Result)
			}
		})
	}
}

func TestGetSiteIDs(t *testing.T) {
	ids := GetSiteIDs()
	assert.ElementsMatch(t, []string{"amazon-eg", "noon-eg", "carrefour-eg"}, ids)
}

func TestSearchFor(t *testing.T) {
	tests := []struct {
		name     string
		siteID   string
		query    string
		expected string
	}{
		{
			name:     "Amazon with spaces",
			siteID:   "amazon-eg",
			query:    "iphone 13",
			expected: "https://www.amazon.eg/s?k=iphone+13&language=en",
		},
		{
			name:     "Noon simple query",
			siteID:   "noon-eg",
			query:    "ps5",
			expected: "https://www.noon.com/egypt-en/search?q=ps5",
		},
		{
			name:     "Carrefour with ampersand",
			siteID:   "carrefour-eg",
			query:    "black & decker",
			expected: "https://www.carrefouregypt.com/mafegy/en/search?q=black+%26+decker",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := GetSiteByID(tt.siteID)
			require.NotNil(t, site)
			assert.Equal(t, tt.expected, site.SearchFor(tt.query))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	site := GetSiteByID("amazon-eg")
	require.NotNil(t, site)

	assert.Equal(t, "https://www.amazon.eg/dp/B0X", site.AbsoluteURL("/dp/B0X"))
	assert.Equal(t, "https://other.example/dp/B0X", site.AbsoluteURL("https://other.example/dp/B0X"))
	assert.Equal(t, "", site.AbsoluteURL(""))
}

func TestNormalizeSite(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Simple name",
			input:    "Amazon",
			expected: "amazon",
		},
		{
			name:     "Name with spaces",
			input:    "Amazon Egypt",
			expected: "amazon-egypt",
		},
		{
			name:     "Already normalized",
			input:    "noon-eg",
			expected: "noon-eg",
		},
		{
			name:     "Multiple spaces",
			input:    "Carrefour  Egypt",
			expected: "carrefour-egypt",
		},
		{
			name:     "Apostrophe dropped",
			input:    "Toys'R'Us Egypt",
			expected: "toysrus-egypt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeSite(tt.input)
			assert.Equal(t, tt.expected, result,
				"NormalizeSite(%q) = %q, want %q", tt.input, result, tt.expected)
		})
	}
}
