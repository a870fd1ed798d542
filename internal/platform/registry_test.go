package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_publisher/internal/domain"
)

func catalog() []domain.PlatformDescriptor {
	return []domain.PlatformDescriptor{
		{ID: "writeas", Name: "Write.as", Active: true, Priority: 2, Format: domain.FormatMarkdown},
		{ID: "telegraph", Name: "Telegraph.ph", Active: true, Priority: 1, Format: domain.FormatNodes},
		{ID: "medium", Name: "Medium", Active: false, Priority: 3, Format: domain.FormatHTML, Aliases: []string{"medium-blog"}},
	}
}

func TestRegistry_ListActive(t *testing.T) {
	r := NewRegistry(catalog())

	active := r.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, "telegraph", active[0].ID)
	assert.Equal(t, "writeas", active[1].ID)
}

func TestRegistry_ListActive_Empty(t *testing.T) {
	r := NewRegistry(nil)
	assert.Empty(t, r.ListActive())
}

func TestRegistry_InputNotShared(t *testing.T) {
	in := catalog()
	r := NewRegistry(in)
	in[0].Active = false

	assert.Len(t, r.ListActive(), 2)
}

func TestRegistry_Canonicalize(t *testing.T) {
	r := NewRegistry(catalog())

	tests := []struct {
		raw  string
		want string
	}{
		{"writeas", "writeas"},
		{"WriteAs", "writeas"},
		{"write.as", "writeas"},
		{"Write.as", "writeas"},
		{"https://write.as/abc123", "writeas"},
		{"write-as", "writeas"},
		{"telegraph.ph", "telegraph"},
		{"telegra.ph", "telegraph"},
		{"https://www.Telegraph.ph/some-page-01-01", "telegraph"},
		{" telegraph ", "telegraph"},
		{"medium-blog", "medium"},
		{"medium.com", "medium"},
		{"unknown.io", "unknownio"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Canonicalize(tt.raw))
		})
	}
}

func TestRegistry_Canonicalize_AliasForUnknownPlatformIgnored(t *testing.T) {
	r := NewRegistry([]domain.PlatformDescriptor{{ID: "telegraph", Active: true}})

	// dev.to is a built-in alias but devto is not in this catalog.
	assert.Equal(t, "devto", r.Canonicalize("dev.to"))
	_, ok := r.Lookup("dev.to")
	assert.False(t, ok)
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(catalog())

	d, ok := r.Lookup("Telegra.ph")
	require.True(t, ok)
	assert.Equal(t, "Telegraph.ph", d.Name)
	assert.Equal(t, domain.FormatNodes, d.Format)
}
