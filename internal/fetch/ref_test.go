package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefHelpers(t *testing.T) {
	tests := []struct {
		ref      string
		sibling  string
		stripped string
		base     string
		zip      bool
	}{
		{
			ref:      "http://example.com/data/roads",
			sibling:  "http://example.com/data/roads.dbf",
			stripped: "http://example.com/data/roads",
			base:     "roads",
		},
		{
			ref:      "https://example.com/data/roads.SHP?token=abc",
			sibling:  "https://example.com/data/roads.SHP.dbf?token=abc",
			stripped: "https://example.com/data/roads?token=abc",
			base:     "roads.SHP",
		},
		{
			ref:      "https://example.com/bundle.ZIP?v=2#top",
			sibling:  "https://example.com/bundle.ZIP.dbf?v=2#top",
			stripped: "https://example.com/bundle.ZIP?v=2#top",
			base:     "bundle.ZIP",
			zip:      true,
		},
		{
			ref:      "/srv/gis/parcels.shp",
			sibling:  "/srv/gis/parcels.shp.dbf",
			stripped: "/srv/gis/parcels",
			base:     "parcels.shp",
		},
		{
			ref:      "/srv/gis/what?.zip",
			sibling:  "/srv/gis/what?.zip.dbf",
			stripped: "/srv/gis/what?.zip",
			base:     "what?.zip",
			zip:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.sibling, Sibling(tt.ref, "dbf"))
			assert.Equal(t, tt.stripped, StripShp(tt.ref))
			assert.Equal(t, tt.base, Basename(tt.ref))
			assert.Equal(t, tt.zip, IsZip(tt.ref))
		})
	}
}
