package refdata

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/parkstone-group/sitescore-cli/internal/config"
	"github.com/parkstone-group/sitescore-cli/internal/geospatial"
	"github.com/parkstone-group/sitescore-cli/internal/model"
)

// Catalog holds every reference dataset the evaluation pipeline needs,
// loaded once before the first site is screened.
type Catalog struct {
	Designations []model.Designation
	Projects     []model.CompetingProject
	Amenities    []model.Amenity
	Counties     *CountyMap
	Rents        *RentTable
	Parcels      map[string]*geospatial.Parcel
}

// DatasetInfo summarizes one loaded dataset for status output.
type DatasetInfo struct {
	Name   string
	Path   string
	Rows   int
	Digest string
}

// Load reads all configured datasets. Any failure makes the whole catalog
// unavailable; callers must treat the returned error as fatal rather than
// screening sites against partial reference data.
func Load(cfg config.DatasetsConfig) (*Catalog, error) {
	c := &Catalog{}

	var err error
	c.Designations, err = LoadDesignations(resolvePath(cfg.Dir, cfg.Designations), cfg.Encoding)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: designations: %v", err)
	}
	c.Projects, err = LoadProjects(resolvePath(cfg.Dir, cfg.Projects), cfg.Encoding)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: projects: %v", err)
	}
	c.Amenities, err = LoadAmenities(resolvePath(cfg.Dir, cfg.Amenities), cfg.Encoding)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: amenities: %v", err)
	}
	c.Counties, err = LoadCountyMap(resolvePath(cfg.Dir, cfg.Counties))
	if err != nil {
		return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: counties: %v", err)
	}
	c.Rents, err = LoadRents(resolvePath(cfg.Dir, cfg.Rents), cfg.Encoding)
	if err != nil {
		return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: rents: %v", err)
	}

	if cfg.Parcels != "" {
		c.Parcels, err = LoadParcels(resolvePath(cfg.Dir, cfg.Parcels))
		if err != nil {
			return nil, eris.Wrapf(model.ErrDataSourceUnavailable, "refdata: parcels: %v", err)
		}
	}

	zap.L().Info("refdata: datasets loaded",
		zap.Int("designations", len(c.Designations)),
		zap.Int("projects", len(c.Projects)),
		zap.Int("amenities", len(c.Amenities)),
		zap.Int("counties", c.Counties.Len()),
		zap.Int("rents", c.Rents.Len()),
		zap.Int("parcels", len(c.Parcels)))

	return c, nil
}

// Summary reports per-dataset row counts and file digests in a fixed order.
func (c *Catalog) Summary(cfg config.DatasetsConfig) []DatasetInfo {
	out := []DatasetInfo{
		{Name: "designations", Path: resolvePath(cfg.Dir, cfg.Designations), Rows: len(c.Designations)},
		{Name: "projects", Path: resolvePath(cfg.Dir, cfg.Projects), Rows: len(c.Projects)},
		{Name: "amenities", Path: resolvePath(cfg.Dir, cfg.Amenities), Rows: len(c.Amenities)},
		{Name: "counties", Path: resolvePath(cfg.Dir, cfg.Counties), Rows: c.Counties.Len()},
		{Name: "rents", Path: resolvePath(cfg.Dir, cfg.Rents), Rows: c.Rents.Len()},
	}
	if cfg.Parcels != "" {
		out = append(out, DatasetInfo{Name: "parcels", Path: resolvePath(cfg.Dir, cfg.Parcels), Rows: len(c.Parcels)})
	}
	for i := range out {
		out[i].Digest = fileDigest(out[i].Path)
	}
	return out
}

// Fingerprint returns a single digest over every dataset file, stored with
// each run so results can be traced to the exact reference data that
// produced them.
func (c *Catalog) Fingerprint(cfg config.DatasetsConfig) string {
	var parts []string
	for _, d := range c.Summary(cfg) {
		parts = append(parts, d.Name+":"+d.Digest)
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return fmt.Sprintf("%x", h[:16])
}

// fileDigest hashes a dataset file's contents. Unreadable files hash to the
// empty string rather than failing; the catalog load already surfaced any
// real problem.
func fileDigest(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}

// Parcel returns the boundary polygon for a site, when one was loaded.
func (c *Catalog) Parcel(siteID string) (*geospatial.Parcel, bool) {
	p, ok := c.Parcels[siteID]
	return p, ok
}

func resolvePath(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
