package repository

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"ProxyPull/internal/domain/models"
	"ProxyPull/internal/domain/repository"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk layout. Proxy fields keep the names used by the
// viewer dataset: type, ticker, fredSeries, polymarketSlug, newsQuery.
type catalogFile struct {
	Hosts []struct {
		ID    string `yaml:"id"`
		Name  string `yaml:"name"`
		Color string `yaml:"color"`
	} `yaml:"hosts"`
	Categories []struct {
		ID        string `yaml:"id"`
		Title     string `yaml:"title"`
		Timestamp string `yaml:"timestamp"`
	} `yaml:"categories"`
	Predictions []struct {
		ID         string      `yaml:"id"`
		HostID     string      `yaml:"hostId"`
		CategoryID string      `yaml:"categoryId"`
		Prediction string      `yaml:"prediction"`
		Rationale  string      `yaml:"rationale"`
		Proxies    []proxyFile `yaml:"proxies"`
	} `yaml:"predictions"`
}

type proxyFile struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	Type            string           `yaml:"type"`
	Ticker          string           `yaml:"ticker"`
	FredSeries      string           `yaml:"fredSeries"`
	FredTransform   string           `yaml:"fredTransform"`
	PolymarketSlug  string           `yaml:"polymarketSlug"`
	PolymarketTitle string           `yaml:"polymarketTitle"`
	PolymarketURL   string           `yaml:"polymarketUrl"`
	NewsQuery       string           `yaml:"newsQuery"`
	Unit            string           `yaml:"unit"`
	Description     string           `yaml:"description"`
	Baseline        *models.Baseline `yaml:"baseline"`
}

func (p proxyFile) source() (models.Source, error) {
	kind, err := models.ParseProxyKind(p.Type)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", p.Type, err)
	}
	var id string
	switch kind {
	case models.KindEquity, models.KindFund:
		id = p.Ticker
	case models.KindEconomic:
		id = p.FredSeries
	case models.KindMarket:
		id = p.PolymarketSlug
	case models.KindNews:
		id = p.NewsQuery
	}
	if strings.TrimSpace(id) == "" {
		return nil, models.ErrMissingIdentifier
	}
	if kind == models.KindMarket {
		return models.MarketSource{Slug: id, Title: p.PolymarketTitle, URL: p.PolymarketURL}, nil
	}
	return models.NewSource(kind, strings.TrimSpace(id), p.FredTransform)
}

// YAMLCatalogRepository serves a catalog loaded once at startup.
type YAMLCatalogRepository struct {
	catalog *models.Catalog
	proxies map[string]models.ProxyDescriptor
}

var _ repository.CatalogRepository = (*YAMLCatalogRepository)(nil)

// LoadCatalogFile reads and validates the catalog at path.
func LoadCatalogFile(path string) (*YAMLCatalogRepository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog validates data. Unknown proxy types, proxies without an
// identifier and duplicate proxy ids fail the whole load.
func ParseCatalog(data []byte) (*YAMLCatalogRepository, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &models.Catalog{
		Hosts:       make([]models.Host, 0, len(f.Hosts)),
		Categories:  make([]models.Category, 0, len(f.Categories)),
		Predictions: make([]models.Prediction, 0, len(f.Predictions)),
	}
	for _, h := range f.Hosts {
		c.Hosts = append(c.Hosts, models.Host{ID: h.ID, Name: h.Name, Color: h.Color})
	}
	for _, cat := range f.Categories {
		c.Categories = append(c.Categories, models.Category{ID: cat.ID, Title: cat.Title, Timestamp: cat.Timestamp})
	}

	var errs []error
	proxies := make(map[string]models.ProxyDescriptor)
	for _, p := range f.Predictions {
		pred := models.Prediction{
			ID:         p.ID,
			HostID:     p.HostID,
			CategoryID: p.CategoryID,
			Title:      p.Prediction,
			Rationale:  strings.TrimSpace(p.Rationale),
			Proxies:    make([]models.ProxyDescriptor, 0, len(p.Proxies)),
		}
		for _, pf := range p.Proxies {
			if pf.ID == "" {
				errs = append(errs, fmt.Errorf("prediction %s: proxy without id", p.ID))
				continue
			}
			if _, dup := proxies[pf.ID]; dup {
				errs = append(errs, fmt.Errorf("proxy %s: duplicate id", pf.ID))
				continue
			}
			src, err := pf.source()
			if err != nil {
				errs = append(errs, fmt.Errorf("proxy %s: %w", pf.ID, err))
				continue
			}
			d := models.ProxyDescriptor{
				ID:          pf.ID,
				Name:        pf.Name,
				Source:      src,
				Unit:        pf.Unit,
				Description: pf.Description,
				Baseline:    pf.Baseline,
			}
			proxies[d.ID] = d
			pred.Proxies = append(pred.Proxies, d)
		}
		c.Predictions = append(c.Predictions, pred)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &YAMLCatalogRepository{catalog: c, proxies: proxies}, nil
}

func (r *YAMLCatalogRepository) Catalog() *models.Catalog { return r.catalog }

func (r *YAMLCatalogRepository) FindProxy(id string) (models.ProxyDescriptor, bool) {
	d, ok := r.proxies[id]
	return d, ok
}
