// internal/analyzers/docmeta/docmeta.go
package docmeta

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"docmeta",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "docmeta",
			Description:  "Author and revision metadata from Office documents (docx/xlsx/pptx)",
			Types:        []domain.EntityType{domain.EntityTypeDocument},
			RequiresAuth: false,
			RateLimit:    0, // lectura local
		},
	); err != nil {
		logx.New().Warn("failed to register docmeta analyzer", "error", err.Error())
	}
}

// DocMeta extrae los metadatos de autoría de documentos OOXML, que son un
// zip con las propiedades en docProps/core.xml y docProps/app.xml.
type DocMeta struct {
	logger logx.Logger
}

// New crea una instancia del analizador docmeta.
func New(logger logx.Logger) ports.Analyzer {
	return &DocMeta{logger: logger.With("analyzer", "docmeta")}
}

// Name retorna el nombre del analizador.
func (d *DocMeta) Name() string { return "docmeta" }

// Types retorna los tipos de entidad soportados.
func (d *DocMeta) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeDocument}
}

// Analyze abre el documento como zip y parsea sus propiedades.
func (d *DocMeta) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(value)), ".")

	zr, err := zip.OpenReader(value)
	if err != nil {
		return ports.Fail(fmt.Sprintf("not an OOXML document: %v", err)), nil
	}
	defer zr.Close()

	info := &intel.DocumentInfo{Path: value, Format: ext}
	if err := readProperties(&zr.Reader, info); err != nil {
		return ports.Fail(fmt.Sprintf("document has no readable properties: %v", err)), nil
	}

	d.logger.Debug("document analyzed", "path", value, "author", info.Author)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (d *DocMeta) Close() error { return nil }

// coreProperties es docProps/core.xml (Dublin Core).
type coreProperties struct {
	Title          string `xml:"title"`
	Creator        string `xml:"creator"`
	LastModifiedBy string `xml:"lastModifiedBy"`
	Created        string `xml:"created"`
	Modified       string `xml:"modified"`
}

// appProperties es docProps/app.xml (propiedades extendidas).
type appProperties struct {
	Company string `xml:"Company"`
}

func readProperties(zr *zip.Reader, info *intel.DocumentInfo) error {
	foundCore := false
	for _, f := range zr.File {
		switch f.Name {
		case "docProps/core.xml":
			var core coreProperties
			if err := decodeXML(f, &core); err != nil {
				return err
			}
			info.Title = core.Title
			info.Author = core.Creator
			info.LastEditedBy = core.LastModifiedBy
			info.Created = core.Created
			info.Modified = core.Modified
			foundCore = true
		case "docProps/app.xml":
			var app appProperties
			if decodeXML(f, &app) == nil {
				info.Company = app.Company
			}
		}
	}
	if !foundCore {
		return fmt.Errorf("docProps/core.xml missing")
	}
	return nil
}

func decodeXML(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
	if err != nil {
		return err
	}
	return xml.Unmarshal(data, v)
}
