// internal/analyzers/exif/exif.go
package exif

import (
	"context"
	"fmt"

	exiflib "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"rastro/internal/core/domain"
	"rastro/internal/core/domain/intel"
	"rastro/internal/core/ports"
	"rastro/internal/platform/logx"
	"rastro/internal/platform/registry"
)

// Auto-registro del analizador al importar el package.
func init() {
	if err := registry.Global().Register(
		"exif",
		func(cfg ports.AnalyzerConfig, deps registry.Deps) (ports.Analyzer, error) {
			return New(deps.Logger), nil
		},
		ports.AnalyzerMetadata{
			Name:         "exif",
			Description:  "EXIF extraction from local image files: camera, software, GPS",
			Types:        []domain.EntityType{domain.EntityTypeImage},
			RequiresAuth: false,
			RateLimit:    0, // lectura local
		},
	); err != nil {
		logx.New().Warn("failed to register exif analyzer", "error", err.Error())
	}
}

// Exif extrae metadatos EXIF de ficheros de imagen locales. El valor de la
// entidad es la ruta del fichero adjuntado como artifact.
type Exif struct {
	logger logx.Logger
}

// New crea una instancia del analizador exif.
func New(logger logx.Logger) ports.Analyzer {
	return &Exif{logger: logger.With("analyzer", "exif")}
}

// Name retorna el nombre del analizador.
func (e *Exif) Name() string { return "exif" }

// Types retorna los tipos de entidad soportados.
func (e *Exif) Types() []domain.EntityType {
	return []domain.EntityType{domain.EntityTypeImage}
}

// Analyze lee el bloque EXIF del fichero. Una imagen sin EXIF es un
// hallazgo vacío, no un fallo.
func (e *Exif) Analyze(ctx context.Context, value string) (*ports.Finding, error) {
	info := &intel.ImageInfo{Source: value}

	rawExif, err := exiflib.SearchFileAndExtractExif(value)
	if err != nil {
		if err == exiflib.ErrNoExif {
			return ports.OK(info), nil
		}
		return ports.Fail(fmt.Sprintf("cannot read image: %v", err)), err
	}

	entries, _, err := exiflib.GetFlatExifData(rawExif, nil)
	if err != nil {
		return ports.Fail(fmt.Sprintf("cannot parse exif block: %v", err)), err
	}

	for _, entry := range entries {
		switch entry.TagName {
		case "Make":
			info.CameraMake = entry.FormattedFirst
		case "Model":
			info.CameraModel = entry.FormattedFirst
		case "Software":
			info.Software = entry.FormattedFirst
		case "DateTimeOriginal":
			info.TakenAt = entry.FormattedFirst
		}
	}

	e.extractGPS(rawExif, info)

	e.logger.Debug("image analyzed",
		"path", value,
		"camera", info.CameraModel,
		"gps", info.HasGPS,
	)
	return ports.OK(info), nil
}

// Close implementa ports.Analyzer.
func (e *Exif) Close() error { return nil }

// extractGPS convierte las coordenadas sexagesimales del IFD GPS a grados
// decimales. Best-effort: muchos móviles escriben bloques GPS corruptos.
func (e *Exif) extractGPS(rawExif []byte, info *intel.ImageInfo) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return
	}
	ti := exiflib.NewTagIndex()

	_, index, err := exiflib.Collect(im, ti, rawExif)
	if err != nil {
		return
	}

	ifd, err := exiflib.FindIfdFromRootIfd(index.RootIfd, "IFD/GPSInfo")
	if err != nil {
		return
	}

	gi, err := ifd.GpsInfo()
	if err != nil {
		return
	}

	info.HasGPS = true
	info.Latitude = gi.Latitude.Decimal()
	info.Longitude = gi.Longitude.Decimal()
}
