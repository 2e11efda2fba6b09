// internal/analyzers/all/all.go
//
// Package all importa todos los analizadores por sus efectos de registro.
// El binario que lo importe tiene el catálogo completo disponible en el
// registry global.
package all

import (
	_ "rastro/internal/analyzers/ai"
	_ "rastro/internal/analyzers/darkweb"
	_ "rastro/internal/analyzers/discord"
	_ "rastro/internal/analyzers/docmeta"
	_ "rastro/internal/analyzers/domainintel"
	_ "rastro/internal/analyzers/emailintel"
	_ "rastro/internal/analyzers/exif"
	_ "rastro/internal/analyzers/geoip"
	_ "rastro/internal/analyzers/phone"
	_ "rastro/internal/analyzers/profiles"
	_ "rastro/internal/analyzers/reputation"
	_ "rastro/internal/analyzers/urlscan"
	_ "rastro/internal/analyzers/wallet"
)
