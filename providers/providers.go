// Package providers registers every built-in provider with the default registry. Import it for side
// effects:
//
//	import _ "github.com/alanbriolat/media-archiver/providers"
package providers

import (
	_ "github.com/alanbriolat/media-archiver/provider/soundcloud"
	_ "github.com/alanbriolat/media-archiver/provider/zdf"
)
