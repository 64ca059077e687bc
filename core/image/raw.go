package image

import (
	"github.com/ankit-chaubey/picscrub/core"
	"github.com/ankit-chaubey/picscrub/core/container"
)

// cleanRaw keeps only the camera's embedded JPEG preview and cleans that.
// Sensor data and every maker note go with the container.
func cleanRaw(data []byte, opts core.Options, rm *removed) ([]byte, error) {
	preview := container.EmbeddedJPEG(data)
	if preview == nil {
		return nil, core.ErrNoPreview
	}
	noteEXIF(data, rm)
	rm.add(catRawData)
	return cleanJPEG(preview, opts, rm)
}
