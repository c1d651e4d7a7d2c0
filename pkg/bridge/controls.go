package bridge

import "github.com/webcamoid/akvirtualcamera-go/pkg/vcam"

// standardControls is the fixed set of per-device controls every virtual
// camera exposes, independent of format or backend.
var standardControls = []vcam.ControlDescriptor{
	{ID: "hflip", Min: 0, Max: 1, Step: 1, Default: 0},
	{ID: "vflip", Min: 0, Max: 1, Step: 1, Default: 0},
	{ID: "scaling", Min: 0, Max: 1, Step: 1, Default: 0},
	{ID: "aspect_ratio", Min: 0, Max: 2, Step: 1, Default: 0},
	{ID: "swap_rgb", Min: 0, Max: 1, Step: 1, Default: 0},
}
