package preferences

import (
	"strconv"

	"github.com/webcamoid/akvirtualcamera-go/pkg/vcam"
)

// DeviceIDPrefix names every device ID this store allocates. A device ID is
// always the prefix followed by a decimal index.
const DeviceIDPrefix = "AkVCamVideoDevice"

// MaxDevices bounds CreateDeviceID's search space; there is no rule forcing
// this number, it just matches the reference device-ID scheme.
const MaxDevices = 64

const (
	DefaultLogLevel       = -1
	DefaultServicePort    = 37707
	DefaultServiceTimeout = 10
)

func cameraKey(index int, suffix string) string {
	return "cameras." + strconv.Itoa(index) + suffix
}

// CamerasCount returns the number of registered cameras.
func (s *Store) CamerasCount() int {
	return s.ReadInt("cameras", 0)
}

// CameraID returns the device ID stored at index, or "" if index is out of
// range.
func (s *Store) CameraID(index int) string {
	return s.ReadString(cameraKey(index, ".id"), "")
}

// IsDeviceIDTaken reports whether deviceID already names a registered
// camera.
func (s *Store) IsDeviceIDTaken(deviceID string) bool {
	return s.CameraFromID(deviceID) >= 0
}

// CreateDeviceID returns the first unused "<prefix><n>" ID in [0, MaxDevices),
// or "" if every slot is taken.
func (s *Store) CreateDeviceID() string {
	taken := make(map[string]bool, s.CamerasCount())
	for i := 0; i < s.CamerasCount(); i++ {
		taken[s.CameraID(i)] = true
	}

	for i := 0; i < MaxDevices; i++ {
		id := DeviceIDPrefix + strconv.Itoa(i)
		if !taken[id] {
			return id
		}
	}
	return ""
}

// CameraFromID returns the index of the camera registered under deviceID,
// or -1 if none matches.
func (s *Store) CameraFromID(deviceID string) int {
	for i := 0; i < s.CamerasCount(); i++ {
		if s.CameraID(i) == deviceID {
			return i
		}
	}
	return -1
}

// CameraExists reports whether deviceID names a registered camera.
func (s *Store) CameraExists(deviceID string) bool {
	return s.CameraFromID(deviceID) >= 0
}

// AddDevice registers a new camera entry with no formats, returning the
// assigned device ID. If deviceID is empty one is allocated; if it is
// non-empty and already taken, AddDevice fails and returns "".
func (s *Store) AddDevice(description, deviceID string) string {
	var id string
	switch {
	case deviceID == "":
		id = s.CreateDeviceID()
	case !s.IsDeviceIDTaken(deviceID):
		id = deviceID
	}
	if id == "" {
		return ""
	}

	index := s.CamerasCount()
	s.WriteInt("cameras", index+1)
	s.WriteString(cameraKey(index, ".description"), description)
	s.WriteString(cameraKey(index, ".id"), id)
	s.Sync()

	return id
}

// AddCamera registers a new camera with an allocated device ID and an
// initial format list.
func (s *Store) AddCamera(description string, formats []vcam.VideoFormat) string {
	return s.AddCameraWithID("", description, formats)
}

// AddCameraWithID is AddCamera with an explicit device ID. It fails (empty
// return) if deviceID is non-empty and already registered.
func (s *Store) AddCameraWithID(deviceID, description string, formats []vcam.VideoFormat) string {
	if deviceID != "" && s.CameraExists(deviceID) {
		return ""
	}

	id := deviceID
	if id == "" {
		id = s.CreateDeviceID()
		if id == "" {
			return ""
		}
	}

	index := s.CamerasCount()
	s.WriteInt("cameras", index+1)
	s.WriteString(cameraKey(index, ".description"), description)
	s.WriteString(cameraKey(index, ".id"), id)
	s.writeFormats(index, formats)
	s.Sync()

	return id
}

// RemoveCamera deletes the camera registered under deviceID and compacts
// the remaining entries so indices stay contiguous.
func (s *Store) RemoveCamera(deviceID string) bool {
	index := s.CameraFromID(deviceID)
	if index < 0 {
		return false
	}

	s.CameraSetFormats(index, nil)

	count := s.CamerasCount()
	s.DeleteAllKeys(cameraKey(index, "."))

	for i := index + 1; i < count; i++ {
		s.MoveAll(cameraKey(i, "."), cameraKey(i-1, "."))
	}

	if count > 1 {
		s.WriteInt("cameras", count-1)
	} else {
		s.DeleteKey("cameras")
	}
	s.Sync()

	return true
}

// CameraDescription returns the description stored for index.
func (s *Store) CameraDescription(index int) string {
	if index < 0 || index >= s.CamerasCount() {
		return ""
	}
	return s.ReadString(cameraKey(index, ".description"), "")
}

// CameraSetDescription updates the description for index.
func (s *Store) CameraSetDescription(index int, description string) bool {
	if index < 0 || index >= s.CamerasCount() {
		return false
	}
	s.WriteString(cameraKey(index, ".description"), description)
	s.Sync()
	return true
}

// FormatsCount returns how many formats index has registered.
func (s *Store) FormatsCount(index int) int {
	return s.ReadInt(cameraKey(index, ".formats"), 0)
}

// CameraFormat returns one format entry as stored. It is not validated
// here: a missing width or height reads as 0 and an unparsable fps as
// 0/1; CameraFormats skips entries that fail Valid().
func (s *Store) CameraFormat(index, formatIndex int) vcam.VideoFormat {
	prefix := cameraKey(index, ".formats."+strconv.Itoa(formatIndex))
	fourcc := vcam.FourCCFromString(s.ReadString(prefix+".format", ""))
	width := s.ReadInt(prefix+".width", 0)
	height := s.ReadInt(prefix+".height", 0)
	fps := vcam.ParseFraction(s.ReadString(prefix+".fps", ""))

	return vcam.NewVideoFormat(fourcc, width, height, []vcam.Fraction{fps})
}

// CameraFormats returns every valid format registered for index.
func (s *Store) CameraFormats(index int) []vcam.VideoFormat {
	formats := make([]vcam.VideoFormat, 0, s.FormatsCount(index))
	for i := 0; i < s.FormatsCount(index); i++ {
		f := s.CameraFormat(index, i)
		if f.Valid() {
			formats = append(formats, f)
		}
	}
	return formats
}

// CameraSetFormats replaces index's entire format list.
func (s *Store) CameraSetFormats(index int, formats []vcam.VideoFormat) bool {
	if index < 0 || index >= s.CamerasCount() {
		return false
	}
	s.writeFormats(index, formats)
	s.Sync()
	return true
}

// CameraAddFormat inserts format at position index within camera
// cameraIndex's format list; a negative or out-of-range position appends.
func (s *Store) CameraAddFormat(cameraIndex int, format vcam.VideoFormat, index int) bool {
	formats := s.CameraFormats(cameraIndex)
	if index < 0 || index > len(formats) {
		index = len(formats)
	}

	formats = append(formats, vcam.VideoFormat{})
	copy(formats[index+1:], formats[index:])
	formats[index] = format

	s.writeFormats(cameraIndex, formats)
	s.Sync()
	return true
}

// CameraRemoveFormat removes the format at position index from
// cameraIndex's format list.
func (s *Store) CameraRemoveFormat(cameraIndex, index int) bool {
	formats := s.CameraFormats(cameraIndex)
	if index < 0 || index >= len(formats) {
		return false
	}

	formats = append(formats[:index], formats[index+1:]...)
	s.writeFormats(cameraIndex, formats)
	s.Sync()
	return true
}

func (s *Store) writeFormats(index int, formats []vcam.VideoFormat) {
	s.WriteInt(cameraKey(index, ".formats"), len(formats))
	for i, format := range formats {
		prefix := cameraKey(index, ".formats."+strconv.Itoa(i))
		s.WriteString(prefix+".format", format.FourCC.String())
		s.WriteInt(prefix+".width", format.Width)
		s.WriteInt(prefix+".height", format.Height)
		s.WriteString(prefix+".fps", format.MinimumFrameRate().String())
	}
}

// CameraControlValue reads one control's current value for cameraIndex.
func (s *Store) CameraControlValue(cameraIndex int, key string) int {
	return s.ReadInt(cameraKey(cameraIndex, ".controls."+key), 0)
}

// CameraSetControlValue sets one control's value for cameraIndex.
func (s *Store) CameraSetControlValue(cameraIndex int, key string, value int) bool {
	s.WriteInt(cameraKey(cameraIndex, ".controls."+key), value)
	s.Sync()
	return true
}

// Picture returns the configured placeholder picture path.
func (s *Store) Picture() string {
	return s.ReadString("picture", "")
}

// SetPicture updates the placeholder picture path.
func (s *Store) SetPicture(picture string) bool {
	s.WriteString("picture", picture)
	s.Sync()
	return true
}

// LogLevel returns the configured log level.
func (s *Store) LogLevel() int {
	return s.ReadInt("loglevel", DefaultLogLevel)
}

// SetLogLevel updates the configured log level.
func (s *Store) SetLogLevel(level int) bool {
	s.WriteInt("loglevel", level)
	s.Sync()
	return true
}

// ServicePort returns the configured broker port.
func (s *Store) ServicePort() int {
	return s.ReadInt("servicePort", DefaultServicePort)
}

// SetServicePort updates the configured broker port.
func (s *Store) SetServicePort(port int) bool {
	s.WriteInt("servicePort", port)
	s.Sync()
	return true
}

// ServiceTimeout returns, in seconds, how long a bridge waits for the
// broker to come up before giving up.
func (s *Store) ServiceTimeout() int {
	return s.ReadInt("serviceTimeout", DefaultServiceTimeout)
}

// SetServiceTimeout updates the configured service-launch timeout.
func (s *Store) SetServiceTimeout(seconds int) bool {
	s.WriteInt("serviceTimeout", seconds)
	s.Sync()
	return true
}
