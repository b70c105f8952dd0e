package ir

// Version constants for the persisted layout and the store.
const (
	// SerialVersion is the version of the persisted element framing.
	SerialVersion = 1

	// EngineVersion is the shadestore version.
	EngineVersion = "0.1.0"
)
