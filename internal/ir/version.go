package ir

const (
	// IRVersion is the journal record schema version.
	IRVersion = "1"

	// EngineVersion is stamped on every journaled invocation.
	EngineVersion = "0.1.0"
)
