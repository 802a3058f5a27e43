package api

// EngineVersion identifies the engine build in response headers and health
// payloads. Bump when the deterministic outputs change: a version bump
// signals that previously reported cache layouts may differ.
const EngineVersion = "1.0.0"
