package ir

// EngineVersion is the cartpilot pipeline version reported by the CLI.
const EngineVersion = "0.1.0"
