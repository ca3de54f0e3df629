package toolbox

// Result is the uniform envelope returned by tool invocations and by the
// fallback layer built on top of them. Success implies an empty Error; Data
// may still be nil on success (for example a cache miss).
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	// Source tags provenance ("toolbox", "tavily", "mock", "local") and is
	// informational only.
	Source  string `json:"source,omitempty"`
	Storage string `json:"storage,omitempty"`
	Message string `json:"message,omitempty"`
}

// Ok reports success with a non-nil payload. A successful envelope with nil
// data is how the cache tools express a miss.
func (r Result) Ok() bool {
	return r.Success && r.Data != nil
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}
