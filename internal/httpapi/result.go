package httpapi

// envelope is the wire shape every endpoint answers with: a stable
// machine-checkable status plus either a result or a data payload on
// success, or a human-readable message in result on error.
type envelope struct {
	Status string `json:"status"`
	Result any    `json:"result,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func ok(result any) envelope {
	return envelope{Status: "ok", Result: result}
}

func okData(data any) envelope {
	return envelope{Status: "ok", Data: data}
}

func fail(message string) envelope {
	return envelope{Status: "error", Result: message}
}
