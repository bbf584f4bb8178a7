package client

// statusEntry is one element of the /api/status response. Fields are
// pointers so that missing keys can be told apart from zero values.
type statusEntry struct {
	Endpoint    *string `json:"endpoint"`
	Version     *string `json:"version"`
	DBSize      *uint64 `json:"dbSize"`
	DBSizeInUse *uint64 `json:"dbSizeInUse"`
	Leader      *bool   `json:"leader"`
}

// errorBody is the failure payload returned by the dashboard server.
// Defragmentation failures also name the endpoint that failed.
type errorBody struct {
	Error    string `json:"error"`
	Endpoint string `json:"endpoint,omitempty"`
}
